package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGinMiddlewareCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m, err := NewHTTPMetricsWith(reg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/posts/:id/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/posts/1/", "/posts/2/"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	count := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/posts/:id/", "200"))
	assert.Equal(t, 2.0, count)
}

func TestNewHTTPMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewHTTPMetricsWith(reg)
	require.NoError(t, err)
	second, err := NewHTTPMetricsWith(reg)
	require.NoError(t, err)
	assert.Same(t, first.requests, second.requests)
}
