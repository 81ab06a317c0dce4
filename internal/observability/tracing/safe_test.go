package tracing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesKeepsAllowlist(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/posts/:id/"),
		attribute.String("user.email", "a@x.com"),
		attribute.Int("http.status_code", 200),
	)
	assert.Len(t, attrs, 2)
	for _, attr := range attrs {
		assert.NotEqual(t, attribute.Key("user.email"), attr.Key)
	}
}

func TestSafeErrorHidesMessage(t *testing.T) {
	assert.Nil(t, SafeError(nil))
	err := SafeError(errors.New("Your card was declined."))
	assert.EqualError(t, err, "request failed")
}

func TestNormalizeRatio(t *testing.T) {
	assert.Equal(t, 0.0, normalizeRatio(-1))
	assert.Equal(t, 1.0, normalizeRatio(3))
	assert.Equal(t, 0.25, normalizeRatio(0.25))
}
