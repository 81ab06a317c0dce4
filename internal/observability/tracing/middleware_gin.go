package tracing

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/inkpost/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "inkpost/http"

// GinMiddleware opens a server span per request. The span is named after the
// matched route and carries the route area and, on authenticated routes, the
// account id set by the auth middleware.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer(tracerName)
	return func(c *gin.Context) {
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		span.SetName(c.Request.Method + " " + route)
		span.SetAttributes(SafeAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
			attribute.String("inkpost.area", RouteArea(route)),
		)...)

		// c.Request now carries whatever the handler chain attached.
		if accountID := obscontext.ActorIDFromContext(c.Request.Context()); accountID != "" {
			span.SetAttributes(attribute.String("enduser.id", accountID))
		}

		if status >= http.StatusInternalServerError {
			if last := c.Errors.Last(); last != nil {
				span.RecordError(SafeError(last.Err))
			}
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

// RouteArea groups routes into the parts of the API they belong to.
func RouteArea(route string) string {
	switch {
	case route == "/health" || route == "/metrics":
		return "ops"
	case strings.HasPrefix(route, "/subscription/"),
		route == "/list/subscriptions/",
		route == "/register/customer/",
		route == "/create_payment_method/":
		return "billing"
	case strings.HasPrefix(route, "/post"), strings.HasPrefix(route, "/author/"):
		return "posts"
	case strings.HasPrefix(route, "/api/token/"),
		route == "/login/",
		route == "/register/",
		strings.HasPrefix(route, "/password_reset"):
		return "auth"
	case route == "/all_users/", route == "/loggedin_user/":
		return "accounts"
	default:
		return "other"
	}
}
