package server

import (
	"math"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/inkpost/internal/observability/context"
	"github.com/smallbiznis/inkpost/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	contextAccountIDKey = "account_id"
	bearerPrefix        = "bearer "
)

// AuthRequired accepts only access tokens from the Authorization header.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(raw) <= len(bearerPrefix) || !strings.EqualFold(raw[:len(bearerPrefix)], bearerPrefix) {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		principal, err := s.authsvc.Authenticate(c.Request.Context(), strings.TrimSpace(raw[len(bearerPrefix):]))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		accountID := principal.AccountID.String()
		c.Set(contextAccountIDKey, accountID)
		c.Request = c.Request.WithContext(obscontext.WithActorID(c.Request.Context(), accountID))
		c.Next()
	}
}

// RateLimit throttles the route per client IP under scope.
func (s *Server) RateLimit(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.authLimiter.Enabled() {
			c.Next()
			return
		}

		decision := s.authLimiter.Allow(c.Request.Context(), scope, c.ClientIP())
		if !decision.Allowed {
			logger.FromContext(c.Request.Context()).Warn("rate limit exceeded",
				zap.String("scope", scope),
				zap.String("route", c.FullPath()),
			)
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(decision.RetryAfter.Seconds()))))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

func accountIDFromContext(c *gin.Context) (snowflake.ID, bool) {
	raw := strings.TrimSpace(c.GetString(contextAccountIDKey))
	if raw == "" {
		return 0, false
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// requireAccountID aborts with 401 when the bearer middleware did not run.
func requireAccountID(c *gin.Context) (snowflake.ID, bool) {
	id, ok := accountIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
	}
	return id, ok
}
