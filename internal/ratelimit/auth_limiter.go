package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/inkpost/internal/config"
	obsmetrics "github.com/smallbiznis/inkpost/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	ScopeLogin         = "login"
	ScopePasswordReset = "password_reset"

	keyAuthBucket = "inkpost:ratelimit:%s:%s"
)

var ErrRateLimited = errors.New("rate_limited")

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type AuthLimiterParams struct {
	fx.In

	Config  config.Config
	Redis   *redis.Client       `optional:"true"`
	Metrics *obsmetrics.Metrics `optional:"true"`
	Log     *zap.Logger
}

// AuthLimiter throttles unauthenticated credential endpoints per client.
type AuthLimiter struct {
	bucket  Bucket
	rate    float64
	burst   int
	metrics *obsmetrics.Metrics
	log     *zap.Logger
}

// Bucket is the token source behind AuthLimiter. TokenBucket implements it.
type Bucket interface {
	Allow(ctx context.Context, key string, rate float64, burst int) (*RateLimitResult, error)
}

func NewAuthLimiter(p AuthLimiterParams) (*AuthLimiter, error) {
	log := p.Log.Named("ratelimit")
	cfg := p.Config.RateLimit
	if !cfg.Enabled {
		log.Info("auth rate limiting disabled")
		return nil, nil
	}
	if p.Redis == nil {
		log.Warn("auth rate limiting requires redis, limiter disabled")
		return nil, nil
	}
	if cfg.AuthRate <= 0 || cfg.AuthBurst <= 0 {
		return nil, errors.New("auth rate limit must be positive")
	}
	return NewAuthLimiterFromBucket(NewTokenBucket(p.Redis), cfg.AuthRate, cfg.AuthBurst, p.Metrics, log), nil
}

func NewAuthLimiterFromBucket(b Bucket, rate float64, burst int, metrics *obsmetrics.Metrics, log *zap.Logger) *AuthLimiter {
	return &AuthLimiter{
		bucket:  b,
		rate:    rate,
		burst:   burst,
		metrics: metrics,
		log:     log,
	}
}

func (l *AuthLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow takes one token for key within scope. Backend errors fail open.
func (l *AuthLimiter) Allow(ctx context.Context, scope, key string) Decision {
	if !l.Enabled() {
		return Decision{Allowed: true}
	}

	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}

	res, err := l.bucket.Allow(ctx, fmt.Sprintf(keyAuthBucket, scope, key), l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limit check failed, allowing request",
			zap.String("scope", scope),
			zap.Error(err),
		)
		l.metrics.RecordRateLimitAllowed(ctx, scope)
		return Decision{Allowed: true}
	}
	if !res.Allowed {
		l.metrics.RecordRateLimitDenied(ctx, scope, "rate")
		retry := res.RetryAfter
		if retry < time.Second {
			retry = time.Second
		}
		return Decision{Allowed: false, RetryAfter: retry}
	}

	l.metrics.RecordRateLimitAllowed(ctx, scope)
	return Decision{Allowed: true}
}
