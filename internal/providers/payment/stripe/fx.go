package stripe

import (
	"github.com/smallbiznis/inkpost/internal/config"
	"github.com/smallbiznis/inkpost/internal/providers/payment"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.payment.stripe",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) payment.Provider {
	if cfg.Stripe.SecretKey == "" {
		log.Warn("stripe secret key not configured, billing routes will fail")
	}
	return New(Config{SecretKey: cfg.Stripe.SecretKey, APIBase: cfg.Stripe.APIBase}, log)
}
