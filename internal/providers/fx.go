package providers

import (
	"github.com/smallbiznis/inkpost/internal/providers/email"
	"github.com/smallbiznis/inkpost/internal/providers/payment/stripe"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	stripe.Module,
)
