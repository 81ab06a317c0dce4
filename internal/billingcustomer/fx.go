package billingcustomer

import (
	"github.com/smallbiznis/inkpost/internal/billingcustomer/repository"
	"github.com/smallbiznis/inkpost/internal/billingcustomer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billingcustomer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
