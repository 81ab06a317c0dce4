package account

import (
	"github.com/smallbiznis/inkpost/internal/account/repository"
	"github.com/smallbiznis/inkpost/internal/account/resettoken"
	"github.com/smallbiznis/inkpost/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	resettoken.Module,
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
