package resettoken

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/inkpost/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("account.resettoken",
	fx.Provide(New),
)

type Params struct {
	fx.In

	Redis *redis.Client `optional:"true"`
	Clock clock.Clock
	Log   *zap.Logger
}

func New(p Params) Store {
	if p.Redis == nil {
		p.Log.Warn("password reset tokens kept in memory; they do not survive restarts")
		return NewMemoryStore(p.Clock)
	}
	return NewRedisStore(p.Redis)
}
