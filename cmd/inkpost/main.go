package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/inkpost/internal/account"
	"github.com/smallbiznis/inkpost/internal/auth"
	"github.com/smallbiznis/inkpost/internal/billingcustomer"
	"github.com/smallbiznis/inkpost/internal/cache"
	"github.com/smallbiznis/inkpost/internal/clock"
	"github.com/smallbiznis/inkpost/internal/config"
	"github.com/smallbiznis/inkpost/internal/migration"
	"github.com/smallbiznis/inkpost/internal/observability"
	"github.com/smallbiznis/inkpost/internal/post"
	"github.com/smallbiznis/inkpost/internal/providers"
	"github.com/smallbiznis/inkpost/internal/ratelimit"
	"github.com/smallbiznis/inkpost/internal/server"
	"github.com/smallbiznis/inkpost/internal/subscription"
	"github.com/smallbiznis/inkpost/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		cache.Module,

		providers.Module,
		ratelimit.Module,
		account.Module,
		auth.Module,
		post.Module,
		billingcustomer.Module,
		subscription.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
