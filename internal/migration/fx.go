package migration

import (
	accountdomain "github.com/smallbiznis/inkpost/internal/account/domain"
	billingcustomerdomain "github.com/smallbiznis/inkpost/internal/billingcustomer/domain"
	"github.com/smallbiznis/inkpost/internal/config"
	postdomain "github.com/smallbiznis/inkpost/internal/post/domain"
	subscriptiondomain "github.com/smallbiznis/inkpost/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if cfg.DBType != "postgres" {
			log.Info("running auto migration", zap.String("type", cfg.DBType))
			return AutoMigrate(conn)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)

// AutoMigrate creates the schema from the domain models for dialects without
// SQL migrations (sqlite, mysql) and for tests.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&accountdomain.Account{},
		&postdomain.Post{},
		&billingcustomerdomain.BillingCustomer{},
		&subscriptiondomain.Subscription{},
	)
}
