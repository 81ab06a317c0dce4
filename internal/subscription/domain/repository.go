package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByRemoteID(ctx context.Context, db *gorm.DB, customerID snowflake.ID, remoteID string) (*Subscription, error)
	ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]*Subscription, error)
	Update(ctx context.Context, db *gorm.DB, subscription *Subscription) error
}
