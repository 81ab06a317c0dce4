package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

//go:generate mockgen -source=repository.go -destination=../mocks/mock_repository.go -package=mocks
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *BillingCustomer) error
	FindByAccountID(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*BillingCustomer, error)
}
