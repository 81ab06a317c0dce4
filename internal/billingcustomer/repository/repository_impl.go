package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/inkpost/internal/billingcustomer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.BillingCustomer) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO billing_customers (id, account_id, stripe_customer_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		customer.ID,
		customer.AccountID,
		customer.StripeCustomerID,
		customer.CreatedAt,
	).Error
}

func (r *repo) FindByAccountID(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*domain.BillingCustomer, error) {
	var customer domain.BillingCustomer
	err := db.WithContext(ctx).Raw(
		`SELECT id, account_id, stripe_customer_id, created_at
		 FROM billing_customers WHERE account_id = ?`,
		accountID,
	).Scan(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, nil
	}
	return &customer, nil
}
