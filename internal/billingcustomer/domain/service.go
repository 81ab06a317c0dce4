package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// CreateForAccount registers the account with the payment provider and
	// stores the mapping. Each account gets at most one customer.
	CreateForAccount(ctx context.Context, accountID snowflake.ID) (*BillingCustomer, error)
	GetByAccount(ctx context.Context, accountID snowflake.ID) (*BillingCustomer, error)
}
