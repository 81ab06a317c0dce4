package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// BillingCustomer links an account to its customer at the payment provider.
type BillingCustomer struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	AccountID        snowflake.ID `gorm:"column:account_id;not null;uniqueIndex:ux_billing_customers_account_id" json:"user"`
	StripeCustomerID string       `gorm:"column:stripe_customer_id;size:255;not null;uniqueIndex:ux_billing_customers_stripe_customer_id" json:"stripe_customer_id"`
	CreatedAt        time.Time    `gorm:"not null" json:"created_at"`
}

func (BillingCustomer) TableName() string { return "billing_customers" }
