// Package domain contains the local mirror of provider subscriptions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	StatusCanceled = "canceled"

	// MetadataPreviousIDs lists remote ids replaced by Resume, oldest first.
	MetadataPreviousIDs = "previous_subscription_ids"
)

// Subscription mirrors a remote subscription. Status is a cache of the
// provider's value, refreshed only by the calls that touch the row.
type Subscription struct {
	ID                   snowflake.ID      `gorm:"primaryKey" json:"id"`
	CustomerID           snowflake.ID      `gorm:"column:customer_id;not null;index:idx_subscriptions_customer_id" json:"customer"`
	StripeSubscriptionID string            `gorm:"column:stripe_subscription_id;size:255;not null;uniqueIndex:ux_subscriptions_stripe_subscription_id" json:"stripe_subscription_id"`
	Status               string            `gorm:"size:50;not null" json:"status"`
	Plan                 string            `gorm:"size:100;not null" json:"plan"`
	Metadata             datatypes.JSONMap `gorm:"not null" json:"-"`
	CreatedAt            time.Time         `gorm:"not null" json:"created_at"`
	CurrentPeriodEnd     time.Time         `gorm:"not null" json:"current_period_end"`
	UpdatedAt            time.Time         `gorm:"not null" json:"-"`
}

func (Subscription) TableName() string { return "subscriptions" }

// View is the read-through shape returned by Retrieve.
type View struct {
	ID                 string    `json:"id"`
	Status             string    `json:"status"`
	Customer           string    `json:"customer"`
	PlanID             string    `json:"plan_id"`
	PlanName           string    `json:"plan_name"`
	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`
	CancelAtPeriodEnd  bool      `json:"cancel_at_period_end"`
}
