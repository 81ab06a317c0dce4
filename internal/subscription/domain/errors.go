package domain

import "errors"

var (
	ErrCustomerNotFound      = errors.New("customer_not_found")
	ErrSubscriptionNotFound  = errors.New("subscription_not_found")
	ErrNoSubscriptions       = errors.New("no_subscriptions_found")
	ErrInvalidPlan           = errors.New("invalid_plan")
	ErrInvalidSubscriptionID = errors.New("invalid_subscription_id")
	ErrInvalidState          = errors.New("invalid_state")
	ErrInvalidItems          = errors.New("invalid_items")
)
