package payment

import (
	"context"
	"errors"
	"time"
)

var ErrNotConfigured = errors.New("payment_provider_not_configured")

// ProviderError carries the upstream failure message unchanged.
type ProviderError struct {
	Operation  string
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func IsProviderError(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr)
}

type Customer struct {
	ID    string
	Email string
	Name  string
}

type SubscriptionItem struct {
	ID      string
	PriceID string
}

type Subscription struct {
	ID                 string
	CustomerID         string
	Status             string
	Items              []SubscriptionItem
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
}

// PlanID returns the price of the first item, or "" when there are none.
func (s *Subscription) PlanID() string {
	if s == nil || len(s.Items) == 0 {
		return ""
	}
	return s.Items[0].PriceID
}

type PaymentMethod struct {
	ID     string
	Type   string
	Status string
}

type CreateSubscriptionInput struct {
	CustomerID     string
	PriceID        string
	IdempotencyKey string
}

//go:generate mockgen -source=provider.go -destination=./mocks/mock_provider.go -package=mocks
type Provider interface {
	CreateCustomer(ctx context.Context, email, name string) (*Customer, error)
	AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	CreateSubscription(ctx context.Context, input CreateSubscriptionInput) (*Subscription, error)
	RetrieveSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	UpdateSubscriptionItem(ctx context.Context, subscriptionID, itemID, priceID string) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	CreateTestPaymentMethod(ctx context.Context) (*PaymentMethod, error)
}
