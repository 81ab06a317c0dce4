package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type CreateRequest struct {
	PlanID          string `json:"plan_id"`
	PaymentMethodID string `json:"payment_method_id"`
}

type UpdateRequest struct {
	SubscriptionID  string `json:"subscription_id"`
	PlanID          string `json:"plan_id"`
	PaymentMethodID string `json:"payment_method_id"`
}

type LifecycleRequest struct {
	SubscriptionID string `json:"subscription_id"`
}

//go:generate mockgen -source=service.go -destination=../mocks/mock_service.go -package=mocks
type Service interface {
	Create(ctx context.Context, accountID snowflake.ID, req CreateRequest) (*Subscription, error)
	Update(ctx context.Context, accountID snowflake.ID, req UpdateRequest) (*Subscription, error)
	Cancel(ctx context.Context, accountID snowflake.ID, req LifecycleRequest) (*Subscription, error)
	Resume(ctx context.Context, accountID snowflake.ID, req LifecycleRequest) (*Subscription, error)
	Retrieve(ctx context.Context, subscriptionID string) (*View, error)
	List(ctx context.Context, accountID snowflake.ID) ([]Subscription, error)
}
