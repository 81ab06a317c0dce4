package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	billingcustomerdomain "github.com/smallbiznis/inkpost/internal/billingcustomer/domain"
	"github.com/smallbiznis/inkpost/internal/clock"
	"github.com/smallbiznis/inkpost/internal/config"
	"github.com/smallbiznis/inkpost/internal/observability/metrics"
	"github.com/smallbiznis/inkpost/internal/providers/payment"
	"github.com/smallbiznis/inkpost/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Customers billingcustomerdomain.Service
	Payments  payment.Provider
	Plans     *config.PlanCatalogHolder
	Clock     clock.Clock
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	customers billingcustomerdomain.Service
	payments  payment.Provider
	plans     *config.PlanCatalogHolder
	clock     clock.Clock
	metrics   *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("subscription.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		customers: p.Customers,
		payments:  p.Payments,
		plans:     p.Plans,
		clock:     p.Clock,
		metrics:   p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, accountID snowflake.ID, req domain.CreateRequest) (*domain.Subscription, error) {
	customer, err := s.resolveCustomer(ctx, accountID)
	if err != nil {
		return nil, err
	}

	planID := strings.TrimSpace(req.PlanID)
	if planID == "" {
		return nil, domain.ErrInvalidPlan
	}

	if err := s.attachPaymentMethod(ctx, customer.StripeCustomerID, req.PaymentMethodID); err != nil {
		return nil, err
	}

	id := s.genID.Generate()
	remote, err := s.payments.CreateSubscription(ctx, payment.CreateSubscriptionInput{
		CustomerID:     customer.StripeCustomerID,
		PriceID:        planID,
		IdempotencyKey: "subscription:create:" + id.String(),
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	subscription := &domain.Subscription{
		ID:                   id,
		CustomerID:           customer.ID,
		StripeSubscriptionID: remote.ID,
		Status:               remote.Status,
		Plan:                 planID,
		Metadata:             datatypes.JSONMap{},
		CreatedAt:            now,
		CurrentPeriodEnd:     remote.CurrentPeriodEnd,
		UpdatedAt:            now,
	}
	if err := s.repo.Insert(ctx, s.db, subscription); err != nil {
		s.log.Error("remote subscription created but local insert failed",
			zap.String("stripe_subscription_id", remote.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.recordTransition(ctx, "create", subscription)
	return subscription, nil
}

func (s *Service) Update(ctx context.Context, accountID snowflake.ID, req domain.UpdateRequest) (*domain.Subscription, error) {
	subscription, customer, err := s.findOwned(ctx, accountID, req.SubscriptionID)
	if err != nil {
		return nil, err
	}

	if err := s.attachPaymentMethod(ctx, customer.StripeCustomerID, req.PaymentMethodID); err != nil {
		return nil, err
	}

	remote, err := s.payments.RetrieveSubscription(ctx, subscription.StripeSubscriptionID)
	if err != nil {
		return nil, err
	}

	if planID := strings.TrimSpace(req.PlanID); planID != "" {
		if len(remote.Items) == 0 || remote.Items[0].ID == "" {
			return nil, domain.ErrInvalidItems
		}
		remote, err = s.payments.UpdateSubscriptionItem(ctx, subscription.StripeSubscriptionID, remote.Items[0].ID, planID)
		if err != nil {
			return nil, err
		}
		subscription.Plan = planID
	}

	subscription.Status = remote.Status
	if !remote.CurrentPeriodEnd.IsZero() {
		subscription.CurrentPeriodEnd = remote.CurrentPeriodEnd
	}
	subscription.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, subscription); err != nil {
		return nil, err
	}

	s.recordTransition(ctx, "update", subscription)
	return subscription, nil
}

func (s *Service) Cancel(ctx context.Context, accountID snowflake.ID, req domain.LifecycleRequest) (*domain.Subscription, error) {
	subscription, _, err := s.findOwned(ctx, accountID, req.SubscriptionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.payments.CancelSubscription(ctx, subscription.StripeSubscriptionID); err != nil {
		return nil, err
	}

	subscription.Status = domain.StatusCanceled
	subscription.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, subscription); err != nil {
		return nil, err
	}

	s.recordTransition(ctx, "cancel", subscription)
	return subscription, nil
}

func (s *Service) Resume(ctx context.Context, accountID snowflake.ID, req domain.LifecycleRequest) (*domain.Subscription, error) {
	subscription, customer, err := s.findOwned(ctx, accountID, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if subscription.Status != domain.StatusCanceled {
		return nil, domain.ErrInvalidState
	}

	remote, err := s.payments.CreateSubscription(ctx, payment.CreateSubscriptionInput{
		CustomerID: customer.StripeCustomerID,
		PriceID:    subscription.Plan,
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	previous := subscription.StripeSubscriptionID
	subscription.Metadata = appendPreviousID(subscription.Metadata, previous, now)
	subscription.StripeSubscriptionID = remote.ID
	subscription.Status = remote.Status
	subscription.CurrentPeriodEnd = remote.CurrentPeriodEnd
	subscription.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, subscription); err != nil {
		s.log.Error("remote subscription resumed but local update failed",
			zap.String("previous_subscription_id", previous),
			zap.String("stripe_subscription_id", remote.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Info("subscription resumed",
		zap.String("previous_subscription_id", previous),
		zap.String("stripe_subscription_id", remote.ID),
	)
	s.recordTransition(ctx, "resume", subscription)
	return subscription, nil
}

func (s *Service) Retrieve(ctx context.Context, subscriptionID string) (*domain.View, error) {
	remoteID := strings.TrimSpace(subscriptionID)
	if remoteID == "" {
		return nil, domain.ErrInvalidSubscriptionID
	}

	remote, err := s.payments.RetrieveSubscription(ctx, remoteID)
	if err != nil {
		return nil, err
	}

	planID := remote.PlanID()
	return &domain.View{
		ID:                 remote.ID,
		Status:             remote.Status,
		Customer:           remote.CustomerID,
		PlanID:             planID,
		PlanName:           s.plans.Get().Label(planID),
		CurrentPeriodStart: remote.CurrentPeriodStart,
		CurrentPeriodEnd:   remote.CurrentPeriodEnd,
		CancelAtPeriodEnd:  remote.CancelAtPeriodEnd,
	}, nil
}

func (s *Service) List(ctx context.Context, accountID snowflake.ID) ([]domain.Subscription, error) {
	customer, err := s.resolveCustomer(ctx, accountID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListByCustomer(ctx, s.db, customer.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrNoSubscriptions
	}

	subscriptions := make([]domain.Subscription, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		subscriptions = append(subscriptions, *item)
	}
	return subscriptions, nil
}

func (s *Service) resolveCustomer(ctx context.Context, accountID snowflake.ID) (*billingcustomerdomain.BillingCustomer, error) {
	customer, err := s.customers.GetByAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, billingcustomerdomain.ErrNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

func (s *Service) findOwned(ctx context.Context, accountID snowflake.ID, subscriptionID string) (*domain.Subscription, *billingcustomerdomain.BillingCustomer, error) {
	remoteID := strings.TrimSpace(subscriptionID)
	if remoteID == "" {
		return nil, nil, domain.ErrInvalidSubscriptionID
	}

	customer, err := s.resolveCustomer(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}

	subscription, err := s.repo.FindByRemoteID(ctx, s.db, customer.ID, remoteID)
	if err != nil {
		return nil, nil, err
	}
	if subscription == nil {
		return nil, nil, domain.ErrSubscriptionNotFound
	}
	return subscription, customer, nil
}

func (s *Service) attachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	pm := strings.TrimSpace(paymentMethodID)
	if pm == "" {
		return nil
	}
	if err := s.payments.AttachPaymentMethod(ctx, pm, customerID); err != nil {
		return err
	}
	return s.payments.SetDefaultPaymentMethod(ctx, customerID, pm)
}

func (s *Service) recordTransition(ctx context.Context, operation string, subscription *domain.Subscription) {
	s.metrics.RecordSubscriptionTransition(ctx, operation, subscription.Status)
	s.log.Info("subscription "+operation,
		zap.String("subscription_id", subscription.ID.String()),
		zap.String("stripe_subscription_id", subscription.StripeSubscriptionID),
		zap.String("status", subscription.Status),
	)
}

func appendPreviousID(metadata datatypes.JSONMap, previous string, resumedAt time.Time) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range metadata {
		out[k] = v
	}

	var ids []any
	switch existing := out[domain.MetadataPreviousIDs].(type) {
	case []any:
		ids = append(ids, existing...)
	case []string:
		for _, id := range existing {
			ids = append(ids, id)
		}
	}
	out[domain.MetadataPreviousIDs] = append(ids, previous)
	out["resumed_at"] = resumedAt.UTC().Format(time.RFC3339)
	return out
}
