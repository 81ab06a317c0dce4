package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/inkpost/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *domain.Subscription) error {
	return db.WithContext(ctx).Create(subscription).Error
}

func (r *repo) FindByRemoteID(ctx context.Context, db *gorm.DB, customerID snowflake.ID, remoteID string) (*domain.Subscription, error) {
	var subscription domain.Subscription
	err := db.WithContext(ctx).
		Where("customer_id = ? AND stripe_subscription_id = ?", customerID, remoteID).
		First(&subscription).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (r *repo) ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]*domain.Subscription, error) {
	var subscriptions []*domain.Subscription
	err := db.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("customer_id = ?", customerID).
		Order("created_at desc, id desc").
		Find(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, subscription *domain.Subscription) error {
	tx := db.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("id = ?", subscription.ID).
		Updates(map[string]any{
			"stripe_subscription_id": subscription.StripeSubscriptionID,
			"status":                 subscription.Status,
			"plan":                   subscription.Plan,
			"current_period_end":     subscription.CurrentPeriodEnd,
			"metadata":               subscription.Metadata,
			"updated_at":             subscription.UpdatedAt,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}
