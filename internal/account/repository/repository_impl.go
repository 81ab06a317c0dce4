package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/inkpost/internal/account/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, account *domain.Account) error {
	return db.WithContext(ctx).Create(account).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Account, error) {
	return r.findOne(ctx, db.Where("id = ?", id))
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Account, error) {
	return r.findOne(ctx, db.Where("email = ?", email))
}

func (r *repo) findOne(ctx context.Context, stmt *gorm.DB) (*domain.Account, error) {
	var account domain.Account
	err := stmt.WithContext(ctx).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.Account, error) {
	var accounts []*domain.Account
	err := db.WithContext(ctx).
		Model(&domain.Account{}).
		Order("date_joined asc, id asc").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repo) UpdatePassword(ctx context.Context, db *gorm.DB, id snowflake.ID, hash string, changedAt time.Time) error {
	tx := db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password_hash":         hash,
			"last_password_changed": changedAt,
			"updated_at":            changedAt,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
