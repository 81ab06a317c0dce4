package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/inkpost/internal/post/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, post *domain.Post) error {
	return db.WithContext(ctx).Create(post).Error
}

// FindByID returns nil when no post matches. An empty status matches any.
func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status) (*domain.Post, error) {
	stmt := db.WithContext(ctx).Where("id = ?", id)
	if status != "" {
		stmt = stmt.Where("status = ?", status)
	}

	var post domain.Post
	err := stmt.First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Post, error) {
	var posts []*domain.Post
	stmt := db.WithContext(ctx).Model(&domain.Post{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.AuthorID != 0 {
		stmt = stmt.Where("author_id = ?", filter.AuthorID)
	}
	err := stmt.
		Order("publish desc, id desc").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, post *domain.Post) error {
	tx := db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]any{
			"title":      post.Title,
			"slug":       post.Slug,
			"body":       post.Body,
			"status":     post.Status,
			"publish":    post.Publish,
			"updated_at": post.UpdatedAt,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	tx := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Post{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
