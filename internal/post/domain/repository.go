package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status   Status
	AuthorID snowflake.ID
}

//go:generate mockgen -source=repository.go -destination=../mocks/mock_repository.go -package=mocks
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, post *Post) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status) (*Post, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Post, error)
	Update(ctx context.Context, db *gorm.DB, post *Post) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
