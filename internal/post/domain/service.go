package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreatePostRequest struct {
	AuthorID string     `json:"author"`
	Title    string     `json:"title"`
	Slug     string     `json:"slug"`
	Body     string     `json:"body"`
	Status   string     `json:"status"`
	Publish  *time.Time `json:"publish"`
}

// UpdatePostRequest is a partial update; nil fields are left unchanged.
type UpdatePostRequest struct {
	Title   *string    `json:"title"`
	Slug    *string    `json:"slug"`
	Body    *string    `json:"body"`
	Status  *string    `json:"status"`
	Publish *time.Time `json:"publish"`
}

type Service interface {
	ListPublished(ctx context.Context) ([]Post, error)
	Create(ctx context.Context, callerID snowflake.ID, req CreatePostRequest) (*Post, error)
	Get(ctx context.Context, postID string) (*Post, error)
	Update(ctx context.Context, postID string, callerID snowflake.ID, req UpdatePostRequest) (*Post, error)
	Delete(ctx context.Context, postID string, callerID snowflake.ID) (*Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]Post, error)
}
