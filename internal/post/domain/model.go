package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusDraft     Status = "DF"
	StatusPublished Status = "PB"
)

// ParseStatus accepts the stored codes and their long names.
func ParseStatus(raw string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "df", "draft":
		return StatusDraft, true
	case "pb", "published":
		return StatusPublished, true
	default:
		return "", false
	}
}

type Post struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Title     string       `gorm:"size:100;not null" json:"title"`
	Slug      string       `gorm:"size:250;not null;index:idx_posts_slug" json:"slug"`
	Body      string       `gorm:"type:text;not null" json:"body"`
	AuthorID  snowflake.ID `gorm:"column:author_id;not null;index:idx_posts_author_id" json:"author"`
	Publish   time.Time    `gorm:"not null;index:idx_posts_publish,sort:desc" json:"publish"`
	CreatedAt time.Time    `gorm:"not null" json:"created"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated"`
	Status    Status       `gorm:"size:2;not null;default:'DF'" json:"status"`
}

func (Post) TableName() string { return "posts" }
