package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type TokenPair struct {
	Refresh string `json:"refresh,omitempty"`
	Access  string `json:"access"`
}

// Principal is the authenticated caller behind a bearer token.
type Principal struct {
	AccountID snowflake.ID
	TokenID   string
	ExpiresAt time.Time
}

//go:generate mockgen -source=service.go -destination=../mocks/mock_service.go -package=mocks
type Service interface {
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	// Refresh mints a new access token from a refresh token. The returned
	// pair has no refresh token.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Verify(ctx context.Context, token string) error
	Authenticate(ctx context.Context, accessToken string) (*Principal, error)
}
