package resettoken

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const tokenBytes = 32

var ErrNotFound = errors.New("reset_token_not_found")

// Store keeps password reset tokens. Tokens are single use: Consume returns
// the bound account once and forgets the token.
type Store interface {
	Set(ctx context.Context, token string, accountID snowflake.ID, ttl time.Duration) error
	Consume(ctx context.Context, token string) (snowflake.ID, error)
	Peek(ctx context.Context, token string) (snowflake.ID, error)
}

// NewToken returns a URL-safe random token.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
