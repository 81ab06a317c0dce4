package resettoken

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/inkpost/internal/cache"
	"github.com/smallbiznis/inkpost/internal/clock"
)

type memoryStore struct {
	tokens cache.Cache[string, snowflake.ID]
}

func NewMemoryStore(clk clock.Clock) Store {
	return &memoryStore{tokens: cache.NewTTLCache[string, snowflake.ID](clk)}
}

func (s *memoryStore) Set(_ context.Context, token string, accountID snowflake.ID, ttl time.Duration) error {
	s.tokens.Set(hashToken(token), accountID, ttl)
	return nil
}

func (s *memoryStore) Consume(_ context.Context, token string) (snowflake.ID, error) {
	id, ok := s.tokens.Take(hashToken(token))
	if !ok {
		return 0, ErrNotFound
	}
	return id, nil
}

func (s *memoryStore) Peek(_ context.Context, token string) (snowflake.ID, error) {
	id, ok := s.tokens.Get(hashToken(token))
	if !ok {
		return 0, ErrNotFound
	}
	return id, nil
}
