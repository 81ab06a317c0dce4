package resettoken

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "inkpost:password_reset:"

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Set(ctx context.Context, token string, accountID snowflake.ID, ttl time.Duration) error {
	return s.client.Set(ctx, redisKey(token), accountID.String(), ttl).Err()
}

func (s *redisStore) Consume(ctx context.Context, token string) (snowflake.ID, error) {
	return parseResult(s.client.GetDel(ctx, redisKey(token)).Result())
}

func (s *redisStore) Peek(ctx context.Context, token string) (snowflake.ID, error) {
	return parseResult(s.client.Get(ctx, redisKey(token)).Result())
}

func redisKey(token string) string {
	return keyPrefix + hashToken(token)
}

func parseResult(value string, err error) (snowflake.ID, error) {
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	id, err := snowflake.ParseString(value)
	if err != nil {
		return 0, ErrNotFound
	}
	return id, nil
}
