package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/coreybb/weconnect/models"
)

const authTokenKeyPrefix = "auth_token:"

// RedisTokenRepository keeps auth tokens as Redis keys that expire together
// with the token. Each access token maps to one key, so saving the same token
// twice stores it once.
type RedisTokenRepository struct {
	client *redis.Client
}

func NewRedisTokenRepository(client *redis.Client) *RedisTokenRepository {
	return &RedisTokenRepository{client: client}
}

// OpenRedis connects to the Redis server described by url (redis://...) and
// pings it.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (r *RedisTokenRepository) SaveToken(ctx context.Context, token *models.AuthToken) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := r.client.Set(ctx, authTokenKeyPrefix+token.AccessToken, token.UserID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store auth token: %w", err)
	}
	return nil
}

func (r *RedisTokenRepository) RemoveToken(ctx context.Context, accessToken string) error {
	deleted, err := r.client.Del(ctx, authTokenKeyPrefix+accessToken).Result()
	if err != nil {
		return fmt.Errorf("failed to delete auth token: %w", err)
	}
	if deleted == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (r *RedisTokenRepository) TokenExists(ctx context.Context, accessToken string) (bool, error) {
	n, err := r.client.Exists(ctx, authTokenKeyPrefix+accessToken).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check auth token: %w", err)
	}
	return n > 0, nil
}
