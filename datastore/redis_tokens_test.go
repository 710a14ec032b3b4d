package datastore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreybb/weconnect/models"
)

func newRedisTokens(t *testing.T) (*RedisTokenRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisTokenRepository(client), mr
}

func TestRedisTokenRepository_SaveAndRemove(t *testing.T) {
	repo, mr := newRedisTokens(t)
	ctx := context.Background()

	token := &models.AuthToken{
		UserID:      "user-1",
		AccessToken: "tok",
		CreatedAt:   time.Now().UTC(),
		ExpiresAt:   time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, repo.SaveToken(ctx, token))

	got, err := mr.Get(authTokenKeyPrefix + "tok")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got)

	ok, err := repo.TokenExists(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.RemoveToken(ctx, "tok"))
	ok, err = repo.TokenExists(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, repo.RemoveToken(ctx, "tok"), ErrTokenNotFound)
}

func TestRedisTokenRepository_RemoveAbsent(t *testing.T) {
	repo, _ := newRedisTokens(t)
	assert.ErrorIs(t, repo.RemoveToken(context.Background(), "never-saved"), ErrTokenNotFound)
}

func TestRedisTokenRepository_ExpiresWithToken(t *testing.T) {
	repo, mr := newRedisTokens(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveToken(ctx, &models.AuthToken{
		UserID:      "user-1",
		AccessToken: "tok",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))
	assert.InDelta(t, time.Hour.Seconds(), mr.TTL(authTokenKeyPrefix+"tok").Seconds(), 5)

	mr.FastForward(61 * time.Minute)
	ok, err := repo.TokenExists(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisTokenRepository_ExpiredTokenGetsMinimalTTL(t *testing.T) {
	repo, mr := newRedisTokens(t)

	require.NoError(t, repo.SaveToken(context.Background(), &models.AuthToken{
		UserID:      "user-1",
		AccessToken: "old",
		ExpiresAt:   time.Now().Add(-time.Hour),
	}))
	assert.Equal(t, time.Second, mr.TTL(authTokenKeyPrefix+"old"))
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := OpenRedis(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	client.Close()

	_, err = OpenRedis(context.Background(), "not a url")
	assert.Error(t, err)
}
