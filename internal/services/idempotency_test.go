package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
)

func newTestGuard(db *redis.Client, token string) *IdempotencyGuard {
	g := NewIdempotencyGuard(db, "autopost", 30*time.Second)
	g.token = func() string { return token }
	return g
}

func TestIdempotencyGuard_Claim(t *testing.T) {
	ctx := context.Background()
	key := "autopost:7:expense:11"

	t.Run("claim and release", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		guard := newTestGuard(db, "tok-1")

		mock.ExpectSetNX(key, "tok-1", 30*time.Second).SetVal(true)
		mock.ExpectEval(releaseClaim, []string{key}, "tok-1").SetVal(int64(1))

		release, ok := guard.Claim(ctx, 7, "expense", 11)
		assert.True(t, ok)
		release()
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("release leaves a claim retaken after expiry", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		guard := newTestGuard(db, "tok-1")

		mock.ExpectSetNX(key, "tok-1", 30*time.Second).SetVal(true)
		// The key now holds another worker's token, so the script deletes nothing.
		mock.ExpectEval(releaseClaim, []string{key}, "tok-1").SetVal(int64(0))

		release, ok := guard.Claim(ctx, 7, "expense", 11)
		assert.True(t, ok)
		release()
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("held by another worker", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		guard := newTestGuard(db, "tok-2")

		mock.ExpectSetNX(key, "tok-2", 30*time.Second).SetVal(false)

		release, ok := guard.Claim(ctx, 7, "expense", 11)
		assert.False(t, ok)
		release()
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis error lets the claim through", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		guard := newTestGuard(db, "tok-3")

		mock.ExpectSetNX(key, "tok-3", 30*time.Second).SetErr(errors.New("connection refused"))

		_, ok := guard.Claim(ctx, 7, "expense", 11)
		assert.True(t, ok)
	})

	t.Run("no redis configured", func(t *testing.T) {
		guard := NewIdempotencyGuard(nil, "autopost", 30*time.Second)

		release, ok := guard.Claim(ctx, 7, "expense", 11)
		assert.True(t, ok)
		assert.NotPanics(t, release)

		var nilGuard *IdempotencyGuard
		_, ok = nilGuard.Claim(ctx, 7, "expense", 11)
		assert.True(t, ok)
	})
}
