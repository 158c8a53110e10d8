package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseClaim deletes a claim only while it still carries the caller's
// token, so a claim that expired and was retaken by another worker survives.
const releaseClaim = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// IdempotencyGuard keeps two workers from auto-posting the same business
// object at once. The journal's reference lookup is the durable check; the
// Redis claim only closes the window between that lookup and the insert.
type IdempotencyGuard struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
	token  func() string
}

func NewIdempotencyGuard(redisClient *redis.Client, prefix string, ttl time.Duration) *IdempotencyGuard {
	return &IdempotencyGuard{
		redis:  redisClient,
		prefix: prefix,
		ttl:    ttl,
		token:  uuid.NewString,
	}
}

func (g *IdempotencyGuard) key(storeID int64, refType string, refID int64) string {
	return fmt.Sprintf("%s:%d:%s:%d", g.prefix, storeID, refType, refID)
}

// Claim tries to take the posting slot for a reference. It reports false
// when another worker holds it. Without Redis, or when Redis is down, every
// claim succeeds and only the database check applies.
func (g *IdempotencyGuard) Claim(ctx context.Context, storeID int64, refType string, refID int64) (release func(), ok bool) {
	noop := func() {}
	if g == nil || g.redis == nil {
		return noop, true
	}

	key := g.key(storeID, refType, refID)
	token := g.token()
	acquired, err := g.redis.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		log.Printf("[AUTOPOST] Redis claim for %s failed, continuing without it: %v", key, err)
		return noop, true
	}
	if !acquired {
		return noop, false
	}
	return func() {
		deleted, err := g.redis.Eval(context.Background(), releaseClaim, []string{key}, token).Int64()
		if err != nil {
			log.Printf("[AUTOPOST] Failed to release claim %s: %v", key, err)
			return
		}
		if deleted == 0 {
			log.Printf("[AUTOPOST] Claim %s expired before release", key)
		}
	}, true
}
