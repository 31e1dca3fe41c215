package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/loudtogether/backend/internal/models"
)

// unreachableRedis returns a client pointed at a port nothing listens on,
// with timeouts short enough to keep the test fast.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:            "127.0.0.1:1",
		DialTimeout:     50 * time.Millisecond,
		ReadTimeout:     50 * time.Millisecond,
		WriteTimeout:    50 * time.Millisecond,
		MaxRetries:      -1,
		PoolTimeout:     50 * time.Millisecond,
		MinIdleConns:    0,
		ConnMaxIdleTime: time.Second,
	})
}

func TestCacheDegradesToMissWhenRedisDown(t *testing.T) {
	cache := NewCache(unreachableRedis(), time.Minute, nil)
	ctx := context.Background()

	sess := &models.Session{
		ID:           uuid.New(),
		Name:         "Title-RedFox",
		AdminName:    "Alice",
		Participants: []string{"Alice"},
	}

	// None of these may panic or surface an error to the caller.
	cache.Put(ctx, sess)
	if got, ok := cache.Get(ctx, sess.ID); ok {
		t.Fatalf("expected miss from unreachable cache, got %+v", got)
	}
	cache.Invalidate(ctx, sess.ID)
}

func TestCacheGetMissOnUnknownID(t *testing.T) {
	cache := NewCache(unreachableRedis(), time.Minute, nil)
	if _, ok := cache.Get(context.Background(), uuid.New()); ok {
		t.Fatal("expected miss for unknown id")
	}
}
