package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/loudtogether/backend/internal/models"
)

const cacheKeyPrefix = "session:"

// Cache is a TTL-bounded Redis mirror of sessions. It carries no correctness
// guarantee of its own: any Redis failure degrades to a miss and a Warn log,
// never to a caller-visible error. The store stays authoritative.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache creates a session cache.
func NewCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached session, or (nil, false) on miss or error.
func (c *Cache) Get(ctx context.Context, id uuid.UUID) (*models.Session, bool) {
	raw, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("session cache get failed", zap.String("session_id", id.String()), zap.Error(err))
		}
		return nil, false
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		c.logger.Warn("session cache entry corrupt", zap.String("session_id", id.String()), zap.Error(err))
		return nil, false
	}
	return &sess, true
}

// Put stores the authoritative session record. Only committed store state
// may be put here, never speculative state.
func (c *Cache) Put(ctx context.Context, sess *models.Session) {
	raw, err := json.Marshal(sess)
	if err != nil {
		c.logger.Warn("session cache marshal failed", zap.String("session_id", sess.ID.String()), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, cacheKey(sess.ID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("session cache put failed", zap.String("session_id", sess.ID.String()), zap.Error(err))
	}
}

// Invalidate drops the cache entry, e.g. when a session is deleted.
func (c *Cache) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		c.logger.Warn("session cache invalidate failed", zap.String("session_id", id.String()), zap.Error(err))
	}
}

func cacheKey(id uuid.UUID) string {
	return cacheKeyPrefix + id.String()
}
