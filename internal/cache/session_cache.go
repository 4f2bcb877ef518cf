package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/atelierfoto/session-service/internal/models"
	"github.com/redis/go-redis/v9"
)

const snapshotTTL = 30 * time.Second

// SessionCache is a read-through cache for session snapshots. A nil
// *SessionCache is valid and disables caching, so callers never need to
// branch on whether redis is configured.
type SessionCache struct {
	client *redis.Client
}

// New returns nil when addr is empty or the server is unreachable; the
// service degrades to uncached reads.
func New(addr string) *SessionCache {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[SessionCache] redis unreachable, caching disabled: %v", err)
		return nil
	}
	return &SessionCache{client: client}
}

func key(sessionID uint) string {
	return fmt.Sprintf("session:snapshot:%d", sessionID)
}

func (c *SessionCache) Get(ctx context.Context, sessionID uint) (*models.Session, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key(sessionID)).Bytes()
	if err != nil {
		return nil, false
	}
	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, false
	}
	return &session, true
}

func (c *SessionCache) Set(ctx context.Context, session *models.Session) {
	if c == nil || session == nil {
		return
	}
	data, err := json.Marshal(session)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(session.ID), data, snapshotTTL).Err(); err != nil {
		log.Printf("[SessionCache] set failed for session %d: %v", session.ID, err)
	}
}

// Invalidate drops the snapshot after any committed write to the session.
func (c *SessionCache) Invalidate(ctx context.Context, sessionID uint) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, key(sessionID)).Err(); err != nil {
		log.Printf("[SessionCache] invalidate failed for session %d: %v", sessionID, err)
	}
}
