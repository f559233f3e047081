// Package cache keeps audited documents in Redis so identical conversations
// are not synthesized and audited twice.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/common/metrics"
	"rfq-workers/internal/models"
)

const keyPrefix = "rfq:doc"

// Entry is one cached audited generation.
type Entry struct {
	Document models.DocumentEnvelope `json:"document"`
	Verdict  *models.AuditVerdict    `json:"verdict,omitempty"`
	Audited  bool                    `json:"audited"`
	Refined  bool                    `json:"refined"`
	CachedAt time.Time               `json:"cachedAt"`
}

// DocumentCache stores entries under a key derived from the conversation.
type DocumentCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func New(client redis.Cmdable, ttl time.Duration, log logger.Logger) *DocumentCache {
	return &DocumentCache{
		client: client,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "document-cache"}),
	}
}

// Key identifies a conversation: document kind, category, model and the full transcript.
func Key(kind models.DocumentKind, category models.Category, model string, history models.History) string {
	sum := sha256.Sum256([]byte(string(category) + "\x00" + model + "\x00" + history.Transcript()))
	return fmt.Sprintf("%s:%s:%s", keyPrefix, kind, hex.EncodeToString(sum[:]))
}

// Get returns the entry stored under key. A miss is (nil, false, nil).
func (c *DocumentCache) Get(ctx context.Context, key string) (*Entry, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return nil, false, apperrors.NewCacheFailedError("get", err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		c.logger.Warn("Dropping unreadable cache entry", map[string]interface{}{"key": key, "error": err})
		c.client.Del(ctx, key)
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	if _, err := entry.Document.Document(); err != nil {
		c.logger.Warn("Dropping invalid cache entry", map[string]interface{}{"key": key, "error": err})
		c.client.Del(ctx, key)
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false, nil
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return &entry, true, nil
}

// Put stores entry under key with the configured TTL.
func (c *DocumentCache) Put(ctx context.Context, key string, entry *Entry) error {
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return apperrors.NewCacheFailedError("encode", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return apperrors.NewCacheFailedError("set", err)
	}
	c.logger.Debug("Cached audited document", map[string]interface{}{"key": key, "ttl": c.ttl.String()})
	return nil
}

// Invalidate removes key.
func (c *DocumentCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return apperrors.NewCacheFailedError("del", err)
	}
	return nil
}
