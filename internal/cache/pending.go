package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/mcq"
	"github.com/studyloop/studyloop-backend/internal/utils"
)

// ErrNotFound is returned when no pending batch exists for the key.
var ErrNotFound = errors.New("no pending question batch")

// PendingBatchCache stages a generated question batch between generation and
// faculty save. Entries are per faculty member and topic so concurrent
// reviewers never see each other's drafts.
type PendingBatchCache interface {
	Put(ctx context.Context, userID, topicID uuid.UUID, batch mcq.Batch) error
	Get(ctx context.Context, userID, topicID uuid.UUID) (mcq.Batch, error)
	Delete(ctx context.Context, userID, topicID uuid.UUID) error
}

// NewPendingBatchCache returns a Redis-backed cache when REDIS_ADDR is set,
// otherwise a process-local one.
func NewPendingBatchCache(log *logger.Logger) (PendingBatchCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	ttl := time.Duration(utils.GetEnvAsInt("PENDING_BATCH_TTL_MINUTES", 30, log)) * time.Minute

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		log.Info("REDIS_ADDR not set, using in-memory pending batch cache")
		return NewMemoryPendingBatchCache(ttl), nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisPendingCache{
		log: log.With("service", "PendingBatchCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func cacheKey(userID, topicID uuid.UUID) string {
	return fmt.Sprintf("quiz_cache:%s:%s", userID, topicID)
}

type redisPendingCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func (c *redisPendingCache) Put(ctx context.Context, userID, topicID uuid.UUID, batch mcq.Batch) error {
	raw, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKey(userID, topicID), raw, c.ttl).Err()
}

func (c *redisPendingCache) Get(ctx context.Context, userID, topicID uuid.UUID) (mcq.Batch, error) {
	var batch mcq.Batch
	raw, err := c.rdb.Get(ctx, cacheKey(userID, topicID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return batch, ErrNotFound
	}
	if err != nil {
		return batch, err
	}
	if err := json.Unmarshal(raw, &batch); err != nil {
		return batch, err
	}
	return batch, nil
}

func (c *redisPendingCache) Delete(ctx context.Context, userID, topicID uuid.UUID) error {
	return c.rdb.Del(ctx, cacheKey(userID, topicID)).Err()
}

type memoryEntry struct {
	batch     mcq.Batch
	expiresAt time.Time
}

type memoryPendingCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

func NewMemoryPendingBatchCache(ttl time.Duration) PendingBatchCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &memoryPendingCache{
		ttl:     ttl,
		entries: map[string]memoryEntry{},
	}
}

func (c *memoryPendingCache) Put(_ context.Context, userID, topicID uuid.UUID, batch mcq.Batch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(userID, topicID)] = memoryEntry{
		batch:     batch,
		expiresAt: time.Now().Add(c.ttl),
	}
	return nil
}

func (c *memoryPendingCache) Get(_ context.Context, userID, topicID uuid.UUID) (mcq.Batch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey(userID, topicID)
	entry, ok := c.entries[key]
	if !ok {
		return mcq.Batch{}, ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return mcq.Batch{}, ErrNotFound
	}
	return entry.batch, nil
}

func (c *memoryPendingCache) Delete(_ context.Context, userID, topicID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(userID, topicID))
	return nil
}
