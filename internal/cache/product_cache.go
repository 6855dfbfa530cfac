package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"catalog-api/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	productKeyPrefix = "catalog:product:"
	defaultTTL       = 5 * time.Minute
	// removedFence outranks every product version
	removedFence = math.MaxInt64
)

// ProductCache stores fully populated products keyed by id.
//
// Each invalidation leaves a fence holding the committed version (the product's
// UpdatedAt). Set refuses a product older than the fence, so a read that loaded
// the row before a concurrent mutation committed cannot repopulate the cache
// with the superseded copy.
type ProductCache interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, bool, error)
	Set(ctx context.Context, product *domain.Product) error
	// Invalidate drops the entry and fences out copies older than version
	Invalidate(ctx context.Context, id uuid.UUID, version time.Time) error
	// Evict drops the entry of a deleted product and fences out every copy
	Evict(ctx context.Context, id uuid.UUID) error
}

// setScript writes KEYS[1] unless the fence in KEYS[2] is newer than ARGV[2]
var setScript = redis.NewScript(`
local fence = redis.call('GET', KEYS[2])
if fence and tonumber(fence) > tonumber(ARGV[2]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// fenceScript raises the fence in KEYS[2] to ARGV[1], never lowering it, and drops KEYS[1]
var fenceScript = redis.NewScript(`
local fence = redis.call('GET', KEYS[2])
if (not fence) or tonumber(fence) < tonumber(ARGV[1]) then
	redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[2])
end
redis.call('DEL', KEYS[1])
return 1
`)

type redisProductCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisProductCache creates a ProductCache backed by Redis. Entries and fences
// expire after ttl; a non-positive ttl falls back to five minutes.
func NewRedisProductCache(client redis.Cmdable, ttl time.Duration) ProductCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &redisProductCache{client: client, ttl: ttl}
}

// Both keys share a hash tag so the scripts stay on one cluster slot
func productKey(id uuid.UUID) string {
	return productKeyPrefix + "{" + id.String() + "}"
}

func fenceKey(id uuid.UUID) string {
	return productKey(id) + ":fence"
}

func version(t time.Time) int64 {
	return t.UnixMicro()
}

// Get returns the cached product, or false on a miss
func (c *redisProductCache) Get(ctx context.Context, id uuid.UUID) (*domain.Product, bool, error) {
	data, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached product: %w", err)
	}

	product := &domain.Product{}
	if err := json.Unmarshal(data, product); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached product: %w", err)
	}

	return product, true, nil
}

func (c *redisProductCache) Set(ctx context.Context, product *domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to encode product: %w", err)
	}

	keys := []string{productKey(product.ID), fenceKey(product.ID)}
	err = setScript.Run(ctx, c.client, keys, data, version(product.UpdatedAt), c.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("failed to cache product: %w", err)
	}

	return nil
}

func (c *redisProductCache) Invalidate(ctx context.Context, id uuid.UUID, v time.Time) error {
	return c.fence(ctx, id, version(v))
}

func (c *redisProductCache) Evict(ctx context.Context, id uuid.UUID) error {
	return c.fence(ctx, id, removedFence)
}

func (c *redisProductCache) fence(ctx context.Context, id uuid.UUID, fence int64) error {
	keys := []string{productKey(id), fenceKey(id)}
	if err := fenceScript.Run(ctx, c.client, keys, fence, c.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached product: %w", err)
	}
	return nil
}

// Noop is a ProductCache that never stores anything, used when Redis is disabled
type Noop struct{}

func (Noop) Get(context.Context, uuid.UUID) (*domain.Product, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, *domain.Product) error                    { return nil }
func (Noop) Invalidate(context.Context, uuid.UUID, time.Time) error        { return nil }
func (Noop) Evict(context.Context, uuid.UUID) error                        { return nil }
