package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces keys written by RedisCache.
const DefaultRedisPrefix = "weatherops:"

const (
	defaultRedisTimeout = 600 * time.Millisecond
	clearScanCount      = 256
)

// RedisCache implements Cache backed by Redis, so several processes can
// share fetched payloads. Entries are stored as a JSON envelope that keeps
// the original StoredAt; freshness is still decided by the caller.
// Values must be JSON documents; the envelope stores them compacted.
type RedisCache struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
	timeout   time.Duration
}

type redisEnvelope struct {
	StoredAt time.Time       `json:"stored_at"`
	Payload  json.RawMessage `json:"payload"`
}

// RedisOption configures a RedisCache.
type RedisOption func(*RedisCache)

// WithRedisPrefix overrides DefaultRedisPrefix. An empty prefix is ignored
// so Clear never scans the whole keyspace.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithRedisTimeout bounds each Redis round-trip. Default 600ms.
func WithRedisTimeout(d time.Duration) RedisOption {
	return func(c *RedisCache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewRedisCache wraps an existing client. policy.Retention becomes the
// Redis expiry of every written key.
func NewRedisCache(client redis.UniversalClient, policy Policy, opts ...RedisOption) (*RedisCache, error) {
	if client == nil {
		return nil, ErrNilCache
	}
	c := &RedisCache{
		client:    client,
		prefix:    DefaultRedisPrefix,
		retention: policy.Retention,
		timeout:   defaultRedisTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DialRedis parses a redis:// URL, pings the server and returns a cache.
func DialRedis(ctx context.Context, rawURL string, policy Policy, opts ...RedisOption) (*RedisCache, error) {
	redisOpts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("cache: parse redis url: %w", err)
	}
	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: redis ping failed: %w", err)
	}
	return NewRedisCache(client, policy, opts...)
}

// Get retrieves an entry if present.
func (c *RedisCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("cache: redis get %q: %w", key, err)
	}

	entry, err := decodeEnvelope(key, data)
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

// Set stores an entry, overwriting any existing value for the key.
func (c *RedisCache) Set(ctx context.Context, entry Entry) error {
	if err := ValidateKey(entry.Key); err != nil {
		return err
	}
	data, err := encodeEnvelope(entry)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.client.Set(ctx, c.prefix+entry.Key, data, c.retention).Err(); err != nil {
		return fmt.Errorf("cache: redis set %q: %w", entry.Key, err)
	}
	return nil
}

// Delete removes an entry. Idempotent - no error on miss.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("cache: redis del %q: %w", key, err)
	}
	return nil
}

// Clear deletes every key under the cache prefix.
func (c *RedisCache) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", clearScanCount).Result()
		if err != nil {
			return fmt.Errorf("cache: redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache: redis del: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Ping checks connectivity to the Redis server.
func (c *RedisCache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func encodeEnvelope(entry Entry) ([]byte, error) {
	if !json.Valid(entry.Value) {
		return nil, fmt.Errorf("%w: %q", ErrNotJSON, entry.Key)
	}
	data, err := json.Marshal(redisEnvelope{
		StoredAt: entry.StoredAt.UTC(),
		Payload:  entry.Value,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: encode payload %q: %w", entry.Key, err)
	}
	return data, nil
}

func decodeEnvelope(key string, data []byte) (Entry, error) {
	var env redisEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Entry{}, fmt.Errorf("cache: decode cached payload %q: %w", key, err)
	}
	return Entry{
		Key:      key,
		Value:    append([]byte(nil), env.Payload...),
		StoredAt: env.StoredAt,
	}, nil
}

// Ensure RedisCache implements Cache
var _ Cache = (*RedisCache)(nil)
