package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilCache   = errors.New("cache: cache is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
	ErrNotJSON    = errors.New("cache: value is not a JSON document")
)

// Entry is a cached payload and the time it was stored.
type Entry struct {
	Key      string
	Value    []byte
	StoredAt time.Time
}

// Age returns how long ago the entry was stored, relative to now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// Cache is the storage contract for fetched payloads.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Staleness: implementations must not drop entries because of age.
// - Overwrite: Set replaces any entry with the same key (last write wins).
// - Errors: Get returns (Entry{}, false, nil) on miss; errors are backend failures.
type Cache interface {
	// Get retrieves an entry regardless of its age.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Set stores the entry under entry.Key.
	Set(ctx context.Context, entry Entry) error

	// Delete removes an entry. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry owned by this cache.
	Clear(ctx context.Context) error
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
