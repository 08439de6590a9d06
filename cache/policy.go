package cache

import "time"

// DefaultTTL is how long a stored payload is reused without a network round-trip.
const DefaultTTL = 10 * time.Minute

// Policy configures caching behavior.
type Policy struct {
	// TTL is the maximum age of a reusable entry. Entries with
	// age >= TTL are stale. Zero or negative disables reuse.
	TTL time.Duration

	// MaxEntries bounds in-memory caches; least recently used entries
	// are evicted once the bound is reached. Zero means unbounded.
	MaxEntries int

	// Retention is the backend expiry for shared caches such as Redis.
	// Zero keeps entries until they are overwritten or cleared.
	Retention time.Duration
}

// DefaultPolicy returns the default caching policy.
// TTL: 10 minutes, MaxEntries: unbounded, Retention: none
func DefaultPolicy() Policy {
	return Policy{
		TTL: DefaultTTL,
	}
}

// NoCachePolicy returns a policy under which no entry is ever fresh.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if entries can ever be reused under this policy.
func (p Policy) ShouldCache() bool {
	return p.TTL > 0
}

// Fresh reports whether e may be served at now without refetching.
func (p Policy) Fresh(e Entry, now time.Time) bool {
	if !p.ShouldCache() || e.StoredAt.IsZero() {
		return false
	}
	return e.Age(now) < p.TTL
}
