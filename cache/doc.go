// Package cache stores fetched response payloads keyed by request identity.
//
// It provides an Entry type that records when a payload was stored, a Cache
// interface with in-memory and Redis implementations, a Policy that decides
// freshness, and Keyers that derive deterministic keys from request classes.
//
// Caches never drop entries because they are stale. Freshness is a read-time
// decision made by the caller via Policy.Fresh; a stale entry stays in place
// until it is overwritten, deleted, or evicted by the MaxEntries bound.
package cache
