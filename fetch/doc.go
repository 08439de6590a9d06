// Package fetch provides a TTL-cached client for remote JSON endpoints.
//
// A Client owns its cache. Each logical request is named by a registered
// Endpoint, which binds a request class to a remote path and to the
// parameters that identify the request. The identity parameters produce a
// deterministic cache key such as "current:london" or
// "coords:51.5074_-0.1278".
//
// Within the TTL a cached payload is returned without touching the network.
// Once an entry is stale the next call issues exactly one GET and overwrites
// the entry on success. Failures never modify the cache and are reported as
// *Error values carrying one of a small set of kinds:
//
//	404       -> KindNotFound
//	401       -> KindUnauthorized
//	429       -> KindRateLimited
//	transport -> KindNetworkUnavailable
//	other     -> KindUnknown
//
// Concurrent misses for the same key share one in-flight request unless the
// client is built WithoutCoalescing.
package fetch
