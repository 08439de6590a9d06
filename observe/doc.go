// Package observe provides observability primitives for remote fetches.
//
// It is a pure instrumentation library: it never performs requests itself.
// The fetch client wraps its request path with Middleware so every call
// produces a span, fetch metrics (including cache hits and misses), and a
// structured log line.
package observe
