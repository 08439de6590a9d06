// Package auth authenticates callers of the weatherops HTTP API.
//
// Two credential types are supported: static API keys presented in the
// X-API-Key header (stored as SHA-256 hashes) and HMAC-signed JWTs presented
// as bearer tokens. A Chain tries authenticators in order and Middleware
// attaches the resulting Identity to the request context.
package auth
