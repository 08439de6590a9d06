package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultAPIKeyHeader carries API keys unless configured otherwise.
const DefaultAPIKeyHeader = "X-API-Key"

// APIKeyConfig configures the API key authenticator.
type APIKeyConfig struct {
	// HeaderName is the header containing the API key.
	// Default: "X-API-Key"
	HeaderName string

	// Now overrides the clock used for expiry checks.
	Now func() time.Time
}

// APIKeyInfo describes a registered API key. The key itself is never stored.
type APIKeyInfo struct {
	ID        string
	KeyHash   string
	Principal string
	Roles     []string

	// ExpiresAt is zero for keys that never expire.
	ExpiresAt time.Time
	Metadata  map[string]any
}

// KeyStore looks up API keys by hash.
type KeyStore interface {
	// Lookup returns nil, nil for unknown hashes.
	Lookup(ctx context.Context, keyHash string) (*APIKeyInfo, error)
}

// APIKeyAuthenticator validates API keys against a KeyStore.
type APIKeyAuthenticator struct {
	config APIKeyConfig
	store  KeyStore
}

// NewAPIKeyAuthenticator creates an API key authenticator.
func NewAPIKeyAuthenticator(config APIKeyConfig, store KeyStore) (*APIKeyAuthenticator, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: api key store is required", ErrInvalidConfig)
	}
	if config.HeaderName == "" {
		config.HeaderName = DefaultAPIKeyHeader
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &APIKeyAuthenticator{config: config, store: store}, nil
}

// Name returns "api_key".
func (a *APIKeyAuthenticator) Name() string { return "api_key" }

// Supports reports whether h carries the API key header.
func (a *APIKeyAuthenticator) Supports(h http.Header) bool {
	return h.Get(a.config.HeaderName) != ""
}

// Authenticate validates the API key in h.
func (a *APIKeyAuthenticator) Authenticate(ctx context.Context, h http.Header) (*Identity, error) {
	key := strings.TrimSpace(h.Get(a.config.HeaderName))
	if key == "" {
		return nil, ErrMissingCredentials
	}

	info, err := a.store.Lookup(ctx, HashAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("auth: api key lookup: %w", err)
	}
	if info == nil {
		return nil, ErrInvalidCredentials
	}
	if !info.ExpiresAt.IsZero() && !a.config.Now().Before(info.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	claims := make(map[string]any, len(info.Metadata)+1)
	maps.Copy(claims, info.Metadata)
	claims["key_id"] = info.ID

	return &Identity{
		Principal: info.Principal,
		Roles:     append([]string(nil), info.Roles...),
		Method:    MethodAPIKey,
		Claims:    claims,
		ExpiresAt: info.ExpiresAt,
	}, nil
}

// HashAPIKey hashes an API key using SHA-256 for storage.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// MemoryKeyStore is an in-memory KeyStore.
type MemoryKeyStore struct {
	mu   sync.RWMutex
	keys map[string]*APIKeyInfo
}

// NewMemoryKeyStore creates an empty MemoryKeyStore.
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{keys: make(map[string]*APIKeyInfo)}
}

// Lookup implements KeyStore.
func (s *MemoryKeyStore) Lookup(_ context.Context, keyHash string) (*APIKeyInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[keyHash], nil
}

// Add stores info under its KeyHash.
func (s *MemoryKeyStore) Add(info *APIKeyInfo) error {
	if info == nil || info.KeyHash == "" {
		return fmt.Errorf("%w: api key hash is required", ErrInvalidConfig)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[info.KeyHash] = info
	return nil
}

// AddKey hashes a plaintext key and stores it for principal.
func (s *MemoryKeyStore) AddKey(id, principal, key string, roles ...string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty api key %q", ErrInvalidConfig, id)
	}
	return s.Add(&APIKeyInfo{
		ID:        id,
		KeyHash:   HashAPIKey(strings.TrimSpace(key)),
		Principal: principal,
		Roles:     roles,
	})
}

// Remove deletes the key with the given hash.
func (s *MemoryKeyStore) Remove(keyHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, keyHash)
}

// Len returns the number of stored keys.
func (s *MemoryKeyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

var (
	_ Authenticator = (*APIKeyAuthenticator)(nil)
	_ KeyStore      = (*MemoryKeyStore)(nil)
)
