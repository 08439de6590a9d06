package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func header(k, v string) http.Header {
	h := http.Header{}
	if k != "" {
		h.Set(k, v)
	}
	return h
}

func newKeyAuth(t *testing.T, now time.Time) (*APIKeyAuthenticator, *MemoryKeyStore) {
	t.Helper()
	store := NewMemoryKeyStore()
	a, err := NewAPIKeyAuthenticator(APIKeyConfig{Now: func() time.Time { return now }}, store)
	if err != nil {
		t.Fatalf("NewAPIKeyAuthenticator() error = %v", err)
	}
	return a, store
}

func TestNewAPIKeyAuthenticator_RequiresStore(t *testing.T) {
	if _, err := NewAPIKeyAuthenticator(APIKeyConfig{}, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestAPIKeyAuthenticator_Supports(t *testing.T) {
	a, _ := newKeyAuth(t, time.Now())

	tests := []struct {
		name string
		h    http.Header
		want bool
	}{
		{name: "no header", h: header("", ""), want: false},
		{name: "api key header", h: header("X-API-Key", "key123"), want: true},
		{name: "canonicalised lookup", h: http.Header{"X-Api-Key": {"key123"}}, want: true},
		{name: "bearer only", h: header("Authorization", "Bearer token"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Supports(tt.h); got != tt.want {
				t.Errorf("Supports() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAPIKeyAuthenticator_Authenticate(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	a, store := newKeyAuth(t, now)

	if err := store.AddKey("k1", "dashboard", "good-key", "reader"); err != nil {
		t.Fatalf("AddKey() error = %v", err)
	}
	if err := store.Add(&APIKeyInfo{
		ID:        "k2",
		KeyHash:   HashAPIKey("old-key"),
		Principal: "retired",
		ExpiresAt: now.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{name: "valid", key: "good-key"},
		{name: "surrounding whitespace", key: "  good-key "},
		{name: "unknown", key: "nope", wantErr: ErrInvalidCredentials},
		{name: "expired", key: "old-key", wantErr: ErrTokenExpired},
		{name: "blank", key: "   ", wantErr: ErrMissingCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := a.Authenticate(context.Background(), header("X-API-Key", tt.key))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if id.Principal != "dashboard" || id.Method != MethodAPIKey {
				t.Errorf("identity = %+v", id)
			}
			if !id.HasRole("reader") {
				t.Errorf("roles = %v", id.Roles)
			}
			if id.Claims["key_id"] != "k1" {
				t.Errorf("key_id claim = %v", id.Claims["key_id"])
			}
		})
	}
}

type failingStore struct{}

func (failingStore) Lookup(context.Context, string) (*APIKeyInfo, error) {
	return nil, errors.New("store offline")
}

func TestAPIKeyAuthenticator_StoreErrorIsNotRejection(t *testing.T) {
	a, err := NewAPIKeyAuthenticator(APIKeyConfig{}, failingStore{})
	if err != nil {
		t.Fatalf("NewAPIKeyAuthenticator() error = %v", err)
	}
	_, err = a.Authenticate(context.Background(), header("X-API-Key", "k"))
	if err == nil || IsRejection(err) {
		t.Fatalf("err = %v, want internal failure", err)
	}
}

func TestMemoryKeyStore(t *testing.T) {
	store := NewMemoryKeyStore()
	if err := store.AddKey("k", "p", ""); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("empty key: err = %v", err)
	}
	if err := store.Add(&APIKeyInfo{ID: "nohash"}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("missing hash: err = %v", err)
	}

	_ = store.AddKey("k", "p", "secret")
	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", store.Len())
	}
	info, _ := store.Lookup(context.Background(), HashAPIKey("secret"))
	if info == nil || info.Principal != "p" {
		t.Fatalf("Lookup() = %+v", info)
	}

	store.Remove(HashAPIKey("secret"))
	if info, _ := store.Lookup(context.Background(), HashAPIKey("secret")); info != nil {
		t.Fatalf("Lookup() after Remove = %+v", info)
	}
}

func TestHashAPIKey(t *testing.T) {
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := HashAPIKey("abc"); got != want {
		t.Fatalf("HashAPIKey() = %s", got)
	}
}
