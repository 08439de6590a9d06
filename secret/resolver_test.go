package secret

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubProvider struct {
	name    string
	values  map[string]string
	resolve func(ref string) (string, error)
	closed  bool
	err     error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Resolve(_ context.Context, ref string) (string, error) {
	if s.resolve != nil {
		return s.resolve(ref)
	}
	if s.values == nil {
		return "", nil
	}
	return s.values[ref], nil
}

func (s *stubProvider) Close() error {
	s.closed = true
	return s.err
}

func TestParseSecretRef(t *testing.T) {
	provider, ref, ok := ParseSecretRef("secretref:stub:alpha")
	if !ok {
		t.Fatalf("expected secretref to parse")
	}
	if provider != "stub" || ref != "alpha" {
		t.Fatalf("unexpected values: %q %q", provider, ref)
	}

	for _, v := range []string{"not-a-secretref", "secretref:stub", "secretref::x", "secretref:stub:"} {
		if _, _, ok := ParseSecretRef(v); ok {
			t.Errorf("ParseSecretRef(%q) succeeded", v)
		}
	}
}

func TestResolver_ResolvesFullSecretRef(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"alpha": "one"}})

	got, err := r.ResolveValue(context.Background(), "secretref:stub:alpha")
	if err != nil {
		t.Fatalf("ResolveValue() error = %v", err)
	}
	if got != "one" {
		t.Fatalf("ResolveValue() = %q, want %q", got, "one")
	}
}

func TestResolver_ResolvesInlineSecretRef(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"beta": "two"}})

	got, err := r.ResolveValue(context.Background(), "Bearer secretref:stub:beta")
	if err != nil {
		t.Fatalf("ResolveValue() error = %v", err)
	}
	if got != "Bearer two" {
		t.Fatalf("ResolveValue() = %q, want %q", got, "Bearer two")
	}
}

func TestResolver_StrictEmptyProviderValueErrors(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"empty": ""}})

	_, err := r.ResolveValue(context.Background(), "secretref:stub:empty")
	if !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("err = %v, want ErrEmptySecret", err)
	}
}

func TestResolver_LenientAllowsEmptyValue(t *testing.T) {
	r := NewResolver(false, &stubProvider{name: "stub", values: map[string]string{"empty": ""}})

	got, err := r.ResolveValue(context.Background(), "secretref:stub:empty")
	if err != nil || got != "" {
		t.Fatalf("ResolveValue() = %q, %v", got, err)
	}
}

func TestResolver_UnknownProvider(t *testing.T) {
	r := NewResolver(true)

	_, err := r.ResolveValue(context.Background(), "secretref:vault:owm")
	if !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("err = %v, want ErrProviderNotFound", err)
	}
}

func TestResolver_ExpandsEnvBeforeResolving(t *testing.T) {
	t.Setenv("WEATHEROPS_SECRET_NAME", "alpha")
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"alpha": "one"}})

	got, err := r.ResolveValue(context.Background(), "secretref:stub:${WEATHEROPS_SECRET_NAME}")
	if err != nil || got != "one" {
		t.Fatalf("ResolveValue() = %q, %v", got, err)
	}
}

func TestResolver_NilResolverOnlyExpands(t *testing.T) {
	t.Setenv("WEATHEROPS_PLAIN", "london")
	var r *Resolver

	got, err := r.ResolveValue(context.Background(), "city=${WEATHEROPS_PLAIN}")
	if err != nil || got != "city=london" {
		t.Fatalf("ResolveValue() = %q, %v", got, err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
}

func TestResolver_CloseJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	a := &stubProvider{name: "a"}
	b := &stubProvider{name: "b", err: boom}
	r := NewResolver(true, a, b)

	if err := r.Close(); !errors.Is(err, boom) {
		t.Fatalf("Close() = %v, want boom", err)
	}
	if !a.closed || !b.closed {
		t.Error("not every provider was closed")
	}
}

func TestResolver_ResolveFields(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"alpha": "one"}})

	key, header, plain := "secretref:stub:alpha", "Bearer secretref:stub:alpha", "pa$word"
	err := r.ResolveFields(context.Background(),
		Field{Name: "key", Value: &key},
		Field{Name: "header", Value: &header},
		Field{Name: "plain", Value: &plain},
		Field{Name: "unset"},
	)
	if err != nil {
		t.Fatalf("ResolveFields() error = %v", err)
	}
	if key != "one" || header != "Bearer one" {
		t.Errorf("resolved = %q, %q", key, header)
	}
	if plain != "pa$word" {
		t.Errorf("plain value changed to %q", plain)
	}

	missing := "secretref:vault:x"
	err = r.ResolveFields(context.Background(), Field{Name: "server.jwt_secret", Value: &missing})
	if !errors.Is(err, ErrProviderNotFound) || !strings.Contains(err.Error(), "server.jwt_secret") {
		t.Errorf("err = %v, want named ErrProviderNotFound", err)
	}
}

func TestHasRef(t *testing.T) {
	if !HasRef("Bearer secretref:env:X") || HasRef("plain") {
		t.Error("HasRef misreports")
	}
}

func TestResolver_ProviderResolveErrorPropagates(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", resolve: func(ref string) (string, error) {
		if ref == "boom" {
			return "", errors.New("explode")
		}
		return "ok", nil
	}})

	_, err := r.ResolveValue(context.Background(), "secretref:stub:boom")
	if err == nil || !strings.Contains(err.Error(), "explode") {
		t.Fatalf("err = %v, want provider error", err)
	}
}
