package secret

import (
	"errors"
	"reflect"
	"testing"
)

func TestRegistry_RegisterAndCreate(t *testing.T) {
	reg := NewRegistry()

	var gotCfg map[string]any
	if err := reg.Register("stub", func(cfg map[string]any) (Provider, error) {
		gotCfg = cfg
		return &stubProvider{name: "stub"}, nil
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	p, err := reg.Create("stub", map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p == nil || p.Name() != "stub" {
		t.Fatalf("unexpected provider: %#v", p)
	}
	if gotCfg["k"] != "v" {
		t.Errorf("factory cfg = %v", gotCfg)
	}
}

func TestRegistry_RegisterInvalid(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("  ", func(map[string]any) (Provider, error) { return nil, nil }); !errors.Is(err, ErrInvalidRegistration) {
		t.Errorf("blank name: err = %v", err)
	}
	if err := reg.Register("stub", nil); !errors.Is(err, ErrInvalidRegistration) {
		t.Errorf("nil factory: err = %v", err)
	}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	factory := func(map[string]any) (Provider, error) { return &stubProvider{name: "stub"}, nil }
	_ = reg.Register("stub", factory)

	if err := reg.Register("stub", factory); !errors.Is(err, ErrDuplicateProvider) {
		t.Fatalf("err = %v, want ErrDuplicateProvider", err)
	}
}

func TestRegistry_CreateUnknown(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Create("missing", nil); !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("err = %v, want ErrProviderNotFound", err)
	}
}

func TestRegisterBuiltins(t *testing.T) {
	reg := NewRegistry()
	if err := RegisterBuiltins(reg); err != nil {
		t.Fatalf("RegisterBuiltins() error = %v", err)
	}
	if got, want := reg.List(), []string{"env", "file"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	if err := RegisterBuiltins(reg); !errors.Is(err, ErrDuplicateProvider) {
		t.Fatalf("second RegisterBuiltins() err = %v", err)
	}
}

func TestRegistry_NewResolver(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "owm", "file-key\n")
	t.Setenv("WEATHEROPS_TEST_KEY", "env-key")

	reg := NewRegistry()
	if err := RegisterBuiltins(reg); err != nil {
		t.Fatalf("RegisterBuiltins() error = %v", err)
	}
	r, err := reg.NewResolver(true, map[string]map[string]any{"file": {"root": dir}})
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	defer func() { _ = r.Close() }()

	got, err := r.ResolveValue(t.Context(), "secretref:file:owm")
	if err != nil || got != "file-key" {
		t.Fatalf("file ref = %q, %v", got, err)
	}
	got, err = r.ResolveValue(t.Context(), "secretref:env:WEATHEROPS_TEST_KEY")
	if err != nil || got != "env-key" {
		t.Fatalf("env ref = %q, %v", got, err)
	}
}

func TestRegistry_NewResolverClosesOnFailure(t *testing.T) {
	reg := NewRegistry()
	first := &stubProvider{name: "a"}
	_ = reg.Register("a", func(map[string]any) (Provider, error) { return first, nil })
	_ = reg.Register("b", func(map[string]any) (Provider, error) { return nil, errors.New("no backend") })

	if _, err := reg.NewResolver(true, nil); err == nil {
		t.Fatal("expected error")
	}
	if !first.closed {
		t.Error("provider created before the failure was not closed")
	}
}
