package cache

import (
	"strings"
	"testing"
)

func TestJoinKeyer_Key(t *testing.T) {
	k := NewJoinKeyer()

	tests := []struct {
		name  string
		class string
		parts []any
		want  string
	}{
		{"city name", "current", []any{"London"}, "current:london"},
		{"city trimmed", "forecast", []any{"  Paris "}, "forecast:paris"},
		{"coordinates", "coords", []any{51.5074, -0.1278}, "coords:51.5074_-0.1278"},
		{"integer coordinates", "coords", []any{10, 20}, "coords:10_20"},
		{"no parts", "status", nil, "status:"},
		{"separator escaped", "current", []any{"new_york"}, "current:new%5Fyork"},
		{"escape char escaped", "current", []any{"100%"}, "current:100%25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := k.Key(tt.class, tt.parts)
			if err != nil {
				t.Fatalf("Key() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJoinKeyer_EmptyClass(t *testing.T) {
	if _, err := NewJoinKeyer().Key(" ", []any{"x"}); err != ErrInvalidKey {
		t.Errorf("Key() with empty class = %v, want ErrInvalidKey", err)
	}
}

func TestJoinKeyer_RejectsNewlines(t *testing.T) {
	if _, err := NewJoinKeyer().Key("current", []any{"lon\ndon"}); err != ErrInvalidKey {
		t.Errorf("Key() = %v, want ErrInvalidKey", err)
	}
}

func TestJoinKeyer_MapPartIsCanonical(t *testing.T) {
	k := NewJoinKeyer()
	a, _ := k.Key("q", []any{map[string]any{"b": 2, "a": 1}})
	b, _ := k.Key("q", []any{map[string]any{"a": 1, "b": 2}})
	if a != b {
		t.Errorf("map parts should be order independent: %q vs %q", a, b)
	}
}

func TestHashKeyer_Deterministic(t *testing.T) {
	k := NewHashKeyer()

	k1, err := k.Key("current", []any{"London"})
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	k2, _ := k.Key("current", []any{" london "})
	if k1 != k2 {
		t.Errorf("normalized names should hash equally: %q vs %q", k1, k2)
	}
	if !strings.HasPrefix(k1, "current:") {
		t.Errorf("key %q should keep class prefix", k1)
	}
	if len(k1) != len("current:")+16 {
		t.Errorf("key %q should carry a 16 char hash", k1)
	}
}

func TestHashKeyer_PartOrderMatters(t *testing.T) {
	k := NewHashKeyer()
	a, _ := k.Key("coords", []any{1.0, 2.0})
	b, _ := k.Key("coords", []any{2.0, 1.0})
	if a == b {
		t.Error("swapped coordinates must produce different keys")
	}
}

func TestNormalizePart(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"MiXeD", "mixed"},
		{true, "true"},
		{int64(-4), "-4"},
		{float32(1.5), "1.5"},
		{0.1, "0.1"},
		{nil, ""},
	}
	for _, tt := range tests {
		got, err := NormalizePart(tt.in)
		if err != nil {
			t.Fatalf("NormalizePart(%v) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("NormalizePart(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJoinKeyer_SeparatorsDoNotCollide(t *testing.T) {
	k := NewJoinKeyer()
	pairs := [][2][]any{
		{{"a_b"}, {"a", "b"}},
		{{"london_lang=en"}, {"london", "lang=en"}},
		{{"a%5Fb"}, {"a_b"}},
	}
	for _, p := range pairs {
		x, err := k.Key("current", p[0])
		if err != nil {
			t.Fatal(err)
		}
		y, err := k.Key("current", p[1])
		if err != nil {
			t.Fatal(err)
		}
		if x == y {
			t.Errorf("%v and %v share key %q", p[0], p[1], x)
		}
	}
}
