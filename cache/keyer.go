package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Keyer derives a cache key from a request class and its identity values.
//
// Contract:
// - Determinism: same class and parts must produce the same key.
// - Order: parts are positional; callers supply them in a fixed order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Key(class string, parts []any) (string, error)
}

// JoinKeyer produces readable keys of the form <class>:<part>_<part>.
//
// Strings are trimmed and lower-cased, numbers use the shortest
// representation that round-trips. Maps are rendered as canonical JSON.
// Inside a part "%" becomes "%25" and "_" becomes "%5F", so distinct part
// lists never share a key.
type JoinKeyer struct{}

// NewJoinKeyer creates a JoinKeyer.
func NewJoinKeyer() *JoinKeyer {
	return &JoinKeyer{}
}

// Key generates a readable key, e.g. "coords:51.5074_-0.1278".
func (k *JoinKeyer) Key(class string, parts []any) (string, error) {
	if strings.TrimSpace(class) == "" {
		return "", ErrInvalidKey
	}
	normalized := make([]string, len(parts))
	for i, p := range parts {
		s, err := NormalizePart(p)
		if err != nil {
			return "", err
		}
		normalized[i] = partEscaper.Replace(s)
	}
	key := class + ":" + strings.Join(normalized, "_")
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

var partEscaper = strings.NewReplacer("%", "%25", "_", "%5F")

// HashKeyer generates SHA-256 based keys.
// Format: <class>:<hash>, where hash is the first 16 hex characters of
// SHA-256(canonical JSON(parts)).
type HashKeyer struct{}

// NewHashKeyer creates a HashKeyer.
func NewHashKeyer() *HashKeyer {
	return &HashKeyer{}
}

// Key generates a fixed-length key regardless of how long the parts are.
func (k *HashKeyer) Key(class string, parts []any) (string, error) {
	if strings.TrimSpace(class) == "" {
		return "", ErrInvalidKey
	}
	normalized := make([]any, len(parts))
	for i, p := range parts {
		if s, ok := p.(string); ok {
			normalized[i] = strings.ToLower(strings.TrimSpace(s))
			continue
		}
		normalized[i] = p
	}
	canonical, err := canonicalize(normalized)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize key parts: %w", err)
	}
	hash := sha256.Sum256(canonical)
	return class + ":" + hex.EncodeToString(hash[:8]), nil
}

// NormalizePart renders a single identity value the way JoinKeyer does.
func NormalizePart(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.ToLower(strings.TrimSpace(val)), nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	default:
		b, err := canonicalize(val)
		if err != nil {
			return "", fmt.Errorf("cache: failed to canonicalize key part: %w", err)
		}
		return string(b), nil
	}
}

// canonicalize produces a deterministic JSON representation of the input.
// Maps are sorted by key to ensure consistent ordering.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	return append(result, '}'), nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}
		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	return append(result, ']'), nil
}

var (
	_ Keyer = (*JoinKeyer)(nil)
	_ Keyer = (*HashKeyer)(nil)
)
