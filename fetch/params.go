package fetch

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
)

// APIKeyParam is the query parameter carrying the API key. It never
// contributes to cache keys.
const APIKeyParam = "appid"

// Params are request parameters. Values must be strings, booleans, or
// numbers.
type Params map[string]any

// KeyPolicy selects which parameters contribute to cache keys.
type KeyPolicy int

const (
	// KeyByIdentity keys on the endpoint's identity parameters only, so
	// requests differing in units or lang share an entry.
	KeyByIdentity KeyPolicy = iota

	// KeyByAllParams additionally folds every other parameter except the
	// API key into the key.
	KeyByAllParams
)

// ParseKeyPolicy maps "identity" and "all" to a KeyPolicy.
func ParseKeyPolicy(s string) (KeyPolicy, error) {
	switch s {
	case "", "identity":
		return KeyByIdentity, nil
	case "all":
		return KeyByAllParams, nil
	default:
		return KeyByIdentity, fmt.Errorf("fetch: unknown key policy %q", s)
	}
}

// formatValue renders a parameter value for the query string.
func formatValue(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case uint:
		return strconv.FormatUint(uint64(val), 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}

// merge returns defaults overlaid with params. Caller values win.
func merge(defaults, params Params) (Params, error) {
	out := make(Params, len(defaults)+len(params))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range params {
		if k == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidParam)
		}
		if _, ok := formatValue(v); !ok {
			return nil, fmt.Errorf("%w: %s has unsupported type %T", ErrInvalidParam, k, v)
		}
		out[k] = v
	}
	return out, nil
}

// encode renders params as a query string with keys sorted.
func (p Params) encode() string {
	q := make(url.Values, len(p))
	for k, v := range p {
		s, _ := formatValue(v)
		q.Set(k, s)
	}
	return q.Encode()
}

// keyParts returns the values that identify a request under policy.
func keyParts(ep Endpoint, p Params, policy KeyPolicy) ([]any, error) {
	parts := make([]any, 0, len(ep.Identity))
	identity := make(map[string]struct{}, len(ep.Identity))
	for _, name := range ep.Identity {
		v, ok := p[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s requires %q", ErrInvalidParam, ep.Name, name)
		}
		parts = append(parts, v)
		identity[name] = struct{}{}
	}
	if policy != KeyByAllParams {
		return parts, nil
	}

	rest := make([]string, 0, len(p))
	for k := range p {
		if _, ok := identity[k]; ok || k == APIKeyParam {
			continue
		}
		rest = append(rest, k)
	}
	sort.Strings(rest)
	for _, k := range rest {
		s, _ := formatValue(p[k])
		parts = append(parts, k+"="+s)
	}
	return parts, nil
}
