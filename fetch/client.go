package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/weatherops/cache"
	"github.com/jonwraymond/weatherops/observe"
)

// DefaultMaxBodyBytes bounds response bodies read from the remote API.
const DefaultMaxBodyBytes int64 = 4 << 20

// Payload is a raw JSON response body.
type Payload []byte

// Decode unmarshals the payload into v.
func (p Payload) Decode(v any) error {
	return json.Unmarshal(p, v)
}

// Client fetches JSON from a remote API and caches successful responses.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Cache: only successful, valid JSON responses are stored.
// - Context: honours the caller's context; the client applies no timeout of its own.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	cache      cache.Cache
	policy     cache.Policy
	keyer      cache.Keyer
	keyPolicy  KeyPolicy
	defaults   Params
	coalesce   bool
	maxBody    int64
	now        func() time.Time
	middleware *observe.Middleware
	logger     observe.Logger

	mu        sync.RWMutex
	endpoints map[string]Endpoint

	group singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for outbound requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithCache sets the backing cache. The default is an in-memory cache
// built from the client's policy.
func WithCache(cc cache.Cache) Option {
	return func(c *Client) {
		c.cache = cc
	}
}

// WithPolicy sets the cache policy.
func WithPolicy(p cache.Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithTTL sets how long a stored payload is reused.
func WithTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.policy.TTL = ttl
	}
}

// WithKeyer sets how key parts are rendered. The default is cache.JoinKeyer.
func WithKeyer(k cache.Keyer) Option {
	return func(c *Client) {
		if k != nil {
			c.keyer = k
		}
	}
}

// WithKeyPolicy selects which parameters contribute to keys.
func WithKeyPolicy(p KeyPolicy) Option {
	return func(c *Client) {
		c.keyPolicy = p
	}
}

// WithDefaults sets parameters sent with every request unless the caller
// overrides them.
func WithDefaults(p Params) Option {
	return func(c *Client) {
		for k, v := range p {
			c.defaults[k] = v
		}
	}
}

// WithAPIKey sets the default API key parameter.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.defaults[APIKeyParam] = key
	}
}

// WithEndpoints registers endpoints at construction.
func WithEndpoints(eps ...Endpoint) Option {
	return func(c *Client) {
		for _, ep := range eps {
			c.endpoints[ep.Name] = ep
		}
	}
}

// WithoutCoalescing disables sharing of in-flight requests between
// concurrent callers. Each miss then issues its own request and the last
// completion wins the cache entry.
func WithoutCoalescing() Option {
	return func(c *Client) {
		c.coalesce = false
	}
}

// WithMaxBodyBytes bounds response bodies. Larger bodies fail with KindUnknown.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithClock replaces time.Now for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMiddleware wraps every fetch with tracing, metrics, and logging.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(c *Client) {
		c.middleware = mw
	}
}

// WithLogger sets the logger for cache backend failures.
func WithLogger(l observe.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: http.DefaultClient,
		policy:     cache.DefaultPolicy(),
		keyer:      cache.NewJoinKeyer(),
		keyPolicy:  KeyByIdentity,
		defaults:   make(Params),
		coalesce:   true,
		maxBody:    DefaultMaxBodyBytes,
		now:        time.Now,
		logger:     observe.NopLogger(),
		endpoints:  make(map[string]Endpoint),
	}
	for _, opt := range opts {
		opt(c)
	}

	if _, err := merge(nil, c.defaults); err != nil {
		return nil, err
	}
	for _, ep := range c.endpoints {
		if err := ep.validate(); err != nil {
			return nil, err
		}
	}
	if c.cache == nil {
		c.cache = cache.NewMemoryCache(c.policy)
	}
	if c.middleware == nil {
		c.middleware = observe.NewMiddleware(nil, nil, c.logger)
	}
	return c, nil
}

// Register adds an endpoint after construction.
func (c *Client) Register(ep Endpoint) error {
	if err := ep.validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.endpoints[ep.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEndpoint, ep.Name)
	}
	c.endpoints[ep.Name] = ep
	return nil
}

// Policy returns the cache policy in effect.
func (c *Client) Policy() cache.Policy {
	return c.policy
}

func (c *Client) endpoint(name string) (Endpoint, error) {
	if strings.TrimSpace(name) == "" {
		return Endpoint{}, ErrEmptyEndpoint
	}
	c.mu.RLock()
	ep, ok := c.endpoints[name]
	c.mu.RUnlock()
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %s", ErrUnknownEndpoint, name)
	}
	return ep, nil
}

// resolve validates the call and derives the merged params and cache key.
func (c *Client) resolve(endpoint string, params Params) (Endpoint, Params, string, error) {
	ep, err := c.endpoint(endpoint)
	if err != nil {
		return Endpoint{}, nil, "", err
	}
	merged, err := merge(c.defaults, params)
	if err != nil {
		return Endpoint{}, nil, "", err
	}
	parts, err := keyParts(ep, merged, c.keyPolicy)
	if err != nil {
		return Endpoint{}, nil, "", err
	}
	key, err := c.keyer.Key(ep.class(), parts)
	if err != nil {
		return Endpoint{}, nil, "", fmt.Errorf("%w: %v", ErrInvalidParam, err)
	}
	return ep, merged, key, nil
}

// Key returns the cache key a Fetch with the same arguments would use.
func (c *Client) Key(endpoint string, params Params) (string, error) {
	_, _, key, err := c.resolve(endpoint, params)
	return key, err
}

// Fetch returns the payload for endpoint and params, from cache while the
// stored entry is fresh and from the network otherwise.
//
// Upstream failures are *Error values carrying a Kind. When the caller
// cancels ctx, the returned error wraps context.Canceled and carries no
// Kind; an expired deadline is KindNetworkUnavailable.
func (c *Client) Fetch(ctx context.Context, endpoint string, params Params) (Payload, error) {
	ep, merged, key, err := c.resolve(endpoint, params)
	if err != nil {
		return nil, err
	}

	meta := observe.RequestMeta{
		Endpoint: ep.Name,
		Class:    ep.class(),
		Path:     ep.Path,
		Key:      key,
	}
	run := c.middleware.Wrap(func(ctx context.Context, _ observe.RequestMeta) ([]byte, bool, error) {
		return c.fetch(ctx, ep, merged, key)
	})

	body, _, err := run(ctx, meta)
	if err != nil {
		return nil, err
	}
	return Payload(bytes.Clone(body)), nil
}

func (c *Client) fetch(ctx context.Context, ep Endpoint, params Params, key string) ([]byte, bool, error) {
	if body, ok := c.lookup(ctx, key); ok {
		return body, true, nil
	}

	if !c.coalesce {
		body, err := c.roundTrip(ctx, ep, params, key)
		return body, false, err
	}

	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := detachCancel(ctx)
		defer cancel()
		return c.roundTrip(fetchCtx, ep, params, key)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.([]byte), false, nil
	case <-ctx.Done():
		return nil, false, contextError(ep.Name, ctx.Err())
	}
}

// lookup returns a fresh cached payload. Backend errors count as a miss.
func (c *Client) lookup(ctx context.Context, key string) ([]byte, bool) {
	entry, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn(ctx, "cache read failed",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return nil, false
	}
	if !ok || !c.policy.Fresh(entry, c.now()) {
		return nil, false
	}
	return entry.Value, true
}

// roundTrip performs one GET and stores a successful response.
func (c *Client) roundTrip(ctx context.Context, ep Endpoint, params Params, key string) ([]byte, error) {
	u := *c.baseURL
	u.Path = u.Path + "/" + strings.TrimLeft(ep.Path, "/")
	u.RawQuery = params.encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Endpoint: ep.Name, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, contextError(ep.Name, ctxErr)
		}
		return nil, &Error{Kind: KindNetworkUnavailable, Endpoint: ep.Name, Err: redactURLError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBody))
		return nil, statusError(ep.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &Error{Kind: KindNetworkUnavailable, Endpoint: ep.Name, Status: resp.StatusCode, Err: err}
	}
	if int64(len(body)) > c.maxBody {
		return nil, &Error{Kind: KindUnknown, Endpoint: ep.Name, Status: resp.StatusCode, Err: errBodyTooLarge}
	}
	if !json.Valid(body) {
		return nil, &Error{Kind: KindUnknown, Endpoint: ep.Name, Status: resp.StatusCode, Err: errInvalidJSON}
	}

	if !c.policy.ShouldCache() {
		return body, nil
	}
	entry := cache.Entry{Key: key, Value: body, StoredAt: c.now()}
	if err := c.cache.Set(ctx, entry); err != nil {
		c.logger.Warn(ctx, "cache write failed",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
	return body, nil
}

// Invalidate removes the entry a Fetch with the same arguments would use.
func (c *Client) Invalidate(ctx context.Context, endpoint string, params Params) error {
	key, err := c.Key(endpoint, params)
	if err != nil {
		return err
	}
	return c.cache.Delete(ctx, key)
}

// Clear removes every cached entry.
func (c *Client) Clear(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

// FetchInto fetches and decodes the payload into a T.
func FetchInto[T any](ctx context.Context, c *Client, endpoint string, params Params) (T, error) {
	var out T
	payload, err := c.Fetch(ctx, endpoint, params)
	if err != nil {
		return out, err
	}
	if err := payload.Decode(&out); err != nil {
		return out, &Error{Kind: KindUnknown, Endpoint: endpoint, Err: err}
	}
	return out, nil
}

// detachCancel returns a context that survives cancellation of parent but
// keeps its deadline, so followers of a cancelled leader are not failed.
func detachCancel(parent context.Context) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(parent)
	if dl, ok := parent.Deadline(); ok {
		return context.WithDeadline(ctx, dl)
	}
	return context.WithCancel(ctx)
}

// contextError reports a request abandoned by its caller as the plain
// context error. An expired deadline stays KindNetworkUnavailable so slow
// upstream attempts remain retryable.
func contextError(endpoint string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("fetch: %s: %w", endpoint, err)
	}
	return &Error{Kind: KindNetworkUnavailable, Endpoint: endpoint, Err: err}
}

// redactURLError drops the request URL, which carries the API key.
func redactURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
