package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/everstacklabs/chutes-plugin/internal/cache"
	"github.com/everstacklabs/chutes-plugin/internal/catalog"
	"github.com/everstacklabs/chutes-plugin/internal/httpclient"
	"github.com/everstacklabs/chutes-plugin/internal/registry"
)

// DefaultBaseURL is the Chutes OpenAI-compatible endpoint.
const DefaultBaseURL = "https://llm.chutes.ai/v1"

const (
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
)

// Fetcher lists models from the API, caching the result and keeping a
// registry of display IDs in sync with it.
//
// A Fetcher has a single owner; it is not safe for concurrent use.
type Fetcher struct {
	baseURL    string
	client     *httpclient.Client
	cache      *cache.Cache
	registry   *registry.Registry
	maxRetries int
	retryDelay time.Duration
}

type settings struct {
	baseURL    string
	ttl        time.Duration
	maxRetries int
	retryDelay time.Duration
	prefix     string
	client     *httpclient.Client
	clock      func() time.Time
}

// Option configures a Fetcher.
type Option func(*settings)

// WithBaseURL sets the API root; "/models" is appended to it.
func WithBaseURL(url string) Option {
	return func(s *settings) { s.baseURL = strings.TrimRight(url, "/") }
}

// WithCacheTTL sets how long a fetched list is reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *settings) { s.ttl = ttl }
}

// WithMaxRetries sets how many times a retryable failure is retried.
func WithMaxRetries(n int) Option {
	return func(s *settings) { s.maxRetries = n }
}

// WithRetryDelay sets the base delay between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(s *settings) { s.retryDelay = d }
}

// WithPrefix sets the registry's display namespace.
func WithPrefix(prefix string) Option {
	return func(s *settings) { s.prefix = prefix }
}

// WithHTTPClient sets the client used for API calls.
func WithHTTPClient(c *httpclient.Client) Option {
	return func(s *settings) { s.client = c }
}

// WithClock replaces time.Now for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.clock = now }
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	s := settings{
		baseURL:    DefaultBaseURL,
		ttl:        cache.DefaultTTL,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		prefix:     registry.DefaultPrefix,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.client == nil {
		s.client = httpclient.New(httpclient.WithRateLimit(10))
	}

	var cacheOpts []cache.Option
	if s.clock != nil {
		cacheOpts = append(cacheOpts, cache.WithClock(s.clock))
	}

	return &Fetcher{
		baseURL:    s.baseURL,
		client:     s.client,
		cache:      cache.NewWithTTL(s.ttl, cacheOpts...),
		registry:   registry.New(registry.WithPrefix(s.prefix)),
		maxRetries: s.maxRetries,
		retryDelay: s.retryDelay,
	}
}

// SetAPIToken sets the bearer token for later requests.
func (f *Fetcher) SetAPIToken(token string) { f.client.SetToken(token) }

// APIToken returns the configured token, or "" when unset.
func (f *Fetcher) APIToken() string { return f.client.Token() }

// BaseURL returns the API root.
func (f *Fetcher) BaseURL() string { return f.baseURL }

// FetchModels returns the cached models while the cache is valid and
// otherwise fetches them from the API.
//
// After a successful fetch the cache is updated first and the registry is
// rebuilt second. A failed or cancelled fetch leaves both untouched.
func (f *Fetcher) FetchModels(ctx context.Context) ([]catalog.Model, error) {
	if models, ok := f.cache.Models(); ok {
		return models, nil
	}

	models, err := f.fetch(ctx)
	if err != nil {
		return nil, err
	}

	f.cache.Set(models)
	f.registry.Clear()
	f.registry.RegisterAll(models)

	slog.Info("models fetched", "count", len(models), "ttl", f.cache.TTL())
	return models, nil
}

// RefreshModels fetches models, bypassing the cache when force is set.
func (f *Fetcher) RefreshModels(ctx context.Context, force bool) ([]catalog.Model, error) {
	if force {
		f.cache.Clear()
	}
	return f.FetchModels(ctx)
}

// CachedModels returns the cached models without fetching.
func (f *Fetcher) CachedModels() ([]catalog.Model, bool) { return f.cache.Models() }

// Registry returns the ID registry rebuilt on every fetch.
func (f *Fetcher) Registry() *registry.Registry { return f.registry }

// IsCacheValid reports whether FetchModels would be served from cache.
func (f *Fetcher) IsCacheValid() bool { return f.cache.IsValid() }

// IsCacheStale reports whether the next FetchModels goes to the network.
func (f *Fetcher) IsCacheStale() bool { return f.cache.IsStale() }

// ClearCache drops the cached list and empties the registry.
func (f *Fetcher) ClearCache() {
	f.cache.Clear()
	f.registry.Clear()
}

// CacheAge returns the age of the cached list.
func (f *Fetcher) CacheAge() (time.Duration, bool) { return f.cache.Age() }

// CacheRemainingTTL returns the time until the cached list expires.
func (f *Fetcher) CacheRemainingTTL() (time.Duration, bool) { return f.cache.RemainingTTL() }

func (f *Fetcher) fetch(ctx context.Context) ([]catalog.Model, error) {
	url := f.baseURL + "/models"
	schedule := &retrySchedule{delay: f.retryDelay}

	var models []catalog.Model
	attempt := 0
	op := func() error {
		attempt++
		resp, err := f.client.Get(ctx, url, nil)
		if err != nil {
			return &FetchError{Kind: KindNetwork, Message: "failed to fetch models", Err: err}
		}
		if !resp.OK() {
			return classify(resp, schedule)
		}

		var body catalog.ModelsResponse
		if err := json.Unmarshal(resp.Body, &body); err != nil {
			return backoff.Permanent(&FetchError{
				Kind:       KindInvalidResponse,
				StatusCode: resp.StatusCode,
				Message:    "invalid response format from API",
				Err:        err,
			})
		}
		if body.Data == nil {
			return backoff.Permanent(&FetchError{
				Kind:       KindInvalidResponse,
				StatusCode: resp.StatusCode,
				Message:    "invalid response format from API: missing data array",
			})
		}
		models = body.Data
		return nil
	}

	notify := func(err error, d time.Duration) {
		slog.Warn("model fetch failed, retrying", "attempt", attempt, "delay", d, "error", err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(schedule, uint64(max(f.maxRetries, 0))), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, fe
		}
		// Context cancellation surfaces from the backoff loop itself.
		return nil, &FetchError{Kind: KindNetwork, Message: "failed to fetch models", Err: err}
	}
	return models, nil
}

// classify maps a non-2xx response to a FetchError. Non-retryable kinds are
// wrapped as permanent so the retry loop stops immediately.
func classify(resp *httpclient.Response, schedule *retrySchedule) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return backoff.Permanent(&FetchError{
			Kind:       KindAuth,
			StatusCode: resp.StatusCode,
			Message:    "invalid or missing API token, configure CHUTES_API_TOKEN",
		})
	case resp.StatusCode == http.StatusTooManyRequests:
		if d, ok := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
			schedule.override(d)
		}
		return &FetchError{
			Kind:       KindRateLimit,
			StatusCode: resp.StatusCode,
			Message:    "rate limit exceeded, try again later",
		}
	case resp.StatusCode >= 500:
		return &FetchError{
			Kind:       KindServer,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("server error: %s", resp.Status),
		}
	default:
		return backoff.Permanent(&FetchError{
			Kind:       KindHTTP,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP error: %s", resp.Status),
		})
	}
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

// retrySchedule waits delay*(n+1) before the n-th retry unless the server
// asked for a specific delay.
type retrySchedule struct {
	delay    time.Duration
	attempt  int
	next     time.Duration
	haveNext bool
}

func (s *retrySchedule) override(d time.Duration) {
	s.next = d
	s.haveNext = true
}

func (s *retrySchedule) NextBackOff() time.Duration {
	d := s.delay * time.Duration(s.attempt+1)
	if s.haveNext {
		d = s.next
		s.haveNext = false
	}
	s.attempt++
	return d
}

func (s *retrySchedule) Reset() {
	s.attempt = 0
	s.haveNext = false
}
