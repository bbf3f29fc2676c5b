package fetch

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"shelfmark/internal/cachestore"
	"shelfmark/internal/logging"
	"shelfmark/internal/scheduler"
	"shelfmark/internal/textutil"
)

const (
	// DefaultTTLMinutes applies when a call does not request a TTL.
	DefaultTTLMinutes = 1440
	// EmptyTTLMinutes caps the TTL of empty results so "no match" answers
	// get re-checked sooner than substantive ones.
	EmptyTTLMinutes = 60
	// FailureTTLMinutes is the fixed lifetime of the null sentinel cached
	// after a failed call.
	FailureTTLMinutes = 5
)

// Meta describes how a Result was produced.
type Meta struct {
	Cached    bool
	Source    string
	Timestamp time.Time
	Err       string
}

// Result wraps response data with its provenance. Err and Data are not
// mutually exclusive in general: an error always implies zero Data, but
// absent error does not guarantee non-zero Data for legitimately-empty
// results.
type Result[T any] struct {
	Data T
	Meta Meta
}

// TTLPolicy maps response data to a cache TTL in minutes. Clients supply one
// to shrink the lifetime of low-quality results.
type TTLPolicy[T any] func(data T, requestedTTL int) int

// DefaultTTL keeps the requested TTL for substantive data and caps empty
// data at EmptyTTLMinutes.
func DefaultTTL[T any](data T, requestedTTL int) int {
	if requestedTTL <= 0 {
		requestedTTL = DefaultTTLMinutes
	}
	if isEmptyValue(data) {
		return min(requestedTTL, EmptyTTLMinutes)
	}
	return requestedTTL
}

func isEmptyValue(data any) bool {
	v := reflect.ValueOf(data)
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.String:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	default:
		return v.IsZero()
	}
}

// Options configures one orchestrated call.
type Options[T any] struct {
	// Fn performs the actual upstream request.
	Fn func(ctx context.Context) (T, error)
	// CacheKey enables caching and scheduler dedup when non-empty.
	CacheKey string
	// CacheTTL in minutes; DefaultTTLMinutes when zero.
	CacheTTL int
	// SkipCache bypasses the cache read and write.
	SkipCache bool
	// SkipQueue runs Fn directly instead of through the scheduler.
	SkipQueue bool
	// Priority orders this call against other scheduled work.
	Priority int
	// Process normalizes the raw response before caching; identity when nil.
	Process func(T) (T, error)
	// TTL overrides the adaptive TTL policy; DefaultTTL when nil.
	TTL TTLPolicy[T]
}

// Client binds an upstream service name to the shared cache and scheduler.
type Client struct {
	name   string
	cache  *cachestore.Store
	queue  *scheduler.Scheduler
	logger *slog.Logger
}

// NewClient creates the orchestration client for one upstream service.
func NewClient(name string, cache *cachestore.Store, queue *scheduler.Scheduler, logger *slog.Logger) *Client {
	return &Client{
		name:   name,
		cache:  cache,
		queue:  queue,
		logger: logging.NewComponentLogger(logger, strings.ToLower(name)),
	}
}

// Name returns the client's logical service name.
func (c *Client) Name() string { return c.name }

// CacheKey builds a deterministic namespaced key from the non-empty parts.
// Identical logical queries collide to one key; parts are width-folded so
// full-width scraped strings match their ASCII forms.
func (c *Client) CacheKey(parts ...string) string {
	segments := make([]string, 0, len(parts)+1)
	segments = append(segments, strings.ToLower(c.name))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		segments = append(segments, textutil.KeyPart(part))
	}
	return strings.Join(segments, "_")
}

// Do executes one call through the cache and scheduler. It never returns an
// error: failures surface in Meta.Err with zero Data.
func Do[T any](ctx context.Context, c *Client, opts Options[T]) Result[T] {
	logger := logging.WithContext(ctx, c.logger)

	useCache := !opts.SkipCache && opts.CacheKey != ""
	if useCache {
		if raw, ok := c.cache.Get(opts.CacheKey); ok {
			var data T
			if err := json.Unmarshal(raw, &data); err == nil {
				logger.Debug("cache hit", logging.String(logging.FieldCacheKey, opts.CacheKey))
				return Result[T]{Data: data, Meta: c.meta(true, "")}
			}
			// Cached payload no longer matches the expected shape; drop it
			// and fall through to a fresh request.
			c.cache.Delete(opts.CacheKey)
		}
	}

	var data T
	var err error
	if opts.SkipQueue {
		data, err = opts.Fn(ctx)
	} else {
		data, err = scheduler.EnqueueTyped(ctx, c.queue, opts.Fn, scheduler.Options{
			Key:      opts.CacheKey,
			Priority: opts.Priority,
		})
	}

	if err == nil && opts.Process != nil {
		data, err = opts.Process(data)
	}

	if err != nil {
		logger.Debug("request failed",
			logging.String(logging.FieldCacheKey, opts.CacheKey),
			logging.Error(err))
		if useCache {
			c.cache.Set(opts.CacheKey, nil, FailureTTLMinutes)
		}
		var zero T
		return Result[T]{Data: zero, Meta: c.meta(false, err.Error())}
	}

	if useCache {
		policy := opts.TTL
		if policy == nil {
			policy = DefaultTTL[T]
		}
		requested := opts.CacheTTL
		if requested <= 0 {
			requested = DefaultTTLMinutes
		}
		c.cache.Set(opts.CacheKey, data, policy(data, requested))
	}

	return Result[T]{Data: data, Meta: c.meta(false, "")}
}

// Unavailable produces the result of a call that could not be attempted,
// typically because the service is not configured. Nothing is cached.
func Unavailable[T any](c *Client, msg string) Result[T] {
	var zero T
	return Result[T]{Data: zero, Meta: c.meta(false, msg)}
}

func (c *Client) meta(cached bool, errMsg string) Meta {
	return Meta{
		Cached:    cached,
		Source:    c.name,
		Timestamp: time.Now().UTC(),
		Err:       errMsg,
	}
}
