package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shelfmark/internal/cachestore"
	"shelfmark/internal/fetch"
	"shelfmark/internal/scheduler"
	"shelfmark/internal/services"
)

const (
	searchTTLMinutes  = 1440
	detailsTTLMinutes = 2880
	searchPriority    = 5
)

// listTTL keeps the requested lifetime for non-empty result lists and shortens
// empty ones so missing titles get re-checked within the hour.
func listTTL[T any](data []T, requestedTTL int) int {
	if len(data) == 0 {
		return fetch.EmptyTTLMinutes
	}
	return requestedTTL
}

// Client queries the TMDB v3 API.
type Client struct {
	fc         *fetch.Client
	apiKey     string
	baseURL    string
	language   string
	httpClient services.HTTPDoer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(doer services.HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.httpClient = doer
		}
	}
}

// New creates a TMDB client. A missing API key yields a client whose calls
// report "tmdb api key not configured" instead of reaching the network.
func New(apiKey, baseURL, language string, cache *cachestore.Store, queue *scheduler.Scheduler, logger *slog.Logger, opts ...Option) *Client {
	if language == "" {
		language = "zh-CN"
	}
	c := &Client{
		fc:         fetch.NewClient("TMDB", cache, queue, logger),
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		language:   language,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// SearchMovie searches for movies by title, optionally constrained to a
// release year.
func (c *Client) SearchMovie(ctx context.Context, query, year string) fetch.Result[[]Movie] {
	if !c.Configured() {
		return fetch.Unavailable[[]Movie](c.fc, "tmdb api key not configured")
	}

	return fetch.Do(ctx, c.fc, fetch.Options[[]Movie]{
		Fn: func(ctx context.Context) ([]Movie, error) {
			params := c.baseParams(query)
			if year != "" {
				params.Set("primary_release_year", year)
			}
			return doSearch[Movie](ctx, c, "/search/movie", params)
		},
		CacheKey: c.fc.CacheKey("search", "movie", query, year),
		CacheTTL: searchTTLMinutes,
		Priority: searchPriority,
		TTL:      listTTL[Movie],
	})
}

// SearchTV searches for series by title, optionally constrained to a first
// air year.
func (c *Client) SearchTV(ctx context.Context, query, year string) fetch.Result[[]TV] {
	if !c.Configured() {
		return fetch.Unavailable[[]TV](c.fc, "tmdb api key not configured")
	}

	return fetch.Do(ctx, c.fc, fetch.Options[[]TV]{
		Fn: func(ctx context.Context) ([]TV, error) {
			params := c.baseParams(query)
			if year != "" {
				params.Set("first_air_date_year", year)
			}
			return doSearch[TV](ctx, c, "/search/tv", params)
		},
		CacheKey: c.fc.CacheKey("search", "tv", query, year),
		CacheTTL: searchTTLMinutes,
		Priority: searchPriority,
		TTL:      listTTL[TV],
	})
}

// MovieDetails fetches the full record for one movie id.
func (c *Client) MovieDetails(ctx context.Context, id int64) fetch.Result[*MovieDetails] {
	return details[MovieDetails](ctx, c, "movie", id)
}

// TVDetails fetches the full record for one series id.
func (c *Client) TVDetails(ctx context.Context, id int64) fetch.Result[*TVDetails] {
	return details[TVDetails](ctx, c, "tv", id)
}

func details[T any](ctx context.Context, c *Client, mediaType string, id int64) fetch.Result[*T] {
	if !c.Configured() {
		return fetch.Unavailable[*T](c.fc, "tmdb api key not configured")
	}

	return fetch.Do(ctx, c.fc, fetch.Options[*T]{
		Fn: func(ctx context.Context) (*T, error) {
			params := url.Values{}
			params.Set("api_key", c.apiKey)
			params.Set("language", c.language)

			var payload T
			if err := c.getJSON(ctx, "/"+mediaType+"/"+strconv.FormatInt(id, 10), params, &payload); err != nil {
				return nil, err
			}
			return &payload, nil
		},
		CacheKey: c.fc.CacheKey("details", mediaType, strconv.FormatInt(id, 10)),
		CacheTTL: detailsTTLMinutes,
	})
}

func (c *Client) baseParams(query string) url.Values {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", query)
	params.Set("language", c.language)
	params.Set("include_adult", "false")
	return params
}

func doSearch[T any](ctx context.Context, c *Client, path string, params url.Values) ([]T, error) {
	var payload searchResponse[T]
	if err := c.getJSON(ctx, path, params, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb returned %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}
