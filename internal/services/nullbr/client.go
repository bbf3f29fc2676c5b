package nullbr

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"shelfmark/internal/cachestore"
	"shelfmark/internal/fetch"
	"shelfmark/internal/scheduler"
	"shelfmark/internal/services"
)

// resourceTTL keeps empty answers for the full default window. Resource
// listings appear slowly, so "nothing yet" is as durable an answer as a hit.
func resourceTTL[T any](data []T, requestedTTL int) int {
	if len(data) > 0 {
		return requestedTTL
	}
	return fetch.DefaultTTLMinutes
}

// Settings carries the Nullbr credentials and feature toggles.
type Settings struct {
	AppID        string
	APIKey       string
	BaseURL      string
	UserAgent    string
	Enable115    bool
	EnableMagnet bool
	CacheTTL     int
}

// Client queries the Nullbr resource index.
type Client struct {
	fc         *fetch.Client
	settings   Settings
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

// New creates a Nullbr client. Missing credentials yield a client whose calls
// report "nullbr api not configured" instead of reaching the network.
func New(settings Settings, cache *cachestore.Store, queue *scheduler.Scheduler, logger *slog.Logger, opts ...Option) *Client {
	settings.BaseURL = strings.TrimRight(strings.TrimSpace(settings.BaseURL), "/")
	if settings.CacheTTL <= 0 {
		settings.CacheTTL = fetch.DefaultTTLMinutes
	}
	c := &Client{
		fc:         fetch.NewClient("Nullbr", cache, queue, logger),
		settings:   settings,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether app id and api key are both present.
func (c *Client) Configured() bool {
	return c.settings.AppID != "" && c.settings.APIKey != ""
}

// Get115Resources lists 115 share links for a TMDB id.
func (c *Client) Get115Resources(ctx context.Context, tmdbID int64, mediaType string) fetch.Result[[]Item115] {
	if !c.Configured() {
		return fetch.Unavailable[[]Item115](c.fc, "nullbr api not configured")
	}

	id := strconv.FormatInt(tmdbID, 10)
	return fetch.Do(ctx, c.fc, fetch.Options[[]Item115]{
		Fn: func(ctx context.Context) ([]Item115, error) {
			var payload response115
			found, err := c.getJSON(ctx, "/"+mediaType+"/"+id+"/115", &payload)
			if err != nil || !found {
				return nil, err
			}
			return payload.Items, nil
		},
		CacheKey: c.fc.CacheKey("115", mediaType, id),
		CacheTTL: c.settings.CacheTTL,
		TTL:      resourceTTL[Item115],
	})
}

// GetMagnetResources lists magnet links for a TMDB id. Series requests go per
// season; season zero means season one.
func (c *Client) GetMagnetResources(ctx context.Context, tmdbID int64, mediaType string, seasonNumber int) fetch.Result[[]MagnetItem] {
	if !c.Configured() {
		return fetch.Unavailable[[]MagnetItem](c.fc, "nullbr api not configured")
	}

	id := strconv.FormatInt(tmdbID, 10)
	var path, cacheKey string
	if mediaType == "movie" {
		path = "/movie/" + id + "/magnet"
		cacheKey = c.fc.CacheKey("magnet", "movie", id)
	} else {
		if seasonNumber <= 0 {
			seasonNumber = 1
		}
		season := strconv.Itoa(seasonNumber)
		path = "/tv/" + id + "/season/" + season + "/magnet"
		cacheKey = c.fc.CacheKey("magnet", "tv", id, season)
	}

	return fetch.Do(ctx, c.fc, fetch.Options[[]MagnetItem]{
		Fn: func(ctx context.Context) ([]MagnetItem, error) {
			var payload magnetResponse
			found, err := c.getJSON(ctx, path, &payload)
			if err != nil || !found {
				return nil, err
			}
			return payload.Magnet, nil
		},
		CacheKey: cacheKey,
		CacheTTL: c.settings.CacheTTL,
		TTL:      resourceTTL[MagnetItem],
	})
}

// GetAllResources fetches the enabled resource kinds concurrently and merges
// them. Individual failures degrade to empty lists.
func (c *Client) GetAllResources(ctx context.Context, tmdbID int64, mediaType string) Resources {
	if !c.settings.Enable115 && !c.settings.EnableMagnet {
		return Resources{}
	}

	var items115 []Item115
	var magnets []MagnetItem

	group, ctx := errgroup.WithContext(ctx)
	if c.settings.Enable115 {
		group.Go(func() error {
			items115 = c.Get115Resources(ctx, tmdbID, mediaType).Data
			return nil
		})
	}
	if c.settings.EnableMagnet {
		group.Go(func() error {
			magnets = c.GetMagnetResources(ctx, tmdbID, mediaType, 0).Data
			return nil
		})
	}
	_ = group.Wait()

	return Resources{
		Items115: items115,
		Magnets:  magnets,
		HasData:  len(items115) > 0 || len(magnets) > 0,
	}
}

// getJSON returns found=false on a 404 without touching out.
func (c *Client) getJSON(ctx context.Context, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.settings.BaseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-APP-ID", c.settings.AppID)
	req.Header.Set("X-API-KEY", c.settings.APIKey)
	if c.settings.UserAgent != "" {
		req.Header.Set("User-Agent", c.settings.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, fmt.Errorf("decode nullbr response: %w", err)
		}
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("nullbr returned %d for %s", resp.StatusCode, path)
	}
}
