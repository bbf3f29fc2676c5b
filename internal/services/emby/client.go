package emby

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"shelfmark/internal/cachestore"
	"shelfmark/internal/fetch"
	"shelfmark/internal/logging"
	"shelfmark/internal/scheduler"
	"shelfmark/internal/services"
)

const (
	checkTTLMinutes  = 1440
	searchTTLMinutes = 60
	lookupPriority   = 3
)

// Client provides access to the Emby Items API through the shared cache and
// scheduler.
type Client struct {
	fc         *fetch.Client
	server     string
	apiKey     string
	httpClient services.HTTPDoer
	logger     *slog.Logger
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

// New creates an Emby client. Empty server or apiKey yields a client whose
// calls report "emby not configured" instead of reaching the network.
func New(server, apiKey string, cache *cachestore.Store, queue *scheduler.Scheduler, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		fc:         fetch.NewClient("Emby", cache, queue, logger),
		server:     strings.TrimRight(strings.TrimSpace(server), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logging.NewComponentLogger(logger, "emby"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether server credentials are present.
func (c *Client) Configured() bool {
	return c.server != "" && c.apiKey != ""
}

// GetByProviderID looks up a library item by an external provider identifier,
// e.g. ("douban", "1292052") or ("tmdb", "157336"). Series hits are enriched
// with season and episode counts.
func (c *Client) GetByProviderID(ctx context.Context, provider, id string) fetch.Result[*Item] {
	if !c.Configured() {
		return fetch.Unavailable[*Item](c.fc, "emby not configured")
	}

	return fetch.Do(ctx, c.fc, fetch.Options[*Item]{
		Fn: func(ctx context.Context) (*Item, error) {
			params := url.Values{}
			params.Set("Recursive", "true")
			params.Set("AnyProviderIdEquals", provider+"."+id)
			params.Set("Fields", itemFields)

			items, err := doItems[Item](ctx, c, params)
			if err != nil {
				return nil, err
			}
			if len(items) == 0 {
				return nil, nil
			}
			item := items[0]
			if err := c.EnrichSeriesInfo(ctx, &item); err != nil {
				logging.WithContext(ctx, c.logger).Warn("series enrichment failed",
					logging.String("item_id", item.ID),
					logging.Error(err))
			}
			return &item, nil
		},
		CacheKey: c.fc.CacheKey(provider, id),
		CacheTTL: checkTTLMinutes,
		Priority: lookupPriority,
	})
}

// SearchByName searches the library by title. Zero results mean not in the
// library, one is an exact match, more are ambiguous; callers decide.
func (c *Client) SearchByName(ctx context.Context, name string) fetch.Result[[]Item] {
	if !c.Configured() {
		return fetch.Unavailable[[]Item](c.fc, "emby not configured")
	}

	return fetch.Do(ctx, c.fc, fetch.Options[[]Item]{
		Fn: func(ctx context.Context) ([]Item, error) {
			params := url.Values{}
			params.Set("Recursive", "true")
			params.Set("SearchTerm", name)
			params.Set("IncludeItemTypes", "Movie,Series")
			params.Set("Fields", itemFields)
			return doItems[Item](ctx, c, params)
		},
		CacheKey: c.fc.CacheKey("search", name),
		CacheTTL: searchTTLMinutes,
		Priority: lookupPriority,
	})
}

var seasonNumberPattern = regexp.MustCompile(`(\d+)`)

// EnrichSeriesInfo populates Seasons on a series item, redistributing a
// recursive episode count when the server reports all-zero season counters.
// Non-series items are left untouched.
func (c *Client) EnrichSeriesInfo(ctx context.Context, item *Item) error {
	if item == nil || item.Type != "Series" || !c.Configured() {
		return nil
	}

	params := url.Values{}
	params.Set("ParentId", item.ID)
	params.Set("IncludeItemTypes", "Season")
	params.Set("Fields", "ChildCount,RecursiveItemCount,Path,IndexNumber")

	seasons, err := doItems[Season](ctx, c, params)
	if err != nil {
		return fmt.Errorf("fetch seasons: %w", err)
	}
	if len(seasons) == 0 {
		return nil
	}
	item.Seasons = seasons

	totalEpisodes := 0
	for _, season := range seasons {
		totalEpisodes += season.RecursiveItemCount
	}
	if totalEpisodes > 0 {
		return nil
	}

	// Some providers report zero episode counters on every season; count the
	// episodes directly and push the totals back onto the season records.
	epParams := url.Values{}
	epParams.Set("ParentId", item.ID)
	epParams.Set("IncludeItemTypes", "Episode")
	epParams.Set("Recursive", "true")
	epParams.Set("Fields", "ParentIndexNumber")

	episodes, err := doItems[episode](ctx, c, epParams)
	if err != nil {
		return fmt.Errorf("fetch episodes: %w", err)
	}
	if len(episodes) == 0 {
		return nil
	}

	perSeason := make(map[int]int)
	for _, ep := range episodes {
		index := ep.ParentIndexNumber
		if index == 0 {
			index = 1
		}
		perSeason[index]++
	}

	for i := range item.Seasons {
		season := &item.Seasons[i]
		index := -1
		if season.IndexNumber != nil {
			index = *season.IndexNumber
		} else if match := seasonNumberPattern.FindString(season.Name); match != "" {
			fmt.Sscanf(match, "%d", &index)
		}
		if count, ok := perSeason[index]; ok && index >= 0 {
			season.RecursiveItemCount = count
			season.ChildCount = count
		}
	}
	return nil
}

// EnrichAll enriches several items concurrently. Per-item failures are
// logged and swallowed; display enrichment never fails a lookup.
func (c *Client) EnrichAll(ctx context.Context, items []Item) {
	group, ctx := errgroup.WithContext(ctx)
	for i := range items {
		item := &items[i]
		group.Go(func() error {
			if err := c.EnrichSeriesInfo(ctx, item); err != nil {
				logging.WithContext(ctx, c.logger).Warn("series enrichment failed",
					logging.String("item_id", item.ID),
					logging.Error(err))
			}
			return nil
		})
	}
	_ = group.Wait()
}

// WebURL returns the server's web UI address for an item.
func (c *Client) WebURL(item *Item) string {
	if item == nil || c.server == "" {
		return ""
	}
	return fmt.Sprintf("%s/web/index.html#!/item?id=%s&serverId=%s", c.server, item.ID, item.ServerID)
}

func doItems[T any](ctx context.Context, c *Client, params url.Values) ([]T, error) {
	params.Set("api_key", c.apiKey)
	endpoint := c.server + "/emby/Items?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("emby items returned %d", resp.StatusCode)
	}

	var payload itemsResponse[T]
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode emby response: %w", err)
	}
	return payload.Items, nil
}
