package bangumi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"shelfmark/internal/cachestore"
	"shelfmark/internal/fetch"
	"shelfmark/internal/scheduler"
	"shelfmark/internal/services"
)

const searchTTLMinutes = 1440

// subjectTypeAnime is the bgm.tv subject type for animation.
const subjectTypeAnime = 2

// Subject is one bgm.tv subject record.
type Subject struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	NameCN string `json:"name_cn,omitempty"`
	Type   int    `json:"type"`
	Date   string `json:"date,omitempty"`
	Images struct {
		Large  string `json:"large,omitempty"`
		Common string `json:"common,omitempty"`
		Medium string `json:"medium,omitempty"`
		Small  string `json:"small,omitempty"`
		Grid   string `json:"grid,omitempty"`
	} `json:"images,omitempty"`
	Score float64 `json:"score,omitempty"`
	Rank  int     `json:"rank,omitempty"`
}

type searchRequest struct {
	Keyword string       `json:"keyword"`
	Filter  searchFilter `json:"filter"`
}

type searchFilter struct {
	Type []int `json:"type"`
}

type searchResponse struct {
	Data []Subject `json:"data"`
}

// Client queries the bgm.tv v0 API.
type Client struct {
	fc         *fetch.Client
	token      string
	baseURL    string
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

// New creates a Bangumi client. A missing access token yields a client whose
// calls report "bangumi token not configured" instead of reaching the network.
func New(token, baseURL string, cache *cachestore.Store, queue *scheduler.Scheduler, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		fc:         fetch.NewClient("Bangumi", cache, queue, logger),
		token:      strings.TrimSpace(token),
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an access token is present.
func (c *Client) Configured() bool {
	return c.token != ""
}

// Search finds the best anime subject for a keyword. A nil result with no
// error means no subject matched.
func (c *Client) Search(ctx context.Context, query string) fetch.Result[*Subject] {
	if !c.Configured() {
		return fetch.Unavailable[*Subject](c.fc, "bangumi token not configured")
	}

	return fetch.Do(ctx, c.fc, fetch.Options[*Subject]{
		Fn: func(ctx context.Context) (*Subject, error) {
			body, err := json.Marshal(searchRequest{
				Keyword: query,
				Filter:  searchFilter{Type: []int{subjectTypeAnime}},
			})
			if err != nil {
				return nil, fmt.Errorf("encode search request: %w", err)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodPost,
				c.baseURL+"/v0/search/subjects", bytes.NewReader(body))
			if err != nil {
				return nil, fmt.Errorf("build request: %w", err)
			}
			req.Header.Set("Authorization", "Bearer "+c.token)
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return nil, fmt.Errorf("execute request: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("bangumi search returned %d", resp.StatusCode)
			}

			var payload searchResponse
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				return nil, fmt.Errorf("decode bangumi response: %w", err)
			}
			if len(payload.Data) == 0 {
				return nil, nil
			}
			return &payload.Data[0], nil
		},
		CacheKey: c.fc.CacheKey("search", query),
		CacheTTL: searchTTLMinutes,
	})
}
