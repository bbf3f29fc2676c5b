package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"shelfmark/internal/fetch"
	"shelfmark/internal/logging"
	"shelfmark/internal/services"
	"shelfmark/internal/services/emby"
	"shelfmark/internal/services/tmdb"
	"shelfmark/internal/textutil"
)

// Lookup status values.
const (
	StatusFound    = "found"
	StatusNotFound = "not-found"
	StatusError    = "error"
)

// Pipeline stage names, reported in Outcome.SourceStage.
const (
	StageProviderID    = "provider-id"
	StageLibrarySearch = "library-search"
	StageCatalog       = "catalog"
)

// DefaultProvider is assumed when a query carries an external id without
// naming its provider.
const DefaultProvider = "douban"

// Query describes one title to resolve.
type Query struct {
	Title     string
	Year      string
	MediaType string // "movie" or "tv"
	// SearchQueries are alternate spellings to offer downstream consumers;
	// defaults to the title itself.
	SearchQueries []string
	// ExternalID short-circuits to a provider-id library lookup when set.
	ExternalID       string
	ExternalProvider string
}

// CatalogItem is a normalized catalog search result for display.
type CatalogItem struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Year       string `json:"year"`
	Overview   string `json:"overview,omitempty"`
	PosterPath string `json:"poster_path,omitempty"`
	MediaType  string `json:"media_type"`
}

// Outcome is the result of one resolution.
type Outcome struct {
	Status        string
	StatusMessage string
	SourceStage   string

	// Item is the primary library match; Items carries every match when the
	// name search was ambiguous.
	Item  *emby.Item
	Items []emby.Item

	// TMDBID and TMDBResults are populated on the catalog fallback.
	TMDBID      int64
	TMDBResults []CatalogItem

	Title         string
	MediaType     string
	SearchQueries []string
}

// Library is the subset of the Emby client the pipeline needs.
type Library interface {
	GetByProviderID(ctx context.Context, provider, id string) fetch.Result[*emby.Item]
	SearchByName(ctx context.Context, name string) fetch.Result[[]emby.Item]
	EnrichAll(ctx context.Context, items []emby.Item)
}

// Catalog is the subset of the TMDB client the pipeline needs.
type Catalog interface {
	SearchMovie(ctx context.Context, query, year string) fetch.Result[[]tmdb.Movie]
	SearchTV(ctx context.Context, query, year string) fetch.Result[[]tmdb.TV]
}

// Resolver owns the lookup pipeline.
type Resolver struct {
	library Library
	catalog Catalog
	logger  *slog.Logger
}

// New creates a Resolver over a library and a catalog.
func New(library Library, catalog Catalog, logger *slog.Logger) *Resolver {
	return &Resolver{
		library: library,
		catalog: catalog,
		logger:  logging.NewComponentLogger(logger, "resolver"),
	}
}

// Resolve runs the pipeline for one query. It never panics and never returns
// an error: failures become an Outcome with StatusError.
func (r *Resolver) Resolve(ctx context.Context, query Query) (outcome Outcome) {
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, services.NewRequestID())
	}
	logger := logging.WithContext(ctx, r.logger)

	query.Title = textutil.NormalizeQuery(query.Title)
	if len(query.SearchQueries) == 0 {
		query.SearchQueries = []string{query.Title}
	}
	if query.MediaType != "tv" {
		query.MediaType = "movie"
	}

	outcome = Outcome{
		Status:        StatusError,
		Title:         query.Title,
		MediaType:     query.MediaType,
		SearchQueries: query.SearchQueries,
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("resolution panicked",
				logging.String("title", query.Title),
				logging.Any("panic", rec))
			outcome.Status = StatusError
			outcome.StatusMessage = fmt.Sprintf("Error: %v", rec)
			outcome.Item = nil
			outcome.Items = nil
		}
	}()

	logger.Debug("resolving title",
		logging.String("title", query.Title),
		logging.String("media_type", query.MediaType),
		logging.String("year", query.Year))

	if query.ExternalID != "" {
		provider := query.ExternalProvider
		if provider == "" {
			provider = DefaultProvider
		}
		lookup := r.library.GetByProviderID(ctx, provider, query.ExternalID)
		if lookup.Data != nil {
			item := lookup.Data
			logger.Info("resolved by provider id",
				logging.String("provider", provider),
				logging.String("item_id", item.ID))
			outcome.Status = StatusFound
			outcome.StatusMessage = "Found: " + item.Name
			outcome.SourceStage = StageProviderID
			outcome.Item = item
			return outcome
		}
	}

	search := r.library.SearchByName(ctx, query.Title)
	items := search.Data

	switch {
	case len(items) == 1:
		r.library.EnrichAll(ctx, items)
		outcome.Status = StatusFound
		outcome.StatusMessage = "Found: " + items[0].Name
		outcome.SourceStage = StageLibrarySearch
		outcome.Item = &items[0]
		return outcome

	case len(items) > 1:
		r.library.EnrichAll(ctx, items)
		outcome.Status = StatusFound
		outcome.StatusMessage = fmt.Sprintf("Found: %s (+%d more)", items[0].Name, len(items)-1)
		outcome.SourceStage = StageLibrarySearch
		outcome.Item = &items[0]
		outcome.Items = items
		return outcome
	}

	results := r.searchCatalog(ctx, query)
	outcome.Status = StatusNotFound
	outcome.StatusMessage = "Not in Emby"
	outcome.SourceStage = StageCatalog
	outcome.TMDBResults = results
	if len(results) > 0 {
		outcome.TMDBID = results[0].ID
	}
	logger.Info("not in library",
		logging.String("title", query.Title),
		logging.Int("catalog_matches", len(results)))
	return outcome
}

// searchCatalog queries the catalog with the year constraint, then retries
// without it when the constrained search comes back empty.
func (r *Resolver) searchCatalog(ctx context.Context, query Query) []CatalogItem {
	if query.MediaType == "tv" {
		if result := r.catalog.SearchTV(ctx, query.Title, query.Year); len(result.Data) > 0 {
			return normalizeTV(result.Data)
		}
		if query.Year != "" {
			if retry := r.catalog.SearchTV(ctx, query.Title, ""); len(retry.Data) > 0 {
				return normalizeTV(retry.Data)
			}
		}
		return nil
	}

	if result := r.catalog.SearchMovie(ctx, query.Title, query.Year); len(result.Data) > 0 {
		return normalizeMovies(result.Data)
	}
	if query.Year != "" {
		if retry := r.catalog.SearchMovie(ctx, query.Title, ""); len(retry.Data) > 0 {
			return normalizeMovies(retry.Data)
		}
	}
	return nil
}

func normalizeMovies(movies []tmdb.Movie) []CatalogItem {
	items := make([]CatalogItem, 0, len(movies))
	for _, m := range movies {
		title := m.Title
		if title == "" {
			title = m.OriginalTitle
		}
		items = append(items, CatalogItem{
			ID:         m.ID,
			Title:      title,
			Year:       yearOf(m.ReleaseDate),
			Overview:   m.Overview,
			PosterPath: m.PosterPath,
			MediaType:  "movie",
		})
	}
	return items
}

func normalizeTV(shows []tmdb.TV) []CatalogItem {
	items := make([]CatalogItem, 0, len(shows))
	for _, s := range shows {
		title := s.Name
		if title == "" {
			title = s.OriginalName
		}
		items = append(items, CatalogItem{
			ID:         s.ID,
			Title:      title,
			Year:       yearOf(s.FirstAirDate),
			Overview:   s.Overview,
			PosterPath: s.PosterPath,
			MediaType:  "tv",
		})
	}
	return items
}

func yearOf(date string) string {
	if i := strings.IndexByte(date, '-'); i > 0 {
		return date[:i]
	}
	return date
}
