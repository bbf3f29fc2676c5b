package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"shelfmark/internal/cachestore"
	"shelfmark/internal/scheduler"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cache := cachestore.New(cachestore.NewMemoryBackend(), nil)
	queue := scheduler.New(4, nil)
	return New("test-key", server.URL, "zh-CN", cache, queue, nil, WithHTTPClient(server.Client()))
}

func TestSearchMoviePassesYear(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("primary_release_year") != "2014" {
			t.Errorf("primary_release_year = %q", q.Get("primary_release_year"))
		}
		if q.Get("include_adult") != "false" {
			t.Errorf("include_adult = %q", q.Get("include_adult"))
		}
		if q.Get("language") != "zh-CN" {
			t.Errorf("language = %q", q.Get("language"))
		}
		json.NewEncoder(w).Encode(map[string]any{"results": []Movie{
			{ID: 157336, Title: "Interstellar", ReleaseDate: "2014-11-05"},
		}})
	}))

	result := client.SearchMovie(context.Background(), "Interstellar", "2014")
	if result.Meta.Err != "" {
		t.Fatalf("meta.err = %q", result.Meta.Err)
	}
	if len(result.Data) != 1 || result.Data[0].ID != 157336 {
		t.Fatalf("data = %+v", result.Data)
	}
}

func TestSearchMovieOmitsEmptyYear(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("primary_release_year") {
			t.Error("year param should be absent")
		}
		json.NewEncoder(w).Encode(map[string]any{"results": []Movie{}})
	}))

	result := client.SearchMovie(context.Background(), "Interstellar", "")
	if result.Meta.Err != "" {
		t.Fatalf("meta.err = %q", result.Meta.Err)
	}
	if len(result.Data) != 0 {
		t.Errorf("data = %+v, want empty", result.Data)
	}
}

func TestSearchTVUsesAirDateYear(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tv" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("first_air_date_year"); got != "2011" {
			t.Errorf("first_air_date_year = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"results": []TV{
			{ID: 1399, Name: "Game of Thrones", FirstAirDate: "2011-04-17"},
		}})
	}))

	result := client.SearchTV(context.Background(), "Game of Thrones", "2011")
	if len(result.Data) != 1 || result.Data[0].ID != 1399 {
		t.Fatalf("data = %+v", result.Data)
	}
}

func TestSearchWithAndWithoutYearCacheSeparately(t *testing.T) {
	calls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]any{"results": []Movie{{ID: 1, Title: "X"}}})
	}))

	client.SearchMovie(context.Background(), "X", "1999")
	client.SearchMovie(context.Background(), "X", "")
	if calls != 2 {
		t.Errorf("server handled %d requests, want 2", calls)
	}

	cached := client.SearchMovie(context.Background(), "X", "1999")
	if !cached.Meta.Cached {
		t.Error("repeat year search should hit the cache")
	}
	if calls != 2 {
		t.Errorf("server handled %d requests after cached repeat, want 2", calls)
	}
}

func TestMovieDetails(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/157336" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(MovieDetails{
			ID: 157336, Title: "Interstellar", ReleaseDate: "2014-11-05", Runtime: 169,
		})
	}))

	result := client.MovieDetails(context.Background(), 157336)
	if result.Meta.Err != "" {
		t.Fatalf("meta.err = %q", result.Meta.Err)
	}
	if result.Data == nil || result.Data.Runtime != 169 {
		t.Fatalf("data = %+v", result.Data)
	}
}

func TestTVDetails(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tv/1399" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(TVDetails{ID: 1399, Name: "Game of Thrones", NumberOfSeasons: 8})
	}))

	result := client.TVDetails(context.Background(), 1399)
	if result.Data == nil || result.Data.NumberOfSeasons != 8 {
		t.Fatalf("data = %+v", result.Data)
	}
}

func TestMissingAPIKey(t *testing.T) {
	cache := cachestore.New(cachestore.NewMemoryBackend(), nil)
	queue := scheduler.New(4, nil)
	client := New("", "https://api.themoviedb.org/3", "", cache, queue, nil)

	result := client.SearchMovie(context.Background(), "Dune", "")
	if result.Meta.Err != "tmdb api key not configured" {
		t.Errorf("meta.err = %q", result.Meta.Err)
	}
	if result.Data != nil {
		t.Errorf("data = %+v, want nil", result.Data)
	}
}

func TestListTTLShortensEmptyResults(t *testing.T) {
	if got := listTTL([]Movie{{ID: 1}}, 1440); got != 1440 {
		t.Errorf("non-empty TTL = %d, want 1440", got)
	}
	if got := listTTL([]Movie{}, 1440); got != 60 {
		t.Errorf("empty TTL = %d, want 60", got)
	}
}
