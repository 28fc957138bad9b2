package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"streamcompass/models"
)

func newSeedService() *Service {
	return NewService(Config{Fs: afero.NewMemMapFs()})
}

func TestSeedServiceServesCatalog(t *testing.T) {
	svc := newSeedService()
	ctx := context.Background()

	trending, err := svc.Trending(ctx)
	if err != nil {
		t.Fatalf("trending returned error: %v", err)
	}
	if len(trending) == 0 {
		t.Fatal("expected seed catalog to back trending")
	}

	scary, err := svc.MoviesForMood(ctx, models.MoodScary)
	if err != nil {
		t.Fatalf("mood fetch returned error: %v", err)
	}
	for _, movie := range scary {
		found := false
		for _, m := range movie.Moods {
			if m == models.MoodScary {
				found = true
			}
		}
		if !found {
			t.Fatalf("movie %s does not carry the requested mood", movie.ID)
		}
	}

	random, err := svc.MoviesForMood(ctx, models.MoodRandom)
	if err != nil {
		t.Fatalf("random mood returned error: %v", err)
	}
	if len(random) != len(seedCatalog) {
		t.Fatalf("expected random mood to serve the whole catalog, got %d", len(random))
	}
}

func TestSeedSearchFoldsAccents(t *testing.T) {
	svc := newSeedService()

	results, err := svc.Search(context.Background(), "pícníc")
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Starlight Picnic" {
		t.Fatalf("expected accent-folded match, got %+v", results)
	}

	empty, err := svc.Search(context.Background(), "   ")
	if err != nil {
		t.Fatalf("blank search returned error: %v", err)
	}
	if len(empty) != 0 {
		t.Fatal("expected no results for blank query")
	}
}

func TestSeedMovieByID(t *testing.T) {
	svc := newSeedService()

	movie, err := svc.MovieByID(context.Background(), "3")
	if err != nil {
		t.Fatalf("MovieByID returned error: %v", err)
	}
	if movie.Title != "Starlight Picnic" {
		t.Fatalf("unexpected movie %+v", movie)
	}

	if _, err := svc.MovieByID(context.Background(), "does-not-exist"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBundleFetchesAllSlotsConcurrently(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/movie/42":
			json.NewEncoder(w).Encode(map[string]any{"id": 42, "title": "Test Film", "runtime": 100})
		case strings.HasSuffix(r.URL.Path, "/credits"):
			json.NewEncoder(w).Encode(map[string]any{"cast": []map[string]any{{"id": 1, "name": "Lead"}}})
		case strings.HasSuffix(r.URL.Path, "/videos"):
			json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{{"id": "v1", "key": "abc", "site": "YouTube", "type": "Trailer"}}})
		case strings.HasSuffix(r.URL.Path, "/similar"):
			json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{{"id": 43, "title": "Similar Film"}}})
		case strings.HasSuffix(r.URL.Path, "/reviews"):
			// Simulate one failing sub-fetch: the bundle must still succeed.
			w.WriteHeader(http.StatusInternalServerError)
		case strings.HasSuffix(r.URL.Path, "/watch/providers"):
			json.NewEncoder(w).Encode(map[string]any{"results": map[string]any{"US": map[string]any{"flatrate": []map[string]any{{"provider_id": 8, "provider_name": "Netflix"}}}}})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	svc := NewService(Config{TMDBAPIKey: "test-key", Fs: afero.NewMemMapFs()})
	svc.tmdb.baseURL = srv.URL
	svc.tmdb.httpc = srv.Client()
	svc.tmdb.minInterval = 0

	bundle, err := svc.Bundle(context.Background(), "42", "US")
	if err != nil {
		t.Fatalf("bundle returned error: %v", err)
	}
	if bundle.Movie == nil || bundle.Movie.Title != "Test Film" {
		t.Fatalf("expected movie slot filled, got %+v", bundle.Movie)
	}
	if len(bundle.Cast) != 1 || len(bundle.Videos) != 1 || len(bundle.Similar) != 1 {
		t.Fatalf("expected all successful slots filled: %+v", bundle)
	}
	if len(bundle.Reviews) != 0 {
		t.Fatal("expected failed reviews slot to stay empty")
	}
	if len(bundle.Providers.Stream) != 1 {
		t.Fatalf("expected provider slot filled, got %+v", bundle.Providers)
	}
}

func TestBundleFailsWhenDetailMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	svc := NewService(Config{TMDBAPIKey: "test-key", Fs: afero.NewMemMapFs()})
	svc.tmdb.baseURL = srv.URL
	svc.tmdb.httpc = srv.Client()
	svc.tmdb.minInterval = 0

	if _, err := svc.Bundle(context.Background(), "404", "US"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
