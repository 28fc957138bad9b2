package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"

	"streamcompass/handlers"
	"streamcompass/services/metadata"
)

// newSeedMetadataRouter routes the metadata surface over the seed catalog
// (no provider API key configured).
func newSeedMetadataRouter(t *testing.T) *mux.Router {
	t.Helper()
	svc := metadata.NewService(metadata.Config{
		Fs:       afero.NewMemMapFs(),
		CacheDir: "cache",
	})
	h := handlers.NewMetadataHandler(svc)

	r := mux.NewRouter()
	r.HandleFunc("/api/metadata/search", h.Search).Methods(http.MethodGet)
	r.HandleFunc("/api/metadata/moods/{mood}", h.MoviesForMood).Methods(http.MethodGet)
	r.HandleFunc("/api/metadata/trending", h.Trending).Methods(http.MethodGet)
	r.HandleFunc("/api/metadata/movies/{id}", h.MovieByID).Methods(http.MethodGet)
	r.HandleFunc("/api/metadata/movies/{id}/bundle", h.Bundle).Methods(http.MethodGet)
	r.HandleFunc("/api/metadata/people/{id}", h.PersonByID).Methods(http.MethodGet)
	return r
}

func getJSON(t *testing.T, router *mux.Router, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	if out != nil && rr.Code == http.StatusOK {
		if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
			t.Fatalf("failed to decode %s response: %v", target, err)
		}
	}
	return rr
}

func TestMetadataTrending_ServesSeedCatalog(t *testing.T) {
	router := newSeedMetadataRouter(t)

	var movies []handlers.MovieResponse
	rr := getJSON(t, router, "/api/metadata/trending", &movies)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(movies) == 0 {
		t.Fatal("expected seed movies in trending")
	}
}

func TestMetadataSearch_RequiresQuery(t *testing.T) {
	router := newSeedMetadataRouter(t)

	rr := getJSON(t, router, "/api/metadata/search", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without query, got %d", rr.Code)
	}
}

func TestMetadataSearch_FindsSeedMovie(t *testing.T) {
	router := newSeedMetadataRouter(t)

	var movies []handlers.MovieResponse
	rr := getJSON(t, router, "/api/metadata/search?query=starlight", &movies)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(movies) != 1 || movies[0].Title != "Starlight Picnic" {
		t.Errorf("unexpected search result %+v", movies)
	}
}

func TestMetadataMoods_UnknownMoodIsBadRequest(t *testing.T) {
	router := newSeedMetadataRouter(t)

	rr := getJSON(t, router, "/api/metadata/moods/melancholy", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mood, got %d", rr.Code)
	}
}

func TestMetadataMoods_FiltersByMood(t *testing.T) {
	router := newSeedMetadataRouter(t)

	var movies []handlers.MovieResponse
	rr := getJSON(t, router, "/api/metadata/moods/funny", &movies)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(movies) == 0 {
		t.Fatal("expected funny seed movies")
	}
	for _, m := range movies {
		found := false
		for _, mood := range m.Moods {
			if mood == "funny" {
				found = true
			}
		}
		if !found {
			t.Errorf("movie %q not tagged funny", m.Title)
		}
	}
}

func TestMetadataMovieByID_NotFound(t *testing.T) {
	router := newSeedMetadataRouter(t)

	rr := getJSON(t, router, "/api/metadata/movies/does-not-exist", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestMetadataPersonByID_SeedCatalogHasNoPeople(t *testing.T) {
	router := newSeedMetadataRouter(t)

	rr := getJSON(t, router, "/api/metadata/people/500", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestMetadataBundle_SeedMovie(t *testing.T) {
	router := newSeedMetadataRouter(t)

	// Find a real seed id via trending first
	var movies []handlers.MovieResponse
	if rr := getJSON(t, router, "/api/metadata/trending", &movies); rr.Code != http.StatusOK || len(movies) == 0 {
		t.Fatal("expected seed movies")
	}
	id := movies[0].ID

	var bundle handlers.BundleResponse
	rr := getJSON(t, router, "/api/metadata/movies/"+id+"/bundle", &bundle)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if bundle.Movie.ID != id {
		t.Errorf("expected bundle for %s, got %s", id, bundle.Movie.ID)
	}
	// Empty sub-sections serialize as arrays, not null
	if bundle.Cast == nil || bundle.Videos == nil || bundle.Reviews == nil {
		t.Error("expected empty slices in bundle, got nulls")
	}
}
