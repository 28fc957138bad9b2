package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"streamcompass/models"
	metadatapkg "streamcompass/services/metadata"
)

type metadataService interface {
	Search(ctx context.Context, query string) ([]models.Movie, error)
	MoviesForMood(ctx context.Context, mood models.Mood) ([]models.Movie, error)
	Trending(ctx context.Context) ([]models.Movie, error)
	MovieByID(ctx context.Context, id string) (*models.Movie, error)
	PersonByID(ctx context.Context, id string) (*models.Person, error)
	Credits(ctx context.Context, id string) ([]models.CastMember, error)
	Videos(ctx context.Context, id string) ([]models.Video, error)
	Similar(ctx context.Context, id string) ([]models.Movie, error)
	Reviews(ctx context.Context, id string) ([]models.Review, error)
	WatchProviders(ctx context.Context, id, region string) (models.WatchProviders, error)
	Bundle(ctx context.Context, id, region string) (models.MovieBundle, error)
}

var _ metadataService = (*metadatapkg.Service)(nil)

type MetadataHandler struct {
	Service metadataService
}

func NewMetadataHandler(s metadataService) *MetadataHandler {
	return &MetadataHandler{Service: s}
}

// MovieResponse is a Movie with its poster path resolved to a full image URL.
type MovieResponse struct {
	models.Movie
	PosterURL *string `json:"posterUrl"`
}

func toMovieResponse(m models.Movie) MovieResponse {
	resp := MovieResponse{Movie: m}
	if m.PosterPath != nil {
		resp.PosterURL = metadatapkg.BuildImageURL(*m.PosterPath)
	}
	return resp
}

func toMovieResponses(movies []models.Movie) []MovieResponse {
	out := make([]MovieResponse, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovieResponse(m))
	}
	return out
}

func (h *MetadataHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "query parameter required"})
		return
	}

	results, err := h.Service.Search(r.Context(), query)
	if err != nil {
		writeMetadataError(w, "search", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toMovieResponses(results))
}

func (h *MetadataHandler) MoviesForMood(w http.ResponseWriter, r *http.Request) {
	mood := models.Mood(strings.ToLower(strings.TrimSpace(mux.Vars(r)["mood"])))
	if !mood.IsValid() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "unknown mood"})
		return
	}

	results, err := h.Service.MoviesForMood(r.Context(), mood)
	if err != nil {
		writeMetadataError(w, "moods", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toMovieResponses(results))
}

func (h *MetadataHandler) Trending(w http.ResponseWriter, r *http.Request) {
	results, err := h.Service.Trending(r.Context())
	if err != nil {
		writeMetadataError(w, "trending", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toMovieResponses(results))
}

func (h *MetadataHandler) MovieByID(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	movie, err := h.Service.MovieByID(r.Context(), id)
	if err != nil {
		writeMetadataError(w, "detail", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toMovieResponse(*movie))
}

// PersonResponse is a Person with its profile path resolved to a full image URL.
type PersonResponse struct {
	models.Person
	ProfileURL *string `json:"profileUrl"`
}

func (h *MetadataHandler) PersonByID(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	person, err := h.Service.PersonByID(r.Context(), id)
	if err != nil {
		writeMetadataError(w, "person", err)
		return
	}

	resp := PersonResponse{Person: *person}
	if person.ProfilePath != nil {
		resp.ProfileURL = metadatapkg.BuildImageURL(*person.ProfilePath)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *MetadataHandler) Credits(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	cast, err := h.Service.Credits(r.Context(), id)
	if err != nil {
		writeMetadataError(w, "credits", err)
		return
	}
	if cast == nil {
		cast = []models.CastMember{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cast)
}

func (h *MetadataHandler) Videos(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	videos, err := h.Service.Videos(r.Context(), id)
	if err != nil {
		writeMetadataError(w, "videos", err)
		return
	}
	if videos == nil {
		videos = []models.Video{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(videos)
}

func (h *MetadataHandler) Similar(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	results, err := h.Service.Similar(r.Context(), id)
	if err != nil {
		writeMetadataError(w, "similar", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toMovieResponses(results))
}

func (h *MetadataHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	reviews, err := h.Service.Reviews(r.Context(), id)
	if err != nil {
		writeMetadataError(w, "reviews", err)
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reviews)
}

func (h *MetadataHandler) WatchProviders(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	region := strings.TrimSpace(r.URL.Query().Get("region"))

	providers, err := h.Service.WatchProviders(r.Context(), id, region)
	if err != nil {
		writeMetadataError(w, "providers", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(providers)
}

// BundleResponse is the detail screen's single-request payload.
type BundleResponse struct {
	Movie     MovieResponse         `json:"movie"`
	Cast      []models.CastMember   `json:"cast"`
	Videos    []models.Video        `json:"videos"`
	Similar   []MovieResponse       `json:"similar"`
	Reviews   []models.Review       `json:"reviews"`
	Providers models.WatchProviders `json:"providers"`
}

func (h *MetadataHandler) Bundle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	region := strings.TrimSpace(r.URL.Query().Get("region"))

	bundle, err := h.Service.Bundle(r.Context(), id, region)
	if err != nil {
		writeMetadataError(w, "bundle", err)
		return
	}

	resp := BundleResponse{
		Movie:     toMovieResponse(*bundle.Movie),
		Cast:      bundle.Cast,
		Videos:    bundle.Videos,
		Similar:   toMovieResponses(bundle.Similar),
		Reviews:   bundle.Reviews,
		Providers: bundle.Providers,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeMetadataError(w http.ResponseWriter, op string, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, metadatapkg.ErrNotFound) {
		status = http.StatusNotFound
	} else {
		log.Printf("[metadata] %s error: %v", op, err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
