package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"streamcompass/internal/auth"
	"streamcompass/models"
	"streamcompass/services/favorites"
)

type favoritesService interface {
	List(ctx context.Context, userID string) ([]models.FavoriteMovie, error)
	Add(ctx context.Context, userID string, favorite models.FavoriteMovie) error
	Remove(ctx context.Context, userID, movieID string) error
}

var _ favoritesService = (*favorites.Service)(nil)

// FavoritesHandler serves the per-user favorites collection.
type FavoritesHandler struct {
	Service favoritesService
}

func NewFavoritesHandler(service favoritesService) *FavoritesHandler {
	return &FavoritesHandler{Service: service}
}

func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireOwnUser(w, r)
	if !ok {
		return
	}

	items, err := h.Service.List(r.Context(), userID)
	if err != nil {
		log.Printf("[favorites] list failed for user %s: %v", userID, err)
		writeFavoritesError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireOwnUser(w, r)
	if !ok {
		return
	}

	movieID := strings.TrimSpace(mux.Vars(r)["movieID"])

	var body models.FavoriteMovie
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The path segment wins over whatever the body carries
	if movieID != "" {
		body.MovieID = movieID
	}

	if err := h.Service.Add(r.Context(), userID, body); err != nil {
		log.Printf("[favorites] add failed for user %s movie %s: %v", userID, body.MovieID, err)
		writeFavoritesError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireOwnUser(w, r)
	if !ok {
		return
	}

	movieID := mux.Vars(r)["movieID"]

	if err := h.Service.Remove(r.Context(), userID, movieID); err != nil {
		log.Printf("[favorites] remove failed for user %s movie %s: %v", userID, movieID, err)
		writeFavoritesError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireOwnUser resolves the {userID} path segment and verifies it matches
// the session account. A mismatch looks identical to a missing user.
func (h *FavoritesHandler) requireOwnUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	vars := mux.Vars(r)
	userID := strings.TrimSpace(vars["userID"])
	if userID == "" {
		http.Error(w, "user id is required", http.StatusBadRequest)
		return "", false
	}

	if accountID := auth.GetAccountID(r); accountID != userID {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "user not found"})
		return "", false
	}

	return userID, true
}

func writeFavoritesError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, favorites.ErrUserIDRequired), errors.Is(err, favorites.ErrMovieIDRequired):
		status = http.StatusBadRequest
	case errors.Is(err, favorites.ErrOperationFailed):
		status = http.StatusBadGateway
	}
	http.Error(w, err.Error(), status)
}
