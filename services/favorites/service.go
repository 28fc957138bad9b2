package favorites

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"streamcompass/models"
)

var (
	ErrUserIDRequired  = errors.New("user id is required")
	ErrMovieIDRequired = errors.New("movie id is required")

	// ErrOperationFailed wraps any store failure. The gateway never retries;
	// retry, if any, is the caller's responsibility.
	ErrOperationFailed = errors.New("favorites operation failed")
)

// Store is the document-store surface the gateway translates against.
type Store interface {
	ListByUser(ctx context.Context, userID string) ([]models.FavoriteRecord, error)
	Upsert(ctx context.Context, rec models.FavoriteRecord) error
	Delete(ctx context.Context, userID, movieID string) (bool, error)
	DeleteAllForUser(ctx context.Context, userID string) (int, error)
}

// Service translates between the FavoriteMovie API shape and the store's
// document representation.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a favorites gateway over the given store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// List returns the user's favorites in insertion order. An absent user ID
// yields an empty list rather than an error: there are no implicit anonymous
// favorites.
func (s *Service) List(ctx context.Context, userID string) ([]models.FavoriteMovie, error) {
	if strings.TrimSpace(userID) == "" {
		return []models.FavoriteMovie{}, nil
	}

	records, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrOperationFailed, err)
	}

	favorites := make([]models.FavoriteMovie, 0, len(records))
	for _, rec := range records {
		favorites = append(favorites, rec.ToFavorite())
	}
	return favorites, nil
}

// Add upserts the favorite at key favorite.MovieID. Calling twice with the
// same payload leaves exactly one record behind.
func (s *Service) Add(ctx context.Context, userID string, favorite models.FavoriteMovie) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUserIDRequired
	}
	if strings.TrimSpace(favorite.MovieID) == "" {
		return ErrMovieIDRequired
	}

	rec := models.FavoriteRecord{
		UserID:    userID,
		MovieID:   favorite.MovieID,
		Title:     favorite.Title,
		PosterURL: favorite.PosterURL,
		Overview:  favorite.Overview,
		AddedAt:   s.now().UTC(),
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("%w: add %s: %v", ErrOperationFailed, favorite.MovieID, err)
	}
	return nil
}

// Remove deletes the record at the given key. Removing a non-existent key is
// not an error.
func (s *Service) Remove(ctx context.Context, userID, movieID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUserIDRequired
	}
	if strings.TrimSpace(movieID) == "" {
		return ErrMovieIDRequired
	}

	if _, err := s.store.Delete(ctx, userID, movieID); err != nil {
		return fmt.Errorf("%w: remove %s: %v", ErrOperationFailed, movieID, err)
	}
	return nil
}

// PurgeUser drops the user's entire collection, returning how many records
// were removed. Runs when the owning account is deleted.
func (s *Service) PurgeUser(ctx context.Context, userID string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, ErrUserIDRequired
	}

	removed, err := s.store.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: purge user %s: %v", ErrOperationFailed, userID, err)
	}
	return removed, nil
}
