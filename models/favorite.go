package models

import "time"

// FavoriteMovie is the only persisted domain entity: a user's saved reference
// to a movie. Title, poster and overview are denormalized snapshots taken at
// add time and are never re-synced against the metadata provider.
type FavoriteMovie struct {
	MovieID   string  `json:"movieId"`
	Title     string  `json:"title"`
	PosterURL *string `json:"posterUrl"`
	Overview  string  `json:"overview"`
}

// FavoritePlaceholderTitle is substituted when a stored record carries no
// title, so a damaged document never fails the read path.
const FavoritePlaceholderTitle = "Unknown"

// FavoriteRecord is the storage-side representation of a favorite, including
// bookkeeping fields the API shape does not expose.
type FavoriteRecord struct {
	UserID    string
	MovieID   string
	Title     string
	PosterURL *string
	Overview  string
	AddedAt   time.Time
}

// ToFavorite converts a stored record to the API shape, default-filling
// absent optional fields instead of failing the read.
func (r FavoriteRecord) ToFavorite() FavoriteMovie {
	title := r.Title
	if title == "" {
		title = FavoritePlaceholderTitle
	}
	return FavoriteMovie{
		MovieID:   r.MovieID,
		Title:     title,
		PosterURL: r.PosterURL,
		Overview:  r.Overview,
	}
}
