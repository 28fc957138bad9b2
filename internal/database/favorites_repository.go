package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"streamcompass/models"
)

// FavoritesRepository provides access to the per-user favorites collection.
// Records are keyed (user_id, movie_id); a second upsert for the same key
// overwrites the snapshot fields instead of creating a duplicate.
type FavoritesRepository struct {
	db *sql.DB
}

// NewFavoritesRepository creates a repository over an open connection.
func NewFavoritesRepository(db *sql.DB) *FavoritesRepository {
	return &FavoritesRepository{db: db}
}

// ListByUser returns the user's favorites in insertion order.
func (r *FavoritesRepository) ListByUser(ctx context.Context, userID string) ([]models.FavoriteRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, movie_id, title, poster_url, overview, added_at
		FROM favorites
		WHERE user_id = ?
		ORDER BY added_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	var records []models.FavoriteRecord
	for rows.Next() {
		var rec models.FavoriteRecord
		var posterURL sql.NullString
		if err := rows.Scan(&rec.UserID, &rec.MovieID, &rec.Title, &posterURL, &rec.Overview, &rec.AddedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		if posterURL.Valid {
			rec.PosterURL = &posterURL.String
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}

	return records, nil
}

// Upsert writes a favorite record at (userID, movieID), overwriting the
// snapshot fields if the key already exists. The original added_at is kept
// on overwrite so the list order reflects first insertion.
func (r *FavoritesRepository) Upsert(ctx context.Context, rec models.FavoriteRecord) error {
	addedAt := rec.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now().UTC()
	}

	var posterURL sql.NullString
	if rec.PosterURL != nil {
		posterURL = sql.NullString{String: *rec.PosterURL, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, movie_id, title, poster_url, overview, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, movie_id) DO UPDATE SET
			title = excluded.title,
			poster_url = excluded.poster_url,
			overview = excluded.overview`,
		rec.UserID, rec.MovieID, rec.Title, posterURL, rec.Overview, addedAt)
	if err != nil {
		return fmt.Errorf("upsert favorite: %w", err)
	}
	return nil
}

// Delete removes the record at (userID, movieID) and reports whether a row
// existed. Deleting an absent key is not an error.
func (r *FavoritesRepository) Delete(ctx context.Context, userID, movieID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND movie_id = ?`, userID, movieID)
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete favorite rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteAllForUser removes every favorite a user owns. Runs when an account
// is deleted.
func (r *FavoritesRepository) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user favorites: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete user favorites rows affected: %w", err)
	}
	return int(affected), nil
}
