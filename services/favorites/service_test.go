package favorites_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamcompass/models"
	"streamcompass/services/favorites"
)

// memStore is an in-memory Store keeping insertion order per user.
type memStore struct {
	records map[string][]models.FavoriteRecord
	failAll bool
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string][]models.FavoriteRecord)}
}

var errStoreDown = errors.New("store unavailable")

func (m *memStore) ListByUser(_ context.Context, userID string) ([]models.FavoriteRecord, error) {
	if m.failAll {
		return nil, errStoreDown
	}
	return m.records[userID], nil
}

func (m *memStore) Upsert(_ context.Context, rec models.FavoriteRecord) error {
	if m.failAll {
		return errStoreDown
	}
	for i, existing := range m.records[rec.UserID] {
		if existing.MovieID == rec.MovieID {
			rec.AddedAt = existing.AddedAt
			m.records[rec.UserID][i] = rec
			return nil
		}
	}
	m.records[rec.UserID] = append(m.records[rec.UserID], rec)
	return nil
}

func (m *memStore) Delete(_ context.Context, userID, movieID string) (bool, error) {
	if m.failAll {
		return false, errStoreDown
	}
	for i, existing := range m.records[userID] {
		if existing.MovieID == movieID {
			m.records[userID] = append(m.records[userID][:i], m.records[userID][i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) DeleteAllForUser(_ context.Context, userID string) (int, error) {
	if m.failAll {
		return 0, errStoreDown
	}
	removed := len(m.records[userID])
	delete(m.records, userID)
	return removed, nil
}

func TestAddListRoundTrip(t *testing.T) {
	svc := favorites.NewService(newMemStore())
	ctx := context.Background()

	poster := "https://image.tmdb.org/t/p/w780/poster.png"
	input := models.FavoriteMovie{
		MovieID:   "42",
		Title:     "Test Film",
		PosterURL: &poster,
		Overview:  "A film about tests.",
	}
	require.NoError(t, svc.Add(ctx, "user-1", input))

	listed, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, input, listed[0])
}

func TestAddIsIdempotent(t *testing.T) {
	svc := favorites.NewService(newMemStore())
	ctx := context.Background()

	fav := models.FavoriteMovie{MovieID: "42", Title: "Test Film"}
	require.NoError(t, svc.Add(ctx, "user-1", fav))
	require.NoError(t, svc.Add(ctx, "user-1", fav))

	listed, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestRemoveAbsentKeyIsNotAnError(t *testing.T) {
	svc := favorites.NewService(newMemStore())
	assert.NoError(t, svc.Remove(context.Background(), "user-1", "never-added"))
}

func TestRemoveThenListExcludesKey(t *testing.T) {
	svc := favorites.NewService(newMemStore())
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "user-1", models.FavoriteMovie{MovieID: "42", Title: "Test Film"}))
	require.NoError(t, svc.Add(ctx, "user-1", models.FavoriteMovie{MovieID: "7", Title: "Other"}))
	require.NoError(t, svc.Remove(ctx, "user-1", "42"))

	listed, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "7", listed[0].MovieID)
}

func TestListWithoutUserIDReturnsEmpty(t *testing.T) {
	store := newMemStore()
	store.records["someone"] = []models.FavoriteRecord{{UserID: "someone", MovieID: "1"}}
	svc := favorites.NewService(store)

	listed, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestListDefaultsMissingFields(t *testing.T) {
	store := newMemStore()
	store.records["user-1"] = []models.FavoriteRecord{{UserID: "user-1", MovieID: "42"}}
	svc := favorites.NewService(store)

	listed, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, models.FavoritePlaceholderTitle, listed[0].Title)
	assert.Nil(t, listed[0].PosterURL)
	assert.Equal(t, "", listed[0].Overview)
}

func TestValidationErrors(t *testing.T) {
	svc := favorites.NewService(newMemStore())
	ctx := context.Background()

	assert.ErrorIs(t, svc.Add(ctx, "", models.FavoriteMovie{MovieID: "42"}), favorites.ErrUserIDRequired)
	assert.ErrorIs(t, svc.Add(ctx, "user-1", models.FavoriteMovie{}), favorites.ErrMovieIDRequired)
	assert.ErrorIs(t, svc.Remove(ctx, "", "42"), favorites.ErrUserIDRequired)
	assert.ErrorIs(t, svc.Remove(ctx, "user-1", ""), favorites.ErrMovieIDRequired)
}

func TestPurgeUserDropsWholeCollection(t *testing.T) {
	svc := favorites.NewService(newMemStore())
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "user-1", models.FavoriteMovie{MovieID: "42", Title: "Test Film"}))
	require.NoError(t, svc.Add(ctx, "user-1", models.FavoriteMovie{MovieID: "7", Title: "Other"}))
	require.NoError(t, svc.Add(ctx, "user-2", models.FavoriteMovie{MovieID: "42", Title: "Test Film"}))

	removed, err := svc.PurgeUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	listed, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, listed)

	other, err := svc.List(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestPurgeUserRequiresUserID(t *testing.T) {
	svc := favorites.NewService(newMemStore())
	_, err := svc.PurgeUser(context.Background(), "")
	assert.ErrorIs(t, err, favorites.ErrUserIDRequired)
}

func TestStoreFailuresWrapOperationFailed(t *testing.T) {
	store := newMemStore()
	store.failAll = true
	svc := favorites.NewService(store)
	ctx := context.Background()

	_, err := svc.List(ctx, "user-1")
	assert.ErrorIs(t, err, favorites.ErrOperationFailed)
	assert.ErrorIs(t, svc.Add(ctx, "user-1", models.FavoriteMovie{MovieID: "42"}), favorites.ErrOperationFailed)
	assert.ErrorIs(t, svc.Remove(ctx, "user-1", "42"), favorites.ErrOperationFailed)
	_, err = svc.PurgeUser(ctx, "user-1")
	assert.ErrorIs(t, err, favorites.ErrOperationFailed)
}
