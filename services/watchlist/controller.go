package watchlist

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"streamcompass/models"
)

var (
	ErrOperationInFlight = errors.New("an operation for this movie is already in flight")
	ErrNoUndoPending     = errors.New("no undo window is open")
)

// DefaultUndoWindow is how long the undo affordance stays open after a
// successful add. When it elapses the add is treated as confirmed.
const DefaultUndoWindow = 4000 * time.Millisecond

// State is the controller's position in the add/remove flow.
type State int

const (
	StateIdle State = iota
	StatePending
	StateAwaitingUndo
	StateReconciled
)

// String returns a log-friendly name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateAwaitingUndo:
		return "awaiting-undo"
	case StateReconciled:
		return "reconciled"
	}
	return "unknown"
}

// Gateway is the favorites surface the controller coordinates against.
// *favorites.Service satisfies it.
type Gateway interface {
	List(ctx context.Context, userID string) ([]models.FavoriteMovie, error)
	Add(ctx context.Context, userID string, favorite models.FavoriteMovie) error
	Remove(ctx context.Context, userID, movieID string) error
}

type undoContext struct {
	movie models.FavoriteMovie
	timer *time.Timer
}

// Controller coordinates the user-visible add/remove flow for one screen
// instance: the local list and marker set update before the gateway call
// settles, a successful add opens an undo window, and failures surface to
// the caller without being retried.
//
// Operations are serialized per movie key: a second request for a key with
// one still in flight is rejected instead of racing it.
type Controller struct {
	gateway    Gateway
	userID     string
	undoWindow time.Duration

	mu        sync.Mutex
	state     State
	items     []models.FavoriteMovie
	ledger    *ledger
	inflight  map[string]struct{}
	confirmed map[string]struct{} // movies whose undo window already elapsed
	undo      *undoContext
}

// NewController creates a controller for the given user. A non-positive
// undoWindow falls back to DefaultUndoWindow.
func NewController(gateway Gateway, userID string, undoWindow time.Duration) *Controller {
	if undoWindow <= 0 {
		undoWindow = DefaultUndoWindow
	}
	return &Controller{
		gateway:    gateway,
		userID:     userID,
		undoWindow: undoWindow,
		state:      StateIdle,
		ledger:     newLedger(),
		inflight:   make(map[string]struct{}),
		confirmed:  make(map[string]struct{}),
	}
}

// Refresh rebuilds the local list and marker set from the gateway, as
// happens when the owning screen remounts.
func (c *Controller) Refresh(ctx context.Context) error {
	listed, err := c.gateway.List(ctx, c.userID)
	if err != nil {
		return fmt.Errorf("refresh favorites: %w", err)
	}

	ids := make([]string, 0, len(listed))
	for _, fav := range listed {
		ids = append(ids, fav.MovieID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = listed
	c.ledger.Reset(ids)
	return nil
}

// Add optimistically inserts the favorite into the local list, issues the
// gateway write, and on success opens the undo window. On failure the
// optimistic state is left in place; the caller surfaces the error.
func (c *Controller) Add(ctx context.Context, fav models.FavoriteMovie) error {
	c.mu.Lock()
	if _, busy := c.inflight[fav.MovieID]; busy {
		c.mu.Unlock()
		return ErrOperationInFlight
	}
	c.inflight[fav.MovieID] = struct{}{}
	c.state = StatePending

	// Optimistic: local state reflects the add before the call settles.
	c.ledger.Apply(EventAddRequested, fav.MovieID)
	c.insertLocked(fav)
	c.mu.Unlock()

	err := c.gateway.Add(ctx, c.userID, fav)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, fav.MovieID)

	if err != nil {
		// The movie stays in local state: surfacing the error without
		// rolling back is the documented behavior of this flow.
		c.ledger.Apply(EventAddFailed, fav.MovieID)
		c.state = StateReconciled
		return fmt.Errorf("add favorite %s: %w", fav.MovieID, err)
	}

	c.ledger.Apply(EventAddConfirmed, fav.MovieID)

	if _, done := c.confirmed[fav.MovieID]; done {
		// The undo window for this movie already elapsed once on this
		// screen instance; do not prompt again.
		c.state = StateIdle
		return nil
	}

	c.openUndoLocked(fav)
	return nil
}

// Remove issues the gateway delete and drops the movie from the local list
// only once the delete succeeds. On failure the item stays, reflecting that
// the remote record still exists.
func (c *Controller) Remove(ctx context.Context, movieID string) error {
	c.mu.Lock()
	if _, busy := c.inflight[movieID]; busy {
		c.mu.Unlock()
		return ErrOperationInFlight
	}
	c.inflight[movieID] = struct{}{}
	c.state = StatePending
	c.ledger.Apply(EventRemoveRequested, movieID)
	c.mu.Unlock()

	err := c.gateway.Remove(ctx, c.userID, movieID)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, movieID)
	c.state = StateReconciled

	if err != nil {
		c.ledger.Apply(EventRemoveFailed, movieID)
		return fmt.Errorf("remove favorite %s: %w", movieID, err)
	}

	c.ledger.Apply(EventRemoveConfirmed, movieID)
	c.dropLocked(movieID)
	return nil
}

// Undo reverses the add whose undo window is currently open. On success the
// movie leaves the local list and its marker is cleared.
func (c *Controller) Undo(ctx context.Context) error {
	c.mu.Lock()
	if c.undo == nil {
		c.mu.Unlock()
		return ErrNoUndoPending
	}
	subject := c.undo.movie
	if _, busy := c.inflight[subject.MovieID]; busy {
		c.mu.Unlock()
		return ErrOperationInFlight
	}
	c.inflight[subject.MovieID] = struct{}{}
	c.undo.timer.Stop()
	c.undo = nil
	c.mu.Unlock()

	err := c.gateway.Remove(ctx, c.userID, subject.MovieID)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, subject.MovieID)
	c.state = StateIdle

	if err != nil {
		// The dialog is gone either way; the marker keeps whatever state it
		// had before the failed call.
		c.ledger.Apply(EventRemoveFailed, subject.MovieID)
		return fmt.Errorf("undo add %s: %w", subject.MovieID, err)
	}

	c.ledger.Apply(EventUndoConfirmed, subject.MovieID)
	c.dropLocked(subject.MovieID)
	return nil
}

// PendingUndo reports the movie whose undo window is open, if any.
func (c *Controller) PendingUndo() (models.FavoriteMovie, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.undo == nil {
		return models.FavoriteMovie{}, false
	}
	return c.undo.movie, true
}

// IsFavorite reports the locally rendered marker state for a movie.
func (c *Controller) IsFavorite(movieID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Contains(movieID)
}

// Items returns a copy of the local favorites list.
func (c *Controller) Items() []models.FavoriteMovie {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.FavoriteMovie, len(c.items))
	copy(out, c.items)
	return out
}

// State returns the controller's current flow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Events returns a copy of the recorded transition history.
func (c *Controller) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Events()
}

// Close stops the undo timer if one is running.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.undo != nil {
		c.undo.timer.Stop()
		c.undo = nil
	}
}

// openUndoLocked opens the undo window for a just-confirmed add, superseding
// any previous subject and its timer. Callers must hold mu.
func (c *Controller) openUndoLocked(fav models.FavoriteMovie) {
	if c.undo != nil {
		c.undo.timer.Stop()
	}

	movieID := fav.MovieID
	ctx := &undoContext{movie: fav}
	ctx.timer = time.AfterFunc(c.undoWindow, func() {
		c.expireUndo(movieID)
	})
	c.undo = ctx
	c.state = StateAwaitingUndo
}

// expireUndo auto-dismisses the undo dialog. The favorite stays committed
// and no further prompt appears for that movie on this controller.
func (c *Controller) expireUndo(movieID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.undo == nil || c.undo.movie.MovieID != movieID {
		return // superseded by a newer add
	}
	c.undo = nil
	c.confirmed[movieID] = struct{}{}
	c.state = StateIdle
	log.Printf("[watchlist] undo window elapsed for %s, add confirmed", movieID)
}

// insertLocked adds fav to the local list unless already present.
func (c *Controller) insertLocked(fav models.FavoriteMovie) {
	for _, existing := range c.items {
		if existing.MovieID == fav.MovieID {
			return
		}
	}
	c.items = append(c.items, fav)
}

// dropLocked removes the movie from the local list if present.
func (c *Controller) dropLocked(movieID string) {
	for i, existing := range c.items {
		if existing.MovieID == movieID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}
