package watchlist_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"streamcompass/models"
	"streamcompass/services/watchlist"
)

// fakeGateway is an in-memory Gateway with switchable failures and optional
// hooks that block Add or Remove calls until released.
type fakeGateway struct {
	mu         sync.Mutex
	records    map[string]models.FavoriteMovie
	addErr     error
	removeErr  error
	addGate    chan struct{}
	removeGate chan struct{}
	addCalls   int
	removeCall int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{records: make(map[string]models.FavoriteMovie)}
}

func (g *fakeGateway) List(_ context.Context, _ string) ([]models.FavoriteMovie, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.FavoriteMovie, 0, len(g.records))
	for _, fav := range g.records {
		out = append(out, fav)
	}
	return out, nil
}

func (g *fakeGateway) Add(_ context.Context, _ string, fav models.FavoriteMovie) error {
	if g.addGate != nil {
		<-g.addGate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addCalls++
	if g.addErr != nil {
		return g.addErr
	}
	g.records[fav.MovieID] = fav
	return nil
}

func (g *fakeGateway) Remove(_ context.Context, _ string, movieID string) error {
	if g.removeGate != nil {
		<-g.removeGate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeCall++
	if g.removeErr != nil {
		return g.removeErr
	}
	delete(g.records, movieID)
	return nil
}

func (g *fakeGateway) has(movieID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.records[movieID]
	return ok
}

var testFilm = models.FavoriteMovie{MovieID: "42", Title: "Test Film"}

func TestAddIsOptimisticAndOpensUndoWindow(t *testing.T) {
	gw := newFakeGateway()
	c := watchlist.NewController(gw, "user-1", 0)
	defer c.Close()

	if err := c.Add(context.Background(), testFilm); err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	if !c.IsFavorite("42") {
		t.Fatal("expected local marker after add")
	}
	items := c.Items()
	if len(items) != 1 || items[0].MovieID != "42" {
		t.Fatalf("expected local list to contain the movie, got %+v", items)
	}
	if !gw.has("42") {
		t.Fatal("expected remote record after add")
	}

	pending, open := c.PendingUndo()
	if !open || pending.MovieID != "42" {
		t.Fatalf("expected undo window for movie 42, got %+v open=%v", pending, open)
	}
	if got := c.State(); got != watchlist.StateAwaitingUndo {
		t.Fatalf("expected awaiting-undo state, got %v", got)
	}
}

func TestUndoWithinWindowRemovesFavorite(t *testing.T) {
	gw := newFakeGateway()
	c := watchlist.NewController(gw, "user-1", 0)
	defer c.Close()
	ctx := context.Background()

	if err := c.Add(ctx, testFilm); err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	if err := c.Undo(ctx); err != nil {
		t.Fatalf("undo returned error: %v", err)
	}

	if c.IsFavorite("42") {
		t.Fatal("expected local marker cleared after undo")
	}
	if len(c.Items()) != 0 {
		t.Fatal("expected empty local list after undo")
	}
	if gw.has("42") {
		t.Fatal("expected remote record removed after undo")
	}
	if _, open := c.PendingUndo(); open {
		t.Fatal("expected undo window closed")
	}
}

func TestUndoWindowTimeoutCommitsAdd(t *testing.T) {
	gw := newFakeGateway()
	c := watchlist.NewController(gw, "user-1", 30*time.Millisecond)
	defer c.Close()

	if err := c.Add(context.Background(), testFilm); err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if _, open := c.PendingUndo(); !open {
			break
		}
		select {
		case <-deadline:
			t.Fatal("undo window never auto-dismissed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if !gw.has("42") {
		t.Fatal("expected favorite to remain committed after timeout")
	}
	if !c.IsFavorite("42") {
		t.Fatal("expected local marker to survive timeout")
	}
	if err := c.Undo(context.Background()); !errors.Is(err, watchlist.ErrNoUndoPending) {
		t.Fatalf("expected ErrNoUndoPending after timeout, got %v", err)
	}
}

func TestNoSecondPromptAfterTimeout(t *testing.T) {
	gw := newFakeGateway()
	c := watchlist.NewController(gw, "user-1", 10*time.Millisecond)
	defer c.Close()
	ctx := context.Background()

	if err := c.Add(ctx, testFilm); err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if err := c.Add(ctx, testFilm); err != nil {
		t.Fatalf("second add returned error: %v", err)
	}
	if _, open := c.PendingUndo(); open {
		t.Fatal("expected no prompt for a movie whose window already elapsed")
	}
}

func TestNewAddSupersedesPreviousUndoSubject(t *testing.T) {
	gw := newFakeGateway()
	c := watchlist.NewController(gw, "user-1", 0)
	defer c.Close()
	ctx := context.Background()

	if err := c.Add(ctx, testFilm); err != nil {
		t.Fatalf("first add returned error: %v", err)
	}
	other := models.FavoriteMovie{MovieID: "7", Title: "Other Film"}
	if err := c.Add(ctx, other); err != nil {
		t.Fatalf("second add returned error: %v", err)
	}

	pending, open := c.PendingUndo()
	if !open || pending.MovieID != "7" {
		t.Fatalf("expected undo subject replaced by movie 7, got %+v", pending)
	}

	// Undo now applies to the new subject only.
	if err := c.Undo(ctx); err != nil {
		t.Fatalf("undo returned error: %v", err)
	}
	if gw.has("7") {
		t.Fatal("expected superseding movie removed by undo")
	}
	if !gw.has("42") {
		t.Fatal("expected first movie to stay committed")
	}
}

func TestAddFailureLeavesOptimisticState(t *testing.T) {
	gw := newFakeGateway()
	gw.addErr = errors.New("store unavailable")
	c := watchlist.NewController(gw, "user-1", 0)
	defer c.Close()

	err := c.Add(context.Background(), testFilm)
	if err == nil {
		t.Fatal("expected add error")
	}

	// Documented behavior: no automatic rollback on add failure.
	if !c.IsFavorite("42") {
		t.Fatal("expected optimistic marker to remain after failure")
	}
	if len(c.Items()) != 1 {
		t.Fatal("expected optimistic list entry to remain after failure")
	}
	if _, open := c.PendingUndo(); open {
		t.Fatal("expected no undo window after failed add")
	}
	if got := c.State(); got != watchlist.StateReconciled {
		t.Fatalf("expected reconciled state, got %v", got)
	}
}

func TestRemoveFailureLeavesItemInList(t *testing.T) {
	gw := newFakeGateway()
	c := watchlist.NewController(gw, "user-1", 0)
	defer c.Close()
	ctx := context.Background()

	if err := c.Add(ctx, testFilm); err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	gw.removeErr = errors.New("store unavailable")
	if err := c.Remove(ctx, "42"); err == nil {
		t.Fatal("expected remove error")
	}

	if !c.IsFavorite("42") {
		t.Fatal("expected marker to reflect that the remote delete did not happen")
	}
	if len(c.Items()) != 1 {
		t.Fatal("expected item to stay in the list after failed remove")
	}
}

func TestRemoveSuccessDropsItem(t *testing.T) {
	gw := newFakeGateway()
	c := watchlist.NewController(gw, "user-1", 0)
	defer c.Close()
	ctx := context.Background()

	if err := c.Add(ctx, testFilm); err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	if err := c.Remove(ctx, "42"); err != nil {
		t.Fatalf("remove returned error: %v", err)
	}

	if c.IsFavorite("42") {
		t.Fatal("expected marker cleared after remove")
	}
	if len(c.Items()) != 0 {
		t.Fatal("expected empty list after remove")
	}
	if gw.has("42") {
		t.Fatal("expected remote record removed")
	}
}

func TestSecondOperationForSameKeyIsRejectedWhileInFlight(t *testing.T) {
	gw := newFakeGateway()
	gw.addGate = make(chan struct{})
	c := watchlist.NewController(gw, "user-1", 0)
	defer c.Close()
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- c.Add(ctx, testFilm)
	}()

	// Wait until the first add is parked inside the gateway call.
	deadline := time.After(2 * time.Second)
	for !c.IsFavorite("42") {
		select {
		case <-deadline:
			t.Fatal("first add never reached the gateway")
		case <-time.After(time.Millisecond):
		}
	}

	if err := c.Remove(ctx, "42"); !errors.Is(err, watchlist.ErrOperationInFlight) {
		t.Fatalf("expected ErrOperationInFlight, got %v", err)
	}

	close(gw.addGate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first add returned error: %v", err)
	}
}

func TestUndoHoldsSingleFlightForItsSubject(t *testing.T) {
	gw := newFakeGateway()
	c := watchlist.NewController(gw, "user-1", 0)
	defer c.Close()
	ctx := context.Background()

	if err := c.Add(ctx, testFilm); err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	gw.removeGate = make(chan struct{})
	undoDone := make(chan error, 1)
	go func() {
		undoDone <- c.Undo(ctx)
	}()

	// Wait until the undo has claimed its subject and parked in the gateway.
	deadline := time.After(2 * time.Second)
	for {
		if _, open := c.PendingUndo(); !open {
			break
		}
		select {
		case <-deadline:
			t.Fatal("undo never reached the gateway")
		case <-time.After(time.Millisecond):
		}
	}

	if err := c.Remove(ctx, "42"); !errors.Is(err, watchlist.ErrOperationInFlight) {
		t.Fatalf("expected ErrOperationInFlight for remove, got %v", err)
	}
	if err := c.Add(ctx, testFilm); !errors.Is(err, watchlist.ErrOperationInFlight) {
		t.Fatalf("expected ErrOperationInFlight for add, got %v", err)
	}

	close(gw.removeGate)
	if err := <-undoDone; err != nil {
		t.Fatalf("undo returned error: %v", err)
	}
	if gw.has("42") {
		t.Fatal("expected remote record removed after undo")
	}
}

func TestRefreshRebuildsLedgerFromGateway(t *testing.T) {
	gw := newFakeGateway()
	gw.records["9"] = models.FavoriteMovie{MovieID: "9", Title: "Persisted"}
	c := watchlist.NewController(gw, "user-1", 0)
	defer c.Close()

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}
	if !c.IsFavorite("9") {
		t.Fatal("expected marker reconstructed from the fetched list")
	}
	if len(c.Items()) != 1 {
		t.Fatalf("expected 1 item after refresh, got %d", len(c.Items()))
	}
}

func TestEventsRecordExplicitTransitions(t *testing.T) {
	gw := newFakeGateway()
	gw.addErr = errors.New("store unavailable")
	c := watchlist.NewController(gw, "user-1", 0)
	defer c.Close()

	_ = c.Add(context.Background(), testFilm)

	events := c.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Kind != watchlist.EventAddRequested || events[1].Kind != watchlist.EventAddFailed {
		t.Fatalf("unexpected event sequence %v, %v", events[0].Kind, events[1].Kind)
	}
}
