package watchlist

import "time"

// EventKind identifies one step of the optimistic add/remove flow.
type EventKind int

const (
	EventAddRequested EventKind = iota
	EventAddConfirmed
	EventAddFailed
	EventRemoveRequested
	EventRemoveConfirmed
	EventRemoveFailed
	EventUndoConfirmed
)

// String returns a log-friendly name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventAddRequested:
		return "add-requested"
	case EventAddConfirmed:
		return "add-confirmed"
	case EventAddFailed:
		return "add-failed"
	case EventRemoveRequested:
		return "remove-requested"
	case EventRemoveConfirmed:
		return "remove-confirmed"
	case EventRemoveFailed:
		return "remove-failed"
	case EventUndoConfirmed:
		return "undo-confirmed"
	}
	return "unknown"
}

// Event records one transition for one movie key.
type Event struct {
	Kind    EventKind
	MovieID string
	At      time.Time
}

// ledger derives the "locally added" marker set as a projection over the
// event history instead of a mutable list, so failure paths are explicit
// transitions rather than silent no-ops.
//
// Projection rules:
//   - add-requested and add-confirmed mark the key as locally added. An
//     add-failed does NOT clear the marker: the UI surfaces the error and
//     leaves the optimistic state in place.
//   - remove-confirmed and undo-confirmed clear the marker. A remove-failed
//     leaves whatever state preceded the failed call, so the marker still
//     reflects that the remote delete did not happen.
type ledger struct {
	events  []Event
	favored map[string]struct{}
}

func newLedger() *ledger {
	return &ledger{favored: make(map[string]struct{})}
}

// Apply records an event and updates the projection.
func (l *ledger) Apply(kind EventKind, movieID string) {
	l.events = append(l.events, Event{Kind: kind, MovieID: movieID, At: time.Now()})

	switch kind {
	case EventAddRequested, EventAddConfirmed:
		l.favored[movieID] = struct{}{}
	case EventRemoveConfirmed, EventUndoConfirmed:
		delete(l.favored, movieID)
	}
}

// Contains reports whether the projection currently marks the key as added.
func (l *ledger) Contains(movieID string) bool {
	_, ok := l.favored[movieID]
	return ok
}

// Reset discards the history and seeds the projection from a freshly fetched
// favorites list, as happens on screen remount.
func (l *ledger) Reset(movieIDs []string) {
	l.events = l.events[:0]
	l.favored = make(map[string]struct{}, len(movieIDs))
	for _, id := range movieIDs {
		l.favored[id] = struct{}{}
	}
}

// Events returns a copy of the recorded history.
func (l *ledger) Events() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}
