package watchlist

// Row models the horizontal-drag surface on one list entry. Dragging reveals
// an action button up to its configured width; releasing before the action
// is tapped snaps the row back to rest; tapping the revealed action invokes
// the bound callback exactly once and closes the row.
//
// Offsets are negative while the row is dragged open (leftward reveal).
type Row struct {
	actionWidth float64
	offset      float64
	onAction    func()
}

// NewRow creates a row with the given action-button width and bound action.
func NewRow(actionWidth float64, onAction func()) *Row {
	if actionWidth < 0 {
		actionWidth = 0
	}
	return &Row{actionWidth: actionWidth, onAction: onAction}
}

// Drag applies a horizontal delta. The reveal is clamped at the action
// button's width: overshooting does not rubber-band past it, and the row
// never opens in the opposite direction.
func (r *Row) Drag(dx float64) {
	r.offset += dx
	if r.offset < -r.actionWidth {
		r.offset = -r.actionWidth
	}
	if r.offset > 0 {
		r.offset = 0
	}
}

// Release ends the drag without tapping the action; the row snaps to rest.
func (r *Row) Release() {
	r.offset = 0
}

// Tap presses the revealed action button. It invokes the bound callback
// exactly once and closes the row; tapping a closed row does nothing.
func (r *Row) Tap() bool {
	if !r.Revealed() {
		return false
	}
	r.offset = 0
	if r.onAction != nil {
		r.onAction()
	}
	return true
}

// Revealed reports whether the action button is fully exposed.
func (r *Row) Revealed() bool {
	return r.actionWidth > 0 && r.offset <= -r.actionWidth
}

// Offset returns the current horizontal displacement.
func (r *Row) Offset() float64 {
	return r.offset
}
