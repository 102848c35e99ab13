package model

import "time"

// WindowKind distinguishes the two representations of a reserved time span.
// A reservation fixes exactly one representation at creation and never
// changes it.
type WindowKind string

const (
	WindowSlot     WindowKind = "SLOT"
	WindowDayRange WindowKind = "DAY_RANGE"
)

const day = 24 * time.Hour

// Window is the reserved time span of a reservation: either a named slot
// from a vessel's finite slot catalog (SlotID set, Start == End == the
// calendar day) or an inclusive day range. All dates are UTC and truncated
// to midnight.
type Window struct {
	Kind   WindowKind `json:"kind"`
	SlotID uint64     `json:"slot_id,omitempty"` // set only when Kind == WindowSlot
	Start  time.Time  `json:"start"`             // inclusive first day
	End    time.Time  `json:"end"`               // inclusive last day; equals Start for slot windows
}

// Days returns the inclusive day count of the window, minimum 1. Slot
// windows always count as a single day.
func (w Window) Days() int64 {
	if w.Kind == WindowSlot {
		return 1
	}
	d := int64(w.End.Sub(w.Start)/day) + 1
	if d < 1 {
		d = 1
	}
	return d
}

// span returns the window's date span as a half-open [start, end) interval.
func (w Window) span() (time.Time, time.Time) {
	return w.Start, w.End.Add(day)
}

// Overlaps applies the half-open intersection test to the date spans of
// the two windows: searchStart < otherEnd AND searchEnd > otherStart.
func (w Window) Overlaps(o Window) bool {
	ws, we := w.span()
	os, oe := o.span()
	return ws.Before(oe) && we.After(os)
}

// Conflicts reports whether two windows collide on one provider's calendar.
// Two slot windows share their date span whenever they fall on the same
// day, so span overlap alone cannot decide between them; exact slot-id
// equality is the binding test. Every other pairing conflicts on plain
// span overlap.
func (w Window) Conflicts(o Window) bool {
	if !w.Overlaps(o) {
		return false
	}
	if w.Kind == WindowSlot && o.Kind == WindowSlot {
		return w.SlotID == o.SlotID
	}
	return true
}

// InPast reports whether the window starts before the current day. Past
// dates are never free.
func (w Window) InPast(now time.Time) bool {
	return w.Start.Before(Today(now))
}

// Today truncates an instant to its UTC calendar day.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
