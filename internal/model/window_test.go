package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayRange(start, end time.Time) Window {
	return Window{Kind: WindowDayRange, Start: start, End: end}
}

func slotWindow(slotID uint64, day time.Time) Window {
	return Window{Kind: WindowSlot, SlotID: slotID, Start: day, End: day}
}

func TestWindowDays(t *testing.T) {
	tests := []struct {
		name string
		w    Window
		want int64
	}{
		{"single day range", dayRange(date(2026, 7, 1), date(2026, 7, 1)), 1},
		{"three day range", dayRange(date(2026, 7, 1), date(2026, 7, 3)), 3},
		{"week range", dayRange(date(2026, 7, 1), date(2026, 7, 7)), 7},
		{"slot counts as one day", slotWindow(4, date(2026, 7, 1)), 1},
		{"inverted range clamps to one", dayRange(date(2026, 7, 3), date(2026, 7, 1)), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.w.Days())
		})
	}
}

func TestWindowOverlaps(t *testing.T) {
	base := dayRange(date(2026, 7, 10), date(2026, 7, 12))

	assert.True(t, base.Overlaps(dayRange(date(2026, 7, 12), date(2026, 7, 14))), "shared last day overlaps")
	assert.True(t, base.Overlaps(dayRange(date(2026, 7, 8), date(2026, 7, 10))), "shared first day overlaps")
	assert.True(t, base.Overlaps(dayRange(date(2026, 7, 11), date(2026, 7, 11))), "contained day overlaps")
	assert.False(t, base.Overlaps(dayRange(date(2026, 7, 13), date(2026, 7, 15))), "adjacent range does not overlap")
	assert.False(t, base.Overlaps(dayRange(date(2026, 7, 1), date(2026, 7, 9))), "earlier range does not overlap")
}

func TestWindowConflicts(t *testing.T) {
	d := date(2026, 7, 10)

	assert.True(t, slotWindow(1, d).Conflicts(slotWindow(1, d)), "same slot same day conflicts")
	assert.False(t, slotWindow(1, d).Conflicts(slotWindow(2, d)), "different slots same day do not conflict")
	assert.False(t, slotWindow(1, d).Conflicts(slotWindow(1, date(2026, 7, 11))), "same slot different day does not conflict")
	assert.True(t, slotWindow(1, d).Conflicts(dayRange(d, date(2026, 7, 12))), "slot inside a day range conflicts")
	assert.True(t, dayRange(date(2026, 7, 9), d).Conflicts(slotWindow(3, d)), "day range covering a slot day conflicts")
}

func TestWindowInPast(t *testing.T) {
	now := time.Date(2026, 7, 10, 15, 30, 0, 0, time.UTC)

	assert.True(t, dayRange(date(2026, 7, 9), date(2026, 7, 11)).InPast(now))
	assert.False(t, dayRange(date(2026, 7, 10), date(2026, 7, 11)).InPast(now), "window starting today is not past")
	assert.False(t, slotWindow(1, date(2026, 7, 11)).InPast(now))
}
