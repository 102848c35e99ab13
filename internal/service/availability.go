package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/clock"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
)

type providerReader interface {
	GetRef(ctx context.Context, ref model.ProviderRef) (*model.Provider, error)
}

type blockedCounter interface {
	BlockedCount(ctx context.Context, providerID uint64, from, to time.Time) (int, error)
}

type overlapReader interface {
	Overlapping(ctx context.Context, ref model.ProviderRef, w model.Window) ([]model.Window, error)
}

// Availability answers whether a window is free for a set of providers. A
// provider's occupied set is the union of its blocked dates and the windows
// of its non-terminal reservations. The resolver fails closed: any lookup
// failure is an error, never a "free".
type Availability struct {
	providers    providerReader
	calendar     blockedCounter
	reservations overlapReader
	clock        clock.Clock
}

// NewAvailability wires an availability resolver.
func NewAvailability(p providerReader, c blockedCounter, r overlapReader, clk clock.Clock) *Availability {
	return &Availability{providers: p, calendar: c, reservations: r, clock: clk}
}

// WindowFree reports whether every given provider is free for the window.
// Past windows are never free. An unresolvable provider reference yields
// model.ErrUnknownProvider.
func (s *Availability) WindowFree(ctx context.Context, refs []model.ProviderRef, w model.Window) (bool, error) {
	if w.InPast(s.clock.Now()) {
		return false, nil
	}
	for _, ref := range refs {
		if _, err := s.providers.GetRef(ctx, ref); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return false, fmt.Errorf("provider %s/%d: %w", ref.Kind, ref.ID, model.ErrUnknownProvider)
			}
			return false, err
		}
		blocked, err := s.calendar.BlockedCount(ctx, ref.ID, w.Start, w.End)
		if err != nil {
			return false, err
		}
		if blocked > 0 {
			return false, nil
		}
		windows, err := s.reservations.Overlapping(ctx, ref, w)
		if err != nil {
			return false, err
		}
		for _, other := range windows {
			if w.Conflicts(other) {
				return false, nil
			}
		}
	}
	return true, nil
}
