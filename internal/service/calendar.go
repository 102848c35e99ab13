package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/clock"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
)

type calendarStore interface {
	Block(ctx context.Context, providerID uint64, day time.Time) error
	Unblock(ctx context.Context, providerID uint64, day time.Time) error
	List(ctx context.Context, providerID uint64) ([]time.Time, error)
}

type providerByID interface {
	GetByID(ctx context.Context, id uint64) (*model.Provider, error)
}

// Calendar manages a provider's blocked dates. Every date is free unless
// blocked; only the provider's owner and admins may edit the calendar.
type Calendar struct {
	store     calendarStore
	providers providerByID
	clock     clock.Clock
}

// NewCalendar wires the calendar service.
func NewCalendar(store calendarStore, providers providerByID, clk clock.Clock) *Calendar {
	return &Calendar{store: store, providers: providers, clock: clk}
}

func (s *Calendar) authorize(ctx context.Context, actor model.Actor, providerID uint64) error {
	p, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		return err
	}
	if !actor.Admin() && p.OwnerUserID != actor.UserID {
		return fmt.Errorf("provider %d calendar: %w", providerID, model.ErrForbidden)
	}
	return nil
}

// Block marks a day unavailable. Past days cannot be blocked; they are
// already never free.
func (s *Calendar) Block(ctx context.Context, actor model.Actor, providerID uint64, day time.Time) error {
	if err := s.authorize(ctx, actor, providerID); err != nil {
		return err
	}
	d := model.Today(day)
	if d.Before(model.Today(s.clock.Now())) {
		return fmt.Errorf("cannot block a past date: %w", model.ErrValidation)
	}
	return s.store.Block(ctx, providerID, d)
}

// Unblock frees a previously blocked day.
func (s *Calendar) Unblock(ctx context.Context, actor model.Actor, providerID uint64, day time.Time) error {
	if err := s.authorize(ctx, actor, providerID); err != nil {
		return err
	}
	return s.store.Unblock(ctx, providerID, model.Today(day))
}

// List returns the provider's blocked days, ascending.
func (s *Calendar) List(ctx context.Context, actor model.Actor, providerID uint64) ([]time.Time, error) {
	if err := s.authorize(ctx, actor, providerID); err != nil {
		return nil, err
	}
	return s.store.List(ctx, providerID)
}
