package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/clock"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/queue"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/repository"
)

type decisionStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	FindParticipant(ctx context.Context, reservationID, userID uint64) (model.ProviderRef, error)
	Decide(ctx context.Context, id uint64, participant model.ProviderRef, accept bool, now time.Time) (*repository.DecisionResult, error)
	SweepExpired(ctx context.Context, now time.Time) ([]model.Reservation, error)
	Transition(ctx context.Context, id uint64, from, to model.ReservationStatus, reason *model.CancelReason, requireAllConfirmed bool, now time.Time) (*model.Reservation, error)
}

type reservationLocker interface {
	Acquire(ctx context.Context, reservationID uint64) (func(), error)
}

// Confirmations runs the multi-party confirmation state machine: per
// participant accept/reject, the aggregate transitions they trigger, the
// deadline sweep, and the administrative transitions.
type Confirmations struct {
	repo    decisionStore
	locks   reservationLocker
	clock   clock.Clock
	publish PublishFunc
}

// NewConfirmations wires the confirmation service.
func NewConfirmations(repo decisionStore, locks reservationLocker, clk clock.Clock, publish PublishFunc) *Confirmations {
	return &Confirmations{repo: repo, locks: locks, clock: clk, publish: publish}
}

// Decide records one participant's accept or reject. Callers act for the
// provider they own; admins may decide on behalf of an explicit participant
// via onBehalf. A repeat decision returns model.ErrAlreadyDecided and
// changes nothing. When the decision settles the aggregate (any rejection,
// or the last confirmation) the resulting transition is published.
func (s *Confirmations) Decide(ctx context.Context, actor model.Actor, reservationID uint64, onBehalf *model.ProviderRef, accept bool) (*model.Reservation, error) {
	var participant model.ProviderRef
	if onBehalf != nil {
		if !actor.Admin() {
			return nil, fmt.Errorf("deciding on behalf of a participant is admin only: %w", model.ErrForbidden)
		}
		participant = *onBehalf
	} else {
		ref, err := s.repo.FindParticipant(ctx, reservationID, actor.UserID)
		if err != nil {
			return nil, err
		}
		participant = ref
	}

	release, err := s.locks.Acquire(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, model.ErrConflict)
	}
	defer release()

	now := s.clock.Now()
	result, err := s.repo.Decide(ctx, reservationID, participant, accept, now)
	if err != nil {
		return nil, err
	}
	if result.Transitioned {
		s.publishTransition(ctx, result.Reservation, result.Previous, now)
	}
	return result.Reservation, nil
}

// SweepExpired cancels all reservations whose confirmation deadline has
// elapsed and publishes a DEADLINE cancellation event for each. It returns
// the number of reservations cancelled.
func (s *Confirmations) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()
	cancelled, err := s.repo.SweepExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	for i := range cancelled {
		s.publishTransition(ctx, &cancelled[i], model.StatusPendingApproval, now)
	}
	return len(cancelled), nil
}

// MarkAdminAction parks a pending reservation for manual handling, used
// when a participating provider was suspended mid-flight.
func (s *Confirmations) MarkAdminAction(ctx context.Context, actor model.Actor, id uint64) (*model.Reservation, error) {
	return s.adminTransition(ctx, actor, id, model.StatusPendingApproval, model.StatusPendingAdminAction, nil, false)
}

// NotifyForPayment pushes a reservation to PENDING_PAYMENT. It refuses
// unless every participant has confirmed; an admin cannot open a
// reservation for payment over an undecided or rejected participant.
func (s *Confirmations) NotifyForPayment(ctx context.Context, actor model.Actor, id uint64) (*model.Reservation, error) {
	return s.adminTransition(ctx, actor, id, model.StatusPendingApproval, model.StatusPendingPayment, nil, true)
}

// MarkConfirmed moves a paid reservation to CONFIRMED. The payment
// collaborator reports success out of band; this is its callback boundary.
func (s *Confirmations) MarkConfirmed(ctx context.Context, actor model.Actor, id uint64) (*model.Reservation, error) {
	return s.adminTransition(ctx, actor, id, model.StatusPendingPayment, model.StatusConfirmed, nil, false)
}

// MarkCompleted closes out a charter after the fact.
func (s *Confirmations) MarkCompleted(ctx context.Context, actor model.Actor, id uint64) (*model.Reservation, error) {
	return s.adminTransition(ctx, actor, id, model.StatusConfirmed, model.StatusCompleted, nil, false)
}

// Cancel cancels a reservation from whatever non-terminal status it is in.
// Admin only; no cancel reason is recorded since neither a rejection nor a
// deadline caused it.
func (s *Confirmations) Cancel(ctx context.Context, actor model.Actor, id uint64) (*model.Reservation, error) {
	if !actor.Admin() {
		return nil, fmt.Errorf("cancellation is admin only: %w", model.ErrForbidden)
	}
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status.Terminal() {
		return nil, fmt.Errorf("reservation %d is already %s: %w", id, res.Status, model.ErrConflict)
	}
	return s.transition(ctx, id, res.Status, model.StatusCancelled, nil, false)
}

func (s *Confirmations) adminTransition(ctx context.Context, actor model.Actor, id uint64, from, to model.ReservationStatus, reason *model.CancelReason, requireAllConfirmed bool) (*model.Reservation, error) {
	if !actor.Admin() {
		return nil, fmt.Errorf("transition to %s is admin only: %w", to, model.ErrForbidden)
	}
	return s.transition(ctx, id, from, to, reason, requireAllConfirmed)
}

func (s *Confirmations) transition(ctx context.Context, id uint64, from, to model.ReservationStatus, reason *model.CancelReason, requireAllConfirmed bool) (*model.Reservation, error) {
	release, err := s.locks.Acquire(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, model.ErrConflict)
	}
	defer release()

	now := s.clock.Now()
	res, err := s.repo.Transition(ctx, id, from, to, reason, requireAllConfirmed, now)
	if err != nil {
		return nil, err
	}
	s.publishTransition(ctx, res, from, now)
	return res, nil
}

func (s *Confirmations) publishTransition(ctx context.Context, res *model.Reservation, previous model.ReservationStatus, now time.Time) {
	if s.publish == nil {
		return
	}
	event := queue.StatusEvent{
		ReservationID: res.ID,
		RequesterID:   res.RequesterID,
		Previous:      previous,
		Status:        res.Status,
		Reason:        res.CancelReason,
		OccurredAt:    now.UTC(),
	}
	go func(ctx context.Context) {
		if err := s.publish(ctx, event); err != nil {
			log.Printf("reservation %d: status publish failed: %v", event.ReservationID, err)
		}
	}(context.WithoutCancel(ctx))
}
