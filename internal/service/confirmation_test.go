package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/clock"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/queue"
)

type confirmationFixture struct {
	svc    *Confirmations
	repo   *fakeRepo
	events chan queue.StatusEvent
	now    time.Time
	resID  uint64
}

var (
	vesselRef  = model.ProviderRef{Kind: model.ProviderVessel, ID: 1}
	skipperRef = model.ProviderRef{Kind: model.ProviderSkipper, ID: 2}
)

// newConfirmationFixture seeds one pending reservation with two
// participants: the vessel (owned by user 10) and the skipper (user 20).
func newConfirmationFixture(t *testing.T) *confirmationFixture {
	t.Helper()
	f := &confirmationFixture{
		repo:   newFakeRepo(),
		events: make(chan queue.StatusEvent, 8),
		now:    date(2026, 9, 1),
	}
	f.repo.owners[vesselRef] = 10
	f.repo.owners[skipperRef] = 20

	res := &model.Reservation{
		RequesterID: 7,
		Window:      dayRangeWindow(date(2026, 9, 10), date(2026, 9, 12)),
		Status:      model.StatusPendingApproval,
		DeadlineAt:  f.now.Add(24 * time.Hour),
		Records: []model.ConfirmationRecord{
			{Participant: vesselRef, CreatedAt: f.now},
			{Participant: skipperRef, CreatedAt: f.now},
		},
	}
	require.NoError(t, f.repo.Create(context.Background(), res))
	f.resID = res.ID

	f.svc = NewConfirmations(f.repo, noopLocks{}, clock.Fixed(f.now), chanPublisher(f.events))
	return f
}

func TestDecidePartialConfirmationStaysPending(t *testing.T) {
	f := newConfirmationFixture(t)

	res, err := f.svc.Decide(context.Background(), model.Actor{UserID: 10, Role: model.RoleProvider},
		f.resID, nil, true)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingApproval, res.Status)

	select {
	case ev := <-f.events:
		t.Fatalf("no transition expected, got event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDecideAllConfirmedMovesToPendingPayment(t *testing.T) {
	f := newConfirmationFixture(t)
	ctx := context.Background()

	_, err := f.svc.Decide(ctx, model.Actor{UserID: 10, Role: model.RoleProvider}, f.resID, nil, true)
	require.NoError(t, err)
	res, err := f.svc.Decide(ctx, model.Actor{UserID: 20, Role: model.RoleProvider}, f.resID, nil, true)
	require.NoError(t, err)

	assert.Equal(t, model.StatusPendingPayment, res.Status)
	ev := waitEvent(t, f.events)
	assert.Equal(t, model.StatusPendingPayment, ev.Status)
	assert.Equal(t, model.StatusPendingApproval, ev.Previous)
}

func TestDecideSingleRejectionCancels(t *testing.T) {
	f := newConfirmationFixture(t)
	ctx := context.Background()

	_, err := f.svc.Decide(ctx, model.Actor{UserID: 10, Role: model.RoleProvider}, f.resID, nil, true)
	require.NoError(t, err)
	res, err := f.svc.Decide(ctx, model.Actor{UserID: 20, Role: model.RoleProvider}, f.resID, nil, false)
	require.NoError(t, err)

	assert.Equal(t, model.StatusCancelled, res.Status)
	require.NotNil(t, res.CancelReason)
	assert.Equal(t, model.CancelRejected, *res.CancelReason)

	ev := waitEvent(t, f.events)
	require.NotNil(t, ev.Reason)
	assert.Equal(t, model.CancelRejected, *ev.Reason)
}

func TestDecideTwiceIsRejected(t *testing.T) {
	f := newConfirmationFixture(t)
	ctx := context.Background()
	actor := model.Actor{UserID: 10, Role: model.RoleProvider}

	_, err := f.svc.Decide(ctx, actor, f.resID, nil, true)
	require.NoError(t, err)
	_, err = f.svc.Decide(ctx, actor, f.resID, nil, false)
	assert.ErrorIs(t, err, model.ErrAlreadyDecided)

	// The first decision stands.
	res, err := f.repo.GetByID(ctx, f.resID)
	require.NoError(t, err)
	assert.NotNil(t, res.Records[0].ConfirmedAt)
	assert.False(t, res.Records[0].Rejected)
}

func TestDecideNonParticipantForbidden(t *testing.T) {
	f := newConfirmationFixture(t)

	_, err := f.svc.Decide(context.Background(), model.Actor{UserID: 99, Role: model.RoleProvider},
		f.resID, nil, true)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestDecideOnBehalfRequiresAdmin(t *testing.T) {
	f := newConfirmationFixture(t)
	ctx := context.Background()

	_, err := f.svc.Decide(ctx, model.Actor{UserID: 10, Role: model.RoleProvider}, f.resID, &skipperRef, true)
	assert.ErrorIs(t, err, model.ErrForbidden)

	res, err := f.svc.Decide(ctx, model.Actor{UserID: 1, Role: model.RoleAdmin}, f.resID, &skipperRef, true)
	require.NoError(t, err)
	assert.NotNil(t, res.Records[1].ConfirmedAt)
}

func TestSweepExpiredCancelsWithDeadlineReason(t *testing.T) {
	f := newConfirmationFixture(t)
	ctx := context.Background()

	// Not yet expired.
	n, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.svc = NewConfirmations(f.repo, noopLocks{}, clock.Fixed(f.now.Add(25*time.Hour)), chanPublisher(f.events))
	n, err = f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	res, err := f.repo.GetByID(ctx, f.resID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, res.Status)
	require.NotNil(t, res.CancelReason)
	assert.Equal(t, model.CancelDeadline, *res.CancelReason)

	ev := waitEvent(t, f.events)
	require.NotNil(t, ev.Reason)
	assert.Equal(t, model.CancelDeadline, *ev.Reason)

	// A second sweep finds nothing; cancellation is exactly-once.
	n, err = f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDecideAfterCancellationConflicts(t *testing.T) {
	f := newConfirmationFixture(t)
	ctx := context.Background()

	f.svc = NewConfirmations(f.repo, noopLocks{}, clock.Fixed(f.now.Add(25*time.Hour)), chanPublisher(f.events))
	_, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	waitEvent(t, f.events)

	_, err = f.svc.Decide(ctx, model.Actor{UserID: 10, Role: model.RoleProvider}, f.resID, nil, true)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestNotifyForPaymentRequiresAllConfirmed(t *testing.T) {
	f := newConfirmationFixture(t)
	ctx := context.Background()
	admin := model.Actor{UserID: 1, Role: model.RoleAdmin}

	_, err := f.svc.NotifyForPayment(ctx, admin, f.resID)
	assert.ErrorIs(t, err, model.ErrConflict, "undecided participants must block the payment push")
}

func TestAdminTransitionChain(t *testing.T) {
	f := newConfirmationFixture(t)
	ctx := context.Background()
	admin := model.Actor{UserID: 1, Role: model.RoleAdmin}

	_, err := f.svc.Decide(ctx, admin, f.resID, &vesselRef, true)
	require.NoError(t, err)
	res, err := f.svc.Decide(ctx, admin, f.resID, &skipperRef, true)
	require.NoError(t, err)
	require.Equal(t, model.StatusPendingPayment, res.Status)
	waitEvent(t, f.events)

	res, err = f.svc.MarkConfirmed(ctx, admin, f.resID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, res.Status)
	waitEvent(t, f.events)

	res, err = f.svc.MarkCompleted(ctx, admin, f.resID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, res.Status)
	waitEvent(t, f.events)

	// Terminal: no further transitions.
	_, err = f.svc.Cancel(ctx, admin, f.resID)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestAdminTransitionsForbiddenForOthers(t *testing.T) {
	f := newConfirmationFixture(t)
	ctx := context.Background()
	customer := model.Actor{UserID: 7, Role: model.RoleCustomer}

	_, err := f.svc.MarkAdminAction(ctx, customer, f.resID)
	assert.ErrorIs(t, err, model.ErrForbidden)
	_, err = f.svc.Cancel(ctx, customer, f.resID)
	assert.ErrorIs(t, err, model.ErrForbidden)
}
