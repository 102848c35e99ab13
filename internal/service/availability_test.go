package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/clock"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
)

func availabilityFixture(t *testing.T, now time.Time) (*Availability, *fakeProviders, *fakeCalendar, *fakeRepo) {
	t.Helper()
	providers := newFakeProviders(testVessel(), testSkipper())
	calendar := newFakeCalendar()
	repo := newFakeRepo()
	svc := NewAvailability(providers, calendar, repo, clock.Fixed(now))
	return svc, providers, calendar, repo
}

func TestWindowFreePastNeverFree(t *testing.T) {
	now := date(2026, 9, 10)
	svc, _, _, _ := availabilityFixture(t, now)

	free, err := svc.WindowFree(context.Background(),
		[]model.ProviderRef{{Kind: model.ProviderVessel, ID: 1}},
		dayRangeWindow(date(2026, 9, 8), date(2026, 9, 9)))
	require.NoError(t, err)
	assert.False(t, free)
}

func TestWindowFreeUnknownProviderFailsClosed(t *testing.T) {
	svc, _, _, _ := availabilityFixture(t, date(2026, 9, 1))

	_, err := svc.WindowFree(context.Background(),
		[]model.ProviderRef{{Kind: model.ProviderVessel, ID: 99}},
		dayRangeWindow(date(2026, 9, 10), date(2026, 9, 12)))
	assert.ErrorIs(t, err, model.ErrUnknownProvider)
}

func TestWindowFreeBlockedDate(t *testing.T) {
	svc, _, calendar, _ := availabilityFixture(t, date(2026, 9, 1))
	ref := model.ProviderRef{Kind: model.ProviderVessel, ID: 1}
	require.NoError(t, calendar.Block(context.Background(), 1, date(2026, 9, 11)))

	free, err := svc.WindowFree(context.Background(), []model.ProviderRef{ref},
		dayRangeWindow(date(2026, 9, 10), date(2026, 9, 12)))
	require.NoError(t, err)
	assert.False(t, free)

	free, err = svc.WindowFree(context.Background(), []model.ProviderRef{ref},
		dayRangeWindow(date(2026, 9, 12), date(2026, 9, 14)))
	require.NoError(t, err)
	assert.True(t, free)
}

func TestWindowFreeOverlappingReservation(t *testing.T) {
	svc, _, _, repo := availabilityFixture(t, date(2026, 9, 1))
	ref := model.ProviderRef{Kind: model.ProviderVessel, ID: 1}

	res := &model.Reservation{
		RequesterID: 7,
		Window:      dayRangeWindow(date(2026, 9, 10), date(2026, 9, 12)),
		Status:      model.StatusPendingApproval,
		Records:     []model.ConfirmationRecord{{Participant: ref}},
	}
	require.NoError(t, repo.Create(context.Background(), res))

	free, err := svc.WindowFree(context.Background(), []model.ProviderRef{ref},
		dayRangeWindow(date(2026, 9, 12), date(2026, 9, 14)))
	require.NoError(t, err)
	assert.False(t, free, "shared day must conflict")

	free, err = svc.WindowFree(context.Background(), []model.ProviderRef{ref},
		dayRangeWindow(date(2026, 9, 13), date(2026, 9, 15)))
	require.NoError(t, err)
	assert.True(t, free, "adjacent range must not conflict")
}

func TestWindowFreeSlotConflictsBySlotID(t *testing.T) {
	svc, _, _, repo := availabilityFixture(t, date(2026, 9, 1))
	ref := model.ProviderRef{Kind: model.ProviderVessel, ID: 1}
	day := date(2026, 9, 10)

	res := &model.Reservation{
		RequesterID: 7,
		Window:      slotWindow(5, day),
		Status:      model.StatusPendingApproval,
		Records:     []model.ConfirmationRecord{{Participant: ref}},
	}
	require.NoError(t, repo.Create(context.Background(), res))

	// A different slot on the same day is free.
	free, err := svc.WindowFree(context.Background(), []model.ProviderRef{ref}, slotWindow(6, day))
	require.NoError(t, err)
	assert.True(t, free)

	// The same slot is taken.
	free, err = svc.WindowFree(context.Background(), []model.ProviderRef{ref}, slotWindow(5, day))
	require.NoError(t, err)
	assert.False(t, free)

	// A day range covering the slot's day conflicts regardless of slot.
	free, err = svc.WindowFree(context.Background(), []model.ProviderRef{ref},
		dayRangeWindow(day, date(2026, 9, 11)))
	require.NoError(t, err)
	assert.False(t, free)
}
