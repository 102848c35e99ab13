package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/clock"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
)

func TestCalendarOwnerBlocksAndUnblocks(t *testing.T) {
	store := newFakeCalendar()
	vessel := testVessel()
	vessel.OwnerUserID = 10
	svc := NewCalendar(store, newFakeProviders(vessel), clock.Fixed(date(2026, 9, 1)))
	owner := model.Actor{UserID: 10, Role: model.RoleProvider}
	ctx := context.Background()

	require.NoError(t, svc.Block(ctx, owner, 1, date(2026, 9, 15)))
	days, err := svc.List(ctx, owner, 1)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, date(2026, 9, 15), days[0])

	require.NoError(t, svc.Unblock(ctx, owner, 1, date(2026, 9, 15)))
	days, err = svc.List(ctx, owner, 1)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestCalendarRejectsPastDates(t *testing.T) {
	vessel := testVessel()
	vessel.OwnerUserID = 10
	svc := NewCalendar(newFakeCalendar(), newFakeProviders(vessel), clock.Fixed(date(2026, 9, 10)))

	err := svc.Block(context.Background(), model.Actor{UserID: 10, Role: model.RoleProvider}, 1, date(2026, 9, 9))
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestCalendarForbidsNonOwner(t *testing.T) {
	vessel := testVessel()
	vessel.OwnerUserID = 10
	svc := NewCalendar(newFakeCalendar(), newFakeProviders(vessel), clock.Fixed(date(2026, 9, 1)))
	ctx := context.Background()

	err := svc.Block(ctx, model.Actor{UserID: 99, Role: model.RoleProvider}, 1, date(2026, 9, 15))
	assert.ErrorIs(t, err, model.ErrForbidden)

	// Admins may edit any calendar.
	err = svc.Block(ctx, model.Actor{UserID: 1, Role: model.RoleAdmin}, 1, date(2026, 9, 15))
	assert.NoError(t, err)
}
