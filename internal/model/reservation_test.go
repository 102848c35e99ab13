package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func confirmedAt(t time.Time) *time.Time { return &t }

func TestDeriveOutcome(t *testing.T) {
	now := time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		records []ConfirmationRecord
		want    Outcome
	}{
		{"empty set stays pending", nil, OutcomePending},
		{
			"all confirmed",
			[]ConfirmationRecord{
				{Participant: ProviderRef{ProviderVessel, 1}, ConfirmedAt: confirmedAt(now)},
				{Participant: ProviderRef{ProviderSkipper, 2}, ConfirmedAt: confirmedAt(now)},
			},
			OutcomeAllConfirmed,
		},
		{
			"one undecided",
			[]ConfirmationRecord{
				{Participant: ProviderRef{ProviderVessel, 1}, ConfirmedAt: confirmedAt(now)},
				{Participant: ProviderRef{ProviderService, 3}},
			},
			OutcomePending,
		},
		{
			"single rejection wins over confirmations",
			[]ConfirmationRecord{
				{Participant: ProviderRef{ProviderVessel, 1}, ConfirmedAt: confirmedAt(now)},
				{Participant: ProviderRef{ProviderSkipper, 2}, Rejected: true},
				{Participant: ProviderRef{ProviderService, 3}, ConfirmedAt: confirmedAt(now)},
			},
			OutcomeRejected,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveOutcome(tt.records))
		})
	}
}

func TestReservationParticipants(t *testing.T) {
	vessel := ProviderRef{ProviderVessel, 10}
	skipper := ProviderRef{ProviderSkipper, 20}
	catering := ProviderRef{ProviderService, 30}

	res := &Reservation{
		Lines: []PricedItem{
			{Kind: LineVessel, Provider: vessel},
			{Kind: LineAddon, Provider: vessel},
			{Kind: LineCrew, Provider: skipper},
			{Kind: LineService, Provider: catering},
			{Kind: LineService, Provider: catering}, // second line, same provider
		},
	}

	got := res.Participants()
	assert.Equal(t, []ProviderRef{vessel, skipper, catering}, got,
		"participants are deduplicated by provider, not by line")
}
