package service

import (
	"context"
	"math"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
)

type reservationGetter interface {
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
}

type rateReader interface {
	RatesByIDs(ctx context.Context, ids []uint64) (map[uint64]float64, error)
}

// ParticipantShare is one provider's cut of a reservation: the gross from
// its own lines, the platform commission taken out and the net owed.
type ParticipantShare struct {
	Provider        model.ProviderRef `json:"provider"`
	Rate            float64           `json:"rate"`
	GrossCents      int64             `json:"gross_cents"`
	CommissionCents int64             `json:"commission_cents"`
	NetCents        int64             `json:"net_cents"`
}

// Commissions derives per-participant payout statements from the frozen
// line items of a reservation. Statements are computed on demand and never
// persisted, so a rate renegotiation is reflected immediately.
type Commissions struct {
	reservations reservationGetter
	rates        rateReader
}

// NewCommissions wires the commission service.
func NewCommissions(reservations reservationGetter, rates rateReader) *Commissions {
	return &Commissions{reservations: reservations, rates: rates}
}

// Statement groups a reservation's lines by their provider (add-on lines
// carry the vessel provider, so vessel gross includes add-ons) and applies
// each provider's commission rate, falling back to the platform default.
// Shares appear in first-line order. Deposits are excluded: they are
// refundable and never commissionable.
func (s *Commissions) Statement(ctx context.Context, reservationID uint64) ([]ParticipantShare, error) {
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	order := make([]model.ProviderRef, 0, len(res.Lines))
	gross := make(map[model.ProviderRef]int64, len(res.Lines))
	for _, l := range res.Lines {
		if _, seen := gross[l.Provider]; !seen {
			order = append(order, l.Provider)
		}
		gross[l.Provider] += l.SubtotalCents
	}

	ids := make([]uint64, 0, len(order))
	for _, ref := range order {
		ids = append(ids, ref.ID)
	}
	rates, err := s.rates.RatesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	shares := make([]ParticipantShare, 0, len(order))
	for _, ref := range order {
		rate, ok := rates[ref.ID]
		if !ok {
			rate = model.DefaultCommissionRate
		}
		g := gross[ref]
		commission := int64(math.Round(float64(g) * rate))
		shares = append(shares, ParticipantShare{
			Provider:        ref,
			Rate:            rate,
			GrossCents:      g,
			CommissionCents: commission,
			NetCents:        g - commission,
		})
	}
	return shares, nil
}
