package model

import "time"

// ReservationStatus is the lifecycle state of a reservation. Values are
// stored verbatim in the reservations.status column.
type ReservationStatus string

const (
	StatusPendingApproval    ReservationStatus = "PENDING_APPROVAL"
	StatusPendingPayment     ReservationStatus = "PENDING_PAYMENT"
	StatusConfirmed          ReservationStatus = "CONFIRMED"
	StatusCompleted          ReservationStatus = "COMPLETED"
	StatusCancelled          ReservationStatus = "CANCELLED"
	StatusPendingAdminAction ReservationStatus = "PENDING_ADMIN_ACTION"
)

// NonTerminalStatuses are the statuses that occupy a provider's calendar
// for availability purposes.
var NonTerminalStatuses = []ReservationStatus{
	StatusPendingApproval,
	StatusPendingPayment,
	StatusConfirmed,
}

// Terminal reports whether the status admits no further transitions.
func (s ReservationStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// CancelReason records why a reservation was cancelled, so the audit trail
// can tell a deadline expiry apart from an explicit participant rejection.
type CancelReason string

const (
	CancelRejected CancelReason = "REJECTED"
	CancelDeadline CancelReason = "DEADLINE"
)

// LineKind classifies one priced component of a reservation.
type LineKind string

const (
	LineVessel  LineKind = "VESSEL"
	LineCrew    LineKind = "CREW"
	LineAddon   LineKind = "ADDON"
	LineService LineKind = "SERVICE"
)

// PricedItem is one line item of a reservation. The subtotal is computed
// once by the pricing calculator at creation and never recomputed.
type PricedItem struct {
	ID            uint64       `json:"id"`
	ReservationID uint64       `json:"reservation_id"`
	Kind          LineKind     `json:"kind"`
	ItemID        uint64       `json:"item_id"` // slot/addon/offering id; provider id for vessel and crew lines
	Provider      ProviderRef  `json:"provider"`
	Model         PricingModel `json:"pricing_model"`
	UnitCents     int64        `json:"unit_price_cents"`
	Quantity      int64        `json:"quantity"`
	SubtotalCents int64        `json:"subtotal_cents"`
	DepositCents  int64        `json:"deposit_cents"`
	Label         string       `json:"label"`
}

// ConfirmationRecord holds one required participant's decision. Exactly one
// record exists per distinct provider implicated by a reservation, all
// sharing the reservation's deadline.
type ConfirmationRecord struct {
	ID            uint64      `json:"id"`
	ReservationID uint64      `json:"reservation_id"`
	Participant   ProviderRef `json:"participant"`
	ConfirmedAt   *time.Time  `json:"confirmed_at,omitempty"`
	Rejected      bool        `json:"rejected"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Decided reports whether the participant has already acted on the record.
func (r ConfirmationRecord) Decided() bool {
	return r.Rejected || r.ConfirmedAt != nil
}

// Outcome is the aggregate eligibility derived from the full set of a
// reservation's confirmation records.
type Outcome int

const (
	OutcomePending      Outcome = iota // at least one undecided record, none rejected
	OutcomeAllConfirmed                // every record carries confirmed_at
	OutcomeRejected                    // at least one record is rejected
)

// DeriveOutcome recomputes the aggregate from a freshly read record set.
// Any rejection wins over everything else; full confirmation makes the
// reservation payment-eligible. An empty set is treated as pending so a
// half-written reservation can never advance.
func DeriveOutcome(records []ConfirmationRecord) Outcome {
	if len(records) == 0 {
		return OutcomePending
	}
	confirmed := 0
	for _, r := range records {
		if r.Rejected {
			return OutcomeRejected
		}
		if r.ConfirmedAt != nil {
			confirmed++
		}
	}
	if confirmed == len(records) {
		return OutcomeAllConfirmed
	}
	return OutcomePending
}

// Reservation is the persisted header of a composite booking together with
// its line items and confirmation records.
//
// Invariant: TotalCents equals the sum of line subtotals computed once at
// creation. DepositCents is tracked separately and never summed into the
// total.
type Reservation struct {
	ID           uint64            `json:"id"`
	RequesterID  uint64            `json:"requester_id"`
	VesselID     *uint64           `json:"vessel_id,omitempty"`
	SkipperID    *uint64           `json:"skipper_id,omitempty"`
	Window       Window            `json:"window"`
	GuestCount   uint32            `json:"guest_count"`
	Status       ReservationStatus `json:"status"`
	CancelReason *CancelReason     `json:"cancel_reason,omitempty"`
	TotalCents   int64             `json:"total_cents"`
	DepositCents int64             `json:"deposit_cents"`
	DeadlineAt   time.Time         `json:"deadline_at"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`

	Lines   []PricedItem         `json:"lines,omitempty"`
	Records []ConfirmationRecord `json:"confirmation_records,omitempty"`
}

// Participants returns the distinct providers that must confirm, in line
// order: the vessel provider, the skipper when one is chosen, then each
// distinct service provider (deduplicated by provider, not by line).
func (r *Reservation) Participants() []ProviderRef {
	seen := make(map[ProviderRef]struct{}, len(r.Lines))
	out := make([]ProviderRef, 0, len(r.Lines))
	for _, l := range r.Lines {
		if l.Kind == LineAddon {
			continue // add-ons belong to the vessel provider, already implicated
		}
		if _, ok := seen[l.Provider]; ok {
			continue
		}
		seen[l.Provider] = struct{}{}
		out = append(out, l.Provider)
	}
	return out
}
