package model

// ProviderKind enumerates the kinds of actors that can block dates on a
// calendar and that must confirm reservations implicating them: a vessel,
// a crew member (skipper) or a third-party service provider.
type ProviderKind string

const (
	ProviderVessel  ProviderKind = "VESSEL"
	ProviderSkipper ProviderKind = "SKIPPER"
	ProviderService ProviderKind = "SERVICE"
)

// Valid reports whether k is a known provider kind.
func (k ProviderKind) Valid() bool {
	switch k {
	case ProviderVessel, ProviderSkipper, ProviderService:
		return true
	}
	return false
}

// ProviderRef identifies a provider by (kind, id). It is the identity used
// on reservation lines, confirmation records and calendar lookups.
type ProviderRef struct {
	Kind ProviderKind `json:"kind"`
	ID   uint64       `json:"id"`
}

// Provider is any actor whose resource can be reserved. Each provider owns
// exactly one availability calendar (the provider_blocked_dates rows keyed
// by its ID).
//
// Fields:
//  ID             – primary key identifier.
//  Kind           – VESSEL, SKIPPER or SERVICE.
//  Name           – display name.
//  OwnerUserID    – user account allowed to act for this provider.
//  DayRateCents   – day rate in euro cents (vessels and skippers).
//  DepositCents   – refundable deposit collected out of band (vessels).
//  Capacity       – maximum guest count (vessels; zero means unlimited).
//  CommissionRate – platform commission fraction; nil falls back to the
//                   default rate.
//  Suspended      – structurally unable to confirm reservations.
//  Active         – listed and bookable.
type Provider struct {
	ID             uint64       `json:"id"`
	Kind           ProviderKind `json:"kind"`
	Name           string       `json:"name"`
	OwnerUserID    uint64       `json:"owner_user_id"`
	DayRateCents   int64        `json:"day_rate_cents"`
	DepositCents   int64        `json:"deposit_cents"`
	Capacity       uint32       `json:"capacity"`
	CommissionRate *float64     `json:"commission_rate,omitempty"`
	Suspended      bool         `json:"suspended"`
	Active         bool         `json:"active"`
}

// Ref returns the provider's (kind, id) identity.
func (p *Provider) Ref() ProviderRef { return ProviderRef{Kind: p.Kind, ID: p.ID} }

// DefaultCommissionRate applies when a provider has no negotiated rate.
const DefaultCommissionRate = 0.15
