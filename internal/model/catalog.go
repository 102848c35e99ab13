package model

// Slot is one entry of a vessel's finite slot catalog: a named time-of-day
// range bookable as a single unit (e.g. "morning", "full_day").
//
// Fields:
//  ID             – primary key identifier.
//  VesselID       – vessel provider this slot belongs to.
//  Label          – human-readable slot name.
//  StartsAt       – start of the time range, "HH:MM".
//  EndsAt         – end of the time range, "HH:MM".
//  Enabled        – disabled slots cannot be reserved.
//  PriceCents     – vessel price for the slot in euro cents.
//  CrewPriceCents – skipper's slot-specific rate in euro cents.
type Slot struct {
	ID             uint64 `json:"id"`
	VesselID       uint64 `json:"vessel_id"`
	Label          string `json:"label"`
	StartsAt       string `json:"starts_at"`
	EndsAt         string `json:"ends_at"`
	Enabled        bool   `json:"enabled"`
	PriceCents     int64  `json:"price_cents"`
	CrewPriceCents int64  `json:"crew_price_cents"`
}

// Addon is an optional or obligatory extra attached to a vessel. Included
// add-ons price at zero but stay visible on the reservation; obligatory
// add-ons are force-added and cannot be removed, only their quantity may
// vary within [MinQty, MaxQty].
type Addon struct {
	ID           uint64       `json:"id"`
	VesselID     uint64       `json:"vessel_id"`
	Name         string       `json:"name"`
	Model        PricingModel `json:"pricing_model"`
	PriceCents   int64        `json:"price_cents"`
	DepositCents int64        `json:"deposit_cents"`
	MinQty       int64        `json:"min_qty"`
	MaxQty       int64        `json:"max_qty"`
	Included     bool         `json:"included"`
	Obligatory   bool         `json:"obligatory"`
	Active       bool         `json:"active"`
}

// ServiceOffering is a bookable item of a third-party service provider
// (catering, transfer, diving gear and the like).
type ServiceOffering struct {
	ID         uint64       `json:"id"`
	ProviderID uint64       `json:"provider_id"`
	Name       string       `json:"name"`
	Model      PricingModel `json:"pricing_model"`
	PriceCents int64        `json:"price_cents"`
	MinQty     int64        `json:"min_qty"`
	MaxQty     int64        `json:"max_qty"`
	Active     bool         `json:"active"`
}
