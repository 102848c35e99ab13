package model

// PricingModel is the closed set of pricing behaviours a catalog item can
// carry. Each model maps to one pure pricing rule in the pricing
// calculator; there is no dynamic dispatch beyond this enumeration.
type PricingModel string

const (
	PricingFixed     PricingModel = "fixed"
	PricingPerDay    PricingModel = "per_day"
	PricingPerSlot   PricingModel = "per_slot"
	PricingPerHour   PricingModel = "per_hour"
	PricingPerPerson PricingModel = "per_person"
	PricingPerWeek   PricingModel = "per_week"
)

// Valid reports whether m is a known pricing model.
func (m PricingModel) Valid() bool {
	switch m {
	case PricingFixed, PricingPerDay, PricingPerSlot, PricingPerHour, PricingPerPerson, PricingPerWeek:
		return true
	}
	return false
}

// UnitStyle reports whether the model charges per unit of quantity, which
// makes the quantity subject to the configured [min, max] bounds. Only
// fixed-price items escape the bounds check.
func (m PricingModel) UnitStyle() bool { return m != PricingFixed }
