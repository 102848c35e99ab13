package service

import (
	"fmt"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
)

// AddonSelection pairs a resolved add-on with the requested quantity.
type AddonSelection struct {
	Addon    model.Addon
	Quantity int64
}

// ServiceSelection pairs a resolved service offering with its provider and
// the requested quantity.
type ServiceSelection struct {
	Offering model.ServiceOffering
	Provider model.ProviderRef
	Quantity int64
}

// QuoteInput is the fully resolved catalog data a quote is computed from.
// Resolution (database lookups, obligatory add-on injection) happens in the
// reservation service; the calculator itself never touches storage.
type QuoteInput struct {
	Window     model.Window
	GuestCount uint32

	Vessel *model.Provider
	Slot   *model.Slot // required when Window.Kind == SLOT

	Skipper *model.Provider // optional

	Addons   []AddonSelection
	Services []ServiceSelection
}

// Quote is the priced breakdown of a reservation request. TotalCents is
// exactly the sum of line subtotals; DepositCents accumulates separately
// and is never folded into the total.
type Quote struct {
	Lines        []model.PricedItem
	TotalCents   int64
	DepositCents int64
}

// ComputeQuote prices a reservation request. It is pure and deterministic:
// the same input always yields the same lines in the same order (vessel,
// crew, add-ons in input order, services in input order).
func ComputeQuote(in QuoteInput) (*Quote, error) {
	if in.Vessel == nil {
		return nil, fmt.Errorf("vessel required: %w", model.ErrValidation)
	}
	days := in.Window.Days()
	q := &Quote{Lines: make([]model.PricedItem, 0, 2+len(in.Addons)+len(in.Services))}

	vesselLine, err := vesselLine(in, days)
	if err != nil {
		return nil, err
	}
	q.add(*vesselLine)
	q.DepositCents += in.Vessel.DepositCents

	if in.Skipper != nil {
		line, err := crewLine(in, days)
		if err != nil {
			return nil, err
		}
		q.add(*line)
	}

	for _, sel := range in.Addons {
		line, err := addonLine(in, sel, days)
		if err != nil {
			return nil, err
		}
		q.add(*line)
		q.DepositCents += line.DepositCents
	}

	for _, sel := range in.Services {
		line, err := serviceLine(sel)
		if err != nil {
			return nil, err
		}
		q.add(*line)
	}

	return q, nil
}

func (q *Quote) add(l model.PricedItem) {
	q.Lines = append(q.Lines, l)
	q.TotalCents += l.SubtotalCents
}

func vesselLine(in QuoteInput, days int64) (*model.PricedItem, error) {
	l := model.PricedItem{
		Kind:     model.LineVessel,
		ItemID:   in.Vessel.ID,
		Provider: in.Vessel.Ref(),
		Label:    in.Vessel.Name,
	}
	if in.Window.Kind == model.WindowSlot {
		if in.Slot == nil {
			return nil, fmt.Errorf("slot window without slot: %w", model.ErrValidation)
		}
		l.Model = model.PricingPerSlot
		l.UnitCents = in.Slot.PriceCents
		l.Quantity = 1
		l.Label = in.Vessel.Name + " / " + in.Slot.Label
	} else {
		l.Model = model.PricingPerDay
		l.UnitCents = in.Vessel.DayRateCents
		l.Quantity = days
	}
	l.SubtotalCents = l.UnitCents * l.Quantity
	l.DepositCents = in.Vessel.DepositCents
	return &l, nil
}

func crewLine(in QuoteInput, days int64) (*model.PricedItem, error) {
	l := model.PricedItem{
		Kind:     model.LineCrew,
		ItemID:   in.Skipper.ID,
		Provider: in.Skipper.Ref(),
		Label:    in.Skipper.Name,
	}
	if in.Window.Kind == model.WindowSlot {
		if in.Slot == nil {
			return nil, fmt.Errorf("slot window without slot: %w", model.ErrValidation)
		}
		l.Model = model.PricingPerSlot
		l.UnitCents = in.Slot.CrewPriceCents
		l.Quantity = 1
	} else {
		l.Model = model.PricingPerDay
		l.UnitCents = in.Skipper.DayRateCents
		l.Quantity = days
	}
	l.SubtotalCents = l.UnitCents * l.Quantity
	return &l, nil
}

// addonLine prices one add-on. Window-bound pricing models are rejected on
// the wrong window kind; the requested quantity of unit-style models must
// fall inside the add-on's [min, max] bounds (max 0 means unbounded).
// Included add-ons stay visible at a zero subtotal. Per-day lines fold the
// day count into the stored quantity so every line keeps
// subtotal = unit price x quantity.
func addonLine(in QuoteInput, sel AddonSelection, days int64) (*model.PricedItem, error) {
	a := sel.Addon
	qty := sel.Quantity
	if qty <= 0 {
		qty = 1
	}
	if a.Model.UnitStyle() {
		if qty < a.MinQty || (a.MaxQty > 0 && qty > a.MaxQty) {
			return nil, fmt.Errorf("addon %q quantity %d outside [%d, %d]: %w",
				a.Name, qty, a.MinQty, a.MaxQty, model.ErrValidation)
		}
	}

	l := model.PricedItem{
		Kind:      model.LineAddon,
		ItemID:    a.ID,
		Provider:  in.Vessel.Ref(),
		Model:     a.Model,
		UnitCents: a.PriceCents,
		Label:     a.Name,
	}

	switch a.Model {
	case model.PricingFixed:
		l.Quantity = 1
	case model.PricingPerDay:
		if in.Window.Kind != model.WindowDayRange {
			return nil, fmt.Errorf("addon %q is per_day, slot windows cannot carry it: %w", a.Name, model.ErrValidation)
		}
		l.Quantity = qty * days
	case model.PricingPerSlot:
		if in.Window.Kind != model.WindowSlot {
			return nil, fmt.Errorf("addon %q is per_slot, day-range windows cannot carry it: %w", a.Name, model.ErrValidation)
		}
		l.Quantity = qty
	case model.PricingPerPerson, model.PricingPerWeek, model.PricingPerHour:
		// Window-independent models charge unit price per requested unit.
		l.Quantity = qty
	default:
		return nil, fmt.Errorf("addon %q has unknown pricing model %q: %w", a.Name, a.Model, model.ErrValidation)
	}

	if a.Included {
		l.UnitCents = 0
	}
	l.SubtotalCents = l.UnitCents * l.Quantity
	// Deposits follow the requested unit count, not the folded day quantity.
	l.DepositCents = a.DepositCents * qty
	return &l, nil
}

func serviceLine(sel ServiceSelection) (*model.PricedItem, error) {
	o := sel.Offering
	qty := sel.Quantity
	if qty <= 0 {
		qty = 1
	}
	l := model.PricedItem{
		Kind:      model.LineService,
		ItemID:    o.ID,
		Provider:  sel.Provider,
		Model:     o.Model,
		UnitCents: o.PriceCents,
		Label:     o.Name,
	}
	if o.Model == model.PricingFixed {
		l.Quantity = 1
		l.SubtotalCents = o.PriceCents
	} else {
		if qty < o.MinQty || (o.MaxQty > 0 && qty > o.MaxQty) {
			return nil, fmt.Errorf("offering %q quantity %d outside [%d, %d]: %w",
				o.Name, qty, o.MinQty, o.MaxQty, model.ErrValidation)
		}
		l.Quantity = qty
		l.SubtotalCents = o.PriceCents * qty
	}
	return &l, nil
}
