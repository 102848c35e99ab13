package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/clock"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/queue"
)

type providerStore interface {
	GetRef(ctx context.Context, ref model.ProviderRef) (*model.Provider, error)
}

type catalogReader interface {
	GetSlot(ctx context.Context, id uint64) (*model.Slot, error)
	AddonsByIDs(ctx context.Context, vesselID uint64, ids []uint64) ([]model.Addon, error)
	ObligatoryAddons(ctx context.Context, vesselID uint64) ([]model.Addon, error)
	OfferingsByIDs(ctx context.Context, ids []uint64) ([]model.ServiceOffering, error)
}

type reservationStore interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	ListByRequester(ctx context.Context, userID uint64) ([]model.Reservation, error)
	ListByParticipant(ctx context.Context, ref model.ProviderRef) ([]model.Reservation, error)
	FindParticipant(ctx context.Context, reservationID, userID uint64) (model.ProviderRef, error)
	Reassign(ctx context.Context, id uint64, role model.ProviderKind, lineID uint64, newProvider model.ProviderRef, deadline, now time.Time) (*model.Reservation, error)
}

type windowChecker interface {
	WindowFree(ctx context.Context, refs []model.ProviderRef, w model.Window) (bool, error)
}

// PublishFunc sends one status event. Production wires queue.PublishStatus;
// tests substitute a capture function.
type PublishFunc func(ctx context.Context, event queue.StatusEvent) error

// Reservations orchestrates reservation creation and admin reassignment.
type Reservations struct {
	repo         reservationStore
	providers    providerStore
	catalog      catalogReader
	availability windowChecker
	clock        clock.Clock
	confirmTTL   time.Duration
	publish      PublishFunc
}

// NewReservations wires the reservation service. confirmTTL is the shared
// confirmation deadline granted to all participants.
func NewReservations(repo reservationStore, providers providerStore, catalog catalogReader,
	availability windowChecker, clk clock.Clock, confirmTTL time.Duration, publish PublishFunc) *Reservations {
	if confirmTTL <= 0 {
		confirmTTL = 24 * time.Hour
	}
	return &Reservations{
		repo: repo, providers: providers, catalog: catalog,
		availability: availability, clock: clk, confirmTTL: confirmTTL, publish: publish,
	}
}

// AddonRequest selects an add-on by id with a quantity.
type AddonRequest struct {
	AddonID  uint64 `json:"addon_id"`
	Quantity int64  `json:"quantity"`
}

// ServiceRequest selects a service offering by id with a quantity.
type ServiceRequest struct {
	OfferingID uint64 `json:"offering_id"`
	Quantity   int64  `json:"quantity"`
}

// CreateInput is a reservation request with catalog references still
// unresolved. Dates arrive truncated to UTC midnight.
type CreateInput struct {
	VesselID   uint64
	SkipperID  *uint64
	WindowKind model.WindowKind
	SlotID     uint64
	StartDate  time.Time
	EndDate    time.Time
	GuestCount uint32
	Addons     []AddonRequest
	Services   []ServiceRequest
}

// Create validates and prices a reservation request, then persists it with
// one confirmation record per distinct participating provider and a shared
// deadline. Availability is checked up front as an early exit and re-checked
// inside the persisting transaction; only the latter is authoritative.
func (s *Reservations) Create(ctx context.Context, actor model.Actor, in CreateInput) (*model.Reservation, error) {
	now := s.clock.Now()

	window, slot, err := s.resolveWindow(ctx, in, now)
	if err != nil {
		return nil, err
	}

	vessel, err := s.bookableProvider(ctx, in.VesselID, model.ProviderVessel)
	if err != nil {
		return nil, err
	}
	if vessel.Capacity > 0 && in.GuestCount > vessel.Capacity {
		return nil, fmt.Errorf("guest count %d exceeds vessel capacity %d: %w",
			in.GuestCount, vessel.Capacity, model.ErrValidation)
	}
	if in.GuestCount == 0 {
		return nil, fmt.Errorf("guest count required: %w", model.ErrValidation)
	}

	var skipper *model.Provider
	if in.SkipperID != nil {
		if skipper, err = s.bookableProvider(ctx, *in.SkipperID, model.ProviderSkipper); err != nil {
			return nil, err
		}
	}

	addons, err := s.resolveAddons(ctx, vessel.ID, in.Addons)
	if err != nil {
		return nil, err
	}
	services, err := s.resolveServices(ctx, in.Services)
	if err != nil {
		return nil, err
	}

	q, err := ComputeQuote(QuoteInput{
		Window:     window,
		GuestCount: in.GuestCount,
		Vessel:     vessel,
		Slot:       slot,
		Skipper:    skipper,
		Addons:     addons,
		Services:   services,
	})
	if err != nil {
		return nil, err
	}

	res := &model.Reservation{
		RequesterID:  actor.UserID,
		VesselID:     &vessel.ID,
		Window:       window,
		GuestCount:   in.GuestCount,
		Status:       model.StatusPendingApproval,
		TotalCents:   q.TotalCents,
		DepositCents: q.DepositCents,
		DeadlineAt:   now.Add(s.confirmTTL).UTC(),
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
		Lines:        q.Lines,
	}
	if skipper != nil {
		res.SkipperID = &skipper.ID
	}
	participants := res.Participants()
	for _, ref := range participants {
		res.Records = append(res.Records, model.ConfirmationRecord{
			Participant: ref,
			CreatedAt:   now.UTC(),
		})
	}

	free, err := s.availability.WindowFree(ctx, participants, window)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, fmt.Errorf("window not available: %w", model.ErrConflict)
	}

	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}

	s.publishAsync(ctx, queue.StatusEvent{
		ReservationID: res.ID,
		RequesterID:   res.RequesterID,
		Status:        res.Status,
		OccurredAt:    now.UTC(),
	})
	return res, nil
}

func (s *Reservations) resolveWindow(ctx context.Context, in CreateInput, now time.Time) (model.Window, *model.Slot, error) {
	var w model.Window
	switch in.WindowKind {
	case model.WindowSlot:
		if in.SlotID == 0 {
			return w, nil, fmt.Errorf("slot id required for slot windows: %w", model.ErrValidation)
		}
		slot, err := s.catalog.GetSlot(ctx, in.SlotID)
		if err != nil {
			return w, nil, err
		}
		if !slot.Enabled {
			return w, nil, fmt.Errorf("slot %d is disabled: %w", in.SlotID, model.ErrValidation)
		}
		if slot.VesselID != in.VesselID {
			return w, nil, fmt.Errorf("slot %d does not belong to vessel %d: %w",
				in.SlotID, in.VesselID, model.ErrValidation)
		}
		day := model.Today(in.StartDate)
		w = model.Window{Kind: model.WindowSlot, SlotID: slot.ID, Start: day, End: day}
		if w.InPast(now) {
			return w, nil, fmt.Errorf("window starts in the past: %w", model.ErrValidation)
		}
		return w, slot, nil
	case model.WindowDayRange:
		start, end := model.Today(in.StartDate), model.Today(in.EndDate)
		if end.Before(start) {
			return w, nil, fmt.Errorf("end date before start date: %w", model.ErrValidation)
		}
		w = model.Window{Kind: model.WindowDayRange, Start: start, End: end}
		if w.InPast(now) {
			return w, nil, fmt.Errorf("window starts in the past: %w", model.ErrValidation)
		}
		return w, nil, nil
	default:
		return w, nil, fmt.Errorf("unknown window kind %q: %w", in.WindowKind, model.ErrValidation)
	}
}

// bookableProvider loads a provider and verifies kind, activity and
// suspension. Suspended providers cannot enter new reservations at all;
// existing ones move to PENDING_ADMIN_ACTION through the admin flow.
func (s *Reservations) bookableProvider(ctx context.Context, id uint64, kind model.ProviderKind) (*model.Provider, error) {
	p, err := s.providers.GetRef(ctx, model.ProviderRef{Kind: kind, ID: id})
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, fmt.Errorf("provider %q is not active: %w", p.Name, model.ErrValidation)
	}
	if p.Suspended {
		return nil, fmt.Errorf("provider %q is suspended: %w", p.Name, model.ErrValidation)
	}
	return p, nil
}

func (s *Reservations) resolveAddons(ctx context.Context, vesselID uint64, reqs []AddonRequest) ([]AddonSelection, error) {
	ids := make([]uint64, 0, len(reqs))
	qty := make(map[uint64]int64, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.AddonID)
		qty[r.AddonID] = r.Quantity
	}
	addons, err := s.catalog.AddonsByIDs(ctx, vesselID, ids)
	if err != nil {
		return nil, err
	}
	if len(addons) != len(ids) {
		return nil, fmt.Errorf("unknown add-on for vessel %d: %w", vesselID, model.ErrValidation)
	}

	out := make([]AddonSelection, 0, len(addons))
	have := make(map[uint64]bool, len(addons))
	for _, a := range addons {
		if !a.Active {
			return nil, fmt.Errorf("add-on %q is not active: %w", a.Name, model.ErrValidation)
		}
		have[a.ID] = true
		out = append(out, AddonSelection{Addon: a, Quantity: qty[a.ID]})
	}

	// Obligatory add-ons are part of every reservation of the vessel,
	// whether requested or not.
	obligatory, err := s.catalog.ObligatoryAddons(ctx, vesselID)
	if err != nil {
		return nil, err
	}
	for _, a := range obligatory {
		if have[a.ID] {
			continue
		}
		q := a.MinQty
		if q <= 0 {
			q = 1
		}
		out = append(out, AddonSelection{Addon: a, Quantity: q})
	}
	return out, nil
}

func (s *Reservations) resolveServices(ctx context.Context, reqs []ServiceRequest) ([]ServiceSelection, error) {
	ids := make([]uint64, 0, len(reqs))
	qty := make(map[uint64]int64, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.OfferingID)
		qty[r.OfferingID] = r.Quantity
	}
	offerings, err := s.catalog.OfferingsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(offerings) != len(ids) {
		return nil, fmt.Errorf("unknown service offering: %w", model.ErrValidation)
	}
	out := make([]ServiceSelection, 0, len(offerings))
	for _, o := range offerings {
		if !o.Active {
			return nil, fmt.Errorf("offering %q is not active: %w", o.Name, model.ErrValidation)
		}
		provider, err := s.bookableProvider(ctx, o.ProviderID, model.ProviderService)
		if err != nil {
			return nil, err
		}
		out = append(out, ServiceSelection{Offering: o, Provider: provider.Ref(), Quantity: qty[o.ID]})
	}
	return out, nil
}

// Get returns one reservation. Visible to its requester, to owners of
// participating providers and to admins.
func (s *Reservations) Get(ctx context.Context, actor model.Actor, id uint64) (*model.Reservation, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Admin() || res.RequesterID == actor.UserID {
		return res, nil
	}
	if _, err := s.repo.FindParticipant(ctx, id, actor.UserID); err != nil {
		return nil, fmt.Errorf("reservation %d: %w", id, model.ErrForbidden)
	}
	return res, nil
}

// ListOwn returns the actor's reservations as requester, newest first.
func (s *Reservations) ListOwn(ctx context.Context, actor model.Actor) ([]model.Reservation, error) {
	return s.repo.ListByRequester(ctx, actor.UserID)
}

// ListForProvider returns reservations implicating a provider. Only the
// provider's owner and admins may ask.
func (s *Reservations) ListForProvider(ctx context.Context, actor model.Actor, ref model.ProviderRef) ([]model.Reservation, error) {
	p, err := s.providers.GetRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !actor.Admin() && p.OwnerUserID != actor.UserID {
		return nil, fmt.Errorf("provider %s/%d: %w", ref.Kind, ref.ID, model.ErrForbidden)
	}
	return s.repo.ListByParticipant(ctx, ref)
}

// Reassign swaps the skipper or a service line's provider for another one.
// Admin only. The reservation returns to PENDING_APPROVAL with a fresh
// deadline and the replacement must confirm from scratch.
func (s *Reservations) Reassign(ctx context.Context, actor model.Actor, id uint64, role model.ProviderKind, lineID, newProviderID uint64) (*model.Reservation, error) {
	if !actor.Admin() {
		return nil, fmt.Errorf("reassignment is admin only: %w", model.ErrForbidden)
	}
	if role != model.ProviderSkipper && role != model.ProviderService {
		return nil, fmt.Errorf("role %q cannot be reassigned: %w", role, model.ErrValidation)
	}
	replacement, err := s.bookableProvider(ctx, newProviderID, role)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	res, err := s.repo.Reassign(ctx, id, role, lineID, replacement.Ref(), now.Add(s.confirmTTL), now)
	if err != nil {
		return nil, err
	}
	s.publishAsync(ctx, queue.StatusEvent{
		ReservationID: res.ID,
		RequesterID:   res.RequesterID,
		Status:        res.Status,
		OccurredAt:    now.UTC(),
	})
	return res, nil
}

func (s *Reservations) publishAsync(ctx context.Context, event queue.StatusEvent) {
	if s.publish == nil {
		return
	}
	go func(ctx context.Context) {
		if err := s.publish(ctx, event); err != nil {
			log.Printf("reservation %d: status publish failed: %v", event.ReservationID, err)
		}
	}(context.WithoutCancel(ctx))
}
