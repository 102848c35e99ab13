package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/queue"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/repository"
)

// fakeRepo is an in-memory reservation store mirroring the guarded
// semantics of the MySQL repository: status-checked decisions, idempotent
// sweep, availability re-check on create.
type fakeRepo struct {
	mu           sync.Mutex
	seq          uint64
	reservations map[uint64]*model.Reservation
	owners       map[model.ProviderRef]uint64 // provider -> owning user
	childErr     error                        // injected failure of the line/record insert step
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		reservations: make(map[uint64]*model.Reservation),
		owners:       make(map[model.ProviderRef]uint64),
	}
}

func (f *fakeRepo) Create(_ context.Context, res *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ref := range res.Participants() {
		for _, other := range f.reservations {
			if other.Status.Terminal() {
				continue
			}
			for _, rec := range other.Records {
				if rec.Participant == ref && res.Window.Conflicts(other.Window) {
					return fmt.Errorf("provider %s/%d already reserved: %w", ref.Kind, ref.ID, model.ErrConflict)
				}
			}
		}
	}
	f.seq++
	res.ID = f.seq
	if f.childErr != nil {
		// Header committed, children failed, compensating delete ran.
		return fmt.Errorf("%w: %v", model.ErrPartialWrite, f.childErr)
	}
	for i := range res.Lines {
		res.Lines[i].ID = uint64(i + 1)
		res.Lines[i].ReservationID = res.ID
	}
	for i := range res.Records {
		res.Records[i].ID = uint64(i + 1)
		res.Records[i].ReservationID = res.ID
	}
	cp := *res
	f.reservations[res.ID] = &cp
	return nil
}

func (f *fakeRepo) Overlapping(_ context.Context, ref model.ProviderRef, w model.Window) ([]model.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Window, 0)
	for _, res := range f.reservations {
		if res.Status.Terminal() {
			continue
		}
		for _, rec := range res.Records {
			if rec.Participant == ref && w.Overlaps(res.Window) {
				out = append(out, res.Window)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return nil, fmt.Errorf("reservation %d: %w", id, model.ErrNotFound)
	}
	cp := *res
	return &cp, nil
}

func (f *fakeRepo) ListByRequester(_ context.Context, userID uint64) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Reservation, 0)
	for _, res := range f.reservations {
		if res.RequesterID == userID {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListByParticipant(_ context.Context, ref model.ProviderRef) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Reservation, 0)
	for _, res := range f.reservations {
		for _, rec := range res.Records {
			if rec.Participant == ref {
				out = append(out, *res)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) FindParticipant(_ context.Context, reservationID, userID uint64) (model.ProviderRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[reservationID]
	if !ok {
		return model.ProviderRef{}, fmt.Errorf("reservation %d: %w", reservationID, model.ErrNotFound)
	}
	for _, rec := range res.Records {
		if f.owners[rec.Participant] == userID {
			return rec.Participant, nil
		}
	}
	return model.ProviderRef{}, fmt.Errorf("user %d is not a participant: %w", userID, model.ErrForbidden)
}

func (f *fakeRepo) Decide(_ context.Context, id uint64, participant model.ProviderRef, accept bool, now time.Time) (*repository.DecisionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return nil, fmt.Errorf("reservation %d: %w", id, model.ErrNotFound)
	}
	if res.Status != model.StatusPendingApproval {
		return nil, fmt.Errorf("reservation %d is %s: %w", id, res.Status, model.ErrConflict)
	}
	var rec *model.ConfirmationRecord
	for i := range res.Records {
		if res.Records[i].Participant == participant {
			rec = &res.Records[i]
			break
		}
	}
	if rec == nil {
		return nil, fmt.Errorf("not a participant of reservation %d: %w", id, model.ErrForbidden)
	}
	if rec.Decided() {
		return nil, model.ErrAlreadyDecided
	}
	if accept {
		t := now.UTC()
		rec.ConfirmedAt = &t
	} else {
		rec.Rejected = true
	}

	out := &repository.DecisionResult{Previous: res.Status, Current: res.Status}
	switch model.DeriveOutcome(res.Records) {
	case model.OutcomeRejected:
		reason := model.CancelRejected
		res.Status = model.StatusCancelled
		res.CancelReason = &reason
		out.Current = res.Status
		out.Transitioned = true
	case model.OutcomeAllConfirmed:
		res.Status = model.StatusPendingPayment
		out.Current = res.Status
		out.Transitioned = true
	}
	cp := *res
	out.Reservation = &cp
	return out, nil
}

func (f *fakeRepo) SweepExpired(_ context.Context, now time.Time) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cancelled := make([]model.Reservation, 0)
	for _, res := range f.reservations {
		if res.Status == model.StatusPendingApproval && !res.DeadlineAt.After(now) {
			reason := model.CancelDeadline
			res.Status = model.StatusCancelled
			res.CancelReason = &reason
			cancelled = append(cancelled, *res)
		}
	}
	return cancelled, nil
}

func (f *fakeRepo) Transition(_ context.Context, id uint64, from, to model.ReservationStatus, reason *model.CancelReason, requireAllConfirmed bool, now time.Time) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return nil, fmt.Errorf("reservation %d: %w", id, model.ErrNotFound)
	}
	if res.Status != from {
		return nil, fmt.Errorf("reservation %d is %s, expected %s: %w", id, res.Status, from, model.ErrConflict)
	}
	if requireAllConfirmed && model.DeriveOutcome(res.Records) != model.OutcomeAllConfirmed {
		return nil, fmt.Errorf("reservation %d not fully confirmed: %w", id, model.ErrConflict)
	}
	res.Status = to
	res.CancelReason = reason
	res.UpdatedAt = now.UTC()
	cp := *res
	return &cp, nil
}

func (f *fakeRepo) Reassign(_ context.Context, id uint64, role model.ProviderKind, lineID uint64, newProvider model.ProviderRef, deadline, now time.Time) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return nil, fmt.Errorf("reservation %d: %w", id, model.ErrNotFound)
	}
	var target *model.PricedItem
	for i := range res.Lines {
		l := &res.Lines[i]
		if role == model.ProviderSkipper && l.Kind == model.LineCrew {
			target = l
			break
		}
		if role == model.ProviderService && l.Kind == model.LineService && l.ID == lineID {
			target = l
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("no %s line to reassign: %w", role, model.ErrNotFound)
	}
	old := target.Provider
	target.Provider = newProvider
	if role == model.ProviderSkipper {
		target.ItemID = newProvider.ID
		res.SkipperID = &newProvider.ID
	}

	// Replacement confirms from scratch, without a duplicate record if it
	// already participates through another line.
	found := false
	for i := range res.Records {
		if res.Records[i].Participant == newProvider {
			res.Records[i].ConfirmedAt = nil
			res.Records[i].Rejected = false
			found = true
		}
	}
	if !found {
		res.Records = append(res.Records, model.ConfirmationRecord{
			ID: uint64(len(res.Records) + 1), ReservationID: res.ID,
			Participant: newProvider, CreatedAt: now.UTC(),
		})
	}
	// The old provider stays a participant while any of its lines remain.
	referenced := false
	for i := range res.Lines {
		if res.Lines[i].Provider == old {
			referenced = true
			break
		}
	}
	if !referenced {
		kept := res.Records[:0]
		for _, rec := range res.Records {
			if rec.Participant != old {
				kept = append(kept, rec)
			}
		}
		res.Records = kept
	}
	res.Status = model.StatusPendingApproval
	res.CancelReason = nil
	res.DeadlineAt = deadline.UTC()
	res.UpdatedAt = now.UTC()
	cp := *res
	return &cp, nil
}

// fakeProviders serves providers out of a map and records negotiated rates.
type fakeProviders struct {
	byRef map[model.ProviderRef]*model.Provider
	rates map[uint64]float64
}

func newFakeProviders(providers ...*model.Provider) *fakeProviders {
	f := &fakeProviders{
		byRef: make(map[model.ProviderRef]*model.Provider),
		rates: make(map[uint64]float64),
	}
	for _, p := range providers {
		f.byRef[p.Ref()] = p
		if p.CommissionRate != nil {
			f.rates[p.ID] = *p.CommissionRate
		}
	}
	return f
}

func (f *fakeProviders) GetRef(_ context.Context, ref model.ProviderRef) (*model.Provider, error) {
	p, ok := f.byRef[ref]
	if !ok {
		return nil, fmt.Errorf("provider %s/%d: %w", ref.Kind, ref.ID, model.ErrNotFound)
	}
	return p, nil
}

func (f *fakeProviders) GetByID(_ context.Context, id uint64) (*model.Provider, error) {
	for _, p := range f.byRef {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("provider %d: %w", id, model.ErrNotFound)
}

func (f *fakeProviders) RatesByIDs(_ context.Context, ids []uint64) (map[uint64]float64, error) {
	out := make(map[uint64]float64)
	for _, id := range ids {
		if r, ok := f.rates[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

// fakeCatalog holds slots, add-ons and offerings keyed by id.
type fakeCatalog struct {
	slots     map[uint64]*model.Slot
	addons    map[uint64]model.Addon
	offerings map[uint64]model.ServiceOffering
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		slots:     make(map[uint64]*model.Slot),
		addons:    make(map[uint64]model.Addon),
		offerings: make(map[uint64]model.ServiceOffering),
	}
}

func (f *fakeCatalog) GetSlot(_ context.Context, id uint64) (*model.Slot, error) {
	s, ok := f.slots[id]
	if !ok {
		return nil, fmt.Errorf("slot %d: %w", id, model.ErrNotFound)
	}
	return s, nil
}

func (f *fakeCatalog) AddonsByIDs(_ context.Context, vesselID uint64, ids []uint64) ([]model.Addon, error) {
	out := make([]model.Addon, 0, len(ids))
	for _, id := range ids {
		if a, ok := f.addons[id]; ok && a.VesselID == vesselID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeCatalog) ObligatoryAddons(_ context.Context, vesselID uint64) ([]model.Addon, error) {
	out := make([]model.Addon, 0)
	for _, a := range f.addons {
		if a.VesselID == vesselID && a.Obligatory && a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeCatalog) OfferingsByIDs(_ context.Context, ids []uint64) ([]model.ServiceOffering, error) {
	out := make([]model.ServiceOffering, 0, len(ids))
	for _, id := range ids {
		if o, ok := f.offerings[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

// fakeCalendar counts blocked days per provider.
type fakeCalendar struct {
	blocked map[uint64][]time.Time
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{blocked: make(map[uint64][]time.Time)}
}

func (f *fakeCalendar) Block(_ context.Context, providerID uint64, day time.Time) error {
	f.blocked[providerID] = append(f.blocked[providerID], day)
	return nil
}

func (f *fakeCalendar) Unblock(_ context.Context, providerID uint64, day time.Time) error {
	days := f.blocked[providerID][:0]
	for _, d := range f.blocked[providerID] {
		if !d.Equal(day) {
			days = append(days, d)
		}
	}
	f.blocked[providerID] = days
	return nil
}

func (f *fakeCalendar) List(_ context.Context, providerID uint64) ([]time.Time, error) {
	return f.blocked[providerID], nil
}

func (f *fakeCalendar) BlockedCount(_ context.Context, providerID uint64, from, to time.Time) (int, error) {
	n := 0
	for _, d := range f.blocked[providerID] {
		if !d.Before(from) && !d.After(to) {
			n++
		}
	}
	return n, nil
}

// noopLocks satisfies the reservation locker without Redis.
type noopLocks struct{}

func (noopLocks) Acquire(context.Context, uint64) (func(), error) { return func() {}, nil }

// chanPublisher forwards events to a channel so tests can wait for the
// asynchronous publish goroutine.
func chanPublisher(ch chan queue.StatusEvent) PublishFunc {
	return func(_ context.Context, ev queue.StatusEvent) error {
		ch <- ev
		return nil
	}
}
