package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
)

// CatalogRepo reads the pricing catalog: the slot catalog of each vessel,
// the vessel's add-ons and the offerings of service providers. The catalog
// is input to the pricing calculator and is never mutated here.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo returns a new CatalogRepo bound to the given database.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// GetSlot returns one slot by id, regardless of its enabled flag; callers
// decide whether a disabled slot is acceptable.
func (r *CatalogRepo) GetSlot(ctx context.Context, id uint64) (*model.Slot, error) {
	const q = `SELECT id, vessel_id, label, starts_at, ends_at, enabled, price_cents, crew_price_cents
	           FROM slots WHERE id = ?`
	var s model.Slot
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.VesselID, &s.Label,
		&s.StartsAt, &s.EndsAt, &s.Enabled, &s.PriceCents, &s.CrewPriceCents)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("slot %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get slot %d: %w", id, err)
	}
	return &s, nil
}

const addonColumns = `id, vessel_id, name, pricing_model, price_cents, deposit_cents, min_qty, max_qty, included, obligatory, active`

func scanAddons(rows *sql.Rows) ([]model.Addon, error) {
	defer rows.Close()
	out := make([]model.Addon, 0)
	for rows.Next() {
		var a model.Addon
		if err := rows.Scan(&a.ID, &a.VesselID, &a.Name, &a.Model, &a.PriceCents,
			&a.DepositCents, &a.MinQty, &a.MaxQty, &a.Included, &a.Obligatory, &a.Active); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AddonsByIDs returns the requested add-ons of one vessel. Add-ons
// belonging to a different vessel are silently absent from the result; the
// caller detects the mismatch by comparing lengths.
func (r *CatalogRepo) AddonsByIDs(ctx context.Context, vesselID uint64, ids []uint64) ([]model.Addon, error) {
	if len(ids) == 0 {
		return []model.Addon{}, nil
	}
	placeholders := make([]string, 0, len(ids))
	args := []interface{}{vesselID}
	for _, id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT ` + addonColumns + ` FROM addons
	      WHERE vessel_id = ? AND id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("load addons: %w", err)
	}
	return scanAddons(rows)
}

// ObligatoryAddons returns the active obligatory add-ons of a vessel. They
// are force-added to every reservation of the vessel.
func (r *CatalogRepo) ObligatoryAddons(ctx context.Context, vesselID uint64) ([]model.Addon, error) {
	const q = `SELECT ` + addonColumns + ` FROM addons
	           WHERE vessel_id = ? AND obligatory = 1 AND active = 1`
	rows, err := r.db.QueryContext(ctx, q, vesselID)
	if err != nil {
		return nil, fmt.Errorf("load obligatory addons: %w", err)
	}
	return scanAddons(rows)
}

// OfferingsByIDs returns the requested service offerings.
func (r *CatalogRepo) OfferingsByIDs(ctx context.Context, ids []uint64) ([]model.ServiceOffering, error) {
	if len(ids) == 0 {
		return []model.ServiceOffering{}, nil
	}
	placeholders := make([]string, 0, len(ids))
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT id, provider_id, name, pricing_model, price_cents, min_qty, max_qty, active
	      FROM service_offerings WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("load service offerings: %w", err)
	}
	defer rows.Close()
	out := make([]model.ServiceOffering, 0, len(ids))
	for rows.Next() {
		var o model.ServiceOffering
		if err := rows.Scan(&o.ID, &o.ProviderID, &o.Name, &o.Model, &o.PriceCents,
			&o.MinQty, &o.MaxQty, &o.Active); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
