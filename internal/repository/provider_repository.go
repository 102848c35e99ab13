package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
)

// ProviderRepo provides read access to the providers table. Providers are
// the actors implicated by reservations: vessels, skippers and service
// providers. A failed lookup is wrapped in model.ErrUnknownProvider so
// availability callers fail closed instead of treating the provider as
// free.
type ProviderRepo struct {
	db *sql.DB
}

// NewProviderRepo returns a new ProviderRepo bound to the given database.
func NewProviderRepo(db *sql.DB) *ProviderRepo { return &ProviderRepo{db: db} }

const providerColumns = `id, kind, name, owner_user_id, day_rate_cents, deposit_cents, capacity, commission_rate, suspended, active`

func scanProvider(row *sql.Row) (*model.Provider, error) {
	var p model.Provider
	var rate sql.NullFloat64
	err := row.Scan(&p.ID, &p.Kind, &p.Name, &p.OwnerUserID, &p.DayRateCents,
		&p.DepositCents, &p.Capacity, &rate, &p.Suspended, &p.Active)
	if err != nil {
		return nil, err
	}
	if rate.Valid {
		v := rate.Float64
		p.CommissionRate = &v
	}
	return &p, nil
}

// GetByID returns a provider by primary key. It returns model.ErrNotFound
// when no such provider exists.
func (r *ProviderRepo) GetByID(ctx context.Context, id uint64) (*model.Provider, error) {
	const q = `SELECT ` + providerColumns + ` FROM providers WHERE id = ?`
	p, err := scanProvider(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("provider %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get provider %d: %w", id, err)
	}
	return p, nil
}

// GetRef returns the provider identified by (kind, id). A provider whose
// stored kind does not match the requested kind is treated as not found.
func (r *ProviderRepo) GetRef(ctx context.Context, ref model.ProviderRef) (*model.Provider, error) {
	const q = `SELECT ` + providerColumns + ` FROM providers WHERE id = ? AND kind = ?`
	p, err := scanProvider(r.db.QueryRowContext(ctx, q, ref.ID, ref.Kind))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("provider %s/%d: %w", ref.Kind, ref.ID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get provider %s/%d: %w", ref.Kind, ref.ID, err)
	}
	return p, nil
}

// RatesByIDs returns the negotiated commission rates for the given
// providers. Providers without a negotiated rate are absent from the map;
// callers apply model.DefaultCommissionRate for them.
func (r *ProviderRepo) RatesByIDs(ctx context.Context, ids []uint64) (map[uint64]float64, error) {
	rates := make(map[uint64]float64, len(ids))
	if len(ids) == 0 {
		return rates, nil
	}
	placeholders := make([]string, 0, len(ids))
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT id, commission_rate FROM providers
	      WHERE commission_rate IS NOT NULL AND id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("load commission rates: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		var rate float64
		if err := rows.Scan(&id, &rate); err != nil {
			return nil, err
		}
		rates[id] = rate
	}
	return rates, rows.Err()
}
