package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
)

// ReservationRepo persists reservation headers, their line items and their
// confirmation records. All timestamps are stored in UTC. Mutating methods
// serialize on the reservation row with SELECT ... FOR UPDATE so that a
// participant decision and the deadline sweep can never override each
// other silently.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// nonTerminalArgs expands model.NonTerminalStatuses into SQL placeholders
// and their arguments.
func nonTerminalArgs() (string, []interface{}) {
	ph := make([]string, 0, len(model.NonTerminalStatuses))
	args := make([]interface{}, 0, len(model.NonTerminalStatuses))
	for _, s := range model.NonTerminalStatuses {
		ph = append(ph, "?")
		args = append(args, string(s))
	}
	return strings.Join(ph, ","), args
}

// Overlapping returns the windows of all non-terminal reservations that
// implicate the given provider and whose date span intersects the span of
// w. The caller applies model.Window.Conflicts to decide whether an
// intersecting window actually collides (slot-id rule).
func (r *ReservationRepo) Overlapping(ctx context.Context, ref model.ProviderRef, w model.Window) ([]model.Window, error) {
	return overlapping(ctx, r.db, ref, w, 0)
}

func overlapping(ctx context.Context, q dbtx, ref model.ProviderRef, w model.Window, excludeID uint64) ([]model.Window, error) {
	ph, args := nonTerminalArgs()
	query := `SELECT DISTINCT r.id, r.window_kind, r.slot_id, r.start_date, r.end_date
	          FROM reservations r
	          JOIN reservation_lines l ON l.reservation_id = r.id
	          WHERE l.provider_kind = ? AND l.provider_id = ?
	            AND r.status IN (` + ph + `)
	            AND r.start_date <= ? AND r.end_date >= ?`
	all := []interface{}{string(ref.Kind), ref.ID}
	all = append(all, args...)
	all = append(all, w.End.UTC().Format(dateFormat), w.Start.UTC().Format(dateFormat))
	if excludeID != 0 {
		query += ` AND r.id <> ?`
		all = append(all, excludeID)
	}
	rows, err := q.QueryContext(ctx, query, all...)
	if err != nil {
		return nil, fmt.Errorf("overlapping reservations: %w", err)
	}
	defer rows.Close()
	out := make([]model.Window, 0)
	for rows.Next() {
		var id uint64
		var win model.Window
		var slotID sql.NullInt64
		if err := rows.Scan(&id, &win.Kind, &slotID, &win.Start, &win.End); err != nil {
			return nil, err
		}
		if slotID.Valid {
			win.SlotID = uint64(slotID.Int64)
		}
		win.Start = win.Start.UTC()
		win.End = win.End.UTC()
		out = append(out, win)
	}
	return out, rows.Err()
}

// lockProviders takes row locks on the implicated providers, in id order to
// keep lock acquisition deadlock-free. Concurrent creates sharing a provider
// serialize on these locks, so the later transaction reads availability only
// after the earlier one has committed its header.
func lockProviders(ctx context.Context, tx *sql.Tx, refs []model.ProviderRef) error {
	if len(refs) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	ph := make([]string, 0, len(ids))
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		ph = append(ph, "?")
		args = append(args, id)
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM providers WHERE id IN (`+strings.Join(ph, ",")+`) ORDER BY id FOR UPDATE`, args...)
	if err != nil {
		return fmt.Errorf("lock providers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return err
		}
	}
	return rows.Err()
}

// recheckAvailability re-validates, inside the creating or reassigning
// transaction, that every given provider is still free for the window. The
// provider rows are locked first, so two overlapping creates for a shared
// provider cannot both pass this check: the loser blocks on the lock and
// then sees the winner's committed header. A stale free check from earlier
// in the flow surfaces as model.ErrConflict rather than being trusted.
func recheckAvailability(ctx context.Context, tx *sql.Tx, refs []model.ProviderRef, w model.Window, excludeID uint64) error {
	if err := lockProviders(ctx, tx, refs); err != nil {
		return err
	}
	for _, ref := range refs {
		blocked, err := blockedCount(ctx, tx, ref.ID, w.Start, w.End)
		if err != nil {
			return err
		}
		if blocked > 0 {
			return fmt.Errorf("provider %s/%d has blocked dates in window: %w", ref.Kind, ref.ID, model.ErrConflict)
		}
		wins, err := overlapping(ctx, tx, ref, w, excludeID)
		if err != nil {
			return err
		}
		for _, other := range wins {
			if w.Conflicts(other) {
				return fmt.Errorf("provider %s/%d already reserved: %w", ref.Kind, ref.ID, model.ErrConflict)
			}
		}
	}
	return nil
}

// Create persists a reservation as a compensating-transaction pair, the one
// place this saga step is defined:
//
//  1. re-validate availability for every participant and insert the header
//     in one transaction — once committed, the header occupies the window
//     and concurrent overlapping creates receive model.ErrConflict;
//  2. insert line items and confirmation records in a second transaction.
//
// When step 2 fails the header is compensating-deleted and the single
// failure is surfaced wrapped in model.ErrPartialWrite, so no orphaned
// header remains.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	if err := r.createHeader(ctx, res); err != nil {
		return err
	}
	if err := r.createChildren(ctx, res); err != nil {
		if _, delErr := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, res.ID); delErr != nil {
			// The compensation itself failed; the header must be removed by hand.
			log.Printf("reservation %d: compensating delete failed: %v", res.ID, delErr)
		}
		return fmt.Errorf("%w: %v", model.ErrPartialWrite, err)
	}
	return nil
}

func (r *ReservationRepo) createHeader(ctx context.Context, res *model.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := recheckAvailability(ctx, tx, res.Participants(), res.Window, 0); err != nil {
		return err
	}

	const q = `INSERT INTO reservations
	           (requester_id, vessel_id, skipper_id, window_kind, slot_id, start_date, end_date,
	            guest_count, status, total_cents, deposit_cents, deadline_at, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var slotID interface{}
	if res.Window.Kind == model.WindowSlot {
		slotID = res.Window.SlotID
	}
	result, err := tx.ExecContext(ctx, q,
		res.RequesterID, res.VesselID, res.SkipperID,
		string(res.Window.Kind), slotID,
		res.Window.Start.UTC().Format(dateFormat), res.Window.End.UTC().Format(dateFormat),
		res.GuestCount, string(res.Status), res.TotalCents, res.DepositCents,
		res.DeadlineAt.UTC(), res.CreatedAt.UTC(), res.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert reservation header: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return tx.Commit()
}

func (r *ReservationRepo) createChildren(ctx context.Context, res *model.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if len(res.Lines) > 0 {
		q := `INSERT INTO reservation_lines
		      (reservation_id, kind, item_id, provider_kind, provider_id, pricing_model,
		       unit_price_cents, quantity, subtotal_cents, deposit_cents, label) VALUES `
		args := make([]interface{}, 0, len(res.Lines)*11)
		for i := range res.Lines {
			l := &res.Lines[i]
			l.ReservationID = res.ID
			if i > 0 {
				q += ","
			}
			q += "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
			args = append(args, res.ID, string(l.Kind), l.ItemID, string(l.Provider.Kind), l.Provider.ID,
				string(l.Model), l.UnitCents, l.Quantity, l.SubtotalCents, l.DepositCents, l.Label)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert lines: %w", err)
		}
	}

	if len(res.Records) > 0 {
		q := `INSERT INTO confirmation_records
		      (reservation_id, provider_kind, provider_id, confirmed_at, rejected, created_at) VALUES `
		args := make([]interface{}, 0, len(res.Records)*6)
		for i := range res.Records {
			rec := &res.Records[i]
			rec.ReservationID = res.ID
			if i > 0 {
				q += ","
			}
			q += "(?, ?, ?, NULL, 0, ?)"
			args = append(args, res.ID, string(rec.Participant.Kind), rec.Participant.ID, rec.CreatedAt.UTC())
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert confirmation records: %w", err)
		}
	}

	return tx.Commit()
}

const headerColumns = `id, requester_id, vessel_id, skipper_id, window_kind, slot_id, start_date, end_date,
	guest_count, status, cancel_reason, total_cents, deposit_cents, deadline_at, created_at, updated_at`

func scanHeader(scan func(dest ...interface{}) error) (*model.Reservation, error) {
	var res model.Reservation
	var vesselID, skipperID, slotID sql.NullInt64
	var reason sql.NullString
	err := scan(&res.ID, &res.RequesterID, &vesselID, &skipperID,
		&res.Window.Kind, &slotID, &res.Window.Start, &res.Window.End,
		&res.GuestCount, &res.Status, &reason, &res.TotalCents, &res.DepositCents,
		&res.DeadlineAt, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if vesselID.Valid {
		v := uint64(vesselID.Int64)
		res.VesselID = &v
	}
	if skipperID.Valid {
		v := uint64(skipperID.Int64)
		res.SkipperID = &v
	}
	if slotID.Valid {
		res.Window.SlotID = uint64(slotID.Int64)
	}
	if reason.Valid {
		cr := model.CancelReason(reason.String)
		res.CancelReason = &cr
	}
	res.Window.Start = res.Window.Start.UTC()
	res.Window.End = res.Window.End.UTC()
	return &res, nil
}

func (r *ReservationRepo) getHeaderTx(ctx context.Context, tx *sql.Tx, id uint64, forUpdate bool) (*model.Reservation, error) {
	q := `SELECT ` + headerColumns + ` FROM reservations WHERE id = ?`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	res, err := scanHeader(tx.QueryRowContext(ctx, q, id).Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reservation %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation %d: %w", id, err)
	}
	return res, nil
}

func loadLines(ctx context.Context, q dbtx, reservationID uint64) ([]model.PricedItem, error) {
	const query = `SELECT id, reservation_id, kind, item_id, provider_kind, provider_id, pricing_model,
	                      unit_price_cents, quantity, subtotal_cents, deposit_cents, label
	               FROM reservation_lines WHERE reservation_id = ? ORDER BY id`
	rows, err := q.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, fmt.Errorf("load lines: %w", err)
	}
	defer rows.Close()
	lines := make([]model.PricedItem, 0)
	for rows.Next() {
		var l model.PricedItem
		if err := rows.Scan(&l.ID, &l.ReservationID, &l.Kind, &l.ItemID,
			&l.Provider.Kind, &l.Provider.ID, &l.Model,
			&l.UnitCents, &l.Quantity, &l.SubtotalCents, &l.DepositCents, &l.Label); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func loadRecords(ctx context.Context, q dbtx, reservationID uint64) ([]model.ConfirmationRecord, error) {
	const query = `SELECT id, reservation_id, provider_kind, provider_id, confirmed_at, rejected, created_at
	               FROM confirmation_records WHERE reservation_id = ? ORDER BY id`
	rows, err := q.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, fmt.Errorf("load confirmation records: %w", err)
	}
	defer rows.Close()
	records := make([]model.ConfirmationRecord, 0)
	for rows.Next() {
		var rec model.ConfirmationRecord
		var confirmed sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.ReservationID, &rec.Participant.Kind, &rec.Participant.ID,
			&confirmed, &rec.Rejected, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if confirmed.Valid {
			t := confirmed.Time.UTC()
			rec.ConfirmedAt = &t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetByID returns a reservation with its lines and confirmation records.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	q := `SELECT ` + headerColumns + ` FROM reservations WHERE id = ?`
	res, err := scanHeader(r.db.QueryRowContext(ctx, q, id).Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reservation %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation %d: %w", id, err)
	}
	if res.Lines, err = loadLines(ctx, r.db, id); err != nil {
		return nil, err
	}
	if res.Records, err = loadRecords(ctx, r.db, id); err != nil {
		return nil, err
	}
	return res, nil
}

// ListByRequester returns the headers of all reservations created by a
// user, newest first.
func (r *ReservationRepo) ListByRequester(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	q := `SELECT ` + headerColumns + ` FROM reservations WHERE requester_id = ? ORDER BY created_at DESC`
	return r.listHeaders(ctx, q, userID)
}

// ListByParticipant returns the headers of all reservations carrying a
// confirmation record for the given provider, newest first.
func (r *ReservationRepo) ListByParticipant(ctx context.Context, ref model.ProviderRef) ([]model.Reservation, error) {
	q := `SELECT ` + headerColumns + ` FROM reservations
	      WHERE id IN (SELECT reservation_id FROM confirmation_records WHERE provider_kind = ? AND provider_id = ?)
	      ORDER BY created_at DESC`
	return r.listHeaders(ctx, q, string(ref.Kind), ref.ID)
}

func (r *ReservationRepo) listHeaders(ctx context.Context, q string, args ...interface{}) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanHeader(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// DecisionResult reports what a participant decision did to a reservation.
type DecisionResult struct {
	Reservation  *model.Reservation
	Previous     model.ReservationStatus
	Current      model.ReservationStatus
	Transitioned bool
}

// Decide writes one participant's accept or reject onto exactly that
// participant's record and re-derives the aggregate status from a fresh
// read of the full record set, all under the reservation's row lock.
//
// A second decision by the same participant returns model.ErrAlreadyDecided
// without touching anything. Decisions are only accepted while the
// reservation is PENDING_APPROVAL.
func (r *ReservationRepo) Decide(ctx context.Context, id uint64, participant model.ProviderRef, accept bool, now time.Time) (*DecisionResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := r.getHeaderTx(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if res.Status != model.StatusPendingApproval {
		return nil, fmt.Errorf("reservation %d is %s: %w", id, res.Status, model.ErrConflict)
	}

	var result sql.Result
	if accept {
		result, err = tx.ExecContext(ctx,
			`UPDATE confirmation_records SET confirmed_at = ?
			 WHERE reservation_id = ? AND provider_kind = ? AND provider_id = ?
			   AND confirmed_at IS NULL AND rejected = 0`,
			now.UTC(), id, string(participant.Kind), participant.ID)
	} else {
		result, err = tx.ExecContext(ctx,
			`UPDATE confirmation_records SET rejected = 1
			 WHERE reservation_id = ? AND provider_kind = ? AND provider_id = ?
			   AND confirmed_at IS NULL AND rejected = 0`,
			id, string(participant.Kind), participant.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("write decision: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Either the record is missing (not a participant) or it was
		// already decided. Diagnose which.
		var n int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM confirmation_records
			 WHERE reservation_id = ? AND provider_kind = ? AND provider_id = ?`,
			id, string(participant.Kind), participant.ID).Scan(&n)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("not a participant of reservation %d: %w", id, model.ErrForbidden)
		}
		return nil, model.ErrAlreadyDecided
	}

	records, err := loadRecords(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	out := &DecisionResult{Previous: res.Status, Current: res.Status}
	switch model.DeriveOutcome(records) {
	case model.OutcomeRejected:
		if err := updateStatusTx(ctx, tx, id, res.Status, model.StatusCancelled, reasonPtr(model.CancelRejected), now); err != nil {
			return nil, err
		}
		out.Current = model.StatusCancelled
		out.Transitioned = true
	case model.OutcomeAllConfirmed:
		if err := updateStatusTx(ctx, tx, id, res.Status, model.StatusPendingPayment, nil, now); err != nil {
			return nil, err
		}
		out.Current = model.StatusPendingPayment
		out.Transitioned = true
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	res.Status = out.Current
	res.Records = records
	out.Reservation = res
	return out, nil
}

func reasonPtr(r model.CancelReason) *model.CancelReason { return &r }

func updateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to model.ReservationStatus, reason *model.CancelReason, now time.Time) error {
	var reasonArg interface{}
	if reason != nil {
		reasonArg = string(*reason)
	}
	result, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, cancel_reason = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), reasonArg, now.UTC(), id, string(from))
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("reservation %d left %s concurrently: %w", id, from, model.ErrConflict)
	}
	return nil
}

// Transition moves a reservation from one expected status to another under
// the row lock. When requireAllConfirmed is set, the move is refused unless
// every confirmation record carries confirmed_at — this guards the
// administrative push to PENDING_PAYMENT against premature payment
// requests. A status mismatch returns model.ErrConflict.
func (r *ReservationRepo) Transition(ctx context.Context, id uint64, from, to model.ReservationStatus, reason *model.CancelReason, requireAllConfirmed bool, now time.Time) (*model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := r.getHeaderTx(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if res.Status != from {
		return nil, fmt.Errorf("reservation %d is %s, expected %s: %w", id, res.Status, from, model.ErrConflict)
	}
	if requireAllConfirmed {
		records, err := loadRecords(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if model.DeriveOutcome(records) != model.OutcomeAllConfirmed {
			return nil, fmt.Errorf("reservation %d not fully confirmed: %w", id, model.ErrConflict)
		}
	}
	if err := updateStatusTx(ctx, tx, id, from, to, reason, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	res.Status = to
	res.CancelReason = reason
	res.UpdatedAt = now.UTC()
	return res, nil
}

// SweepExpired cancels every PENDING_APPROVAL reservation whose shared
// deadline has elapsed, with cancel reason DEADLINE. The UPDATE is guarded
// by the status so a decision committing just before the sweep is never
// overridden, and repeated or concurrent sweep runs are no-ops for rows
// already cancelled. Cancelled headers are returned for notification.
func (r *ReservationRepo) SweepExpired(ctx context.Context, now time.Time) ([]model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM reservations WHERE status = ? AND deadline_at <= ? FOR UPDATE`,
		string(model.StatusPendingApproval), now.UTC())
	if err != nil {
		return nil, fmt.Errorf("select expired: %w", err)
	}
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.Reservation{}, tx.Commit()
	}

	placeholders := make([]string, 0, len(ids))
	args := []interface{}{string(model.StatusCancelled), string(model.CancelDeadline), now.UTC()}
	for _, id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	args = append(args, string(model.StatusPendingApproval))
	_, err = tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, cancel_reason = ?, updated_at = ?
		 WHERE id IN (`+strings.Join(placeholders, ",")+`) AND status = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("cancel expired: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	cancelled := make([]model.Reservation, 0, len(ids))
	for _, id := range ids {
		res, err := r.GetByID(ctx, id)
		if err != nil {
			log.Printf("sweep: reload reservation %d failed: %v", id, err)
			continue
		}
		cancelled = append(cancelled, *res)
	}
	return cancelled, nil
}

// Reassign replaces the skipper or the service provider of one line with a
// new provider. The new provider's availability is re-validated inside the
// same transaction, the record set is recomputed from the post-update lines
// (the replacement gets an undecided record, the old provider keeps its
// record only while another of its lines remains), and the reservation
// returns to PENDING_APPROVAL with a fresh shared deadline.
//
// lineID selects the service line to reassign and is ignored for the
// skipper role, which always targets the crew line.
func (r *ReservationRepo) Reassign(ctx context.Context, id uint64, role model.ProviderKind, lineID uint64, newProvider model.ProviderRef, deadline, now time.Time) (*model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := r.getHeaderTx(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if res.Status.Terminal() {
		return nil, fmt.Errorf("reservation %d is %s: %w", id, res.Status, model.ErrConflict)
	}

	lines, err := loadLines(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	var target *model.PricedItem
	for i := range lines {
		l := &lines[i]
		switch role {
		case model.ProviderSkipper:
			if l.Kind == model.LineCrew {
				target = l
			}
		case model.ProviderService:
			if l.Kind == model.LineService && l.ID == lineID {
				target = l
			}
		}
		if target != nil {
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("no %s line to reassign on reservation %d: %w", role, id, model.ErrNotFound)
	}
	oldRef := target.Provider

	if err := recheckAvailability(ctx, tx, []model.ProviderRef{newProvider}, res.Window, id); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE reservation_lines SET provider_id = ? WHERE id = ?`,
		newProvider.ID, target.ID); err != nil {
		return nil, fmt.Errorf("update line provider: %w", err)
	}
	if role == model.ProviderSkipper {
		// Crew lines carry the skipper's id as their item id.
		if _, err := tx.ExecContext(ctx,
			`UPDATE reservation_lines SET item_id = ? WHERE id = ?`,
			newProvider.ID, target.ID); err != nil {
			return nil, fmt.Errorf("update line item: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE reservations SET skipper_id = ? WHERE id = ?`,
			newProvider.ID, id); err != nil {
			return nil, fmt.Errorf("update header skipper: %w", err)
		}
	}
	// The replacement confirms from scratch; if it already holds a record
	// through another line, that record is reset instead of duplicated.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO confirmation_records (reservation_id, provider_kind, provider_id, confirmed_at, rejected, created_at)
		 VALUES (?, ?, ?, NULL, 0, ?)
		 ON DUPLICATE KEY UPDATE confirmed_at = NULL, rejected = 0`,
		id, string(newProvider.Kind), newProvider.ID, now.UTC()); err != nil {
		return nil, fmt.Errorf("reset confirmation record: %w", err)
	}
	// The old provider stays a participant while any of its lines remain.
	var remaining int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservation_lines WHERE reservation_id = ? AND provider_kind = ? AND provider_id = ?`,
		id, string(oldRef.Kind), oldRef.ID).Scan(&remaining); err != nil {
		return nil, fmt.Errorf("count remaining lines: %w", err)
	}
	if remaining == 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM confirmation_records WHERE reservation_id = ? AND provider_kind = ? AND provider_id = ?`,
			id, string(oldRef.Kind), oldRef.ID); err != nil {
			return nil, fmt.Errorf("drop stale confirmation record: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, cancel_reason = NULL, deadline_at = ?, updated_at = ? WHERE id = ?`,
		string(model.StatusPendingApproval), deadline.UTC(), now.UTC(), id); err != nil {
		return nil, fmt.Errorf("reset status and deadline: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// FindParticipant resolves which confirmation record of a reservation the
// given user may act on, by provider ownership. It returns
// model.ErrForbidden when the user owns none of the participants.
func (r *ReservationRepo) FindParticipant(ctx context.Context, reservationID, userID uint64) (model.ProviderRef, error) {
	const q = `SELECT cr.provider_kind, cr.provider_id
	           FROM confirmation_records cr
	           JOIN providers p ON p.id = cr.provider_id AND p.kind = cr.provider_kind
	           WHERE cr.reservation_id = ? AND p.owner_user_id = ?
	           LIMIT 1`
	var ref model.ProviderRef
	err := r.db.QueryRowContext(ctx, q, reservationID, userID).Scan(&ref.Kind, &ref.ID)
	if err == sql.ErrNoRows {
		return model.ProviderRef{}, fmt.Errorf("user %d is not a participant: %w", userID, model.ErrForbidden)
	}
	if err != nil {
		return model.ProviderRef{}, fmt.Errorf("find participant: %w", err)
	}
	return ref, nil
}
