package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"funnelops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Appointment represents the appointments database model.
type Appointment struct {
	ID             uuid.UUID  `db:"id"`
	CustomerName   string     `db:"customer_name"`
	CustomerEmail  string     `db:"customer_email"`
	CustomerPhone  *string    `db:"customer_phone"`
	ScheduledAt    time.Time  `db:"scheduled_at"`
	Status         string     `db:"status"`
	Outcome        *string    `db:"outcome"`
	SaleValueCents *int64     `db:"sale_value_cents"`
	Notes          *string    `db:"notes"`
	RecordingLink  *string    `db:"recording_link"`
	AffiliateCode  *string    `db:"affiliate_code"`
	CloserID       *uuid.UUID `db:"closer_id"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// OutcomeUpdate carries the fields an outcome update may change.
type OutcomeUpdate struct {
	Outcome        string
	SaleValueCents *int64
	Notes          *string
	RecordingLink  *string
}

// OutcomeChange reports what an outcome update replaced, for the commission
// hook and the published event.
type OutcomeChange struct {
	PreviousOutcome   string
	PreviousSaleCents int64
	AffiliateCode     string
	CloserID          *uuid.UUID
}

// Statuses an appointment moves through.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const appointmentColumns = `id, customer_name, customer_email, customer_phone, scheduled_at,
	status, outcome, sale_value_cents, notes, recording_link, affiliate_code, closer_id,
	created_at, updated_at`

const appointmentNotFoundMsg = "appointment not found"

// pickCloserSQL selects the least-loaded eligible closer and locks the row so
// concurrent bookings cannot pick the same one before the counter moves.
const pickCloserSQL = `
	SELECT id FROM closers
	WHERE is_active AND is_approved
	ORDER BY total_calls, id
	LIMIT 1
	FOR UPDATE`

// Repository provides database operations for appointments.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new appointments repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateAssigned inserts an appointment and assigns a closer in one
// transaction: pick the least-loaded eligible closer under a row lock, insert
// the appointment confirmed, bump the closer's call counter. When no closer
// is eligible the appointment is inserted pending and unassigned; the caller
// decides how loudly to report that. Returns the assigned closer ID, nil when
// unassigned.
func (r *Repository) CreateAssigned(ctx context.Context, appt *Appointment) (*uuid.UUID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin appointment transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var closerID uuid.UUID
	err = tx.QueryRow(ctx, pickCloserSQL).Scan(&closerID)
	switch {
	case err == nil:
		appt.CloserID = &closerID
		appt.Status = StatusConfirmed
	case errors.Is(err, pgx.ErrNoRows):
		appt.CloserID = nil
		appt.Status = StatusPending
	default:
		return nil, fmt.Errorf("failed to pick closer: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO appointments (
			id, customer_name, customer_email, customer_phone, scheduled_at,
			status, affiliate_code, closer_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		appt.ID, appt.CustomerName, appt.CustomerEmail, appt.CustomerPhone, appt.ScheduledAt,
		appt.Status, appt.AffiliateCode, appt.CloserID, appt.CreatedAt, appt.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert appointment: %w", err)
	}

	if appt.CloserID != nil {
		if err := bumpCloserCalls(ctx, tx, closerID, 1); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit appointment transaction: %w", err)
	}
	return appt.CloserID, nil
}

// Assign attaches a closer to a still-unassigned appointment, same locking
// discipline as CreateAssigned. Returns the closer ID, or nil when either no
// closer is eligible or the appointment was assigned in the meantime.
func (r *Repository) Assign(ctx context.Context, appointmentID uuid.UUID) (*uuid.UUID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin assignment transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var closerID uuid.UUID
	err = tx.QueryRow(ctx, pickCloserSQL).Scan(&closerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pick closer: %w", err)
	}

	result, err := tx.Exec(ctx, `
		UPDATE appointments
		SET closer_id = $2, status = $3, updated_at = now()
		WHERE id = $1 AND closer_id IS NULL`,
		appointmentID, closerID, StatusConfirmed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to assign appointment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, nil
	}

	if err := bumpCloserCalls(ctx, tx, closerID, 1); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit assignment transaction: %w", err)
	}
	return &closerID, nil
}

// ListUnassigned returns the IDs of appointments still waiting for a closer,
// oldest first.
func (r *Repository) ListUnassigned(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM appointments
		WHERE closer_id IS NULL AND status = $1
		ORDER BY created_at
		LIMIT $2`, StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unassigned appointments: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan appointment id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetByID retrieves an appointment by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(appointmentNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appt, nil
}

// List returns appointments newest first, optionally filtered by closer.
func (r *Repository) List(ctx context.Context, closerID *uuid.UUID) ([]Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	args := []any{}
	if closerID != nil {
		query += ` WHERE closer_id = $1`
		args = append(args, *closerID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, *appt)
	}
	return appointments, rows.Err()
}

// UpdateOutcome persists an outcome update and applies the closer counter
// deltas in the same transaction: a conversion gained or lost moves
// total_conversions, and revenue moves by the difference in converted sale
// value. Returns what the update replaced.
func (r *Repository) UpdateOutcome(ctx context.Context, id uuid.UUID, upd OutcomeUpdate) (*OutcomeChange, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin outcome transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		prevOutcome   *string
		prevSale      *int64
		affiliateCode *string
		closerID      *uuid.UUID
	)
	err = tx.QueryRow(ctx, `
		SELECT outcome, sale_value_cents, affiliate_code, closer_id
		FROM appointments WHERE id = $1
		FOR UPDATE`, id,
	).Scan(&prevOutcome, &prevSale, &affiliateCode, &closerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(appointmentNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to lock appointment: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE appointments SET
			outcome = $2,
			sale_value_cents = $3,
			notes = COALESCE($4, notes),
			recording_link = COALESCE($5, recording_link),
			status = $6,
			updated_at = now()
		WHERE id = $1`,
		id, upd.Outcome, upd.SaleValueCents, upd.Notes, upd.RecordingLink, StatusCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update outcome: %w", err)
	}

	change := &OutcomeChange{
		CloserID: closerID,
	}
	if prevOutcome != nil {
		change.PreviousOutcome = *prevOutcome
	}
	if prevSale != nil {
		change.PreviousSaleCents = *prevSale
	}
	if affiliateCode != nil {
		change.AffiliateCode = *affiliateCode
	}

	if closerID != nil {
		wasConverted := change.PreviousOutcome == OutcomeConverted
		isConverted := upd.Outcome == OutcomeConverted

		var convDelta, revenueDelta int64
		if isConverted {
			revenueDelta += derefCents(upd.SaleValueCents)
		}
		if wasConverted {
			revenueDelta -= change.PreviousSaleCents
		}
		switch {
		case isConverted && !wasConverted:
			convDelta = 1
		case !isConverted && wasConverted:
			convDelta = -1
		}

		if convDelta != 0 || revenueDelta != 0 {
			_, err = tx.Exec(ctx, `
				UPDATE closers SET
					total_conversions = total_conversions + $2,
					total_revenue_cents = total_revenue_cents + $3,
					conversion_rate = CASE WHEN total_calls > 0
						THEN (total_conversions + $2)::double precision / total_calls
						ELSE 0 END,
					updated_at = now()
				WHERE id = $1`,
				*closerID, convDelta, revenueDelta,
			)
			if err != nil {
				return nil, fmt.Errorf("failed to apply closer deltas: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit outcome transaction: %w", err)
	}
	return change, nil
}

// OutcomeConverted is the outcome that counts as a closed sale.
const OutcomeConverted = "converted"

func bumpCloserCalls(ctx context.Context, tx pgx.Tx, closerID uuid.UUID, delta int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE closers SET
			total_calls = total_calls + $2,
			conversion_rate = CASE WHEN total_calls + $2 > 0
				THEN total_conversions::double precision / (total_calls + $2)
				ELSE 0 END,
			updated_at = now()
		WHERE id = $1`, closerID, delta,
	)
	if err != nil {
		return fmt.Errorf("failed to bump closer call count: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	var appt Appointment
	err := row.Scan(
		&appt.ID, &appt.CustomerName, &appt.CustomerEmail, &appt.CustomerPhone, &appt.ScheduledAt,
		&appt.Status, &appt.Outcome, &appt.SaleValueCents, &appt.Notes, &appt.RecordingLink,
		&appt.AffiliateCode, &appt.CloserID, &appt.CreatedAt, &appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func derefCents(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
