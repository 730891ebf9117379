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

// Closer represents the closer database model. The total_* columns and
// conversion_rate are caches of a deterministic aggregate over that closer's
// appointments, resynchronized when they drift.
type Closer struct {
	ID                uuid.UUID `db:"id"`
	Name              string    `db:"name"`
	Email             string    `db:"email"`
	TotalCalls        int64     `db:"total_calls"`
	TotalConversions  int64     `db:"total_conversions"`
	TotalRevenueCents int64     `db:"total_revenue_cents"`
	ConversionRate    float64   `db:"conversion_rate"`
	IsActive          bool      `db:"is_active"`
	IsApproved        bool      `db:"is_approved"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// Aggregate is the recomputed truth for one closer, derived by scanning
// appointments.
type Aggregate struct {
	TotalCalls        int64
	TotalConversions  int64
	TotalRevenueCents int64
}

const closerColumns = `id, name, email, total_calls, total_conversions, total_revenue_cents,
	conversion_rate, is_active, is_approved, created_at, updated_at`

const closerNotFoundMsg = "closer not found"

// Repository provides database operations for closers.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new closers repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new closer.
func (r *Repository) Create(ctx context.Context, cl *Closer) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO closers (id, name, email, is_active, is_approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cl.ID, cl.Name, cl.Email, cl.IsActive, cl.IsApproved, cl.CreatedAt, cl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create closer: %w", err)
	}
	return nil
}

// GetByID retrieves a closer by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Closer, error) {
	var cl Closer
	err := r.pool.QueryRow(ctx, `SELECT `+closerColumns+` FROM closers WHERE id = $1`, id).Scan(
		&cl.ID, &cl.Name, &cl.Email, &cl.TotalCalls, &cl.TotalConversions, &cl.TotalRevenueCents,
		&cl.ConversionRate, &cl.IsActive, &cl.IsApproved, &cl.CreatedAt, &cl.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(closerNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get closer: %w", err)
	}
	return &cl, nil
}

// List returns all closers ordered by load, the same order the assigner uses.
func (r *Repository) List(ctx context.Context) ([]Closer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+closerColumns+` FROM closers ORDER BY total_calls, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list closers: %w", err)
	}
	defer rows.Close()

	var closers []Closer
	for rows.Next() {
		var cl Closer
		if err := rows.Scan(
			&cl.ID, &cl.Name, &cl.Email, &cl.TotalCalls, &cl.TotalConversions, &cl.TotalRevenueCents,
			&cl.ConversionRate, &cl.IsActive, &cl.IsApproved, &cl.CreatedAt, &cl.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan closer: %w", err)
		}
		closers = append(closers, cl)
	}
	return closers, rows.Err()
}

// SetApproval updates the approval flag.
func (r *Repository) SetApproval(ctx context.Context, id uuid.UUID, approved bool) error {
	return r.setFlag(ctx, id, "is_approved", approved)
}

// SetActive updates the active flag.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.setFlag(ctx, id, "is_active", active)
}

// Recompute derives a closer's aggregate counters from its appointments.
// This is the source of truth the cached columns approximate.
func (r *Repository) Recompute(ctx context.Context, id uuid.UUID) (Aggregate, error) {
	var agg Aggregate
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE outcome = 'converted'),
			COALESCE(SUM(sale_value_cents) FILTER (WHERE outcome = 'converted'), 0)
		FROM appointments WHERE closer_id = $1`, id,
	).Scan(&agg.TotalCalls, &agg.TotalConversions, &agg.TotalRevenueCents)
	if err != nil {
		return Aggregate{}, fmt.Errorf("failed to recompute closer aggregate: %w", err)
	}
	return agg, nil
}

// Resync writes a recomputed aggregate back to the cached columns.
func (r *Repository) Resync(ctx context.Context, id uuid.UUID, agg Aggregate, rate float64) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE closers SET
			total_calls = $2,
			total_conversions = $3,
			total_revenue_cents = $4,
			conversion_rate = $5,
			updated_at = now()
		WHERE id = $1`,
		id, agg.TotalCalls, agg.TotalConversions, agg.TotalRevenueCents, rate,
	)
	if err != nil {
		return fmt.Errorf("failed to resync closer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(closerNotFoundMsg)
	}
	return nil
}

func (r *Repository) setFlag(ctx context.Context, id uuid.UUID, column string, value bool) error {
	result, err := r.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE closers SET %s = $2, updated_at = now() WHERE id = $1`, column),
		id, value,
	)
	if err != nil {
		return fmt.Errorf("failed to update closer %s: %w", column, err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(closerNotFoundMsg)
	}
	return nil
}
