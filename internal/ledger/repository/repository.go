package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"funnelops_backend/internal/ledger/domain"
	"funnelops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Conversion represents the affiliate_conversions database model: one row per
// attributed booking or sale. Sale rows carry the commission lifecycle.
type Conversion struct {
	ID                    uuid.UUID               `db:"id"`
	AffiliateID           uuid.UUID               `db:"affiliate_id"`
	AppointmentID         *uuid.UUID              `db:"appointment_id"`
	ReferralCode          string                  `db:"referral_code"`
	ConversionType        domain.ConversionType   `db:"conversion_type"`
	SaleValueCents        *int64                  `db:"sale_value_cents"`
	CommissionAmountCents *int64                  `db:"commission_amount_cents"`
	CommissionStatus      domain.CommissionStatus `db:"commission_status"`
	HoldUntil             *time.Time              `db:"hold_until"`
	PaidAt                *time.Time              `db:"paid_at"`
	CreatedAt             time.Time               `db:"created_at"`
}

// ReleaseResult summarizes a release sweep or payout batch.
type ReleaseResult struct {
	Count            int64
	TotalAmountCents int64
}

const conversionColumns = `id, affiliate_id, appointment_id, referral_code, conversion_type,
	sale_value_cents, commission_amount_cents, commission_status, hold_until, paid_at, created_at`

const conversionNotFoundMsg = "commission conversion not found"

// Repository provides database operations for the commission ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new ledger repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateSale inserts a sale conversion and applies the affiliate counter
// increments in one transaction. The existence check on appointment_id is the
// idempotency guard: a retried outcome update finds the earlier row and
// changes nothing. Returns false when the conversion already existed.
func (r *Repository) CreateSale(ctx context.Context, conv *Conversion) (bool, error) {
	if conv.AppointmentID == nil {
		return false, apperr.Internal("sale conversion requires an appointment id")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin sale transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM affiliate_conversions
			WHERE appointment_id = $1 AND conversion_type = 'sale'
		)`, *conv.AppointmentID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate sale: %w", err)
	}
	if exists {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO affiliate_conversions (
			id, affiliate_id, appointment_id, referral_code, conversion_type,
			sale_value_cents, commission_amount_cents, commission_status, hold_until, created_at
		) VALUES ($1, $2, $3, $4, 'sale', $5, $6, $7, $8, $9)`,
		conv.ID, conv.AffiliateID, conv.AppointmentID, conv.ReferralCode,
		conv.SaleValueCents, conv.CommissionAmountCents, conv.CommissionStatus,
		conv.HoldUntil, conv.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert sale conversion: %w", err)
	}

	// total_commission moves here and only here; release and payout never
	// touch it again.
	_, err = tx.Exec(ctx, `
		UPDATE affiliates SET
			total_commission_cents = total_commission_cents + $2,
			total_sales = total_sales + 1,
			updated_at = now()
		WHERE id = $1`,
		conv.AffiliateID, derefCents(conv.CommissionAmountCents),
	)
	if err != nil {
		return false, fmt.Errorf("failed to apply sale counters: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit sale transaction: %w", err)
	}
	return true, nil
}

// CreateBooking inserts a booking conversion and bumps the affiliate booking
// counter in one transaction. At most one booking row per appointment.
func (r *Repository) CreateBooking(ctx context.Context, conv *Conversion) (bool, error) {
	if conv.AppointmentID == nil {
		return false, apperr.Internal("booking conversion requires an appointment id")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin booking transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM affiliate_conversions
			WHERE appointment_id = $1 AND conversion_type = 'booking'
		)`, *conv.AppointmentID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate booking: %w", err)
	}
	if exists {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO affiliate_conversions (
			id, affiliate_id, appointment_id, referral_code, conversion_type,
			commission_status, created_at
		) VALUES ($1, $2, $3, $4, 'booking', 'held', $5)`,
		conv.ID, conv.AffiliateID, conv.AppointmentID, conv.ReferralCode, conv.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert booking conversion: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE affiliates SET total_bookings = total_bookings + 1, updated_at = now()
		WHERE id = $1`, conv.AffiliateID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to apply booking counter: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit booking transaction: %w", err)
	}
	return true, nil
}

// GetByID retrieves a conversion by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Conversion, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+conversionColumns+` FROM affiliate_conversions WHERE id = $1`, id)
	conv, err := scanConversion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(conversionNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get conversion: %w", err)
	}
	return conv, nil
}

// ListByAffiliate returns an affiliate's conversions, newest first.
func (r *Repository) ListByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]Conversion, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+conversionColumns+` FROM affiliate_conversions
		WHERE affiliate_id = $1 ORDER BY created_at DESC`, affiliateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversions: %w", err)
	}
	defer rows.Close()

	var conversions []Conversion
	for rows.Next() {
		conv, err := scanConversion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversion: %w", err)
		}
		conversions = append(conversions, *conv)
	}
	return conversions, rows.Err()
}

// ReleaseDue moves every held sale commission whose hold has elapsed to
// available. A single guarded UPDATE: re-running or racing sweeps only ever
// move rows still held, so repeats are no-ops.
func (r *Repository) ReleaseDue(ctx context.Context, now time.Time) (ReleaseResult, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE affiliate_conversions
		SET commission_status = 'available'
		WHERE commission_status = 'held'
			AND conversion_type = 'sale'
			AND hold_until IS NOT NULL
			AND hold_until <= $1
		RETURNING commission_amount_cents`, now)
	if err != nil {
		return ReleaseResult{}, fmt.Errorf("failed to release due commissions: %w", err)
	}
	defer rows.Close()

	var result ReleaseResult
	for rows.Next() {
		var amount *int64
		if err := rows.Scan(&amount); err != nil {
			return ReleaseResult{}, fmt.Errorf("failed to scan released amount: %w", err)
		}
		result.Count++
		result.TotalAmountCents += derefCents(amount)
	}
	return result, rows.Err()
}

// MarkAvailable forces a held conversion to available. Returns false when the
// row exists but is not held; status rows are only ever moved forward.
func (r *Repository) MarkAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE affiliate_conversions SET commission_status = 'available'
		WHERE id = $1 AND commission_status = 'held'`, id)
	if err != nil {
		return false, fmt.Errorf("failed to force-release conversion: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// MarkPaid transitions all of an affiliate's available sale commissions to
// paid, returning the batch summary.
func (r *Repository) MarkPaid(ctx context.Context, affiliateID uuid.UUID, paidAt time.Time) (ReleaseResult, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE affiliate_conversions
		SET commission_status = 'paid', paid_at = $2
		WHERE affiliate_id = $1
			AND conversion_type = 'sale'
			AND commission_status = 'available'
		RETURNING commission_amount_cents`, affiliateID, paidAt)
	if err != nil {
		return ReleaseResult{}, fmt.Errorf("failed to mark commissions paid: %w", err)
	}
	defer rows.Close()

	var result ReleaseResult
	for rows.Next() {
		var amount *int64
		if err := rows.Scan(&amount); err != nil {
			return ReleaseResult{}, fmt.Errorf("failed to scan paid amount: %w", err)
		}
		result.Count++
		result.TotalAmountCents += derefCents(amount)
	}
	return result, rows.Err()
}

// AvailableCommissionCents sums an affiliate's releasable commission.
func (r *Repository) AvailableCommissionCents(ctx context.Context, affiliateID uuid.UUID) (int64, error) {
	return r.sumByStatus(ctx, affiliateID, domain.StatusAvailable)
}

// PaidCommissionCents sums an affiliate's paid-out commission.
func (r *Repository) PaidCommissionCents(ctx context.Context, affiliateID uuid.UUID) (int64, error) {
	return r.sumByStatus(ctx, affiliateID, domain.StatusPaid)
}

func (r *Repository) sumByStatus(ctx context.Context, affiliateID uuid.UUID, status domain.CommissionStatus) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(commission_amount_cents), 0)
		FROM affiliate_conversions
		WHERE affiliate_id = $1 AND conversion_type = 'sale' AND commission_status = $2`,
		affiliateID, status,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum %s commission: %w", status, err)
	}
	return total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConversion(row rowScanner) (*Conversion, error) {
	var conv Conversion
	err := row.Scan(
		&conv.ID, &conv.AffiliateID, &conv.AppointmentID, &conv.ReferralCode, &conv.ConversionType,
		&conv.SaleValueCents, &conv.CommissionAmountCents, &conv.CommissionStatus,
		&conv.HoldUntil, &conv.PaidAt, &conv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func derefCents(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
