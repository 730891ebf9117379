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

// Affiliate represents the affiliate database model. The total_* columns are
// cached aggregates of clicks, sessions, and conversions; the ledger is the
// source of truth for commission amounts.
type Affiliate struct {
	ID                   uuid.UUID `db:"id"`
	Name                 string    `db:"name"`
	Email                string    `db:"email"`
	ReferralCode         string    `db:"referral_code"`
	CustomLink           *string   `db:"custom_link"`
	CommissionRate       float64   `db:"commission_rate"`
	Tier                 string    `db:"tier"`
	TotalClicks          int64     `db:"total_clicks"`
	TotalLeads           int64     `db:"total_leads"`
	TotalBookings        int64     `db:"total_bookings"`
	TotalSales           int64     `db:"total_sales"`
	TotalCommissionCents int64     `db:"total_commission_cents"`
	IsApproved           bool      `db:"is_approved"`
	IsActive             bool      `db:"is_active"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

const affiliateColumns = `id, name, email, referral_code, custom_link, commission_rate, tier,
	total_clicks, total_leads, total_bookings, total_sales, total_commission_cents,
	is_approved, is_active, created_at, updated_at`

const affiliateNotFoundMsg = "affiliate not found"

// Repository provides database operations for affiliates.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new affiliates repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new affiliate.
func (r *Repository) Create(ctx context.Context, a *Affiliate) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO affiliates (
			id, name, email, referral_code, custom_link, commission_rate, tier,
			is_approved, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.Name, a.Email, a.ReferralCode, a.CustomLink, a.CommissionRate, a.Tier,
		a.IsApproved, a.IsActive, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create affiliate: %w", err)
	}
	return nil
}

// GetByID retrieves an affiliate by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Affiliate, error) {
	return r.getOne(ctx, `SELECT `+affiliateColumns+` FROM affiliates WHERE id = $1`, id)
}

// GetByReferralCode retrieves an affiliate by exact referral code.
// A miss returns (nil, nil); unresolved codes are organic traffic.
func (r *Repository) GetByReferralCode(ctx context.Context, code string) (*Affiliate, error) {
	a, err := r.getOne(ctx, `SELECT `+affiliateColumns+` FROM affiliates WHERE referral_code = $1`, code)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, nil
	}
	return a, err
}

// GetByCustomLink retrieves an affiliate by its custom tracking link
// (stored with a leading slash). A miss returns (nil, nil).
func (r *Repository) GetByCustomLink(ctx context.Context, link string) (*Affiliate, error) {
	a, err := r.getOne(ctx, `SELECT `+affiliateColumns+` FROM affiliates WHERE custom_link = $1`, link)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, nil
	}
	return a, err
}

// List returns all affiliates, newest first.
func (r *Repository) List(ctx context.Context) ([]Affiliate, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+affiliateColumns+` FROM affiliates ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list affiliates: %w", err)
	}
	defer rows.Close()

	var affiliates []Affiliate
	for rows.Next() {
		a, err := scanAffiliate(rows)
		if err != nil {
			return nil, err
		}
		affiliates = append(affiliates, *a)
	}
	return affiliates, rows.Err()
}

// SetApproval updates the approval flag.
func (r *Repository) SetApproval(ctx context.Context, id uuid.UUID, approved bool) error {
	return r.setFlag(ctx, id, "is_approved", approved)
}

// SetActive updates the active flag.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.setFlag(ctx, id, "is_active", active)
}

// RecordClick inserts a click row and bumps the cached click counter in one
// transaction.
func (r *Repository) RecordClick(ctx context.Context, affiliateID uuid.UUID, referralCode string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin click transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO affiliate_clicks (id, affiliate_id, referral_code, clicked_at)
		VALUES ($1, $2, $3, $4)`,
		uuid.New(), affiliateID, referralCode, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE affiliates SET total_clicks = total_clicks + 1, updated_at = now()
		WHERE id = $1`, affiliateID,
	)
	if err != nil {
		return fmt.Errorf("failed to bump click counter: %w", err)
	}

	return tx.Commit(ctx)
}

// IncrementLeads bumps the cached lead counter.
func (r *Repository) IncrementLeads(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE affiliates SET total_leads = total_leads + 1, updated_at = now()
		WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("failed to bump lead counter: %w", err)
	}
	return nil
}

func (r *Repository) setFlag(ctx context.Context, id uuid.UUID, column string, value bool) error {
	result, err := r.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE affiliates SET %s = $2, updated_at = now() WHERE id = $1`, column),
		id, value,
	)
	if err != nil {
		return fmt.Errorf("failed to update affiliate %s: %w", column, err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(affiliateNotFoundMsg)
	}
	return nil
}

func (r *Repository) getOne(ctx context.Context, query string, arg interface{}) (*Affiliate, error) {
	a, err := scanAffiliate(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(affiliateNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get affiliate: %w", err)
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAffiliate(row rowScanner) (*Affiliate, error) {
	var a Affiliate
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.ReferralCode, &a.CustomLink, &a.CommissionRate, &a.Tier,
		&a.TotalClicks, &a.TotalLeads, &a.TotalBookings, &a.TotalSales, &a.TotalCommissionCents,
		&a.IsApproved, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
