// Package repository provides the read-only scans behind the stats
// aggregator. It never writes; the ledger stays the source of truth.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sale is a converted appointment reduced to what bucketing needs.
type Sale struct {
	At             time.Time
	SaleValueCents int64
}

// CommissionEvent is a ledger entry reduced to what bucketing needs.
type CommissionEvent struct {
	At          time.Time
	AmountCents int64
}

// Repository provides windowed read queries for the stats aggregator.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new stats repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ClickTimes returns the click timestamps for a referral code in [from, to).
func (r *Repository) ClickTimes(ctx context.Context, referralCode string, from, to time.Time) ([]time.Time, error) {
	return r.times(ctx, `
		SELECT created_at FROM affiliate_clicks
		WHERE referral_code = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at`, referralCode, from, to)
}

// BookingTimes returns the creation timestamps of appointments tagged with a
// referral code in [from, to).
func (r *Repository) BookingTimes(ctx context.Context, referralCode string, from, to time.Time) ([]time.Time, error) {
	return r.times(ctx, `
		SELECT created_at FROM appointments
		WHERE affiliate_code = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at`, referralCode, from, to)
}

// ConvertedSales returns the converted appointments tagged with a referral
// code in [from, to), updated_at standing in for the conversion moment.
func (r *Repository) ConvertedSales(ctx context.Context, referralCode string, from, to time.Time) ([]Sale, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT updated_at, COALESCE(sale_value_cents, 0)
		FROM appointments
		WHERE affiliate_code = $1 AND outcome = 'converted'
			AND updated_at >= $2 AND updated_at < $3
		ORDER BY updated_at`, referralCode, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to scan converted sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.At, &s.SaleValueCents); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// CommissionEvents returns an affiliate's sale commissions created in
// [from, to).
func (r *Repository) CommissionEvents(ctx context.Context, affiliateID uuid.UUID, from, to time.Time) ([]CommissionEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT created_at, COALESCE(commission_amount_cents, 0)
		FROM affiliate_conversions
		WHERE affiliate_id = $1 AND conversion_type = 'sale'
			AND created_at >= $2 AND created_at < $3
		ORDER BY created_at`, affiliateID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to scan commission events: %w", err)
	}
	defer rows.Close()

	var events []CommissionEvent
	for rows.Next() {
		var e CommissionEvent
		if err := rows.Scan(&e.At, &e.AmountCents); err != nil {
			return nil, fmt.Errorf("failed to scan commission event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *Repository) times(ctx context.Context, query string, args ...any) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan timestamps: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan timestamp: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}
