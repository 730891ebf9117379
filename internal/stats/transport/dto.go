// Package transport defines the HTTP DTOs for the stats aggregator.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// BucketResponse is one window of the series.
type BucketResponse struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Clicks          int64     `json:"clicks"`
	Leads           int64     `json:"leads"`
	Bookings        int64     `json:"bookings"`
	Sales           int64     `json:"sales"`
	RevenueCents    int64     `json:"revenueCents"`
	CommissionCents int64     `json:"commissionCents"`
}

// SeriesTotals sums the series across all buckets.
type SeriesTotals struct {
	Clicks          int64 `json:"clicks"`
	Leads           int64 `json:"leads"`
	Bookings        int64 `json:"bookings"`
	Sales           int64 `json:"sales"`
	RevenueCents    int64 `json:"revenueCents"`
	CommissionCents int64 `json:"commissionCents"`
}

// SeriesResponse is a time-bucketed affiliate rollup. Approximate marks
// series whose commission column was estimated by even spread rather than
// read from the ledger.
type SeriesResponse struct {
	AffiliateID uuid.UUID        `json:"affiliateId"`
	From        time.Time        `json:"from"`
	To          time.Time        `json:"to"`
	Granularity string           `json:"granularity"`
	Approximate bool             `json:"approximate"`
	Buckets     []BucketResponse `json:"buckets"`
	Totals      SeriesTotals     `json:"totals"`
}
