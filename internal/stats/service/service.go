// Package service implements the stats aggregator: read-only, time-bucketed
// rollups over clicks, leads, bookings, and commissions. Output is for
// dashboards; the ledger remains the source of truth for totals.
package service

import (
	"context"
	"time"

	"funnelops_backend/internal/stats/repository"
	"funnelops_backend/internal/stats/transport"
	"funnelops_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// AffiliateReader supplies the slice of affiliate state the aggregator needs.
type AffiliateReader interface {
	AffiliateStatsInfo(ctx context.Context, id uuid.UUID) (*AffiliateInfo, error)
}

// AffiliateInfo is the aggregator's view of an affiliate.
type AffiliateInfo struct {
	ID                   uuid.UUID
	ReferralCode         string
	TotalCommissionCents int64
}

// LeadSource supplies deduplicated lead timestamps so the aggregator reports
// the same lead count as everything else.
type LeadSource interface {
	LeadTimes(ctx context.Context, affiliateCode string, from, to time.Time) ([]time.Time, error)
}

// Store is the persistence dependency of the service.
type Store interface {
	ClickTimes(ctx context.Context, referralCode string, from, to time.Time) ([]time.Time, error)
	BookingTimes(ctx context.Context, referralCode string, from, to time.Time) ([]time.Time, error)
	ConvertedSales(ctx context.Context, referralCode string, from, to time.Time) ([]repository.Sale, error)
	CommissionEvents(ctx context.Context, affiliateID uuid.UUID, from, to time.Time) ([]repository.CommissionEvent, error)
}

// Service implements the stats aggregator.
type Service struct {
	store      Store
	affiliates AffiliateReader
	leads      LeadSource
	log        *logger.Logger
}

// New creates a new stats service.
func New(store Store, affiliates AffiliateReader, leads LeadSource, log *logger.Logger) *Service {
	return &Service{store: store, affiliates: affiliates, leads: leads, log: log}
}

// AffiliateSeries builds the time-bucketed rollup for one affiliate over
// [from, to). The four underlying scans run concurrently.
func (s *Service) AffiliateSeries(ctx context.Context, affiliateID uuid.UUID, from, to time.Time) (*transport.SeriesResponse, error) {
	info, err := s.affiliates.AffiliateStatsInfo(ctx, affiliateID)
	if err != nil {
		return nil, err
	}

	var (
		clicks      []time.Time
		leadTimes   []time.Time
		bookings    []time.Time
		sales       []repository.Sale
		commissions []repository.CommissionEvent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clicks, err = s.store.ClickTimes(gctx, info.ReferralCode, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		leadTimes, err = s.leads.LeadTimes(gctx, info.ReferralCode, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		bookings, err = s.store.BookingTimes(gctx, info.ReferralCode, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		sales, err = s.store.ConvertedSales(gctx, info.ReferralCode, from, to)
		if err != nil {
			return err
		}
		commissions, err = s.store.CommissionEvents(gctx, affiliateID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	granularity := granularityFor(from, to)
	buckets := bucketRanges(from, to, granularity)

	countInto(buckets, clicks, func(b *Bucket) *int64 { return &b.Clicks })
	countInto(buckets, leadTimes, func(b *Bucket) *int64 { return &b.Leads })
	countInto(buckets, bookings, func(b *Bucket) *int64 { return &b.Bookings })
	for _, sale := range sales {
		if i := bucketIndex(buckets, sale.At); i >= 0 {
			buckets[i].Sales++
			buckets[i].RevenueCents += sale.SaleValueCents
		}
	}

	var bucketedCommission int64
	for _, event := range commissions {
		if i := bucketIndex(buckets, event.At); i >= 0 {
			buckets[i].CommissionCents += event.AmountCents
			bucketedCommission += event.AmountCents
		}
	}

	// Data recorded before per-event tracking has commission totals but no
	// matching ledger rows in the window. Spread the total over active
	// buckets and flag the series approximate.
	approximate := false
	if bucketedCommission == 0 && info.TotalCommissionCents > 0 {
		if spreadCommission(buckets, info.TotalCommissionCents) {
			approximate = true
			s.log.Warn("commission series approximated by even spread",
				"affiliate_id", affiliateID.String(),
				"total_commission_cents", info.TotalCommissionCents)
		}
	}

	return buildResponse(affiliateID, from, to, granularity, approximate, buckets), nil
}

func buildResponse(affiliateID uuid.UUID, from, to time.Time, granularity string, approximate bool, buckets []Bucket) *transport.SeriesResponse {
	resp := &transport.SeriesResponse{
		AffiliateID: affiliateID,
		From:        from,
		To:          to,
		Granularity: granularity,
		Approximate: approximate,
		Buckets:     make([]transport.BucketResponse, len(buckets)),
	}
	for i, b := range buckets {
		resp.Buckets[i] = transport.BucketResponse{
			Start:           b.Start,
			End:             b.End,
			Clicks:          b.Clicks,
			Leads:           b.Leads,
			Bookings:        b.Bookings,
			Sales:           b.Sales,
			RevenueCents:    b.RevenueCents,
			CommissionCents: b.CommissionCents,
		}
		resp.Totals.Clicks += b.Clicks
		resp.Totals.Leads += b.Leads
		resp.Totals.Bookings += b.Bookings
		resp.Totals.Sales += b.Sales
		resp.Totals.RevenueCents += b.RevenueCents
		resp.Totals.CommissionCents += b.CommissionCents
	}
	return resp
}
