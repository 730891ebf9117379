package adapters

import (
	"context"
	"time"

	affiliatesvc "funnelops_backend/internal/affiliates/service"
	quizsvc "funnelops_backend/internal/quiz/service"
	statssvc "funnelops_backend/internal/stats/service"

	"github.com/google/uuid"
)

// StatsAffiliateReader adapts the affiliates service for the stats
// aggregator. It implements stats/service.AffiliateReader.
type StatsAffiliateReader struct {
	affiliates *affiliatesvc.Service
}

func NewStatsAffiliateReader(affiliates *affiliatesvc.Service) *StatsAffiliateReader {
	return &StatsAffiliateReader{affiliates: affiliates}
}

func (a *StatsAffiliateReader) AffiliateStatsInfo(ctx context.Context, id uuid.UUID) (*statssvc.AffiliateInfo, error) {
	affiliate, err := a.affiliates.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &statssvc.AffiliateInfo{
		ID:                   affiliate.ID,
		ReferralCode:         affiliate.ReferralCode,
		TotalCommissionCents: affiliate.TotalCommissionCents,
	}, nil
}

// StatsLeadSource adapts the quiz service's deduplicated lead listing for the
// stats aggregator, so dashboards count leads the same way everything else
// does. It implements stats/service.LeadSource.
type StatsLeadSource struct {
	quiz *quizsvc.Service
}

func NewStatsLeadSource(quiz *quizsvc.Service) *StatsLeadSource {
	return &StatsLeadSource{quiz: quiz}
}

func (a *StatsLeadSource) LeadTimes(ctx context.Context, affiliateCode string, from, to time.Time) ([]time.Time, error) {
	leads, err := a.quiz.Leads(ctx, &affiliateCode, &from, &to)
	if err != nil {
		return nil, err
	}

	times := make([]time.Time, 0, len(leads))
	for _, lead := range leads {
		at := lead.StartedAt
		if lead.CompletedAt != nil {
			at = *lead.CompletedAt
		}
		times = append(times, at)
	}
	return times, nil
}
