package adapters

import (
	"context"

	affiliatesvc "funnelops_backend/internal/affiliates/service"
	ledgersvc "funnelops_backend/internal/ledger/service"
)

// LedgerAttributionAdapter adapts the affiliates service for the ledger.
// It implements ledger/service.AffiliateResolver and BookingClassifier.
type LedgerAttributionAdapter struct {
	affiliates *affiliatesvc.Service
}

func NewLedgerAttributionAdapter(affiliates *affiliatesvc.Service) *LedgerAttributionAdapter {
	return &LedgerAttributionAdapter{affiliates: affiliates}
}

func (a *LedgerAttributionAdapter) ResolveAffiliate(ctx context.Context, code string) (*ledgersvc.AttributedAffiliate, error) {
	affiliate, err := a.affiliates.ResolveCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, nil
	}
	return &ledgersvc.AttributedAffiliate{
		ID:             affiliate.ID,
		ReferralCode:   affiliate.ReferralCode,
		CommissionRate: affiliate.CommissionRate,
	}, nil
}

func (a *LedgerAttributionAdapter) IsBookingFor(ctx context.Context, code, customerEmail string) (bool, error) {
	affiliate, err := a.affiliates.ResolveCode(ctx, code)
	if err != nil {
		return false, err
	}
	if affiliate == nil {
		return false, nil
	}
	return a.affiliates.IsBookingFor(ctx, affiliate, customerEmail)
}
