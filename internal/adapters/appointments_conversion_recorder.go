package adapters

import (
	"context"

	ledgersvc "funnelops_backend/internal/ledger/service"

	"github.com/google/uuid"
)

// ConversionRecorderAdapter adapts the ledger service for the appointments
// domain. It implements appointments/service.ConversionRecorder.
type ConversionRecorderAdapter struct {
	ledger *ledgersvc.Service
}

func NewConversionRecorderAdapter(ledger *ledgersvc.Service) *ConversionRecorderAdapter {
	return &ConversionRecorderAdapter{ledger: ledger}
}

func (a *ConversionRecorderAdapter) RecordBooking(ctx context.Context, appointmentID uuid.UUID, affiliateCode, customerEmail string) (bool, error) {
	return a.ledger.RecordBooking(ctx, ledgersvc.BookingInput{
		AppointmentID: appointmentID,
		AffiliateCode: affiliateCode,
		CustomerEmail: customerEmail,
	})
}

func (a *ConversionRecorderAdapter) RecordSale(ctx context.Context, appointmentID uuid.UUID, affiliateCode string, saleValueCents int64, previousOutcome, outcome string) (bool, error) {
	return a.ledger.RecordSale(ctx, ledgersvc.SaleInput{
		AppointmentID:   appointmentID,
		AffiliateCode:   affiliateCode,
		SaleValueCents:  saleValueCents,
		PreviousOutcome: previousOutcome,
		Outcome:         outcome,
	})
}
