// Package transport defines the HTTP DTOs for the commission ledger.
package transport

import (
	"time"

	"funnelops_backend/internal/ledger/repository"

	"github.com/google/uuid"
)

// ConversionResponse is the API shape of a ledger row.
type ConversionResponse struct {
	ID                    uuid.UUID  `json:"id"`
	AffiliateID           uuid.UUID  `json:"affiliateId"`
	AppointmentID         *uuid.UUID `json:"appointmentId,omitempty"`
	ReferralCode          string     `json:"referralCode"`
	ConversionType        string     `json:"conversionType"`
	SaleValueCents        *int64     `json:"saleValueCents,omitempty"`
	CommissionAmountCents *int64     `json:"commissionAmountCents,omitempty"`
	CommissionStatus      string     `json:"commissionStatus"`
	HoldUntil             *time.Time `json:"holdUntil,omitempty"`
	PaidAt                *time.Time `json:"paidAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
}

// ToConversionResponse maps a repository conversion to its API shape.
func ToConversionResponse(conv *repository.Conversion) ConversionResponse {
	return ConversionResponse{
		ID:                    conv.ID,
		AffiliateID:           conv.AffiliateID,
		AppointmentID:         conv.AppointmentID,
		ReferralCode:          conv.ReferralCode,
		ConversionType:        string(conv.ConversionType),
		SaleValueCents:        conv.SaleValueCents,
		CommissionAmountCents: conv.CommissionAmountCents,
		CommissionStatus:      string(conv.CommissionStatus),
		HoldUntil:             conv.HoldUntil,
		PaidAt:                conv.PaidAt,
		CreatedAt:             conv.CreatedAt,
	}
}

// ToConversionResponses maps a slice of conversions.
func ToConversionResponses(convs []repository.Conversion) []ConversionResponse {
	out := make([]ConversionResponse, len(convs))
	for i := range convs {
		out[i] = ToConversionResponse(&convs[i])
	}
	return out
}

// BalanceResponse is an affiliate's commission position.
type BalanceResponse struct {
	AvailableCents int64 `json:"availableCents"`
	PaidCents      int64 `json:"paidCents"`
}

// PayoutResponse summarizes a payout batch.
type PayoutResponse struct {
	Count            int64 `json:"count"`
	TotalAmountCents int64 `json:"totalAmountCents"`
}

// SweepResponse summarizes a manually triggered release sweep.
type SweepResponse struct {
	Released         int64 `json:"released"`
	TotalAmountCents int64 `json:"totalAmountCents"`
}
