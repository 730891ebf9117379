package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateAffiliateRequest is the request body for registering an affiliate.
type CreateAffiliateRequest struct {
	Name           string  `json:"name" validate:"required,min=1,max=200"`
	Email          string  `json:"email" validate:"required,email"`
	CommissionRate float64 `json:"commissionRate" validate:"gte=0,lte=1"`
	CustomLink     string  `json:"customLink,omitempty" validate:"omitempty,max=100"`
}

// SetActiveRequest toggles an affiliate's active flag.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// AffiliateResponse is an affiliate in API responses, including the summary
// counters exposed to dashboards and payout processors.
type AffiliateResponse struct {
	ID                       uuid.UUID `json:"id"`
	Name                     string    `json:"name"`
	Email                    string    `json:"email"`
	ReferralCode             string    `json:"referralCode"`
	CustomLink               string    `json:"customLink,omitempty"`
	CommissionRate           float64   `json:"commissionRate"`
	Tier                     string    `json:"tier"`
	TotalClicks              int64     `json:"totalClicks"`
	TotalLeads               int64     `json:"totalLeads"`
	TotalBookings            int64     `json:"totalBookings"`
	TotalSales               int64     `json:"totalSales"`
	TotalCommissionCents     int64     `json:"totalCommissionCents"`
	TotalPaidCommissionCents int64     `json:"totalPaidCommissionCents"`
	IsApproved               bool      `json:"isApproved"`
	IsActive                 bool      `json:"isActive"`
	CreatedAt                time.Time `json:"createdAt"`
}
