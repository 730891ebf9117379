package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateCloserRequest is the request body for registering a closer.
type CreateCloserRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=200"`
	Email string `json:"email" validate:"required,email"`
}

// SetActiveRequest toggles a closer's active flag.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// CloserResponse is a closer in API responses.
type CloserResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	TotalCalls        int64     `json:"totalCalls"`
	TotalConversions  int64     `json:"totalConversions"`
	TotalRevenueCents int64     `json:"totalRevenueCents"`
	ConversionRate    float64   `json:"conversionRate"`
	IsActive          bool      `json:"isActive"`
	IsApproved        bool      `json:"isApproved"`
	CreatedAt         time.Time `json:"createdAt"`
}

// CloserStatsResponse is the recomputed performance aggregate for a closer.
type CloserStatsResponse struct {
	CloserID          uuid.UUID `json:"closerId"`
	TotalCalls        int64     `json:"totalCalls"`
	TotalConversions  int64     `json:"totalConversions"`
	TotalRevenueCents int64     `json:"totalRevenueCents"`
	ConversionRate    float64   `json:"conversionRate"`
}
