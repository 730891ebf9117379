// Package transport defines the HTTP DTOs for appointments.
package transport

import (
	"time"

	"funnelops_backend/internal/appointments/repository"

	"github.com/google/uuid"
)

// CreateAppointmentRequest books a call.
type CreateAppointmentRequest struct {
	CustomerName  string    `json:"customerName" validate:"required,min=1,max=200"`
	CustomerEmail string    `json:"customerEmail" validate:"required,email"`
	CustomerPhone string    `json:"customerPhone" validate:"omitempty,max=32"`
	ScheduledAt   time.Time `json:"scheduledAt" validate:"required"`
	AffiliateCode string    `json:"affiliateCode" validate:"omitempty,max=64"`
}

// UpdateOutcomeRequest records the result of a completed call.
type UpdateOutcomeRequest struct {
	Outcome        string  `json:"outcome" validate:"required,oneof=converted not_interested needs_follow_up wrong_number no_answer callback_requested rescheduled"`
	SaleValueCents *int64  `json:"saleValueCents" validate:"omitempty,gt=0"`
	Notes          *string `json:"notes" validate:"omitempty,max=5000"`
	RecordingLink  *string `json:"recordingLink" validate:"omitempty,url,max=500"`
}

// AppointmentResponse is the API shape of an appointment.
type AppointmentResponse struct {
	ID             uuid.UUID  `json:"id"`
	CustomerName   string     `json:"customerName"`
	CustomerEmail  string     `json:"customerEmail"`
	CustomerPhone  *string    `json:"customerPhone,omitempty"`
	ScheduledAt    time.Time  `json:"scheduledAt"`
	Status         string     `json:"status"`
	Outcome        *string    `json:"outcome,omitempty"`
	SaleValueCents *int64     `json:"saleValueCents,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	RecordingLink  *string    `json:"recordingLink,omitempty"`
	AffiliateCode  *string    `json:"affiliateCode,omitempty"`
	CloserID       *uuid.UUID `json:"closerId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// ToAppointmentResponse maps a repository appointment to its API shape.
func ToAppointmentResponse(appt *repository.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:             appt.ID,
		CustomerName:   appt.CustomerName,
		CustomerEmail:  appt.CustomerEmail,
		CustomerPhone:  appt.CustomerPhone,
		ScheduledAt:    appt.ScheduledAt,
		Status:         appt.Status,
		Outcome:        appt.Outcome,
		SaleValueCents: appt.SaleValueCents,
		Notes:          appt.Notes,
		RecordingLink:  appt.RecordingLink,
		AffiliateCode:  appt.AffiliateCode,
		CloserID:       appt.CloserID,
		CreatedAt:      appt.CreatedAt,
	}
}

// ToAppointmentResponses maps a slice of appointments.
func ToAppointmentResponses(appts []repository.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, len(appts))
	for i := range appts {
		out[i] = ToAppointmentResponse(&appts[i])
	}
	return out
}

// AssignPendingResponse summarizes a manual assignment sweep.
type AssignPendingResponse struct {
	Assigned int `json:"assigned"`
	Skipped  int `json:"skipped"`
}
