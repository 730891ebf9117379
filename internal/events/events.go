// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"funnelops_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Quiz Domain Events
// =============================================================================

// QuizSessionCompleted is published when a visitor finishes the quiz.
type QuizSessionCompleted struct {
	BaseEvent
	SessionID     uuid.UUID `json:"sessionId"`
	AffiliateCode string    `json:"affiliateCode,omitempty"`
	IsLead        bool      `json:"isLead"`
	Email         string    `json:"email,omitempty"`
}

func (e QuizSessionCompleted) EventName() string { return "quiz.session.completed" }

// =============================================================================
// Appointment Domain Events
// =============================================================================

// AppointmentCreated is published when a call is booked.
type AppointmentCreated struct {
	BaseEvent
	AppointmentID uuid.UUID  `json:"appointmentId"`
	CustomerEmail string     `json:"customerEmail"`
	AffiliateCode string     `json:"affiliateCode,omitempty"`
	CloserID      *uuid.UUID `json:"closerId,omitempty"`
}

func (e AppointmentCreated) EventName() string { return "appointments.created" }

// CloserAssigned is published when round-robin assignment picks a closer.
type CloserAssigned struct {
	BaseEvent
	AppointmentID uuid.UUID `json:"appointmentId"`
	CloserID      uuid.UUID `json:"closerId"`
}

func (e CloserAssigned) EventName() string { return "appointments.closer_assigned" }

// AppointmentOutcomeUpdated is published after an outcome update has been
// persisted and all counter/ledger effects applied.
type AppointmentOutcomeUpdated struct {
	BaseEvent
	AppointmentID   uuid.UUID `json:"appointmentId"`
	PreviousOutcome string    `json:"previousOutcome,omitempty"`
	Outcome         string    `json:"outcome"`
	SaleValueCents  *int64    `json:"saleValueCents,omitempty"`
}

func (e AppointmentOutcomeUpdated) EventName() string { return "appointments.outcome_updated" }

// =============================================================================
// Ledger Domain Events
// =============================================================================

// CommissionCreated is published when a sale conversion enters the ledger.
type CommissionCreated struct {
	BaseEvent
	ConversionID          uuid.UUID `json:"conversionId"`
	AffiliateID           uuid.UUID `json:"affiliateId"`
	AppointmentID         uuid.UUID `json:"appointmentId"`
	CommissionAmountCents int64     `json:"commissionAmountCents"`
}

func (e CommissionCreated) EventName() string { return "ledger.commission.created" }

// CommissionsReleased is published after a release sweep moves held
// commissions to available.
type CommissionsReleased struct {
	BaseEvent
	Released         int64 `json:"released"`
	TotalAmountCents int64 `json:"totalAmountCents"`
}

func (e CommissionsReleased) EventName() string { return "ledger.commissions.released" }

// CommissionsPaid is published when an affiliate's available commissions
// transition to paid.
type CommissionsPaid struct {
	BaseEvent
	AffiliateID      uuid.UUID `json:"affiliateId"`
	Count            int64     `json:"count"`
	TotalAmountCents int64     `json:"totalAmountCents"`
}

func (e CommissionsPaid) EventName() string { return "ledger.commissions.paid" }
