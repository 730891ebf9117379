// Package service implements the appointments business logic: booking with
// round-robin closer assignment, outcome intake with counter deltas, and the
// ledger hooks for attributed bookings and sales.
package service

import (
	"context"
	"strings"
	"time"

	"funnelops_backend/internal/appointments/repository"
	"funnelops_backend/internal/appointments/transport"
	"funnelops_backend/internal/events"
	"funnelops_backend/platform/apperr"
	"funnelops_backend/platform/logger"
	"funnelops_backend/platform/phone"
	"funnelops_backend/platform/sanitize"

	"github.com/google/uuid"
)

// ConversionRecorder is the ledger dependency. Both hooks are best-effort
// from the appointment's point of view: a suppressed conversion never fails
// the booking or the outcome update.
type ConversionRecorder interface {
	RecordBooking(ctx context.Context, appointmentID uuid.UUID, affiliateCode, customerEmail string) (bool, error)
	RecordSale(ctx context.Context, appointmentID uuid.UUID, affiliateCode string, saleValueCents int64, previousOutcome, outcome string) (bool, error)
}

// Store is the persistence dependency of the service.
type Store interface {
	CreateAssigned(ctx context.Context, appt *repository.Appointment) (*uuid.UUID, error)
	Assign(ctx context.Context, appointmentID uuid.UUID) (*uuid.UUID, error)
	ListUnassigned(ctx context.Context, limit int) ([]uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Appointment, error)
	List(ctx context.Context, closerID *uuid.UUID) ([]repository.Appointment, error)
	UpdateOutcome(ctx context.Context, id uuid.UUID, upd repository.OutcomeUpdate) (*repository.OutcomeChange, error)
}

// Service implements appointment booking and outcome intake.
type Service struct {
	store    Store
	recorder ConversionRecorder
	bus      events.Bus
	log      *logger.Logger
}

// New creates a new appointments service.
func New(store Store, recorder ConversionRecorder, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, recorder: recorder, bus: bus, log: log}
}

// Create books an appointment. A closer is assigned round-robin inside the
// insert transaction; when none is eligible the appointment is persisted
// unassigned and picked up by the reconciliation sweep. An attributed booking
// is forwarded to the ledger after the appointment exists.
func (s *Service) Create(ctx context.Context, req transport.CreateAppointmentRequest) (*transport.AppointmentResponse, error) {
	now := time.Now().UTC()
	appt := &repository.Appointment{
		ID:            uuid.New(),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
		ScheduledAt:   req.ScheduledAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if normalized := phone.NormalizeE164(req.CustomerPhone); normalized != "" {
		appt.CustomerPhone = &normalized
	}
	if code := strings.TrimSpace(req.AffiliateCode); code != "" {
		appt.AffiliateCode = &code
	}

	closerID, err := s.store.CreateAssigned(ctx, appt)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.AppointmentCreated{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: appt.ID,
		CustomerEmail: appt.CustomerEmail,
		AffiliateCode: req.AffiliateCode,
		CloserID:      closerID,
	})

	if closerID != nil {
		s.bus.Publish(ctx, events.CloserAssigned{
			BaseEvent:     events.NewBaseEvent(),
			AppointmentID: appt.ID,
			CloserID:      *closerID,
		})
	} else {
		s.log.AssignmentSkipped(appt.ID.String())
	}

	if appt.AffiliateCode != nil {
		if _, err := s.recorder.RecordBooking(ctx, appt.ID, *appt.AffiliateCode, appt.CustomerEmail); err != nil {
			// The booking itself stands; the attribution can be replayed.
			s.log.Error("failed to record booking conversion",
				"appointment_id", appt.ID.String(), "error", err)
		}
	}

	resp := transport.ToAppointmentResponse(appt)
	return &resp, nil
}

// UpdateOutcome records the result of a call. Closer counter deltas are
// applied atomically with the outcome write; the ledger hook then records a
// commission only on the first transition into converted with a positive
// sale value. The update succeeds even when the commission is suppressed.
func (s *Service) UpdateOutcome(ctx context.Context, id uuid.UUID, req transport.UpdateOutcomeRequest) (*transport.AppointmentResponse, error) {
	if req.Outcome == repository.OutcomeConverted && derefCents(req.SaleValueCents) <= 0 {
		return nil, apperr.Validation("a converted outcome requires a positive sale value")
	}
	if req.Outcome != repository.OutcomeConverted && req.SaleValueCents != nil {
		return nil, apperr.Validation("sale value is only valid for a converted outcome")
	}

	change, err := s.store.UpdateOutcome(ctx, id, repository.OutcomeUpdate{
		Outcome:        req.Outcome,
		SaleValueCents: req.SaleValueCents,
		Notes:          sanitize.TextPtr(req.Notes),
		RecordingLink:  req.RecordingLink,
	})
	if err != nil {
		return nil, err
	}

	if req.Outcome == repository.OutcomeConverted && change.AffiliateCode != "" {
		_, err := s.recorder.RecordSale(ctx, id, change.AffiliateCode,
			derefCents(req.SaleValueCents), change.PreviousOutcome, req.Outcome)
		if err != nil {
			s.log.Error("failed to record sale conversion",
				"appointment_id", id.String(), "error", err)
		}
	}

	s.bus.Publish(ctx, events.AppointmentOutcomeUpdated{
		BaseEvent:       events.NewBaseEvent(),
		AppointmentID:   id,
		PreviousOutcome: change.PreviousOutcome,
		Outcome:         req.Outcome,
		SaleValueCents:  req.SaleValueCents,
	})

	appt, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := transport.ToAppointmentResponse(appt)
	return &resp, nil
}

// Get returns a single appointment.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*transport.AppointmentResponse, error) {
	appt, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := transport.ToAppointmentResponse(appt)
	return &resp, nil
}

// List returns appointments, optionally filtered by closer.
func (s *Service) List(ctx context.Context, closerID *uuid.UUID) ([]transport.AppointmentResponse, error) {
	appts, err := s.store.List(ctx, closerID)
	if err != nil {
		return nil, err
	}
	return transport.ToAppointmentResponses(appts), nil
}

// assignBatchSize caps one reconciliation pass.
const assignBatchSize = 100

// AssignPending attaches closers to appointments left unassigned because no
// closer was eligible at booking time. Invoked by the scheduler and the admin
// trigger; a pass that can assign nothing is not an error.
func (s *Service) AssignPending(ctx context.Context) (assigned, skipped int, err error) {
	ids, err := s.store.ListUnassigned(ctx, assignBatchSize)
	if err != nil {
		return 0, 0, err
	}

	for _, id := range ids {
		closerID, err := s.store.Assign(ctx, id)
		if err != nil {
			return assigned, skipped, err
		}
		if closerID == nil {
			skipped++
			continue
		}
		assigned++
		s.bus.Publish(ctx, events.CloserAssigned{
			BaseEvent:     events.NewBaseEvent(),
			AppointmentID: id,
			CloserID:      *closerID,
		})
	}
	return assigned, skipped, nil
}

func derefCents(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
