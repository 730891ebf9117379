// Package service implements the commission ledger business logic: recording
// attributed bookings and sales, and walking commissions through the
// held/available/paid lifecycle.
package service

import (
	"context"
	"fmt"
	"time"

	"funnelops_backend/internal/events"
	"funnelops_backend/internal/ledger/domain"
	"funnelops_backend/internal/ledger/repository"
	"funnelops_backend/platform/apperr"
	"funnelops_backend/platform/logger"

	"github.com/google/uuid"
)

// AttributedAffiliate is the slice of affiliate state the ledger needs.
type AttributedAffiliate struct {
	ID             uuid.UUID
	ReferralCode   string
	CommissionRate float64
}

// AffiliateResolver resolves an attribution code to an affiliate. A nil result
// with nil error means no affiliate carries the code; the ledger skips the
// conversion rather than failing the caller.
type AffiliateResolver interface {
	ResolveAffiliate(ctx context.Context, code string) (*AttributedAffiliate, error)
}

// BookingClassifier decides whether a booking belongs to an affiliate. Sales
// are attributed by code alone; bookings additionally require the customer
// email to match a qualified lead of that affiliate.
type BookingClassifier interface {
	IsBookingFor(ctx context.Context, code, customerEmail string) (bool, error)
}

// HoldPolicy supplies the tunable ledger parameters.
type HoldPolicy interface {
	CommissionHoldDays(ctx context.Context) int
	MinimumPayoutCents(ctx context.Context) int64
}

// Store is the persistence dependency of the service.
type Store interface {
	CreateSale(ctx context.Context, conv *repository.Conversion) (bool, error)
	CreateBooking(ctx context.Context, conv *repository.Conversion) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Conversion, error)
	ListByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]repository.Conversion, error)
	ReleaseDue(ctx context.Context, now time.Time) (repository.ReleaseResult, error)
	MarkAvailable(ctx context.Context, id uuid.UUID) (bool, error)
	MarkPaid(ctx context.Context, affiliateID uuid.UUID, paidAt time.Time) (repository.ReleaseResult, error)
	AvailableCommissionCents(ctx context.Context, affiliateID uuid.UUID) (int64, error)
	PaidCommissionCents(ctx context.Context, affiliateID uuid.UUID) (int64, error)
}

// SaleInput describes an appointment outcome update that may earn a commission.
type SaleInput struct {
	AppointmentID   uuid.UUID
	AffiliateCode   string
	SaleValueCents  int64
	PreviousOutcome string
	Outcome         string
}

// BookingInput describes a newly booked appointment for attribution.
type BookingInput struct {
	AppointmentID uuid.UUID
	AffiliateCode string
	CustomerEmail string
}

// Service implements the commission ledger.
type Service struct {
	store      Store
	resolver   AffiliateResolver
	classifier BookingClassifier
	policy     HoldPolicy
	bus        events.Bus
	log        *logger.Logger
	now        func() time.Time
}

// New creates a new ledger service.
func New(store Store, resolver AffiliateResolver, classifier BookingClassifier, policy HoldPolicy, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:      store,
		resolver:   resolver,
		classifier: classifier,
		policy:     policy,
		bus:        bus,
		log:        log,
		now:        time.Now,
	}
}

// RecordSale creates a held commission for the first transition of an
// appointment into converted. Returns true when a ledger row was created.
// Unattributable or duplicate sales are suppressed, not errors: the outcome
// update that triggered them must still succeed.
func (s *Service) RecordSale(ctx context.Context, input SaleInput) (bool, error) {
	if input.Outcome != OutcomeConverted || input.SaleValueCents <= 0 {
		return false, nil
	}
	// Re-saving a converted outcome edits the appointment, never the ledger.
	if input.PreviousOutcome == OutcomeConverted {
		return false, nil
	}
	if input.AffiliateCode == "" {
		return false, nil
	}

	affiliate, err := s.resolver.ResolveAffiliate(ctx, input.AffiliateCode)
	if err != nil {
		return false, fmt.Errorf("failed to resolve affiliate for sale: %w", err)
	}
	if affiliate == nil {
		s.log.Debug("sale without matching affiliate",
			"appointment_id", input.AppointmentID.String(),
			"code", input.AffiliateCode)
		return false, nil
	}

	now := s.now().UTC()
	commission := domain.CommissionCents(input.SaleValueCents, affiliate.CommissionRate)
	holdUntil := domain.HoldUntil(now, s.policy.CommissionHoldDays(ctx))
	appointmentID := input.AppointmentID

	conv := &repository.Conversion{
		ID:                    uuid.New(),
		AffiliateID:           affiliate.ID,
		AppointmentID:         &appointmentID,
		ReferralCode:          affiliate.ReferralCode,
		ConversionType:        domain.ConversionSale,
		SaleValueCents:        &input.SaleValueCents,
		CommissionAmountCents: &commission,
		CommissionStatus:      domain.StatusHeld,
		HoldUntil:             &holdUntil,
		CreatedAt:             now,
	}

	created, err := s.store.CreateSale(ctx, conv)
	if err != nil {
		return false, err
	}
	if !created {
		s.log.DuplicateSuppressed(input.AppointmentID.String(), affiliate.ID.String())
		return false, nil
	}

	s.log.CommissionCreated(conv.ID.String(), affiliate.ID.String(), commission)
	s.bus.Publish(ctx, events.CommissionCreated{
		BaseEvent:             events.NewBaseEvent(),
		ConversionID:          conv.ID,
		AffiliateID:           affiliate.ID,
		AppointmentID:         input.AppointmentID,
		CommissionAmountCents: commission,
	})
	return true, nil
}

// RecordBooking creates a booking conversion for an attributed appointment.
// The classification is strict: the customer email must match a qualified
// lead of the coded affiliate, otherwise nothing is recorded.
func (s *Service) RecordBooking(ctx context.Context, input BookingInput) (bool, error) {
	if input.AffiliateCode == "" {
		return false, nil
	}

	matches, err := s.classifier.IsBookingFor(ctx, input.AffiliateCode, input.CustomerEmail)
	if err != nil {
		return false, fmt.Errorf("failed to classify booking: %w", err)
	}
	if !matches {
		return false, nil
	}

	affiliate, err := s.resolver.ResolveAffiliate(ctx, input.AffiliateCode)
	if err != nil {
		return false, fmt.Errorf("failed to resolve affiliate for booking: %w", err)
	}
	if affiliate == nil {
		return false, nil
	}

	appointmentID := input.AppointmentID
	conv := &repository.Conversion{
		ID:             uuid.New(),
		AffiliateID:    affiliate.ID,
		AppointmentID:  &appointmentID,
		ReferralCode:   affiliate.ReferralCode,
		ConversionType: domain.ConversionBooking,
		CreatedAt:      s.now().UTC(),
	}

	created, err := s.store.CreateBooking(ctx, conv)
	if err != nil {
		return false, err
	}
	if !created {
		s.log.DuplicateSuppressed(input.AppointmentID.String(), affiliate.ID.String())
	}
	return created, nil
}

// OutcomeConverted is the appointment outcome that earns a commission.
const OutcomeConverted = "converted"

// ReleaseDue moves every held commission whose hold window has elapsed to
// available. Safe to re-run: the sweep is a guarded update and repeats are
// no-ops.
func (s *Service) ReleaseDue(ctx context.Context) (repository.ReleaseResult, error) {
	result, err := s.store.ReleaseDue(ctx, s.now().UTC())
	if err != nil {
		return repository.ReleaseResult{}, err
	}

	if result.Count > 0 {
		s.log.Info("commissions_released",
			"count", result.Count,
			"total_amount_cents", result.TotalAmountCents)
		s.bus.Publish(ctx, events.CommissionsReleased{
			BaseEvent:        events.NewBaseEvent(),
			Released:         result.Count,
			TotalAmountCents: result.TotalAmountCents,
		})
	}
	return result, nil
}

// ForceRelease moves a single held commission to available before its hold
// elapses. Conflict when the commission is in any other status.
func (s *Service) ForceRelease(ctx context.Context, id uuid.UUID) error {
	conv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if conv.ConversionType != domain.ConversionSale {
		return apperr.Conflict("conversion carries no commission")
	}
	if !domain.CanTransition(conv.CommissionStatus, domain.StatusAvailable) {
		return apperr.Conflict("commission is not in held status")
	}

	moved, err := s.store.MarkAvailable(ctx, id)
	if err != nil {
		return err
	}
	if !moved {
		// Raced with a sweep or another admin; the row is no longer held.
		return apperr.Conflict("commission is not in held status")
	}
	return nil
}

// Payout marks all of an affiliate's available commissions paid, provided the
// available total meets the configured minimum.
func (s *Service) Payout(ctx context.Context, affiliateID uuid.UUID) (repository.ReleaseResult, error) {
	available, err := s.store.AvailableCommissionCents(ctx, affiliateID)
	if err != nil {
		return repository.ReleaseResult{}, err
	}
	if available == 0 {
		return repository.ReleaseResult{}, apperr.Conflict("no available commission to pay out")
	}
	if minimum := s.policy.MinimumPayoutCents(ctx); available < minimum {
		return repository.ReleaseResult{}, apperr.Conflict(
			fmt.Sprintf("available commission %d is below the minimum payout of %d", available, minimum))
	}

	result, err := s.store.MarkPaid(ctx, affiliateID, s.now().UTC())
	if err != nil {
		return repository.ReleaseResult{}, err
	}

	if result.Count > 0 {
		s.bus.Publish(ctx, events.CommissionsPaid{
			BaseEvent:        events.NewBaseEvent(),
			AffiliateID:      affiliateID,
			Count:            result.Count,
			TotalAmountCents: result.TotalAmountCents,
		})
	}
	return result, nil
}

// Get returns a single conversion.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*repository.Conversion, error) {
	return s.store.GetByID(ctx, id)
}

// ListByAffiliate returns an affiliate's ledger rows, newest first.
func (s *Service) ListByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]repository.Conversion, error) {
	return s.store.ListByAffiliate(ctx, affiliateID)
}

// PaidCommissionCents returns an affiliate's paid-out commission total.
func (s *Service) PaidCommissionCents(ctx context.Context, affiliateID uuid.UUID) (int64, error) {
	return s.store.PaidCommissionCents(ctx, affiliateID)
}

// Balance summarizes an affiliate's commission position.
type Balance struct {
	AvailableCents int64
	PaidCents      int64
}

// BalanceFor returns the available and paid commission totals for an affiliate.
func (s *Service) BalanceFor(ctx context.Context, affiliateID uuid.UUID) (Balance, error) {
	available, err := s.store.AvailableCommissionCents(ctx, affiliateID)
	if err != nil {
		return Balance{}, err
	}
	paid, err := s.store.PaidCommissionCents(ctx, affiliateID)
	if err != nil {
		return Balance{}, err
	}
	return Balance{AvailableCents: available, PaidCents: paid}, nil
}
