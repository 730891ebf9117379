package service

import (
	"context"
	"testing"
	"time"

	"funnelops_backend/internal/appointments/repository"
	"funnelops_backend/internal/appointments/transport"
	"funnelops_backend/internal/events"
	"funnelops_backend/platform/apperr"
	"funnelops_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	appointments map[uuid.UUID]*repository.Appointment
	closerID     *uuid.UUID
	change       *repository.OutcomeChange
}

func newFakeStore() *fakeStore {
	return &fakeStore{appointments: make(map[uuid.UUID]*repository.Appointment)}
}

func (f *fakeStore) CreateAssigned(_ context.Context, appt *repository.Appointment) (*uuid.UUID, error) {
	if f.closerID != nil {
		appt.Status = repository.StatusConfirmed
		appt.CloserID = f.closerID
	} else {
		appt.Status = repository.StatusPending
	}
	f.appointments[appt.ID] = appt
	return f.closerID, nil
}

func (f *fakeStore) Assign(_ context.Context, appointmentID uuid.UUID) (*uuid.UUID, error) {
	if f.closerID == nil {
		return nil, nil
	}
	if appt, ok := f.appointments[appointmentID]; ok {
		appt.CloserID = f.closerID
		appt.Status = repository.StatusConfirmed
	}
	return f.closerID, nil
}

func (f *fakeStore) ListUnassigned(_ context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, appt := range f.appointments {
		if appt.CloserID == nil && len(ids) < limit {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Appointment, error) {
	appt, ok := f.appointments[id]
	if !ok {
		return nil, apperr.NotFound("appointment not found")
	}
	return appt, nil
}

func (f *fakeStore) List(_ context.Context, _ *uuid.UUID) ([]repository.Appointment, error) {
	out := make([]repository.Appointment, 0, len(f.appointments))
	for _, appt := range f.appointments {
		out = append(out, *appt)
	}
	return out, nil
}

func (f *fakeStore) UpdateOutcome(_ context.Context, id uuid.UUID, upd repository.OutcomeUpdate) (*repository.OutcomeChange, error) {
	appt, ok := f.appointments[id]
	if !ok {
		return nil, apperr.NotFound("appointment not found")
	}
	change := f.change
	if change == nil {
		change = &repository.OutcomeChange{}
	}
	if appt.Outcome != nil {
		change.PreviousOutcome = *appt.Outcome
	}
	appt.Outcome = &upd.Outcome
	appt.SaleValueCents = upd.SaleValueCents
	appt.Status = repository.StatusCompleted
	return change, nil
}

type recorderCall struct {
	appointmentID uuid.UUID
	code          string
	saleCents     int64
}

type fakeRecorder struct {
	bookings []recorderCall
	sales    []recorderCall
}

func (f *fakeRecorder) RecordBooking(_ context.Context, appointmentID uuid.UUID, code, _ string) (bool, error) {
	f.bookings = append(f.bookings, recorderCall{appointmentID: appointmentID, code: code})
	return true, nil
}

func (f *fakeRecorder) RecordSale(_ context.Context, appointmentID uuid.UUID, code string, saleCents int64, _, _ string) (bool, error) {
	f.sales = append(f.sales, recorderCall{appointmentID: appointmentID, code: code, saleCents: saleCents})
	return true, nil
}

type nopBus struct{}

func (nopBus) Publish(context.Context, events.Event)           {}
func (nopBus) PublishSync(context.Context, events.Event) error { return nil }
func (nopBus) Subscribe(string, events.Handler)                {}

func newTestService(store *fakeStore, recorder *fakeRecorder) *Service {
	return New(store, recorder, nopBus{}, logger.New("development"))
}

func TestCreateNormalizesCustomerFields(t *testing.T) {
	store := newFakeStore()
	closerID := uuid.New()
	store.closerID = &closerID
	recorder := &fakeRecorder{}
	svc := newTestService(store, recorder)

	resp, err := svc.Create(context.Background(), transport.CreateAppointmentRequest{
		CustomerName:  "  Jane Doe  ",
		CustomerEmail: " JANE@Example.COM ",
		CustomerPhone: "(212) 555-0100",
		ScheduledAt:   time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.CustomerName != "Jane Doe" {
		t.Fatalf("expected trimmed name, got %q", resp.CustomerName)
	}
	if resp.CustomerEmail != "jane@example.com" {
		t.Fatalf("expected lowercased email, got %q", resp.CustomerEmail)
	}
	if resp.CustomerPhone == nil || *resp.CustomerPhone != "+12125550100" {
		t.Fatalf("expected E.164 phone, got %v", resp.CustomerPhone)
	}
	if resp.CloserID == nil || *resp.CloserID != closerID {
		t.Fatal("expected the assigned closer on the response")
	}
	if resp.Status != repository.StatusConfirmed {
		t.Fatalf("expected confirmed status, got %s", resp.Status)
	}
}

func TestCreateWithoutEligibleCloserStaysPending(t *testing.T) {
	store := newFakeStore()
	recorder := &fakeRecorder{}
	svc := newTestService(store, recorder)

	resp, err := svc.Create(context.Background(), transport.CreateAppointmentRequest{
		CustomerName:  "Jane",
		CustomerEmail: "jane@x.com",
		ScheduledAt:   time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.CloserID != nil {
		t.Fatal("expected no closer to be assigned")
	}
	if resp.Status != repository.StatusPending {
		t.Fatalf("expected pending status, got %s", resp.Status)
	}
}

func TestCreateForwardsAttributedBookingToLedger(t *testing.T) {
	store := newFakeStore()
	recorder := &fakeRecorder{}
	svc := newTestService(store, recorder)

	resp, err := svc.Create(context.Background(), transport.CreateAppointmentRequest{
		CustomerName:  "Jane",
		CustomerEmail: "jane@x.com",
		ScheduledAt:   time.Now().Add(time.Hour),
		AffiliateCode: "abc123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recorder.bookings) != 1 {
		t.Fatalf("expected one booking hook call, got %d", len(recorder.bookings))
	}
	if recorder.bookings[0].appointmentID != resp.ID || recorder.bookings[0].code != "abc123" {
		t.Fatal("booking hook received wrong appointment or code")
	}
}

func TestCreateOrganicBookingSkipsLedger(t *testing.T) {
	store := newFakeStore()
	recorder := &fakeRecorder{}
	svc := newTestService(store, recorder)

	_, err := svc.Create(context.Background(), transport.CreateAppointmentRequest{
		CustomerName:  "Jane",
		CustomerEmail: "jane@x.com",
		ScheduledAt:   time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recorder.bookings) != 0 {
		t.Fatal("expected no booking hook for an organic appointment")
	}
}

func TestUpdateOutcomeConvertedRequiresSaleValue(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeRecorder{})

	_, err := svc.UpdateOutcome(context.Background(), uuid.New(), transport.UpdateOutcomeRequest{
		Outcome: repository.OutcomeConverted,
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateOutcomeRejectsSaleValueForNonConverted(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeRecorder{})
	cents := int64(5000)

	_, err := svc.UpdateOutcome(context.Background(), uuid.New(), transport.UpdateOutcomeRequest{
		Outcome:        "no_answer",
		SaleValueCents: &cents,
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateOutcomeConvertedTriggersSaleHook(t *testing.T) {
	store := newFakeStore()
	recorder := &fakeRecorder{}
	svc := newTestService(store, recorder)
	store.change = &repository.OutcomeChange{AffiliateCode: "abc123"}

	code := "abc123"
	id := uuid.New()
	store.appointments[id] = &repository.Appointment{ID: id, AffiliateCode: &code}

	cents := int64(10000)
	_, err := svc.UpdateOutcome(context.Background(), id, transport.UpdateOutcomeRequest{
		Outcome:        repository.OutcomeConverted,
		SaleValueCents: &cents,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recorder.sales) != 1 {
		t.Fatalf("expected one sale hook call, got %d", len(recorder.sales))
	}
	if recorder.sales[0].saleCents != 10000 {
		t.Fatalf("expected sale value to reach the hook, got %d", recorder.sales[0].saleCents)
	}
}

func TestUpdateOutcomeNonConvertedSkipsSaleHook(t *testing.T) {
	store := newFakeStore()
	recorder := &fakeRecorder{}
	svc := newTestService(store, recorder)

	id := uuid.New()
	store.appointments[id] = &repository.Appointment{ID: id}

	_, err := svc.UpdateOutcome(context.Background(), id, transport.UpdateOutcomeRequest{
		Outcome: "not_interested",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recorder.sales) != 0 {
		t.Fatal("expected no sale hook for a non-converted outcome")
	}
}

func TestAssignPendingCountsSkipped(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeRecorder{})

	id := uuid.New()
	store.appointments[id] = &repository.Appointment{ID: id, Status: repository.StatusPending}

	assigned, skipped, err := svc.AssignPending(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assigned != 0 || skipped != 1 {
		t.Fatalf("expected 0 assigned and 1 skipped, got %d/%d", assigned, skipped)
	}

	closerID := uuid.New()
	store.closerID = &closerID
	assigned, skipped, err = svc.AssignPending(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assigned != 1 || skipped != 0 {
		t.Fatalf("expected 1 assigned and 0 skipped, got %d/%d", assigned, skipped)
	}
}
