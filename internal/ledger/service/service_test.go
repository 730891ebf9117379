package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"funnelops_backend/internal/events"
	"funnelops_backend/internal/ledger/domain"
	"funnelops_backend/internal/ledger/repository"
	"funnelops_backend/platform/apperr"
	"funnelops_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	conversions map[uuid.UUID]*repository.Conversion
	saleByAppt  map[uuid.UUID]uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversions: make(map[uuid.UUID]*repository.Conversion),
		saleByAppt:  make(map[uuid.UUID]uuid.UUID),
	}
}

func (f *fakeStore) CreateSale(_ context.Context, conv *repository.Conversion) (bool, error) {
	if _, exists := f.saleByAppt[*conv.AppointmentID]; exists {
		return false, nil
	}
	clone := *conv
	f.conversions[conv.ID] = &clone
	f.saleByAppt[*conv.AppointmentID] = conv.ID
	return true, nil
}

func (f *fakeStore) CreateBooking(_ context.Context, conv *repository.Conversion) (bool, error) {
	clone := *conv
	f.conversions[conv.ID] = &clone
	return true, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Conversion, error) {
	conv, ok := f.conversions[id]
	if !ok {
		return nil, apperr.NotFound("commission conversion not found")
	}
	clone := *conv
	return &clone, nil
}

func (f *fakeStore) ListByAffiliate(_ context.Context, affiliateID uuid.UUID) ([]repository.Conversion, error) {
	var out []repository.Conversion
	for _, conv := range f.conversions {
		if conv.AffiliateID == affiliateID {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (f *fakeStore) ReleaseDue(_ context.Context, now time.Time) (repository.ReleaseResult, error) {
	var result repository.ReleaseResult
	for _, conv := range f.conversions {
		if conv.CommissionStatus != domain.StatusHeld || conv.ConversionType != domain.ConversionSale {
			continue
		}
		if conv.HoldUntil == nil || conv.HoldUntil.After(now) {
			continue
		}
		conv.CommissionStatus = domain.StatusAvailable
		result.Count++
		if conv.CommissionAmountCents != nil {
			result.TotalAmountCents += *conv.CommissionAmountCents
		}
	}
	return result, nil
}

func (f *fakeStore) MarkAvailable(_ context.Context, id uuid.UUID) (bool, error) {
	conv, ok := f.conversions[id]
	if !ok || conv.CommissionStatus != domain.StatusHeld {
		return false, nil
	}
	conv.CommissionStatus = domain.StatusAvailable
	return true, nil
}

func (f *fakeStore) MarkPaid(_ context.Context, affiliateID uuid.UUID, paidAt time.Time) (repository.ReleaseResult, error) {
	var result repository.ReleaseResult
	for _, conv := range f.conversions {
		if conv.AffiliateID != affiliateID || conv.CommissionStatus != domain.StatusAvailable {
			continue
		}
		conv.CommissionStatus = domain.StatusPaid
		conv.PaidAt = &paidAt
		result.Count++
		if conv.CommissionAmountCents != nil {
			result.TotalAmountCents += *conv.CommissionAmountCents
		}
	}
	return result, nil
}

func (f *fakeStore) AvailableCommissionCents(_ context.Context, affiliateID uuid.UUID) (int64, error) {
	return f.sum(affiliateID, domain.StatusAvailable), nil
}

func (f *fakeStore) PaidCommissionCents(_ context.Context, affiliateID uuid.UUID) (int64, error) {
	return f.sum(affiliateID, domain.StatusPaid), nil
}

func (f *fakeStore) sum(affiliateID uuid.UUID, status domain.CommissionStatus) int64 {
	var total int64
	for _, conv := range f.conversions {
		if conv.AffiliateID == affiliateID && conv.ConversionType == domain.ConversionSale && conv.CommissionStatus == status {
			if conv.CommissionAmountCents != nil {
				total += *conv.CommissionAmountCents
			}
		}
	}
	return total
}

type fakeResolver struct {
	affiliate *AttributedAffiliate
}

func (f *fakeResolver) ResolveAffiliate(context.Context, string) (*AttributedAffiliate, error) {
	return f.affiliate, nil
}

type fakePolicy struct {
	holdDays int
	minimum  int64
}

func (f *fakePolicy) CommissionHoldDays(context.Context) int  { return f.holdDays }
func (f *fakePolicy) MinimumPayoutCents(context.Context) int64 { return f.minimum }

type nopBus struct{}

func (nopBus) Publish(context.Context, events.Event)          {}
func (nopBus) PublishSync(context.Context, events.Event) error { return nil }
func (nopBus) Subscribe(string, events.Handler)               {}

func newTestService(store Store, resolver AffiliateResolver, policy HoldPolicy, at time.Time) *Service {
	svc := New(store, resolver, nil, policy, nopBus{}, logger.New("development"))
	svc.now = func() time.Time { return at }
	return svc
}

func TestRecordSaleCreatesHeldCommission(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeStore()
	affiliate := &AttributedAffiliate{ID: uuid.New(), ReferralCode: "abc123", CommissionRate: 0.1}
	svc := newTestService(store, &fakeResolver{affiliate: affiliate}, &fakePolicy{holdDays: 30}, now)

	created, err := svc.RecordSale(context.Background(), SaleInput{
		AppointmentID:  uuid.New(),
		AffiliateCode:  "abc123",
		SaleValueCents: 10000,
		Outcome:        OutcomeConverted,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected a commission to be created")
	}

	if len(store.conversions) != 1 {
		t.Fatalf("expected 1 conversion, got %d", len(store.conversions))
	}
	for _, conv := range store.conversions {
		if conv.CommissionStatus != domain.StatusHeld {
			t.Fatalf("expected held status, got %s", conv.CommissionStatus)
		}
		if conv.CommissionAmountCents == nil || *conv.CommissionAmountCents != 1000 {
			t.Fatalf("expected commission of 1000 cents, got %v", conv.CommissionAmountCents)
		}
		want := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
		if conv.HoldUntil == nil || !conv.HoldUntil.Equal(want) {
			t.Fatalf("expected hold until %v, got %v", want, conv.HoldUntil)
		}
	}
}

func TestRecordSaleRetriedUpdateIsSuppressed(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeStore()
	affiliate := &AttributedAffiliate{ID: uuid.New(), ReferralCode: "abc123", CommissionRate: 0.1}
	svc := newTestService(store, &fakeResolver{affiliate: affiliate}, &fakePolicy{holdDays: 30}, now)

	appointmentID := uuid.New()
	first, err := svc.RecordSale(context.Background(), SaleInput{
		AppointmentID:  appointmentID,
		AffiliateCode:  "abc123",
		SaleValueCents: 10000,
		Outcome:        OutcomeConverted,
	})
	if err != nil || !first {
		t.Fatalf("expected first sale to be recorded, got created=%v err=%v", first, err)
	}

	// Retry with a different sale value still lands on the same appointment.
	second, err := svc.RecordSale(context.Background(), SaleInput{
		AppointmentID:  appointmentID,
		AffiliateCode:  "abc123",
		SaleValueCents: 15000,
		Outcome:        OutcomeConverted,
	})
	if err != nil {
		t.Fatalf("expected suppressed duplicate, got error: %v", err)
	}
	if second {
		t.Fatal("expected duplicate sale to be suppressed")
	}
	if len(store.conversions) != 1 {
		t.Fatalf("expected 1 conversion after retry, got %d", len(store.conversions))
	}
	for _, conv := range store.conversions {
		if *conv.CommissionAmountCents != 1000 {
			t.Fatalf("expected original commission of 1000 to survive, got %d", *conv.CommissionAmountCents)
		}
	}
}

func TestRecordSaleSkipsWhenAlreadyConverted(t *testing.T) {
	store := newFakeStore()
	affiliate := &AttributedAffiliate{ID: uuid.New(), ReferralCode: "abc123", CommissionRate: 0.1}
	svc := newTestService(store, &fakeResolver{affiliate: affiliate}, &fakePolicy{holdDays: 30}, time.Now())

	created, err := svc.RecordSale(context.Background(), SaleInput{
		AppointmentID:   uuid.New(),
		AffiliateCode:   "abc123",
		SaleValueCents:  10000,
		PreviousOutcome: OutcomeConverted,
		Outcome:         OutcomeConverted,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created || len(store.conversions) != 0 {
		t.Fatal("expected re-save of converted outcome to leave the ledger alone")
	}
}

func TestRecordSaleUnresolvedAffiliateIsOrganic(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeResolver{affiliate: nil}, &fakePolicy{holdDays: 30}, time.Now())

	created, err := svc.RecordSale(context.Background(), SaleInput{
		AppointmentID:  uuid.New(),
		AffiliateCode:  "unknown",
		SaleValueCents: 10000,
		Outcome:        OutcomeConverted,
	})
	if err != nil {
		t.Fatalf("expected organic sale to be skipped quietly, got error: %v", err)
	}
	if created {
		t.Fatal("expected no commission for an unresolved code")
	}
}

func TestReleaseSweepRespectsHoldWindow(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeStore()
	affiliate := &AttributedAffiliate{ID: uuid.New(), ReferralCode: "abc123", CommissionRate: 0.1}
	svc := newTestService(store, &fakeResolver{affiliate: affiliate}, &fakePolicy{holdDays: 30}, created)

	if _, err := svc.RecordSale(context.Background(), SaleInput{
		AppointmentID:  uuid.New(),
		AffiliateCode:  "abc123",
		SaleValueCents: 10000,
		Outcome:        OutcomeConverted,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Mid-hold sweep releases nothing.
	svc.now = func() time.Time { return time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) }
	result, err := svc.ReleaseDue(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Count != 0 {
		t.Fatalf("expected nothing released on Jan 15, got %d", result.Count)
	}

	// After the hold elapses the commission becomes available.
	svc.now = func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) }
	result, err = svc.ReleaseDue(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Count != 1 || result.TotalAmountCents != 1000 {
		t.Fatalf("expected 1 release of 1000 cents on Feb 1, got %d of %d", result.Count, result.TotalAmountCents)
	}

	// Re-running the sweep is a no-op.
	result, err = svc.ReleaseDue(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Count != 0 {
		t.Fatalf("expected idempotent re-run, got %d releases", result.Count)
	}
}

func TestForceReleaseRejectsNonHeldStatus(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeResolver{}, &fakePolicy{holdDays: 30}, time.Now())

	conv := &repository.Conversion{
		ID:               uuid.New(),
		AffiliateID:      uuid.New(),
		ConversionType:   domain.ConversionSale,
		CommissionStatus: domain.StatusPaid,
	}
	store.conversions[conv.ID] = conv

	err := svc.ForceRelease(context.Background(), conv.ID)
	if err == nil {
		t.Fatal("expected force-release of a paid commission to fail")
	}
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if !strings.Contains(err.Error(), "not in held status") {
		t.Fatalf("expected explicit status message, got %q", err.Error())
	}
	if store.conversions[conv.ID].CommissionStatus != domain.StatusPaid {
		t.Fatal("expected the record to be unchanged")
	}
}

func TestForceReleaseMovesHeldToAvailable(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeResolver{}, &fakePolicy{holdDays: 30}, time.Now())

	amount := int64(500)
	conv := &repository.Conversion{
		ID:                    uuid.New(),
		AffiliateID:           uuid.New(),
		ConversionType:        domain.ConversionSale,
		CommissionAmountCents: &amount,
		CommissionStatus:      domain.StatusHeld,
	}
	store.conversions[conv.ID] = conv

	if err := svc.ForceRelease(context.Background(), conv.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.conversions[conv.ID].CommissionStatus != domain.StatusAvailable {
		t.Fatalf("expected available, got %s", store.conversions[conv.ID].CommissionStatus)
	}
}

func TestPayoutEnforcesMinimum(t *testing.T) {
	store := newFakeStore()
	affiliateID := uuid.New()
	amount := int64(400)
	conv := &repository.Conversion{
		ID:                    uuid.New(),
		AffiliateID:           affiliateID,
		ConversionType:        domain.ConversionSale,
		CommissionAmountCents: &amount,
		CommissionStatus:      domain.StatusAvailable,
	}
	store.conversions[conv.ID] = conv

	svc := newTestService(store, &fakeResolver{}, &fakePolicy{holdDays: 30, minimum: 500}, time.Now())

	if _, err := svc.Payout(context.Background(), affiliateID); apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict below minimum payout, got %v", err)
	}

	svc = newTestService(store, &fakeResolver{}, &fakePolicy{holdDays: 30, minimum: 300}, time.Now())
	result, err := svc.Payout(context.Background(), affiliateID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Count != 1 || result.TotalAmountCents != 400 {
		t.Fatalf("expected 1 payout of 400 cents, got %d of %d", result.Count, result.TotalAmountCents)
	}
	if store.conversions[conv.ID].CommissionStatus != domain.StatusPaid {
		t.Fatal("expected the commission to be paid")
	}
}
