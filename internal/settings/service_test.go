package settings

import (
	"context"
	"testing"

	"funnelops_backend/platform/logger"
)

type fakeStore struct {
	values map[string]string
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", ErrNotSet
	}
	return value, nil
}

func (f *fakeStore) Upsert(_ context.Context, key, value string) error {
	f.values[key] = value
	return nil
}

func (f *fakeStore) List(context.Context) (map[string]string, error) {
	return f.values, nil
}

func newTestService(values map[string]string) *Service {
	if values == nil {
		values = make(map[string]string)
	}
	return NewService(&fakeStore{values: values}, logger.New("development"))
}

func TestCommissionHoldDaysDefaultsWhenAbsent(t *testing.T) {
	svc := newTestService(nil)
	if got := svc.CommissionHoldDays(context.Background()); got != DefaultCommissionHoldDays {
		t.Fatalf("expected default %d, got %d", DefaultCommissionHoldDays, got)
	}
}

func TestCommissionHoldDaysReadsStoredValue(t *testing.T) {
	svc := newTestService(map[string]string{KeyCommissionHoldDays: " 45 "})
	if got := svc.CommissionHoldDays(context.Background()); got != 45 {
		t.Fatalf("expected 45, got %d", got)
	}
}

func TestCommissionHoldDaysGarbledValueFallsBack(t *testing.T) {
	svc := newTestService(map[string]string{KeyCommissionHoldDays: "soon"})
	if got := svc.CommissionHoldDays(context.Background()); got != DefaultCommissionHoldDays {
		t.Fatalf("expected fallback %d, got %d", DefaultCommissionHoldDays, got)
	}
}

func TestCommissionHoldDaysNegativeValueFallsBack(t *testing.T) {
	svc := newTestService(map[string]string{KeyCommissionHoldDays: "-5"})
	if got := svc.CommissionHoldDays(context.Background()); got != DefaultCommissionHoldDays {
		t.Fatalf("expected fallback %d, got %d", DefaultCommissionHoldDays, got)
	}
}

func TestTerminalOutcomesParsesCSV(t *testing.T) {
	svc := newTestService(map[string]string{KeyTerminalOutcomes: "converted, wrong_number ,"})
	got := svc.TerminalOutcomes(context.Background())
	if len(got) != 2 || got[0] != "converted" || got[1] != "wrong_number" {
		t.Fatalf("unexpected outcomes: %#v", got)
	}
}

func TestTerminalOutcomesDefaultsWhenEmpty(t *testing.T) {
	svc := newTestService(map[string]string{KeyTerminalOutcomes: " , "})
	got := svc.TerminalOutcomes(context.Background())
	if len(got) != len(DefaultTerminalOutcomes) {
		t.Fatalf("expected defaults, got %#v", got)
	}
}

func TestMinimumPayoutCents(t *testing.T) {
	svc := newTestService(map[string]string{KeyMinimumPayoutCents: "2500"})
	if got := svc.MinimumPayoutCents(context.Background()); got != 2500 {
		t.Fatalf("expected 2500, got %d", got)
	}

	svc = newTestService(nil)
	if got := svc.MinimumPayoutCents(context.Background()); got != DefaultMinimumPayoutCents {
		t.Fatalf("expected default, got %d", got)
	}
}
