package domain

import (
	"testing"
	"time"
)

func TestCanTransitionAllowsForwardMovesOnly(t *testing.T) {
	allowed := [][2]CommissionStatus{
		{StatusHeld, StatusAvailable},
		{StatusAvailable, StatusPaid},
	}
	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}

	rejected := [][2]CommissionStatus{
		{StatusHeld, StatusPaid},
		{StatusAvailable, StatusHeld},
		{StatusPaid, StatusAvailable},
		{StatusPaid, StatusHeld},
		{StatusHeld, StatusHeld},
		{StatusPaid, StatusPaid},
	}
	for _, pair := range rejected {
		if CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be rejected", pair[0], pair[1])
		}
	}
}

func TestCommissionCentsRoundsHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		saleCents int64
		rate      float64
		want      int64
	}{
		{10000, 0.1, 1000},
		{9999, 0.1, 1000},
		{105, 0.1, 11},
		{100, 0.333, 33},
		{0, 0.5, 0},
	}
	for _, tc := range cases {
		if got := CommissionCents(tc.saleCents, tc.rate); got != tc.want {
			t.Fatalf("CommissionCents(%d, %v) = %d, want %d", tc.saleCents, tc.rate, got, tc.want)
		}
	}
}

func TestHoldUntilAddsCalendarDays(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	want := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	if got := HoldUntil(created, 30); !got.Equal(want) {
		t.Fatalf("expected hold until %v, got %v", want, got)
	}
}
