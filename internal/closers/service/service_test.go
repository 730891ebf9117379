package service

import (
	"testing"

	"funnelops_backend/internal/closers/repository"

	"github.com/google/uuid"
)

func eligibleCloser(calls int64) repository.Closer {
	return repository.Closer{ID: uuid.New(), TotalCalls: calls, IsActive: true, IsApproved: true}
}

func TestPickNextPrefersLeastLoaded(t *testing.T) {
	busy := eligibleCloser(5)
	idle := eligibleCloser(1)

	picked := PickNext([]repository.Closer{busy, idle})
	if picked == nil || picked.ID != idle.ID {
		t.Fatal("expected the least-loaded closer to be picked")
	}
}

func TestPickNextSkipsIneligible(t *testing.T) {
	inactive := repository.Closer{ID: uuid.New(), TotalCalls: 0, IsActive: false, IsApproved: true}
	unapproved := repository.Closer{ID: uuid.New(), TotalCalls: 0, IsActive: true, IsApproved: false}
	eligible := eligibleCloser(10)

	picked := PickNext([]repository.Closer{inactive, unapproved, eligible})
	if picked == nil || picked.ID != eligible.ID {
		t.Fatal("expected only active and approved closers to be considered")
	}
}

func TestPickNextNoEligibleCloser(t *testing.T) {
	inactive := repository.Closer{ID: uuid.New(), IsActive: false, IsApproved: true}
	if PickNext([]repository.Closer{inactive}) != nil {
		t.Fatal("expected nil when no closer is eligible")
	}
	if PickNext(nil) != nil {
		t.Fatal("expected nil for an empty pool")
	}
}

func TestPickNextTiesBrokenByID(t *testing.T) {
	a := repository.Closer{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), IsActive: true, IsApproved: true}
	b := repository.Closer{ID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), IsActive: true, IsApproved: true}

	picked := PickNext([]repository.Closer{b, a})
	if picked == nil || picked.ID != a.ID {
		t.Fatal("expected ties to resolve to the smaller ID")
	}
}

func TestRoundRobinFairnessSpread(t *testing.T) {
	pool := []repository.Closer{eligibleCloser(0), eligibleCloser(0), eligibleCloser(0)}

	// Sequential assignments mirror the assignment transaction: pick, then
	// increment the chosen closer's call count.
	for n := 0; n < 10; n++ {
		picked := PickNext(pool)
		if picked == nil {
			t.Fatal("expected a closer to be picked")
		}
		for i := range pool {
			if pool[i].ID == picked.ID {
				pool[i].TotalCalls++
			}
		}
	}

	min, max := pool[0].TotalCalls, pool[0].TotalCalls
	for _, cl := range pool[1:] {
		if cl.TotalCalls < min {
			min = cl.TotalCalls
		}
		if cl.TotalCalls > max {
			max = cl.TotalCalls
		}
	}
	if max-min > 1 {
		t.Fatalf("expected call spread of at most 1, got min=%d max=%d", min, max)
	}
}

func TestThreeClosersThreeAppointments(t *testing.T) {
	pool := []repository.Closer{eligibleCloser(0), eligibleCloser(0), eligibleCloser(0)}

	for n := 0; n < 3; n++ {
		picked := PickNext(pool)
		for i := range pool {
			if pool[i].ID == picked.ID {
				pool[i].TotalCalls++
			}
		}
	}

	for _, cl := range pool {
		if cl.TotalCalls != 1 {
			t.Fatalf("expected every closer to end with 1 call, got %d", cl.TotalCalls)
		}
	}
}

func TestConversionRate(t *testing.T) {
	if got := ConversionRate(3, 10); got != 0.3 {
		t.Fatalf("expected 0.3, got %v", got)
	}
	if got := ConversionRate(1, 0); got != 0 {
		t.Fatalf("expected 0 for zero calls, got %v", got)
	}
}
