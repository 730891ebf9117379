package service

import (
	"testing"
	"time"
)

func TestGranularityForSingleDayIsHourly(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	if got := granularityFor(from, from.Add(24*time.Hour)); got != GranularityHour {
		t.Fatalf("expected hourly granularity for a 24h range, got %s", got)
	}
	if got := granularityFor(from, from.Add(24*time.Hour+time.Minute)); got != GranularityDay {
		t.Fatalf("expected daily granularity beyond 24h, got %s", got)
	}
}

func TestBucketRangesClampsToRange(t *testing.T) {
	from := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	to := time.Date(2024, 3, 3, 6, 0, 0, 0, time.UTC)

	buckets := bucketRanges(from, to, GranularityDay)
	if len(buckets) != 3 {
		t.Fatalf("expected 3 day buckets, got %d", len(buckets))
	}
	if !buckets[0].Start.Equal(from) {
		t.Fatalf("expected first bucket clamped to range start, got %v", buckets[0].Start)
	}
	if !buckets[0].End.Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected first bucket to end at midnight, got %v", buckets[0].End)
	}
	if !buckets[2].End.Equal(to) {
		t.Fatalf("expected last bucket clamped to range end, got %v", buckets[2].End)
	}
}

func TestBucketRangesHourly(t *testing.T) {
	from := time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 12, 45, 0, 0, time.UTC)

	buckets := bucketRanges(from, to, GranularityHour)
	if len(buckets) != 3 {
		t.Fatalf("expected 3 hour buckets, got %d", len(buckets))
	}
	if !buckets[1].Start.Equal(time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected middle bucket aligned to the hour, got %v", buckets[1].Start)
	}
}

func TestBucketRangesEmptyWindow(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := bucketRanges(at, at, GranularityDay); got != nil {
		t.Fatalf("expected no buckets for an empty window, got %d", len(got))
	}
}

func TestCountIntoIgnoresOutOfRangeTimes(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	buckets := bucketRanges(from, from.Add(48*time.Hour), GranularityDay)

	times := []time.Time{
		from.Add(time.Hour),      // day one
		from.Add(30 * time.Hour), // day two
		from.Add(31 * time.Hour), // day two
		from.Add(-time.Minute),   // before range
		from.Add(48 * time.Hour), // exactly at end, excluded
	}
	countInto(buckets, times, func(b *Bucket) *int64 { return &b.Clicks })

	if buckets[0].Clicks != 1 || buckets[1].Clicks != 2 {
		t.Fatalf("unexpected click counts: %d, %d", buckets[0].Clicks, buckets[1].Clicks)
	}
}

func TestSpreadCommissionRemainderGoesToEarliestActiveBucket(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	buckets := bucketRanges(from, from.Add(72*time.Hour), GranularityDay)
	buckets[0].Clicks = 2
	buckets[2].Bookings = 1

	if !spreadCommission(buckets, 1001) {
		t.Fatal("expected spread to succeed over active buckets")
	}
	if buckets[0].CommissionCents != 501 {
		t.Fatalf("expected earliest active bucket to absorb the remainder, got %d", buckets[0].CommissionCents)
	}
	if buckets[1].CommissionCents != 0 {
		t.Fatalf("expected inactive bucket to stay empty, got %d", buckets[1].CommissionCents)
	}
	if buckets[2].CommissionCents != 500 {
		t.Fatalf("expected even share in second active bucket, got %d", buckets[2].CommissionCents)
	}
}

func TestSpreadCommissionWithoutActivity(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	buckets := bucketRanges(from, from.Add(24*time.Hour), GranularityDay)

	if spreadCommission(buckets, 1000) {
		t.Fatal("expected spread to report no activity")
	}
	if spreadCommission(nil, 1000) {
		t.Fatal("expected spread over no buckets to report no activity")
	}
}
