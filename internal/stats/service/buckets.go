package service

import "time"

// Granularity of a time series.
const (
	GranularityHour = "hour"
	GranularityDay  = "day"
)

// Bucket is one half-open [Start, End) window with its rollups.
type Bucket struct {
	Start           time.Time
	End             time.Time
	Clicks          int64
	Leads           int64
	Bookings        int64
	Sales           int64
	RevenueCents    int64
	CommissionCents int64
}

// granularityFor picks hourly buckets for single-day ranges and daily
// buckets otherwise.
func granularityFor(from, to time.Time) string {
	if to.Sub(from) <= 24*time.Hour {
		return GranularityHour
	}
	return GranularityDay
}

// bucketRanges splits [from, to) into aligned windows of the given
// granularity. The first and last windows are clamped to the range.
func bucketRanges(from, to time.Time, granularity string) []Bucket {
	if !from.Before(to) {
		return nil
	}

	step := 24 * time.Hour
	start := from.Truncate(24 * time.Hour)
	if granularity == GranularityHour {
		step = time.Hour
		start = from.Truncate(time.Hour)
	}
	if start.Before(from) {
		start = from
	}

	var buckets []Bucket
	for cursor := from; cursor.Before(to); {
		end := cursor.Add(step)
		if granularity == GranularityDay {
			end = cursor.Truncate(24 * time.Hour).Add(24 * time.Hour)
		} else {
			end = cursor.Truncate(time.Hour).Add(time.Hour)
		}
		if end.After(to) {
			end = to
		}
		buckets = append(buckets, Bucket{Start: cursor, End: end})
		cursor = end
	}
	return buckets
}

// bucketIndex finds the bucket containing t, -1 when out of range.
func bucketIndex(buckets []Bucket, t time.Time) int {
	for i := range buckets {
		if !t.Before(buckets[i].Start) && t.Before(buckets[i].End) {
			return i
		}
	}
	return -1
}

// countInto increments a per-bucket counter for each timestamp.
func countInto(buckets []Bucket, times []time.Time, pick func(*Bucket) *int64) {
	for _, t := range times {
		if i := bucketIndex(buckets, t); i >= 0 {
			*pick(&buckets[i])++
		}
	}
}

// spreadCommission distributes a commission total evenly across the buckets
// that saw any click or booking activity. Display heuristic for data recorded
// before per-event tracking: the result approximates, never reconciles.
// Remainder cents land in the earliest active bucket. Returns false when no
// bucket has activity to spread over.
func spreadCommission(buckets []Bucket, totalCents int64) bool {
	var active []int
	for i := range buckets {
		if buckets[i].Clicks > 0 || buckets[i].Bookings > 0 {
			active = append(active, i)
		}
	}
	if len(active) == 0 || totalCents <= 0 {
		return false
	}

	share := totalCents / int64(len(active))
	remainder := totalCents - share*int64(len(active))
	for _, i := range active {
		buckets[i].CommissionCents = share
	}
	buckets[active[0]].CommissionCents += remainder
	return true
}
