// Package domain holds the commission ledger's state machine and pure money
// calculations. The transition table lives here, owned by the ledger, so no
// caller can write an arbitrary status string.
package domain

import (
	"math"
	"time"
)

// CommissionStatus is the lifecycle state of a commission.
type CommissionStatus string

const (
	// StatusHeld is the initial state: earned but inside the hold window.
	StatusHeld CommissionStatus = "held"
	// StatusAvailable means the hold elapsed (or was overridden) and the
	// commission is payable.
	StatusAvailable CommissionStatus = "available"
	// StatusPaid is terminal.
	StatusPaid CommissionStatus = "paid"
)

// Valid reports whether the status is a known lifecycle state.
func (s CommissionStatus) Valid() bool {
	switch s {
	case StatusHeld, StatusAvailable, StatusPaid:
		return true
	}
	return false
}

// CanTransition reports whether a status change is legal. The only moves are
// held to available and available to paid; a forced release takes the same
// held to available edge, just before the hold elapses. Available and paid
// commissions are never re-held.
func CanTransition(from, to CommissionStatus) bool {
	switch {
	case from == StatusHeld && to == StatusAvailable:
		return true
	case from == StatusAvailable && to == StatusPaid:
		return true
	}
	return false
}

// ConversionType distinguishes booked calls from closed sales.
type ConversionType string

const (
	ConversionBooking ConversionType = "booking"
	ConversionSale    ConversionType = "sale"
)

// CommissionCents computes the commission for a sale, rounding half away
// from zero.
func CommissionCents(saleValueCents int64, rate float64) int64 {
	return int64(math.Round(float64(saleValueCents) * rate))
}

// HoldUntil computes when a held commission becomes releasable.
func HoldUntil(createdAt time.Time, holdDays int) time.Time {
	return createdAt.AddDate(0, 0, holdDays)
}
