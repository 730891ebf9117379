package service

import (
	"strings"
)

// OutcomeConverted is the appointment outcome that counts as a sale.
const OutcomeConverted = "converted"

// normalizeLink ensures a raw code carries the leading slash used by stored
// custom links, so "summer-promo" and "/summer-promo" resolve identically.
func normalizeLink(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if !strings.HasPrefix(trimmed, "/") {
		return "/" + trimmed
	}
	return trimmed
}

// normalizeEmail lowercases and trims an email for identity comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsSaleFor reports whether an appointment counts as a sale for the given
// referral code. Sale classification is deliberately looser than booking
// classification: it only requires the affiliate tag and a converted outcome,
// because sales can come from direct-booking flows that never touch the quiz.
// Callers reconciling funnel counts must not assume booking-count bounds
// sale-count.
func IsSaleFor(referralCode, appointmentCode, outcome string) bool {
	if referralCode == "" || appointmentCode == "" {
		return false
	}
	return appointmentCode == referralCode && outcome == OutcomeConverted
}

// isBookingEmailMatch reports whether an appointment's customer email belongs
// to the affiliate's own qualifying quiz leads. Booking classification is
// stricter than sale classification: a manually tagged or direct booking that
// never went through the affiliate's quiz funnel does not count as a booked
// call.
func isBookingEmailMatch(customerEmail string, leadEmails map[string]struct{}) bool {
	if len(leadEmails) == 0 {
		return false
	}
	_, ok := leadEmails[normalizeEmail(customerEmail)]
	return ok
}
