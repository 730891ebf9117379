package service

import "testing"

func TestNormalizeLinkAddsLeadingSlash(t *testing.T) {
	if got := normalizeLink("summer-promo"); got != "/summer-promo" {
		t.Fatalf("expected /summer-promo, got %q", got)
	}
}

func TestNormalizeLinkKeepsExistingSlash(t *testing.T) {
	if got := normalizeLink("/summer-promo"); got != "/summer-promo" {
		t.Fatalf("expected /summer-promo, got %q", got)
	}
}

func TestNormalizeLinkEmptyStaysEmpty(t *testing.T) {
	if got := normalizeLink("   "); got != "" {
		t.Fatalf("expected empty link, got %q", got)
	}
}

func TestIsSaleForRequiresConvertedOutcome(t *testing.T) {
	if IsSaleFor("abc123", "abc123", "no_answer") {
		t.Fatal("expected non-converted outcome not to count as a sale")
	}
	if !IsSaleFor("abc123", "abc123", "converted") {
		t.Fatal("expected converted tagged appointment to count as a sale")
	}
}

func TestIsSaleForRequiresMatchingCode(t *testing.T) {
	if IsSaleFor("abc123", "other", "converted") {
		t.Fatal("expected mismatched code not to count as a sale")
	}
	if IsSaleFor("", "", "converted") {
		t.Fatal("expected empty codes not to count as a sale")
	}
}

func TestIsSaleForIgnoresQuizFunnel(t *testing.T) {
	// Sale classification is looser than booking classification on purpose:
	// no lead email set is consulted.
	if !IsSaleFor("abc123", "abc123", "converted") {
		t.Fatal("expected direct-booking sale to count without a quiz lead")
	}
}

func TestBookingEmailMatchIsStrict(t *testing.T) {
	leads := map[string]struct{}{"jane@x.com": {}}

	if !isBookingEmailMatch(" JANE@x.com ", leads) {
		t.Fatal("expected normalized email to match")
	}
	if isBookingEmailMatch("other@x.com", leads) {
		t.Fatal("expected unknown email not to match")
	}
	if isBookingEmailMatch("jane@x.com", nil) {
		t.Fatal("expected empty lead set not to match")
	}
}
