package service

import (
	"testing"
	"time"

	"funnelops_backend/internal/quiz/repository"

	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

func TestQualifyRequiresCompletedStatus(t *testing.T) {
	detail := repository.SessionDetail{
		Status:     "in_progress",
		NameValue:  strPtr("Jane"),
		EmailValue: strPtr("jane@x.com"),
	}
	if Qualify(detail).IsLead {
		t.Fatal("expected in-progress session not to qualify")
	}
}

func TestQualifyEmptyEmailNotALead(t *testing.T) {
	detail := repository.SessionDetail{
		Status:     "completed",
		NameValue:  strPtr("Jane"),
		EmailValue: strPtr(""),
	}
	if Qualify(detail).IsLead {
		t.Fatal("expected session with empty email not to qualify")
	}
}

func TestQualifyWhitespaceOnlyAnswersNotALead(t *testing.T) {
	detail := repository.SessionDetail{
		Status:     "completed",
		NameValue:  strPtr("   "),
		EmailValue: strPtr("jane@x.com"),
	}
	if Qualify(detail).IsLead {
		t.Fatal("expected whitespace-only name not to qualify")
	}
}

func TestQualifyMissingAnswersNotALead(t *testing.T) {
	detail := repository.SessionDetail{Status: "completed"}
	if Qualify(detail).IsLead {
		t.Fatal("expected session without answers not to qualify")
	}
}

func TestQualifyTrimsAnswers(t *testing.T) {
	detail := repository.SessionDetail{
		Status:     "completed",
		NameValue:  strPtr("  Jane "),
		EmailValue: strPtr(" jane@x.com "),
	}

	info := Qualify(detail)
	if !info.IsLead {
		t.Fatal("expected session to qualify")
	}
	if info.Name != "Jane" {
		t.Fatalf("expected trimmed name, got %q", info.Name)
	}
	if info.Email != "jane@x.com" {
		t.Fatalf("expected trimmed email, got %q", info.Email)
	}
}

func TestDedupeKeepsLatestCompletion(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(2 * time.Hour)

	older := Lead{SessionID: uuid.New(), Email: "jane@x.com", CompletedAt: &t1}
	newer := Lead{SessionID: uuid.New(), Email: "JANE@x.com ", CompletedAt: &t2}

	result := Dedupe([]Lead{older, newer})
	if len(result) != 1 {
		t.Fatalf("expected 1 deduped lead, got %d", len(result))
	}
	if result[0].SessionID != newer.SessionID {
		t.Fatal("expected the later completion to win")
	}
}

func TestDedupeFallsBackToStartedAt(t *testing.T) {
	early := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)
	completed := early.Add(30 * time.Minute)

	withCompletion := Lead{SessionID: uuid.New(), Email: "a@x.com", StartedAt: early, CompletedAt: &completed}
	incompleteButLater := Lead{SessionID: uuid.New(), Email: "a@x.com", StartedAt: late}

	result := Dedupe([]Lead{withCompletion, incompleteButLater})
	if len(result) != 1 {
		t.Fatalf("expected 1 deduped lead, got %d", len(result))
	}
	if result[0].SessionID != incompleteButLater.SessionID {
		t.Fatal("expected startedAt to stand in for missing completedAt")
	}
}

func TestDedupeTiesAreDeterministic(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := Lead{SessionID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), Email: "tie@x.com", CompletedAt: &at}
	b := Lead{SessionID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), Email: "tie@x.com", CompletedAt: &at}

	first := Dedupe([]Lead{a, b})
	second := Dedupe([]Lead{b, a})
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected 1 deduped lead, got %d and %d", len(first), len(second))
	}
	if first[0].SessionID != second[0].SessionID {
		t.Fatal("expected tie-breaking to be input-order independent")
	}
}

func TestDedupeOneEntryPerNormalizedEmail(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	leads := []Lead{
		{SessionID: uuid.New(), Email: "a@x.com", CompletedAt: &at},
		{SessionID: uuid.New(), Email: " A@X.COM", CompletedAt: &at},
		{SessionID: uuid.New(), Email: "b@x.com", CompletedAt: &at},
		{SessionID: uuid.New(), Email: "", CompletedAt: &at},
	}

	result := Dedupe(leads)
	if len(result) != 2 {
		t.Fatalf("expected 2 deduped leads, got %d", len(result))
	}
	if NormalizeEmail(result[0].Email) != "a@x.com" || NormalizeEmail(result[1].Email) != "b@x.com" {
		t.Fatalf("expected sorted unique emails, got %q and %q", result[0].Email, result[1].Email)
	}
}
