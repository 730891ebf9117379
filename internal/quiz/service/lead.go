package service

import (
	"sort"
	"strings"
	"time"

	"funnelops_backend/internal/quiz/repository"

	"github.com/google/uuid"
)

// LeadInfo is the qualification verdict for a single session.
type LeadInfo struct {
	IsLead bool
	Name   string
	Email  string
}

// Lead is a qualified session reduced to the fields dedup and reporting need.
type Lead struct {
	SessionID   uuid.UUID
	Name        string
	Email       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// NormalizeEmail lowercases and trims an email for identity comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Qualify decides whether a session is a contactable lead: the session must be
// completed and both the name-role and email-role answers must be non-empty
// after trimming. Malformed input is never an error, just not a lead.
func Qualify(d repository.SessionDetail) LeadInfo {
	if d.Status != "completed" {
		return LeadInfo{}
	}

	name := trimmed(d.NameValue)
	email := trimmed(d.EmailValue)
	if name == "" || email == "" {
		return LeadInfo{}
	}

	return LeadInfo{IsLead: true, Name: name, Email: email}
}

// Dedupe collapses leads to one entry per normalized email, keeping the entry
// with the latest completion time (started time when completion is absent).
// Equal times fall back to session ID ordering so the result is deterministic.
// The returned slice is sorted by email; this is the canonical lead count.
func Dedupe(leads []Lead) []Lead {
	byEmail := make(map[string]Lead, len(leads))
	for _, lead := range leads {
		key := NormalizeEmail(lead.Email)
		if key == "" {
			continue
		}

		current, exists := byEmail[key]
		if !exists || newerThan(lead, current) {
			byEmail[key] = lead
		}
	}

	result := make([]Lead, 0, len(byEmail))
	for _, lead := range byEmail {
		result = append(result, lead)
	}
	sort.Slice(result, func(i, j int) bool {
		return NormalizeEmail(result[i].Email) < NormalizeEmail(result[j].Email)
	})
	return result
}

func newerThan(candidate, current Lead) bool {
	ct, xt := effectiveTime(candidate), effectiveTime(current)
	if ct.After(xt) {
		return true
	}
	if ct.Equal(xt) {
		return candidate.SessionID.String() < current.SessionID.String()
	}
	return false
}

func effectiveTime(l Lead) time.Time {
	if l.CompletedAt != nil {
		return *l.CompletedAt
	}
	return l.StartedAt
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
