// Package settings provides keyed business configuration backed by the
// settings table. A missing or unparsable value never fails the calling
// operation: every getter degrades to a documented default and logs the
// fallback.
package settings

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"funnelops_backend/platform/logger"
)

// Setting keys.
const (
	KeyCommissionHoldDays     = "commission_hold_days"
	KeyQualificationThreshold = "qualification_threshold"
	KeyTerminalOutcomes       = "terminal_outcomes"
	KeyMinimumPayoutCents     = "minimum_payout_cents"
	KeyPayoutSchedule         = "payout_schedule"
)

// Defaults applied when a setting is absent.
const (
	DefaultCommissionHoldDays     = 30
	DefaultQualificationThreshold = 0
	DefaultMinimumPayoutCents     = int64(0)
	DefaultPayoutSchedule         = "monthly"
)

// DefaultTerminalOutcomes are the outcomes treated as final when the setting
// is absent.
var DefaultTerminalOutcomes = []string{"converted", "not_interested", "wrong_number"}

// Store is the persistence dependency of the service.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Upsert(ctx context.Context, key, value string) error
	List(ctx context.Context) (map[string]string, error)
}

// Service reads typed settings with soft defaults.
type Service struct {
	store Store
	log   *logger.Logger
}

// NewService creates a new settings service.
func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// CommissionHoldDays returns the configured commission hold period in days.
func (s *Service) CommissionHoldDays(ctx context.Context) int {
	return s.intSetting(ctx, KeyCommissionHoldDays, DefaultCommissionHoldDays)
}

// QualificationThreshold returns the minimum number of answered questions
// required before a completed session is considered for qualification.
func (s *Service) QualificationThreshold(ctx context.Context) int {
	return s.intSetting(ctx, KeyQualificationThreshold, DefaultQualificationThreshold)
}

// TerminalOutcomes returns the set of outcomes considered final.
func (s *Service) TerminalOutcomes(ctx context.Context) []string {
	raw, err := s.store.Get(ctx, KeyTerminalOutcomes)
	if err != nil {
		s.fallback(KeyTerminalOutcomes, strings.Join(DefaultTerminalOutcomes, ","), err)
		return DefaultTerminalOutcomes
	}

	parts := strings.Split(raw, ",")
	outcomes := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			outcomes = append(outcomes, trimmed)
		}
	}
	if len(outcomes) == 0 {
		return DefaultTerminalOutcomes
	}
	return outcomes
}

// MinimumPayoutCents returns the minimum payable commission total.
func (s *Service) MinimumPayoutCents(ctx context.Context) int64 {
	raw, err := s.store.Get(ctx, KeyMinimumPayoutCents)
	if err != nil {
		s.fallback(KeyMinimumPayoutCents, DefaultMinimumPayoutCents, err)
		return DefaultMinimumPayoutCents
	}

	value, parseErr := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if parseErr != nil || value < 0 {
		s.fallback(KeyMinimumPayoutCents, DefaultMinimumPayoutCents, parseErr)
		return DefaultMinimumPayoutCents
	}
	return value
}

// PayoutSchedule returns the payout cadence label.
func (s *Service) PayoutSchedule(ctx context.Context) string {
	raw, err := s.store.Get(ctx, KeyPayoutSchedule)
	if err != nil || strings.TrimSpace(raw) == "" {
		s.fallback(KeyPayoutSchedule, DefaultPayoutSchedule, err)
		return DefaultPayoutSchedule
	}
	return strings.TrimSpace(raw)
}

// Set stores a raw setting value.
func (s *Service) Set(ctx context.Context, key, value string) error {
	return s.store.Upsert(ctx, key, value)
}

// All returns every stored setting for the admin surface.
func (s *Service) All(ctx context.Context) (map[string]string, error) {
	return s.store.List(ctx)
}

func (s *Service) intSetting(ctx context.Context, key string, fallback int) int {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		s.fallback(key, fallback, err)
		return fallback
	}

	value, parseErr := strconv.Atoi(strings.TrimSpace(raw))
	if parseErr != nil || value < 0 {
		s.fallback(key, fallback, parseErr)
		return fallback
	}
	return value
}

func (s *Service) fallback(key string, def any, err error) {
	if s.log == nil {
		return
	}
	// Absent keys are routine; anything else deserves the stronger log.
	if err != nil && !errors.Is(err, ErrNotSet) {
		s.log.Error("setting lookup failed", "key", key, "error", err)
	}
	s.log.SettingFallback(key, def)
}
