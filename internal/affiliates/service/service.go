package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"funnelops_backend/internal/affiliates/repository"
	"funnelops_backend/internal/affiliates/transport"
	"funnelops_backend/platform/apperr"
	"funnelops_backend/platform/logger"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// LeadEmailSource exposes the quiz module's qualifying lead emails for
// booking classification.
type LeadEmailSource interface {
	QualifiedLeadEmails(ctx context.Context, affiliateCode string) (map[string]struct{}, error)
}

// PaidCommissionReader exposes the ledger's paid totals for the affiliate
// summary output.
type PaidCommissionReader interface {
	PaidCommissionCents(ctx context.Context, affiliateID uuid.UUID) (int64, error)
}

// LinkBuilder provides the public base URL for referral links.
type LinkBuilder interface {
	GetAppBaseURL() string
}

// Service provides affiliate management and attribution resolution.
type Service struct {
	repo       *repository.Repository
	leadSource LeadEmailSource
	paid       PaidCommissionReader
	links      LinkBuilder
	log        *logger.Logger
}

// New creates a new affiliates service.
func New(repo *repository.Repository, leadSource LeadEmailSource, paid PaidCommissionReader, links LinkBuilder, log *logger.Logger) *Service {
	return &Service{repo: repo, leadSource: leadSource, paid: paid, links: links, log: log}
}

// SetLeadSource wires the quiz lead email source (set by the composition root
// to break the module cycle).
func (s *Service) SetLeadSource(src LeadEmailSource) {
	s.leadSource = src
}

// SetPaidCommissionReader wires the ledger's paid totals (set by the
// composition root to break the module cycle).
func (s *Service) SetPaidCommissionReader(r PaidCommissionReader) {
	s.paid = r
}

// ResolveCode maps a raw affiliate code to an affiliate: first by exact
// referral code, then by custom link with the leading slash normalized.
// An unresolved code returns (nil, nil) — organic traffic, never an error.
func (s *Service) ResolveCode(ctx context.Context, raw string) (*repository.Affiliate, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return nil, nil
	}

	affiliate, err := s.repo.GetByReferralCode(ctx, code)
	if err != nil || affiliate != nil {
		return affiliate, err
	}

	return s.repo.GetByCustomLink(ctx, normalizeLink(code))
}

// TrackClick records a click for the affiliate behind a raw code. Unresolved
// codes are ignored.
func (s *Service) TrackClick(ctx context.Context, rawCode string) error {
	affiliate, err := s.ResolveCode(ctx, rawCode)
	if err != nil || affiliate == nil {
		return err
	}
	return s.repo.RecordClick(ctx, affiliate.ID, affiliate.ReferralCode)
}

// ClickTarget records a click for a raw code and returns the funnel URL the
// visitor should land on, tagged with the resolved referral code. Unresolved
// codes still redirect, untagged.
func (s *Service) ClickTarget(ctx context.Context, rawCode string) (string, error) {
	base := strings.TrimSuffix(s.links.GetAppBaseURL(), "/")

	affiliate, err := s.ResolveCode(ctx, rawCode)
	if err != nil {
		return "", err
	}
	if affiliate == nil {
		return base, nil
	}

	if err := s.repo.RecordClick(ctx, affiliate.ID, affiliate.ReferralCode); err != nil {
		return "", err
	}
	return base + "?ref=" + affiliate.ReferralCode, nil
}

// CountLead bumps the cached lead counter for the affiliate behind a raw
// code. Unresolved codes are ignored. The counter is a cache; the quiz
// module's deduplicated scan stays canonical.
func (s *Service) CountLead(ctx context.Context, rawCode string) error {
	affiliate, err := s.ResolveCode(ctx, rawCode)
	if err != nil || affiliate == nil {
		return err
	}
	return s.repo.IncrementLeads(ctx, affiliate.ID)
}

// IsBookingFor reports whether an appointment counts as an affiliate-sourced
// booked call: the customer email must appear among the affiliate's own
// qualifying quiz leads.
func (s *Service) IsBookingFor(ctx context.Context, affiliate *repository.Affiliate, customerEmail string) (bool, error) {
	if affiliate == nil || s.leadSource == nil {
		return false, nil
	}

	emails, err := s.leadSource.QualifiedLeadEmails(ctx, affiliate.ReferralCode)
	if err != nil {
		return false, err
	}
	return isBookingEmailMatch(customerEmail, emails), nil
}

// Create registers a new affiliate. New affiliates start unapproved.
func (s *Service) Create(ctx context.Context, req transport.CreateAffiliateRequest) (*transport.AffiliateResponse, error) {
	now := time.Now()
	affiliate := &repository.Affiliate{
		ID:             uuid.New(),
		Name:           strings.TrimSpace(req.Name),
		Email:          normalizeEmail(req.Email),
		ReferralCode:   newReferralCode(),
		CommissionRate: req.CommissionRate,
		Tier:           "standard",
		IsApproved:     false,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if req.CustomLink != "" {
		link := normalizeLink(req.CustomLink)
		affiliate.CustomLink = &link
	}

	if err := s.repo.Create(ctx, affiliate); err != nil {
		return nil, err
	}
	return s.response(ctx, affiliate), nil
}

// Get returns a single affiliate.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*transport.AffiliateResponse, error) {
	affiliate, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.response(ctx, affiliate), nil
}

// List returns all affiliates.
func (s *Service) List(ctx context.Context) ([]transport.AffiliateResponse, error) {
	affiliates, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]transport.AffiliateResponse, 0, len(affiliates))
	for i := range affiliates {
		out = append(out, *s.response(ctx, &affiliates[i]))
	}
	return out, nil
}

// Approve marks an affiliate approved.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetApproval(ctx, id, true)
}

// SetActive toggles an affiliate's active flag.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

// ReferralLink builds the public referral URL for an affiliate.
func (s *Service) ReferralLink(affiliate *repository.Affiliate) string {
	base := strings.TrimSuffix(s.links.GetAppBaseURL(), "/")
	if affiliate.CustomLink != nil {
		return base + *affiliate.CustomLink
	}
	return fmt.Sprintf("%s/r/%s", base, affiliate.ReferralCode)
}

// ReferralQR renders the affiliate's referral link as a PNG QR code.
func (s *Service) ReferralQR(ctx context.Context, id uuid.UUID) ([]byte, error) {
	affiliate, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(s.ReferralLink(affiliate), qrcode.Medium, 256)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to render QR code", err)
	}
	return png, nil
}

func (s *Service) response(ctx context.Context, a *repository.Affiliate) *transport.AffiliateResponse {
	resp := &transport.AffiliateResponse{
		ID:                   a.ID,
		Name:                 a.Name,
		Email:                a.Email,
		ReferralCode:         a.ReferralCode,
		CommissionRate:       a.CommissionRate,
		Tier:                 a.Tier,
		TotalClicks:          a.TotalClicks,
		TotalLeads:           a.TotalLeads,
		TotalBookings:        a.TotalBookings,
		TotalSales:           a.TotalSales,
		TotalCommissionCents: a.TotalCommissionCents,
		IsApproved:           a.IsApproved,
		IsActive:             a.IsActive,
		CreatedAt:            a.CreatedAt,
	}
	if a.CustomLink != nil {
		resp.CustomLink = *a.CustomLink
	}

	if s.paid != nil {
		paid, err := s.paid.PaidCommissionCents(ctx, a.ID)
		if err != nil {
			s.log.Error("paid commission lookup failed", "affiliateId", a.ID, "error", err)
		} else {
			resp.TotalPaidCommissionCents = paid
		}
	}
	return resp
}

// newReferralCode derives a short unique tracking code.
func newReferralCode() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:10]
}
