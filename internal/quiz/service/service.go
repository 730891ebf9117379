package service

import (
	"context"
	"strings"
	"time"

	"funnelops_backend/internal/events"
	"funnelops_backend/internal/quiz/repository"
	"funnelops_backend/internal/quiz/transport"
	"funnelops_backend/platform/apperr"
	"funnelops_backend/platform/logger"

	"github.com/google/uuid"
)

// AffiliateTracker provides the minimal affiliate operations the quiz funnel
// needs: click tracking at session start and lead counting at completion.
type AffiliateTracker interface {
	TrackClick(ctx context.Context, rawCode string) error
	CountLead(ctx context.Context, rawCode string) error
}

// Thresholds provides the quiz qualification threshold from settings.
type Thresholds interface {
	QualificationThreshold(ctx context.Context) int
}

// Service provides business logic for the quiz funnel: session lifecycle,
// lead qualification, and lead deduplication.
type Service struct {
	repo       *repository.Repository
	tracker    AffiliateTracker
	thresholds Thresholds
	bus        events.Bus
	log        *logger.Logger
}

// New creates a new quiz service.
func New(repo *repository.Repository, tracker AffiliateTracker, thresholds Thresholds, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, tracker: tracker, thresholds: thresholds, bus: bus, log: log}
}

// CreateQuestion adds a question to the quiz definition. The semantic role is
// fixed here, at authoring time; nothing downstream re-derives it from the
// prompt text.
func (s *Service) CreateQuestion(ctx context.Context, req transport.CreateQuestionRequest) (*transport.QuestionResponse, error) {
	q := &repository.Question{
		ID:        uuid.New(),
		Prompt:    strings.TrimSpace(req.Prompt),
		Role:      string(req.Role),
		Position:  req.Position,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return questionResponse(q), nil
}

// ListQuestions returns the quiz definition in display order.
func (s *Service) ListQuestions(ctx context.Context) ([]transport.QuestionResponse, error) {
	questions, err := s.repo.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]transport.QuestionResponse, 0, len(questions))
	for i := range questions {
		out = append(out, *questionResponse(&questions[i]))
	}
	return out, nil
}

// StartSession opens a new quiz session. A present affiliate code is stored
// verbatim for later attribution and counted as a click; an unknown code is
// organic traffic, not an error.
func (s *Service) StartSession(ctx context.Context, req transport.StartSessionRequest) (*transport.SessionResponse, error) {
	session := &repository.Session{
		ID:        uuid.New(),
		Status:    "in_progress",
		StartedAt: time.Now(),
	}

	code := strings.TrimSpace(req.AffiliateCode)
	if code != "" {
		session.AffiliateCode = &code
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	if code != "" && s.tracker != nil {
		if err := s.tracker.TrackClick(ctx, code); err != nil {
			s.log.Error("click tracking failed", "code", code, "error", err)
		}
	}

	return sessionResponse(session), nil
}

// SubmitAnswer records an answer for an in-progress session. Answers are
// write-once; re-submitting the same question is a no-op.
func (s *Service) SubmitAnswer(ctx context.Context, sessionID uuid.UUID, req transport.SubmitAnswerRequest) error {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status != "in_progress" {
		return apperr.Conflict("quiz session already completed")
	}

	return s.repo.SaveAnswer(ctx, sessionID, req.QuestionID, req.Value)
}

// CompleteSession finishes a session, qualifies it, and propagates the
// affiliate lead counter when the session qualifies.
func (s *Service) CompleteSession(ctx context.Context, sessionID uuid.UUID) (*transport.CompleteSessionResponse, error) {
	if err := s.repo.CompleteSession(ctx, sessionID, time.Now()); err != nil {
		return nil, err
	}

	detail, err := s.repo.GetSessionDetail(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	info := s.qualify(ctx, *detail)

	code := ""
	if detail.AffiliateCode != nil {
		code = *detail.AffiliateCode
	}

	if info.IsLead && code != "" && s.tracker != nil {
		if err := s.tracker.CountLead(ctx, code); err != nil {
			s.log.Error("lead counting failed", "code", code, "error", err)
		}
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.QuizSessionCompleted{
			BaseEvent:     events.NewBaseEvent(),
			SessionID:     sessionID,
			AffiliateCode: code,
			IsLead:        info.IsLead,
			Email:         NormalizeEmail(info.Email),
		})
	}

	return &transport.CompleteSessionResponse{
		SessionID: sessionID,
		IsLead:    info.IsLead,
	}, nil
}

// QualifySession reports the qualification verdict for a single session.
func (s *Service) QualifySession(ctx context.Context, sessionID uuid.UUID) (LeadInfo, error) {
	detail, err := s.repo.GetSessionDetail(ctx, sessionID)
	if err != nil {
		return LeadInfo{}, err
	}
	return s.qualify(ctx, *detail), nil
}

// Leads returns the canonical deduplicated lead list, optionally scoped to an
// affiliate code and completion window. Every lead count in the system comes
// from this.
func (s *Service) Leads(ctx context.Context, affiliateCode *string, from, to *time.Time) ([]Lead, error) {
	details, err := s.repo.ListCompletedDetails(ctx, affiliateCode, from, to)
	if err != nil {
		return nil, err
	}

	leads := make([]Lead, 0, len(details))
	for _, detail := range details {
		info := s.qualify(ctx, detail)
		if !info.IsLead {
			continue
		}
		leads = append(leads, Lead{
			SessionID:   detail.ID,
			Name:        info.Name,
			Email:       info.Email,
			StartedAt:   detail.StartedAt,
			CompletedAt: detail.CompletedAt,
		})
	}

	return Dedupe(leads), nil
}

// QualifiedLeadEmails returns the normalized email set of an affiliate's own
// qualifying sessions. The attribution resolver uses this to decide whether an
// appointment counts as an affiliate-sourced booking.
func (s *Service) QualifiedLeadEmails(ctx context.Context, affiliateCode string) (map[string]struct{}, error) {
	leads, err := s.Leads(ctx, &affiliateCode, nil, nil)
	if err != nil {
		return nil, err
	}

	emails := make(map[string]struct{}, len(leads))
	for _, lead := range leads {
		emails[NormalizeEmail(lead.Email)] = struct{}{}
	}
	return emails, nil
}

func (s *Service) qualify(ctx context.Context, detail repository.SessionDetail) LeadInfo {
	if s.thresholds != nil {
		if min := s.thresholds.QualificationThreshold(ctx); detail.AnswerCount < min {
			return LeadInfo{}
		}
	}
	return Qualify(detail)
}

func questionResponse(q *repository.Question) *transport.QuestionResponse {
	return &transport.QuestionResponse{
		ID:       q.ID,
		Prompt:   q.Prompt,
		Role:     transport.QuestionRole(q.Role),
		Position: q.Position,
	}
}

func sessionResponse(s *repository.Session) *transport.SessionResponse {
	resp := &transport.SessionResponse{
		ID:        s.ID,
		Status:    s.Status,
		StartedAt: s.StartedAt,
	}
	if s.AffiliateCode != nil {
		resp.AffiliateCode = *s.AffiliateCode
	}
	return resp
}
