package transport

import (
	"time"

	"github.com/google/uuid"
)

// QuestionRole is the semantic role of a question, assigned at authoring time.
type QuestionRole string

const (
	QuestionRoleName  QuestionRole = "name"
	QuestionRoleEmail QuestionRole = "email"
	QuestionRoleOther QuestionRole = "other"
)

// CreateQuestionRequest is the request body for adding a quiz question.
type CreateQuestionRequest struct {
	Prompt   string       `json:"prompt" validate:"required,min=1,max=500"`
	Role     QuestionRole `json:"role" validate:"required,oneof=name email other"`
	Position int          `json:"position" validate:"gte=0"`
}

// QuestionResponse is a question in API responses.
type QuestionResponse struct {
	ID       uuid.UUID    `json:"id"`
	Prompt   string       `json:"prompt"`
	Role     QuestionRole `json:"role"`
	Position int          `json:"position"`
}

// StartSessionRequest is the request body for starting a quiz session.
type StartSessionRequest struct {
	AffiliateCode string `json:"affiliateCode,omitempty" validate:"omitempty,max=64"`
}

// SessionResponse is a quiz session in API responses.
type SessionResponse struct {
	ID            uuid.UUID `json:"id"`
	Status        string    `json:"status"`
	AffiliateCode string    `json:"affiliateCode,omitempty"`
	StartedAt     time.Time `json:"startedAt"`
}

// SubmitAnswerRequest is the request body for answering a question.
type SubmitAnswerRequest struct {
	QuestionID uuid.UUID `json:"questionId" validate:"required"`
	Value      string    `json:"value" validate:"max=2000"`
}

// CompleteSessionResponse reports the qualification verdict on completion.
type CompleteSessionResponse struct {
	SessionID uuid.UUID `json:"sessionId"`
	IsLead    bool      `json:"isLead"`
}

// LeadResponse is a deduplicated lead in API responses.
type LeadResponse struct {
	SessionID   uuid.UUID  `json:"sessionId"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
