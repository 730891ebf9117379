package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"funnelops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Question represents the question database model. Role is assigned at
// authoring time; the qualifier never inspects prompt text.
type Question struct {
	ID        uuid.UUID `db:"id"`
	Prompt    string    `db:"prompt"`
	Role      string    `db:"role"`
	Position  int       `db:"position"`
	CreatedAt time.Time `db:"created_at"`
}

// Session represents the quiz session database model.
type Session struct {
	ID            uuid.UUID  `db:"id"`
	Status        string     `db:"status"`
	AffiliateCode *string    `db:"affiliate_code"`
	StartedAt     time.Time  `db:"started_at"`
	CompletedAt   *time.Time `db:"completed_at"`
}

// SessionDetail is a session joined with its name-role and email-role answers,
// the only inputs lead qualification needs.
type SessionDetail struct {
	ID            uuid.UUID
	Status        string
	AffiliateCode *string
	StartedAt     time.Time
	CompletedAt   *time.Time
	NameValue     *string
	EmailValue    *string
	AnswerCount   int
}

// Repository provides database operations for quiz sessions.
type Repository struct {
	pool *pgxpool.Pool
}

const sessionNotFoundMsg = "quiz session not found"

// New creates a new quiz repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateQuestion inserts a new question.
func (r *Repository) CreateQuestion(ctx context.Context, q *Question) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO questions (id, prompt, role, position, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		q.ID, q.Prompt, q.Role, q.Position, q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

// ListQuestions returns all questions in display order.
func (r *Repository) ListQuestions(ctx context.Context) ([]Question, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, prompt, role, position, created_at
		FROM questions ORDER BY position, created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.Prompt, &q.Role, &q.Position, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CreateSession inserts a new in-progress session.
func (r *Repository) CreateSession(ctx context.Context, s *Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO quiz_sessions (id, status, affiliate_code, started_at)
		VALUES ($1, $2, $3, $4)`,
		s.ID, s.Status, s.AffiliateCode, s.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create quiz session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (r *Repository) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	var s Session
	err := r.pool.QueryRow(ctx, `
		SELECT id, status, affiliate_code, started_at, completed_at
		FROM quiz_sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.Status, &s.AffiliateCode, &s.StartedAt, &s.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(sessionNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get quiz session: %w", err)
	}
	return &s, nil
}

// SaveAnswer records an answer. Answers are write-once per question per
// session; a repeated submit is a no-op.
func (r *Repository) SaveAnswer(ctx context.Context, sessionID, questionID uuid.UUID, value string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO quiz_answers (session_id, question_id, value, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, question_id) DO NOTHING`,
		sessionID, questionID, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}

// CompleteSession marks an in-progress session completed. Completed sessions
// are immutable; completing twice affects no rows and returns NotFound.
func (r *Repository) CompleteSession(ctx context.Context, id uuid.UUID, completedAt time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE quiz_sessions SET status = 'completed', completed_at = $2
		WHERE id = $1 AND status = 'in_progress'`,
		id, completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to complete quiz session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(sessionNotFoundMsg)
	}
	return nil
}

const sessionDetailQuery = `
	SELECT s.id, s.status, s.affiliate_code, s.started_at, s.completed_at,
		MAX(CASE WHEN q.role = 'name' THEN a.value END) AS name_value,
		MAX(CASE WHEN q.role = 'email' THEN a.value END) AS email_value,
		COUNT(a.question_id) AS answer_count
	FROM quiz_sessions s
	LEFT JOIN quiz_answers a ON a.session_id = s.id
	LEFT JOIN questions q ON q.id = a.question_id`

// GetSessionDetail returns a single session with its role answers.
func (r *Repository) GetSessionDetail(ctx context.Context, id uuid.UUID) (*SessionDetail, error) {
	row := r.pool.QueryRow(ctx, sessionDetailQuery+`
		WHERE s.id = $1
		GROUP BY s.id`, id)

	var d SessionDetail
	err := row.Scan(&d.ID, &d.Status, &d.AffiliateCode, &d.StartedAt, &d.CompletedAt,
		&d.NameValue, &d.EmailValue, &d.AnswerCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(sessionNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get session detail: %w", err)
	}
	return &d, nil
}

// ListCompletedDetails returns every completed session with role answers,
// optionally filtered by affiliate code and completion window.
func (r *Repository) ListCompletedDetails(ctx context.Context, affiliateCode *string, from, to *time.Time) ([]SessionDetail, error) {
	query := sessionDetailQuery + ` WHERE s.status = 'completed'`
	args := []interface{}{}

	if affiliateCode != nil {
		args = append(args, *affiliateCode)
		query += fmt.Sprintf(" AND s.affiliate_code = $%d", len(args))
	}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND s.completed_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND s.completed_at < $%d", len(args))
	}
	query += " GROUP BY s.id ORDER BY s.completed_at"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list session details: %w", err)
	}
	defer rows.Close()

	var details []SessionDetail
	for rows.Next() {
		var d SessionDetail
		if err := rows.Scan(&d.ID, &d.Status, &d.AffiliateCode, &d.StartedAt, &d.CompletedAt,
			&d.NameValue, &d.EmailValue, &d.AnswerCount); err != nil {
			return nil, fmt.Errorf("failed to scan session detail: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
