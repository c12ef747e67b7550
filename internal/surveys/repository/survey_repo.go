package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/cnpie-acelerador/cnpie-backend/internal/surveys/domain"
)

// SurveyRepository handles PostgreSQL operations for survey_forms,
// survey_questions and survey_responses.
type SurveyRepository struct {
	db *sql.DB
}

func NewSurveyRepository(db *sql.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

const formColumns = `id, owner_id, title, description, status, created_at, closed_at`

// Create inserts the form and its questions in one transaction. IDs are
// assigned here when empty.
func (r *SurveyRepository) Create(ctx context.Context, s *domain.Survey) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Status == "" {
		s.Status = domain.StatusOpen
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO survey_forms (id, owner_id, title, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, s.ID, s.OwnerID, s.Title, s.Description, string(s.Status)).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert survey: %w", err)
	}

	for i := range s.Questions {
		q := &s.Questions[i]
		if q.ID == "" {
			q.ID = uuid.New().String()
		}
		q.Position = i + 1
		_, err := tx.ExecContext(ctx, `
			INSERT INTO survey_questions (id, form_id, position, prompt, kind, required, options)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, q.ID, s.ID, q.Position, q.Prompt, string(q.Kind), q.Required, pq.Array(q.Options))
		if err != nil {
			return fmt.Errorf("failed to insert question %d: %w", q.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit survey: %w", err)
	}
	return nil
}

// Get loads the form with its questions in position order.
func (r *SurveyRepository) Get(ctx context.Context, id string) (*domain.Survey, error) {
	s, err := scanForm(r.db.QueryRowContext(ctx, `
		SELECT `+formColumns+`
		FROM survey_forms
		WHERE id = $1
	`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, position, prompt, kind, required, options
		FROM survey_questions
		WHERE form_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			q       domain.Question
			kind    string
			options []string
		)
		if err := rows.Scan(&q.ID, &q.Position, &q.Prompt, &kind, &q.Required, pq.Array(&options)); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		q.Kind = domain.QuestionKind(kind)
		q.Options = options
		s.Questions = append(s.Questions, q)
	}
	return s, rows.Err()
}

// ListByOwner returns the owner's forms, newest first, without questions.
func (r *SurveyRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Survey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+formColumns+`
		FROM survey_forms
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}
	defer rows.Close()

	out := []*domain.Survey{}
	for rows.Next() {
		s, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close marks an owner's form closed. Closing twice keeps the first closed_at.
func (r *SurveyRepository) Close(ctx context.Context, ownerID, id string) (*domain.Survey, error) {
	return scanForm(r.db.QueryRowContext(ctx, `
		UPDATE survey_forms SET
			status = $3,
			closed_at = COALESCE(closed_at, NOW())
		WHERE id = $1 AND owner_id = $2
		RETURNING `+formColumns,
		id, ownerID, string(domain.StatusClosed)))
}

// InsertResponse stores one submission. The form must still be open.
func (r *SurveyRepository) InsertResponse(ctx context.Context, resp *domain.Response) error {
	if resp.ID == "" {
		resp.ID = uuid.New().String()
	}
	answers, err := json.Marshal(resp.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO survey_responses (id, form_id, answers)
		SELECT $1, f.id, $3::jsonb
		FROM survey_forms f
		WHERE f.id = $2 AND f.status = $4
		RETURNING submitted_at
	`, resp.ID, resp.SurveyID, string(answers), string(domain.StatusOpen)).Scan(&resp.SubmittedAt)
	if err == sql.ErrNoRows {
		return domain.ErrSurveyClosed
	}
	if err != nil {
		return fmt.Errorf("failed to insert response: %w", err)
	}
	return nil
}

func (r *SurveyRepository) ListResponses(ctx context.Context, surveyID string) ([]*domain.Response, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, form_id, answers, submitted_at
		FROM survey_responses
		WHERE form_id = $1
		ORDER BY submitted_at
	`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	var out []*domain.Response
	for rows.Next() {
		var (
			resp domain.Response
			raw  []byte
		)
		if err := rows.Scan(&resp.ID, &resp.SurveyID, &raw, &resp.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		if err := json.Unmarshal(raw, &resp.Answers); err != nil {
			return nil, fmt.Errorf("failed to decode answers of %s: %w", resp.ID, err)
		}
		out = append(out, &resp)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanForm(row scanner) (*domain.Survey, error) {
	var (
		s           domain.Survey
		status      string
		description sql.NullString
		closedAt    sql.NullTime
	)
	err := row.Scan(&s.ID, &s.OwnerID, &s.Title, &description, &status, &s.CreatedAt, &closedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSurveyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan survey: %w", err)
	}
	s.Status = domain.SurveyStatus(status)
	s.Description = description.String
	if closedAt.Valid {
		s.ClosedAt = &closedAt.Time
	}
	return &s, nil
}
