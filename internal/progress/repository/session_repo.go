package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/cnpie-acelerador/cnpie-backend/internal/progress/domain"
)

// SessionRepository handles PostgreSQL operations for acelerador_sessions
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, module, current_step, status, data, started_at, completed_at, updated_at`

// ListByUser returns every session of a docente ordered by module.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM acelerador_sessions
		WHERE user_id = $1
		ORDER BY module
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SessionRepository) Get(ctx context.Context, userID, module string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM acelerador_sessions
		WHERE user_id = $1 AND module = $2
	`, userID, module)
	return scanSession(row)
}

// Start creates the session or returns the existing one unchanged.
// Uses ON CONFLICT on (user_id, module).
func (r *SessionRepository) Start(ctx context.Context, userID, module string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO acelerador_sessions (id, user_id, module, current_step, status, data)
		VALUES ($1, $2, $3, 0, $4, '{}'::jsonb)
		ON CONFLICT (user_id, module) DO UPDATE SET
			updated_at = acelerador_sessions.updated_at
		RETURNING `+sessionColumns,
		uuid.New().String(), userID, module, string(domain.SessionInProgress))
	s, err := scanSession(row)
	if err != nil {
		return nil, wrapPQ(err)
	}
	return s, nil
}

// Advance sets the step counter and, when data is non-nil, replaces the
// session data. Completed sessions are left untouched.
func (r *SessionRepository) Advance(ctx context.Context, userID, module string, step int, data map[string]any) (*domain.Session, error) {
	var dataJSON []byte
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal session data: %w", err)
		}
		dataJSON = b
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE acelerador_sessions SET
			current_step = $3,
			data = COALESCE($4::jsonb, data),
			updated_at = NOW()
		WHERE user_id = $1 AND module = $2 AND status <> $5
		RETURNING `+sessionColumns,
		userID, module, step, nullableJSON(dataJSON), string(domain.SessionCompleted))
	s, err := scanSession(row)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, r.missingOrClosed(ctx, userID, module)
	}
	return s, err
}

// Complete marks the session completed; completing twice is a no-op.
func (r *SessionRepository) Complete(ctx context.Context, userID, module string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE acelerador_sessions SET
			status = $3,
			completed_at = COALESCE(completed_at, NOW()),
			updated_at = NOW()
		WHERE user_id = $1 AND module = $2
		RETURNING `+sessionColumns,
		userID, module, string(domain.SessionCompleted))
	return scanSession(row)
}

func (r *SessionRepository) missingOrClosed(ctx context.Context, userID, module string) error {
	s, err := r.Get(ctx, userID, module)
	if err != nil {
		return err
	}
	if s.Status == domain.SessionCompleted {
		return domain.ErrSessionClosed
	}
	return domain.ErrSessionNotFound
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*domain.Session, error) {
	var (
		s           domain.Session
		status      string
		dataJSON    []byte
		completedAt sql.NullTime
	)
	err := row.Scan(&s.ID, &s.UserID, &s.Module, &s.CurrentStep, &status, &dataJSON,
		&s.StartedAt, &completedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	s.Status = domain.SessionStatus(status)
	if completedAt.Valid {
		s.CompletedAt = &completedAt.Time
	}
	s.Data = map[string]any{}
	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &s.Data); err != nil {
			return nil, fmt.Errorf("decode session data: %w", err)
		}
	}
	return &s, nil
}

func nullableJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

// wrapPQ turns a missing docente row into a readable error.
func wrapPQ(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return fmt.Errorf("user does not exist: %w", err)
	}
	return err
}
