package domain

import (
	"errors"
	"regexp"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidModule   = errors.New("invalid module name")
	ErrInvalidStep     = errors.New("step out of range")
	ErrSessionClosed   = errors.New("session already completed")
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

// Session is one row of acelerador_sessions: a docente's pass through a
// guided module, advanced one step at a time by the wizard.
type Session struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Module      string         `json:"module"`
	CurrentStep int            `json:"current_step"`
	Status      SessionStatus  `json:"status"`
	Data        map[string]any `json:"data"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

var moduleRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

func ValidateModule(m string) error {
	if !moduleRe.MatchString(m) {
		return ErrInvalidModule
	}
	return nil
}

func ValidateStep(step int) error {
	if step < 0 || step > ModuleTotalSteps {
		return ErrInvalidStep
	}
	return nil
}
