package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrSurveyNotFound = errors.New("survey not found")
	ErrSurveyClosed   = errors.New("survey is closed")
	ErrInvalidSurvey  = errors.New("invalid survey")
	ErrInvalidAnswer  = errors.New("invalid answer")
)

type QuestionKind string

const (
	KindText           QuestionKind = "text"
	KindSingleChoice   QuestionKind = "single_choice"
	KindMultipleChoice QuestionKind = "multiple_choice"
	KindScale          QuestionKind = "scale"
)

const (
	ScaleMin = 1
	ScaleMax = 5
)

func (k QuestionKind) Valid() bool {
	switch k {
	case KindText, KindSingleChoice, KindMultipleChoice, KindScale:
		return true
	}
	return false
}

func (k QuestionKind) HasOptions() bool {
	return k == KindSingleChoice || k == KindMultipleChoice
}

type SurveyStatus string

const (
	StatusOpen   SurveyStatus = "open"
	StatusClosed SurveyStatus = "closed"
)

type Survey struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"owner_id,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      SurveyStatus `json:"status"`
	Questions   []Question   `json:"questions,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	ClosedAt    *time.Time   `json:"closed_at,omitempty"`
}

type Question struct {
	ID       string       `json:"id"`
	Position int          `json:"position"`
	Prompt   string       `json:"prompt"`
	Kind     QuestionKind `json:"kind"`
	Required bool         `json:"required"`
	Options  []string     `json:"options,omitempty"`
}

// Answer holds one question's answer. Which field is read depends on the
// question kind: Text, Options (one entry for single_choice) or Scale.
type Answer struct {
	QuestionID string   `json:"question_id"`
	Text       string   `json:"text,omitempty"`
	Options    []string `json:"options,omitempty"`
	Scale      int      `json:"scale,omitempty"`
}

type Response struct {
	ID          string    `json:"id"`
	SurveyID    string    `json:"survey_id"`
	Answers     []Answer  `json:"answers"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Validate checks the survey definition before it is stored.
func (s *Survey) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidSurvey)
	}
	if len(s.Questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", ErrInvalidSurvey)
	}
	for i, q := range s.Questions {
		if strings.TrimSpace(q.Prompt) == "" {
			return fmt.Errorf("%w: question %d has no prompt", ErrInvalidSurvey, i+1)
		}
		if !q.Kind.Valid() {
			return fmt.Errorf("%w: question %d has unknown kind %q", ErrInvalidSurvey, i+1, q.Kind)
		}
		if !q.Kind.HasOptions() {
			if len(q.Options) > 0 {
				return fmt.Errorf("%w: question %d does not take options", ErrInvalidSurvey, i+1)
			}
			continue
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least two options", ErrInvalidSurvey, i+1)
		}
		seen := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			if strings.TrimSpace(o) == "" || seen[o] {
				return fmt.Errorf("%w: question %d has a blank or repeated option", ErrInvalidSurvey, i+1)
			}
			seen[o] = true
		}
	}
	return nil
}

// CheckAnswers validates a submission against the survey's questions.
// Unanswered optional questions may be omitted.
func (s *Survey) CheckAnswers(answers []Answer) error {
	byID := make(map[string]Answer, len(answers))
	for _, a := range answers {
		if _, dup := byID[a.QuestionID]; dup {
			return fmt.Errorf("%w: question %s answered twice", ErrInvalidAnswer, a.QuestionID)
		}
		byID[a.QuestionID] = a
	}

	known := make(map[string]bool, len(s.Questions))
	for _, q := range s.Questions {
		known[q.ID] = true
		a, ok := byID[q.ID]
		if !ok || a.empty() {
			if q.Required {
				return fmt.Errorf("%w: question %q is required", ErrInvalidAnswer, q.Prompt)
			}
			continue
		}
		if err := q.check(a); err != nil {
			return err
		}
	}
	for id := range byID {
		if !known[id] {
			return fmt.Errorf("%w: unknown question %s", ErrInvalidAnswer, id)
		}
	}
	return nil
}

func (a Answer) empty() bool {
	return strings.TrimSpace(a.Text) == "" && len(a.Options) == 0 && a.Scale == 0
}

func (q Question) check(a Answer) error {
	switch q.Kind {
	case KindText:
		if strings.TrimSpace(a.Text) == "" {
			return fmt.Errorf("%w: question %q expects text", ErrInvalidAnswer, q.Prompt)
		}
	case KindScale:
		if a.Scale < ScaleMin || a.Scale > ScaleMax {
			return fmt.Errorf("%w: question %q expects a value from %d to %d", ErrInvalidAnswer, q.Prompt, ScaleMin, ScaleMax)
		}
	case KindSingleChoice, KindMultipleChoice:
		if q.Kind == KindSingleChoice && len(a.Options) != 1 {
			return fmt.Errorf("%w: question %q expects exactly one option", ErrInvalidAnswer, q.Prompt)
		}
		picked := make(map[string]bool, len(a.Options))
		for _, o := range a.Options {
			if !q.hasOption(o) || picked[o] {
				return fmt.Errorf("%w: question %q has an invalid option %q", ErrInvalidAnswer, q.Prompt, o)
			}
			picked[o] = true
		}
	}
	return nil
}

func (q Question) hasOption(o string) bool {
	for _, opt := range q.Options {
		if opt == o {
			return true
		}
	}
	return false
}
