package service

import (
	"context"

	"github.com/cnpie-acelerador/cnpie-backend/internal/logging"
	"github.com/cnpie-acelerador/cnpie-backend/internal/surveys/domain"
)

type SurveyStore interface {
	Create(ctx context.Context, s *domain.Survey) error
	Get(ctx context.Context, id string) (*domain.Survey, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Survey, error)
	Close(ctx context.Context, ownerID, id string) (*domain.Survey, error)
	InsertResponse(ctx context.Context, resp *domain.Response) error
	ListResponses(ctx context.Context, surveyID string) ([]*domain.Response, error)
}

type Service struct {
	store SurveyStore
}

func NewService(store SurveyStore) *Service {
	return &Service{store: store}
}

// CreateInput is the owner's survey definition.
type CreateInput struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Questions   []domain.Question `json:"questions"`
}

func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*domain.Survey, error) {
	questions := make([]domain.Question, len(in.Questions))
	for i, q := range in.Questions {
		questions[i] = domain.Question{Prompt: q.Prompt, Kind: q.Kind, Required: q.Required, Options: q.Options}
	}
	survey := &domain.Survey{
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		Status:      domain.StatusOpen,
		Questions:   questions,
	}
	if err := survey.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, survey); err != nil {
		logging.NewLogger(ctx).LogError("survey_create", err)
		return nil, err
	}
	return survey, nil
}

// Get returns the survey if ownerID owns it. Other owners see not found.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*domain.Survey, error) {
	survey, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if survey.OwnerID != ownerID {
		return nil, domain.ErrSurveyNotFound
	}
	return survey, nil
}

// Public returns the survey as shown to respondents, without the owner.
func (s *Service) Public(ctx context.Context, id string) (*domain.Survey, error) {
	survey, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	survey.OwnerID = ""
	return survey, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Survey, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// Submit validates answers against the survey and stores them. Closed
// surveys reject submissions.
func (s *Service) Submit(ctx context.Context, surveyID string, answers []domain.Answer) (*domain.Response, error) {
	survey, err := s.store.Get(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey.Status == domain.StatusClosed {
		return nil, domain.ErrSurveyClosed
	}
	if err := survey.CheckAnswers(answers); err != nil {
		return nil, err
	}

	resp := &domain.Response{SurveyID: surveyID, Answers: answers}
	if err := s.store.InsertResponse(ctx, resp); err != nil {
		logging.NewLogger(ctx).LogErrorf("survey_submit", "survey=%s: %v", surveyID, err)
		return nil, err
	}
	return resp, nil
}

func (s *Service) Close(ctx context.Context, ownerID, id string) (*domain.Survey, error) {
	return s.store.Close(ctx, ownerID, id)
}

// Summary tallies the responses of an owner's survey.
func (s *Service) Summary(ctx context.Context, ownerID, id string) (*domain.Summary, error) {
	survey, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	responses, err := s.store.ListResponses(ctx, id)
	if err != nil {
		return nil, err
	}
	sum := domain.Summarize(survey, responses)
	return &sum, nil
}
