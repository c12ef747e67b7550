package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnpie-acelerador/cnpie-backend/internal/surveys/domain"
)

type memStore struct {
	mu        sync.Mutex
	surveys   map[string]*domain.Survey
	responses map[string][]*domain.Response
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{surveys: map[string]*domain.Survey{}, responses: map[string][]*domain.Response{}}
}

func (m *memStore) Create(_ context.Context, s *domain.Survey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = fmt.Sprintf("s-%d", len(m.surveys)+1)
	for i := range s.Questions {
		s.Questions[i].ID = fmt.Sprintf("q%d", i+1)
		s.Questions[i].Position = i + 1
	}
	s.CreatedAt = time.Now()
	cp := *s
	m.surveys[s.ID] = &cp
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*domain.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.surveys[id]
	if !ok {
		return nil, domain.ErrSurveyNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) ListByOwner(_ context.Context, ownerID string) ([]*domain.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Survey{}
	for _, s := range m.surveys {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) Close(_ context.Context, ownerID, id string) (*domain.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.surveys[id]
	if !ok || s.OwnerID != ownerID {
		return nil, domain.ErrSurveyNotFound
	}
	s.Status = domain.StatusClosed
	now := time.Now()
	s.ClosedAt = &now
	cp := *s
	return &cp, nil
}

func (m *memStore) InsertResponse(_ context.Context, r *domain.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	r.ID = fmt.Sprintf("r-%d", len(m.responses[r.SurveyID])+1)
	r.SubmittedAt = time.Now()
	m.responses[r.SurveyID] = append(m.responses[r.SurveyID], r)
	return nil
}

func (m *memStore) ListResponses(_ context.Context, surveyID string) ([]*domain.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.responses[surveyID], nil
}

func workshopInput() CreateInput {
	return CreateInput{
		Title: "Evaluación del taller",
		Questions: []domain.Question{
			{Prompt: "Grado", Kind: domain.KindSingleChoice, Required: true, Options: []string{"1ro", "2do"}},
			{Prompt: "Valoración", Kind: domain.KindScale},
		},
	}
}

func TestService_CreateAndGet(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	s, err := svc.Create(ctx, "u-1", workshopInput())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, s.Status)
	assert.Equal(t, "q2", s.Questions[1].ID)

	got, err := svc.Get(ctx, "u-1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Evaluación del taller", got.Title)

	_, err = svc.Get(ctx, "u-2", s.ID)
	assert.ErrorIs(t, err, domain.ErrSurveyNotFound)

	pub, err := svc.Public(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, pub.OwnerID)

	_, err = svc.Create(ctx, "u-1", CreateInput{Title: "sin preguntas"})
	assert.ErrorIs(t, err, domain.ErrInvalidSurvey)
}

func TestService_SubmitAndSummary(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	s, err := svc.Create(ctx, "u-1", workshopInput())
	require.NoError(t, err)

	_, err = svc.Submit(ctx, s.ID, []domain.Answer{{QuestionID: "q1", Options: []string{"1ro"}}, {QuestionID: "q2", Scale: 5}})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, s.ID, []domain.Answer{{QuestionID: "q1", Options: []string{"2do"}}, {QuestionID: "q2", Scale: 2}})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, s.ID, []domain.Answer{{QuestionID: "q2", Scale: 3}})
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)

	sum, err := svc.Summary(ctx, "u-1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Responses)
	assert.Equal(t, map[string]int{"1ro": 1, "2do": 1}, sum.Questions[0].OptionCounts)
	require.NotNil(t, sum.Questions[1].Average)
	assert.Equal(t, 3.5, *sum.Questions[1].Average)

	_, err = svc.Summary(ctx, "u-2", s.ID)
	assert.ErrorIs(t, err, domain.ErrSurveyNotFound)
}

func TestService_ClosedRejectsSubmissions(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	s, err := svc.Create(ctx, "u-1", workshopInput())
	require.NoError(t, err)

	_, err = svc.Close(ctx, "u-2", s.ID)
	assert.ErrorIs(t, err, domain.ErrSurveyNotFound)

	closed, err := svc.Close(ctx, "u-1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, closed.Status)

	_, err = svc.Submit(ctx, s.ID, []domain.Answer{{QuestionID: "q1", Options: []string{"1ro"}}})
	assert.ErrorIs(t, err, domain.ErrSurveyClosed)
}

func TestService_SubmitStoreError(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	s, err := svc.Create(ctx, "u-1", workshopInput())
	require.NoError(t, err)
	store.insertErr = errors.New("db down")

	_, err = svc.Submit(ctx, s.ID, []domain.Answer{{QuestionID: "q1", Options: []string{"1ro"}}})
	assert.EqualError(t, err, "db down")
}
