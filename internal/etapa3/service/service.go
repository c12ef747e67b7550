package service

import (
	"context"
	"errors"
	"time"

	acceldomain "github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/domain"
	"github.com/cnpie-acelerador/cnpie-backend/internal/etapa3/domain"
	"github.com/cnpie-acelerador/cnpie-backend/internal/logging"
)

type EntityStore interface {
	List(ctx context.Context, projectID string) ([]*domain.Entity, error)
	Get(ctx context.Context, projectID string, kind domain.Kind) (*domain.Entity, error)
	Upsert(ctx context.Context, e *domain.Entity) error
}

type Service struct {
	store EntityStore
	now   func() time.Time
}

func NewService(store EntityStore) *Service {
	return &Service{store: store, now: time.Now}
}

// List returns all three entities in display order, filling the ones never
// saved with empty drafts.
func (s *Service) List(ctx context.Context, projectID string) ([]*domain.Entity, error) {
	saved, err := s.store.List(ctx, projectID)
	if err != nil {
		return nil, err
	}
	byKind := make(map[domain.Kind]*domain.Entity, len(saved))
	for _, e := range saved {
		byKind[e.Kind] = e
	}

	out := make([]*domain.Entity, 0, len(domain.Kinds()))
	for _, k := range domain.Kinds() {
		if e, ok := byKind[k]; ok {
			out = append(out, e)
			continue
		}
		out = append(out, domain.NewEntity(projectID, k))
	}
	return out, nil
}

// Save replaces the draft's data. Completed entities must be reopened first.
func (s *Service) Save(ctx context.Context, projectID string, kind domain.Kind, data acceldomain.Payload) (*domain.Entity, error) {
	if data == nil {
		return nil, acceldomain.ErrInvalidPayload
	}
	e, err := s.load(ctx, projectID, kind)
	if err != nil {
		return nil, err
	}
	if e.Status == domain.StatusCompletado {
		return nil, domain.ErrEntityCompleted
	}

	e.Data = data.Clone()
	if err := s.store.Upsert(ctx, e); err != nil {
		logging.NewLogger(ctx).LogErrorf("etapa3_save", "project=%s entity=%s: %v", projectID, kind, err)
		return nil, err
	}
	return e, nil
}

// Complete moves a draft with data to COMPLETADO.
func (s *Service) Complete(ctx context.Context, projectID string, kind domain.Kind) (*domain.Entity, error) {
	e, err := s.load(ctx, projectID, kind)
	if err != nil {
		return nil, err
	}
	if e.Data.IsEmpty() {
		return nil, domain.ErrEmptyData
	}
	now := s.now()
	return s.transition(ctx, e, domain.StatusCompletado, &now)
}

// Reopen moves a completed entity back to BORRADOR, keeping its data.
func (s *Service) Reopen(ctx context.Context, projectID string, kind domain.Kind) (*domain.Entity, error) {
	e, err := s.load(ctx, projectID, kind)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, e, domain.StatusBorrador, nil)
}

func (s *Service) transition(ctx context.Context, e *domain.Entity, to domain.Status, completedAt *time.Time) (*domain.Entity, error) {
	if !domain.CanTransition(e.Status, to) {
		return nil, domain.ErrInvalidTransition
	}
	next := *e
	next.Status = to
	next.CompletedAt = completedAt
	if err := s.store.Upsert(ctx, &next); err != nil {
		logging.NewLogger(ctx).LogErrorf("etapa3_transition", "project=%s entity=%s to=%s: %v", e.ProjectID, e.Kind, to, err)
		return nil, err
	}
	logging.NewLogger(ctx).LogInfof("etapa3_transition", "project=%s entity=%s %s -> %s", e.ProjectID, e.Kind, e.Status, to)
	return &next, nil
}

func (s *Service) load(ctx context.Context, projectID string, kind domain.Kind) (*domain.Entity, error) {
	e, err := s.store.Get(ctx, projectID, kind)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewEntity(projectID, kind), nil
	}
	return e, err
}
