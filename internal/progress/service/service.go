package service

import (
	"context"

	"github.com/cnpie-acelerador/cnpie-backend/internal/logging"
	"github.com/cnpie-acelerador/cnpie-backend/internal/progress/domain"
)

type SessionStore interface {
	ListByUser(ctx context.Context, userID string) ([]*domain.Session, error)
	Start(ctx context.Context, userID, module string) (*domain.Session, error)
	Advance(ctx context.Context, userID, module string, step int, data map[string]any) (*domain.Session, error)
	Complete(ctx context.Context, userID, module string) (*domain.Session, error)
}

type ModuleProgress struct {
	Module      string               `json:"module"`
	Status      domain.SessionStatus `json:"status"`
	CurrentStep int                  `json:"current_step"`
	TotalSteps  int                  `json:"total_steps"`
	Progress    int                  `json:"progress"`
}

type Overview struct {
	Modules []ModuleProgress `json:"modules"`
	Overall int              `json:"overall"`
}

type Service struct {
	store SessionStore
}

func NewService(store SessionStore) *Service {
	return &Service{store: store}
}

// Overview aggregates every session of the docente into per-module and
// overall percentages.
func (s *Service) Overview(ctx context.Context, userID string) (*Overview, error) {
	sessions, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		logging.NewLogger(ctx).LogError("progress_overview", err)
		return nil, err
	}

	out := &Overview{Modules: make([]ModuleProgress, 0, len(sessions))}
	percents := make([]int, 0, len(sessions))
	for _, sess := range sessions {
		p := domain.CalculateModuleProgress(*sess)
		percents = append(percents, p)
		out.Modules = append(out.Modules, ModuleProgress{
			Module:      sess.Module,
			Status:      sess.Status,
			CurrentStep: sess.CurrentStep,
			TotalSteps:  domain.ModuleTotalSteps,
			Progress:    p,
		})
	}
	out.Overall = domain.CalculateOverallProgress(percents)
	return out, nil
}

func (s *Service) Start(ctx context.Context, userID, module string) (*domain.Session, error) {
	if err := domain.ValidateModule(module); err != nil {
		return nil, err
	}
	return s.store.Start(ctx, userID, module)
}

func (s *Service) Advance(ctx context.Context, userID, module string, step int, data map[string]any) (*domain.Session, error) {
	if err := domain.ValidateModule(module); err != nil {
		return nil, err
	}
	if err := domain.ValidateStep(step); err != nil {
		return nil, err
	}
	sess, err := s.store.Advance(ctx, userID, module, step, data)
	if err != nil {
		logging.NewLogger(ctx).LogErrorf("progress_advance", "user=%s module=%s step=%d: %v", userID, module, step, err)
		return nil, err
	}
	return sess, nil
}

func (s *Service) Complete(ctx context.Context, userID, module string) (*domain.Session, error) {
	if err := domain.ValidateModule(module); err != nil {
		return nil, err
	}
	return s.store.Complete(ctx, userID, module)
}
