package service

import (
	"context"
	"sync"

	"github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/domain"
	"github.com/cnpie-acelerador/cnpie-backend/internal/logging"
)

// Tracker holds one loaded ProjectRecord and applies the accelerator data
// store and stage gate operations to it.
//
// Every mutation is applied to a clone of the record; the clone replaces
// the in-memory record only after the store accepted the write.
type Tracker struct {
	svc *Service

	mu  sync.RWMutex
	rec *domain.ProjectRecord
}

func newTracker(svc *Service, rec *domain.ProjectRecord) *Tracker {
	return &Tracker{svc: svc, rec: rec}
}

// Record returns a copy of the in-memory record.
func (t *Tracker) Record() *domain.ProjectRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rec.Clone()
}

// SaveAcceleratorData stores data as the answers of (stage, accelerator),
// replacing whatever was saved before under that key.
func (t *Tracker) SaveAcceleratorData(ctx context.Context, stage, accelerator int, data domain.Payload) (bool, error) {
	if err := t.svc.layout.Check(stage, accelerator); err != nil {
		return false, err
	}
	if data == nil {
		return false, domain.ErrInvalidPayload
	}
	key := domain.NewStageKey(stage, accelerator)

	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.rec.Clone()
	next.StageData[key] = data.Clone()
	next.UpdatedAt = t.svc.now()

	if err := t.svc.persist(ctx, next, key); err != nil {
		logging.NewLogger(ctx).LogErrorf("save_accelerator", "user=%s key=%s: %v", next.UserID, key, err)
		return false, err
	}
	t.rec = next
	return true, nil
}

// GetAcceleratorData looks up the in-memory record; nil when nothing was saved.
func (t *Tracker) GetAcceleratorData(stage, accelerator int) domain.Payload {
	t.mu.RLock()
	defer t.mu.RUnlock()

	data, ok := t.rec.StageData[domain.NewStageKey(stage, accelerator)]
	if !ok {
		return nil
	}
	return data.Clone()
}

// GetAllData returns every saved accelerator payload.
func (t *Tracker) GetAllData() map[domain.StageKey]domain.Payload {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[domain.StageKey]domain.Payload, len(t.rec.StageData))
	for k, v := range t.rec.StageData {
		out[k] = v.Clone()
	}
	return out
}

// ValidateAccelerator marks (stage, accelerator) as completed and moves the
// record's position to the following accelerator.
//
// Required-field completeness is not re-checked here; see Readiness.
// A completion flag is never set on an accelerator without saved data.
func (t *Tracker) ValidateAccelerator(ctx context.Context, stage, accelerator int) (bool, error) {
	if err := t.svc.layout.Check(stage, accelerator); err != nil {
		return false, err
	}
	key := domain.NewStageKey(stage, accelerator)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rec.StageData[key].IsEmpty() {
		return false, domain.ErrEmptyStageData
	}

	next := t.rec.Clone()
	next.StageCompletion[key] = domain.StatusCompleted
	if next.Ahead(stage, accelerator+1) {
		next.CurrentStage = stage
		next.CurrentAccelerator = accelerator + 1
	}
	next.UpdatedAt = t.svc.now()

	if err := t.svc.persist(ctx, next, key); err != nil {
		logging.NewLogger(ctx).LogErrorf("validate_accelerator", "user=%s key=%s: %v", next.UserID, key, err)
		return false, err
	}
	t.rec = next
	return true, nil
}

// CanProceedToNext reports whether (stage, accelerator) has been validated.
func (t *Tracker) CanProceedToNext(stage, accelerator int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rec.StatusOf(domain.NewStageKey(stage, accelerator)) == domain.StatusCompleted
}

// Status returns the completion state of one accelerator.
func (t *Tracker) Status(stage, accelerator int) domain.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rec.StatusOf(domain.NewStageKey(stage, accelerator))
}

// Readiness evaluates the accelerator's required fields against its saved
// data. It is informational; ValidateAccelerator does not consult it.
func (t *Tracker) Readiness(stage, accelerator int) domain.Readiness {
	key := domain.NewStageKey(stage, accelerator)

	t.mu.RLock()
	defer t.mu.RUnlock()
	return domain.SchemaFor(key).Evaluate(t.rec.StageData[key])
}
