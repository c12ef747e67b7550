package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/cache"
	"github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/domain"
)

// memoryStore keeps records by (user, project type), like the upsert-by-key table.
type memoryStore struct {
	mu      sync.Mutex
	records map[string]*domain.ProjectRecord
	saveErr error
	saves   int
	loads   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]*domain.ProjectRecord{}}
}

func (m *memoryStore) GetOrCreate(_ context.Context, userID string, pt domain.ProjectType) (*domain.ProjectRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	k := userID + "|" + string(pt)
	if rec, ok := m.records[k]; ok {
		return rec.Clone(), nil
	}
	rec := domain.NewProjectRecord("rec-"+userID, userID, pt, time.Now())
	m.records[k] = rec
	return rec.Clone(), nil
}

func (m *memoryStore) Save(_ context.Context, rec *domain.ProjectRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.records[rec.UserID+"|"+string(rec.ProjectType)] = rec.Clone()
	return nil
}

func openTracker(t *testing.T, store *memoryStore, opts ...Option) *Tracker {
	t.Helper()
	svc := NewService(store, opts...)
	tr, err := svc.Open(context.Background(), "uid-1", domain.ProjectTypeInvestigacionAccion)
	require.NoError(t, err)
	return tr
}

func TestTracker_SaveThenGet_RoundTrip(t *testing.T) {
	store := newMemoryStore()
	tr := openTracker(t, store)
	ctx := context.Background()

	data := domain.Payload{
		"problema": "comprensión lectora",
		"causas":   []any{"poca práctica", "falta de materiales"},
		"meta":     map[string]any{"grado": 3.0},
	}

	for stage := 1; stage <= 3; stage++ {
		ok, err := tr.SaveAcceleratorData(ctx, stage, 1, data)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, data, tr.GetAcceleratorData(stage, 1))
	}

	assert.Nil(t, tr.GetAcceleratorData(1, 2))
	assert.Len(t, tr.GetAllData(), 3)
	assert.Equal(t, 3, store.saves)
}

func TestTracker_GetReturnsCopies(t *testing.T) {
	tr := openTracker(t, newMemoryStore())
	ctx := context.Background()

	input := domain.Payload{"region": "Lima"}
	_, err := tr.SaveAcceleratorData(ctx, 1, 1, input)
	require.NoError(t, err)

	input["region"] = "mutated after save"
	got := tr.GetAcceleratorData(1, 1)
	got["region"] = "mutated after get"
	all := tr.GetAllData()
	all["stage1_accelerator1"]["region"] = "mutated via all"

	assert.Equal(t, "Lima", tr.GetAcceleratorData(1, 1)["region"])
}

func TestTracker_LastWriteWins(t *testing.T) {
	tr := openTracker(t, newMemoryStore())
	ctx := context.Background()

	_, err := tr.SaveAcceleratorData(ctx, 2, 1, domain.Payload{"objetivo_general": "v1", "solo_en_v1": "x"})
	require.NoError(t, err)
	_, err = tr.SaveAcceleratorData(ctx, 2, 1, domain.Payload{"objetivo_general": "v2"})
	require.NoError(t, err)

	assert.Equal(t, domain.Payload{"objetivo_general": "v2"}, tr.GetAcceleratorData(2, 1))
}

func TestTracker_FailedSaveLeavesRecordUnchanged(t *testing.T) {
	store := newMemoryStore()
	tr := openTracker(t, store)
	ctx := context.Background()

	_, err := tr.SaveAcceleratorData(ctx, 1, 1, domain.Payload{"region": "Tacna"})
	require.NoError(t, err)
	before := tr.Record()

	store.saveErr = errors.New("connection reset")

	ok, err := tr.SaveAcceleratorData(ctx, 1, 1, domain.Payload{"region": "Arequipa"})
	assert.False(t, ok)
	assert.EqualError(t, err, "connection reset")

	ok, err = tr.SaveAcceleratorData(ctx, 1, 2, domain.Payload{"responsable": "Ana"})
	assert.False(t, ok)
	assert.Error(t, err)

	ok, err = tr.ValidateAccelerator(ctx, 1, 1)
	assert.False(t, ok)
	assert.Error(t, err)

	assert.Equal(t, before, tr.Record())
	assert.False(t, tr.CanProceedToNext(1, 1))
}

func TestTracker_ValidateAccelerator(t *testing.T) {
	tr := openTracker(t, newMemoryStore())
	ctx := context.Background()

	t.Run("requires saved data", func(t *testing.T) {
		ok, err := tr.ValidateAccelerator(ctx, 1, 1)
		assert.False(t, ok)
		assert.ErrorIs(t, err, domain.ErrEmptyStageData)

		_, err = tr.SaveAcceleratorData(ctx, 1, 1, domain.Payload{"region": "  "})
		require.NoError(t, err)
		_, err = tr.ValidateAccelerator(ctx, 1, 1)
		assert.ErrorIs(t, err, domain.ErrEmptyStageData)
		assert.Equal(t, domain.StatusDraft, tr.Status(1, 1))
	})

	t.Run("completes and advances by one", func(t *testing.T) {
		_, err := tr.SaveAcceleratorData(ctx, 1, 1, domain.Payload{"region": "Cusco"})
		require.NoError(t, err)

		ok, err := tr.ValidateAccelerator(ctx, 1, 1)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, tr.CanProceedToNext(1, 1))
		assert.Equal(t, domain.StatusCompleted, tr.Status(1, 1))

		rec := tr.Record()
		assert.Equal(t, 1, rec.CurrentStage)
		assert.Equal(t, 2, rec.CurrentAccelerator)
	})

	t.Run("validation does not check required fields", func(t *testing.T) {
		_, err := tr.SaveAcceleratorData(ctx, 1, 2, domain.Payload{"responsable": "Ana"})
		require.NoError(t, err)
		assert.False(t, tr.Readiness(1, 2).CanProceed)

		ok, err := tr.ValidateAccelerator(ctx, 1, 2)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 3, tr.Record().CurrentAccelerator)
	})

	t.Run("revalidating an earlier accelerator keeps the position", func(t *testing.T) {
		_, err := tr.ValidateAccelerator(ctx, 1, 1)
		require.NoError(t, err)

		rec := tr.Record()
		assert.Equal(t, 1, rec.CurrentStage)
		assert.Equal(t, 3, rec.CurrentAccelerator)
	})

	t.Run("moving into a later stage", func(t *testing.T) {
		_, err := tr.SaveAcceleratorData(ctx, 2, 1, domain.Payload{"objetivo_general": "mejorar"})
		require.NoError(t, err)
		_, err = tr.ValidateAccelerator(ctx, 2, 1)
		require.NoError(t, err)

		rec := tr.Record()
		assert.Equal(t, 2, rec.CurrentStage)
		assert.Equal(t, 2, rec.CurrentAccelerator)
	})
}

func TestTracker_RejectsOutOfLayout(t *testing.T) {
	tr := openTracker(t, newMemoryStore(), WithLayout(domain.Layout{2}))
	ctx := context.Background()

	_, err := tr.SaveAcceleratorData(ctx, 1, 3, domain.Payload{"a": "b"})
	assert.ErrorIs(t, err, domain.ErrInvalidStage)
	_, err = tr.SaveAcceleratorData(ctx, 2, 1, domain.Payload{"a": "b"})
	assert.ErrorIs(t, err, domain.ErrInvalidStage)
	_, err = tr.ValidateAccelerator(ctx, 0, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidStage)
	_, err = tr.SaveAcceleratorData(ctx, 1, 1, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestTracker_UsesClock(t *testing.T) {
	fixed := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	tr := openTracker(t, newMemoryStore(), WithClock(func() time.Time { return fixed }))

	_, err := tr.SaveAcceleratorData(context.Background(), 1, 1, domain.Payload{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, fixed, tr.Record().UpdatedAt)
}

func TestService_OpenWithCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := newMemoryStore()
	svc := NewService(store, WithCache(cache.NewRecordCache(client, time.Hour)))
	ctx := context.Background()

	tr, err := svc.Open(ctx, "uid-9", domain.ProjectTypeGestionEscolar)
	require.NoError(t, err)
	assert.Equal(t, 1, store.loads)

	_, err = svc.Open(ctx, "uid-9", domain.ProjectTypeGestionEscolar)
	require.NoError(t, err)
	assert.Equal(t, 1, store.loads, "second open should be served from the cache")

	_, err = tr.SaveAcceleratorData(ctx, 1, 1, domain.Payload{"region": "Junín"})
	require.NoError(t, err)

	other, err := svc.Open(ctx, "uid-9", domain.ProjectTypeGestionEscolar)
	require.NoError(t, err)
	assert.Equal(t, 1, store.loads, "write should refresh the cached copy")
	assert.Equal(t, "Junín", other.GetAcceleratorData(1, 1)["region"])
}

// saveDuringLoad lets another session save right after a row was read and
// before the reader fills the cache with it.
type saveDuringLoad struct {
	*memoryStore
	once   sync.Once
	during func()
}

func (s *saveDuringLoad) GetOrCreate(ctx context.Context, userID string, pt domain.ProjectType) (*domain.ProjectRecord, error) {
	rec, err := s.memoryStore.GetOrCreate(ctx, userID, pt)
	s.once.Do(s.during)
	return rec, err
}

func TestService_SaveBetweenLoadAndFillIsKept(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	rc := cache.NewRecordCache(client, time.Hour)
	pt := domain.ProjectTypeGestionEscolar
	ctx := context.Background()

	base := newMemoryStore()
	other := NewService(base, WithCache(rc))
	store := &saveDuringLoad{memoryStore: base}
	store.during = func() {
		tr, err := other.Open(ctx, "uid-5", pt)
		require.NoError(t, err)
		_, err = tr.SaveAcceleratorData(ctx, 1, 1, domain.Payload{"a": "earlier"})
		require.NoError(t, err)
	}
	svc := NewService(store, WithCache(rc))

	_, err = svc.Open(ctx, "uid-5", pt)
	require.NoError(t, err)

	tr, err := svc.Open(ctx, "uid-5", pt)
	require.NoError(t, err)
	assert.Equal(t, domain.Payload{"a": "earlier"}, tr.GetAcceleratorData(1, 1))

	_, err = tr.SaveAcceleratorData(ctx, 1, 2, domain.Payload{"b": "later"})
	require.NoError(t, err)

	saved, err := base.GetOrCreate(ctx, "uid-5", pt)
	require.NoError(t, err)
	assert.Equal(t, domain.Payload{"a": "earlier"}, saved.StageData["stage1_accelerator1"])
	assert.Equal(t, domain.Payload{"b": "later"}, saved.StageData["stage1_accelerator2"])
}

func TestService_SubscribeWithoutCache(t *testing.T) {
	svc := NewService(newMemoryStore())
	_, _, err := svc.Subscribe(context.Background(), "uid-1", domain.ProjectTypeGestionEscolar)
	assert.ErrorIs(t, err, ErrSubscriptionsDisabled)
}

func TestService_RecordID(t *testing.T) {
	svc := NewService(newMemoryStore())
	id, err := svc.RecordID(context.Background(), "uid-3", domain.ProjectTypeInnovacionConsolidacion)
	require.NoError(t, err)
	assert.Equal(t, "rec-uid-3", id)
}
