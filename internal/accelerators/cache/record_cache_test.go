package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/domain"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	require.NoError(t, client.Ping(context.Background()).Err())

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func sampleRecord() *domain.ProjectRecord {
	rec := domain.NewProjectRecord("rec-1", "uid-1", domain.ProjectTypeInnovacionImplementacion, time.Now().UTC())
	rec.StageData["stage1_accelerator1"] = domain.Payload{"region": "Puno"}
	rec.StageCompletion["stage1_accelerator1"] = domain.StatusCompleted
	return rec
}

func TestRecordCache_FillGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewRecordCache(client, time.Hour)
	ctx := context.Background()

	t.Run("miss before fill", func(t *testing.T) {
		_, err := c.Get(ctx, "uid-1", domain.ProjectTypeInnovacionImplementacion)
		assert.ErrorIs(t, err, ErrMiss)
	})

	t.Run("round trips the record with ttl", func(t *testing.T) {
		require.NoError(t, c.Fill(ctx, sampleRecord()))

		got, err := c.Get(ctx, "uid-1", domain.ProjectTypeInnovacionImplementacion)
		require.NoError(t, err)
		assert.Equal(t, "rec-1", got.ID)
		assert.Equal(t, "Puno", got.StageData["stage1_accelerator1"]["region"])
		assert.Equal(t, domain.StatusCompleted, got.StatusOf("stage1_accelerator1"))

		assert.Equal(t, time.Hour, mr.TTL("cnpie:record:uid-1:innovacion_implementacion"))
	})

	t.Run("expires after ttl", func(t *testing.T) {
		mr.FastForward(2 * time.Hour)

		_, err := c.Get(ctx, "uid-1", domain.ProjectTypeInnovacionImplementacion)
		assert.ErrorIs(t, err, ErrMiss)
	})
}

func TestRecordCache_FillKeepsExistingCopy(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewRecordCache(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Fill(ctx, sampleRecord()))

	older := sampleRecord()
	delete(older.StageData, "stage1_accelerator1")
	require.NoError(t, c.Fill(ctx, older))

	got, err := c.Get(ctx, "uid-1", domain.ProjectTypeInnovacionImplementacion)
	require.NoError(t, err)
	assert.Equal(t, "Puno", got.StageData["stage1_accelerator1"]["region"])
}

func TestRecordCache_Store(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewRecordCache(client, 0)
	ctx := context.Background()

	subCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	events, closeSub, err := c.Subscribe(subCtx, "uid-1", domain.ProjectTypeInnovacionImplementacion)
	require.NoError(t, err)
	defer closeSub()

	first := sampleRecord()
	require.NoError(t, c.Fill(ctx, first))

	saved := first.Clone()
	saved.StageData["stage1_accelerator2"] = domain.Payload{"responsable": "Ana"}
	saved.UpdatedAt = first.UpdatedAt.Add(time.Second)
	ev := Event{UserID: "uid-1", ProjectType: domain.ProjectTypeInnovacionImplementacion, StageKey: "stage1_accelerator2"}
	require.NoError(t, c.Store(ctx, saved, ev))

	got, err := c.Get(ctx, "uid-1", domain.ProjectTypeInnovacionImplementacion)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.StageData["stage1_accelerator2"]["responsable"])

	select {
	case got := <-events:
		assert.Equal(t, EventInvalidated, got.Type)
		assert.Equal(t, domain.StageKey("stage1_accelerator2"), got.StageKey)
	case <-subCtx.Done():
		t.Fatal("no event received")
	}

	t.Run("keeps a copy written later", func(t *testing.T) {
		require.NoError(t, c.Store(ctx, first, ev))

		got, err := c.Get(ctx, "uid-1", domain.ProjectTypeInnovacionImplementacion)
		require.NoError(t, err)
		assert.True(t, saved.UpdatedAt.Equal(got.UpdatedAt))
		assert.Contains(t, got.StageData, domain.StageKey("stage1_accelerator2"))
	})
}

func TestRecordCache_Drop(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewRecordCache(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Fill(ctx, sampleRecord()))
	require.NoError(t, c.Drop(ctx, Event{UserID: "uid-1", ProjectType: domain.ProjectTypeInnovacionImplementacion}))

	_, err := c.Get(ctx, "uid-1", domain.ProjectTypeInnovacionImplementacion)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRecordCache_KeysAreScopedPerProjectType(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewRecordCache(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Fill(ctx, sampleRecord()))

	_, err := c.Get(ctx, "uid-1", domain.ProjectTypeGestionEscolar)
	assert.ErrorIs(t, err, ErrMiss)
	_, err = c.Get(ctx, "uid-2", domain.ProjectTypeInnovacionImplementacion)
	assert.ErrorIs(t, err, ErrMiss)
}
