package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnpie-acelerador/cnpie-backend/internal/db/dbtest"
)

func TestRepo_EnsureUser(t *testing.T) {
	ctx := context.Background()

	t.Run("requires firebase uid", func(t *testing.T) {
		repo := NewRepo(&dbtest.DB{})
		_, err := repo.EnsureUser(ctx, UpsertUser{})
		assert.Error(t, err)
	})

	t.Run("returns the docente id", func(t *testing.T) {
		fake := &dbtest.DB{RowQueue: []pgx.Row{dbtest.Row{Vals: []any{"5f1c0d1e-0000-4000-8000-000000000001"}}}}
		repo := NewRepo(fake)

		id, err := repo.EnsureUser(ctx, UpsertUser{FirebaseUID: "fb-1", Email: "ana@minedu.pe"})
		require.NoError(t, err)
		assert.Equal(t, "5f1c0d1e-0000-4000-8000-000000000001", id)
		assert.Equal(t, []any{"fb-1", "ana@minedu.pe", ""}, fake.LastCall().Args)
	})

	t.Run("propagates db errors", func(t *testing.T) {
		fake := &dbtest.DB{RowQueue: []pgx.Row{dbtest.Row{Err: errors.New("conn refused")}}}
		_, err := NewRepo(fake).EnsureUser(ctx, UpsertUser{FirebaseUID: "fb-1"})
		assert.EqualError(t, err, "conn refused")
	})
}

func TestRepo_GetAndUpdate(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	region := "Puno"

	t.Run("not found", func(t *testing.T) {
		_, err := NewRepo(&dbtest.DB{}).Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("scans nullable columns", func(t *testing.T) {
		fake := &dbtest.DB{RowQueue: []pgx.Row{dbtest.Row{Vals: []any{
			"id-1", "fb-1", "ana@minedu.pe", nil, nil, "1234567", region, nil, now, now,
		}}}}
		d, err := NewRepo(fake).Get(ctx, "id-1")
		require.NoError(t, err)
		assert.Equal(t, "id-1", d.ID)
		assert.Nil(t, d.DisplayName)
		require.NotNil(t, d.CodigoModular)
		assert.Equal(t, "1234567", *d.CodigoModular)
		assert.Equal(t, "Puno", *d.Region)
	})

	t.Run("update passes nil for untouched fields", func(t *testing.T) {
		fake := &dbtest.DB{RowQueue: []pgx.Row{dbtest.Row{Vals: []any{
			"id-1", "fb-1", nil, nil, nil, nil, region, nil, now, now,
		}}}}
		_, err := NewRepo(fake).UpdateProfile(ctx, "id-1", ProfileUpdate{Region: &region})
		require.NoError(t, err)

		args := fake.LastCall().Args
		assert.Equal(t, "id-1", args[0])
		assert.Nil(t, args[1])
		assert.Equal(t, &region, args[4])
	})
}
