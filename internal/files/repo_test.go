package files

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnpie-acelerador/cnpie-backend/internal/db/dbtest"
)

func TestRepo_Insert(t *testing.T) {
	created := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	fake := &dbtest.DB{RowQueue: []pgx.Row{dbtest.Row{Vals: []any{"f-1", created}}}}

	key := "stage1_accelerator1"
	f := &File{UserID: "u-1", ProjectType: "gestion_escolar", StageKey: &key, ObjectKey: "uploads/x.pdf",
		FileName: "x.pdf", ContentType: "application/pdf", SizeBytes: 12, PublicURL: "https://b/x.pdf"}
	require.NoError(t, NewRepo(fake).Insert(context.Background(), f))

	assert.Equal(t, "f-1", f.ID)
	assert.Equal(t, created, f.CreatedAt)
	call := fake.LastCall()
	assert.Contains(t, call.SQL, "insert into files")
	assert.Equal(t, &key, call.Args[2])
}

func TestRepo_List(t *testing.T) {
	now := time.Now()
	fake := &dbtest.DB{RowsQueue: []pgx.Rows{&dbtest.Rows{Data: [][]any{
		{"f-2", "u-1", "gestion_escolar", "stage2_accelerator1", "k2", "b.png", "image/png", int64(3), "https://b/k2", now},
		{"f-1", "u-1", "gestion_escolar", nil, "k1", "a.pdf", "application/pdf", int64(9), "https://b/k1", now},
	}}}}

	items, err := NewRepo(fake).List(context.Background(), "u-1", "")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].StageKey)
	assert.Equal(t, "stage2_accelerator1", *items[0].StageKey)
	assert.Nil(t, items[1].StageKey)
	assert.Equal(t, []any{"u-1", ""}, fake.LastCall().Args)
}

func TestRepo_ListEmpty(t *testing.T) {
	items, err := NewRepo(&dbtest.DB{}).List(context.Background(), "u-1", "gestion_escolar")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestRepo_Get(t *testing.T) {
	_, err := NewRepo(&dbtest.DB{}).Get(context.Background(), "u-1", "f-9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepo_Delete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		fake := &dbtest.DB{ExecTag: pgconn.NewCommandTag("DELETE 1")}
		require.NoError(t, NewRepo(fake).Delete(context.Background(), "u-1", "f-1"))
		assert.Equal(t, []any{"f-1", "u-1"}, fake.LastCall().Args)
	})

	t.Run("someone else's file", func(t *testing.T) {
		fake := &dbtest.DB{ExecTag: pgconn.NewCommandTag("DELETE 0")}
		assert.ErrorIs(t, NewRepo(fake).Delete(context.Background(), "u-2", "f-1"), ErrNotFound)
	})

	t.Run("exec error", func(t *testing.T) {
		fake := &dbtest.DB{ExecErr: errors.New("conn closed")}
		assert.ErrorContains(t, NewRepo(fake).Delete(context.Background(), "u-1", "f-1"), "conn closed")
	})
}
