package sqlite_test

import (
	"context"
	"kanbanBoard/internal/models/task"
	"kanbanBoard/internal/repository"
	"kanbanBoard/internal/repository/task/sqlite"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorage(t *testing.T) *sqlite.Storage {
	t.Helper()
	storage, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func TestStorage_EmptyPath(t *testing.T) {
	_, err := sqlite.New(context.Background(), "")
	assert.Error(t, err)
}

func TestStorage_CRUD(t *testing.T) {
	ctx := context.Background()
	storage := newStorage(t)
	require.NoError(t, storage.HealthCheck(ctx))

	created := &task.Task{ID: "t1", Title: "Write", Description: "docs", Column: task.ColumnBacklog, Order: 2}
	require.NoError(t, storage.Insert(ctx, created))

	got, err := storage.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, created, got)

	got.Column = task.ColumnDone
	got.Order = -1
	require.NoError(t, storage.Update(ctx, got))

	got, err = storage.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, task.ColumnDone, got.Column)
	assert.Equal(t, -1, got.Order)

	require.NoError(t, storage.Delete(ctx, "t1"))
	_, err = storage.GetByID(ctx, "t1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStorage_NotFound(t *testing.T) {
	ctx := context.Background()
	storage := newStorage(t)

	assert.ErrorIs(t, storage.Update(ctx, &task.Task{ID: "ghost", Column: task.ColumnBacklog}), repository.ErrNotFound)
	assert.ErrorIs(t, storage.Delete(ctx, "ghost"), repository.ErrNotFound)
}

func TestStorage_ListByColumn(t *testing.T) {
	ctx := context.Background()
	storage := newStorage(t)

	require.NoError(t, storage.Insert(ctx, &task.Task{ID: "b", Title: "B", Column: task.ColumnReview, Order: 1}))
	require.NoError(t, storage.Insert(ctx, &task.Task{ID: "a", Title: "A", Column: task.ColumnReview, Order: 1}))
	require.NoError(t, storage.Insert(ctx, &task.Task{ID: "c", Title: "C", Column: task.ColumnReview, Order: 0}))
	require.NoError(t, storage.Insert(ctx, &task.Task{ID: "d", Title: "D", Column: task.ColumnBacklog, Order: 0}))

	review, err := storage.ListByColumn(ctx, task.ColumnReview)
	require.NoError(t, err)
	require.Len(t, review, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{review[0].ID, review[1].ID, review[2].ID})

	empty, err := storage.ListByColumn(ctx, task.ColumnInProgress)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestStorage_FetchAndReset(t *testing.T) {
	ctx := context.Background()
	storage := newStorage(t)

	require.NoError(t, storage.Insert(ctx, &task.Task{ID: "1", Title: "One", Column: task.ColumnBacklog}))
	require.NoError(t, storage.Insert(ctx, &task.Task{ID: "2", Title: "Two", Column: task.ColumnDone}))

	fetched, err := storage.FetchAndReset(ctx)
	require.NoError(t, err)
	assert.Len(t, fetched, 2)

	all, err := storage.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
