package cache_test

import (
	"context"
	"kanbanBoard/internal/models/task"
	"kanbanBoard/internal/repository/task/cache"
	"kanbanBoard/internal/repository/task/inmemory"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingBackend struct {
	*inmemory.TaskStorage
	listCalls int
	allCalls  int
}

func (b *countingBackend) ListByColumn(ctx context.Context, column task.Column) ([]*task.Task, error) {
	b.listCalls++
	return b.TaskStorage.ListByColumn(ctx, column)
}

func (b *countingBackend) GetAll(ctx context.Context) ([]*task.Task, error) {
	b.allCalls++
	return b.TaskStorage.GetAll(ctx)
}

func setup(t *testing.T) (*cache.Cache, *countingBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backend := &countingBackend{TaskStorage: inmemory.NewTaskStorage()}
	return cache.New(backend, client, time.Minute, "test"), backend, mr
}

func TestCache_ListByColumn_MissThenHit(t *testing.T) {
	ctx := context.Background()
	c, backend, mr := setup(t)

	require.NoError(t, backend.TaskStorage.Insert(ctx, &task.Task{ID: "1", Title: "A", Column: task.ColumnBacklog}))

	first, err := c.ListByColumn(ctx, task.ColumnBacklog)
	require.NoError(t, err)
	second, err := c.ListByColumn(ctx, task.ColumnBacklog)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.listCalls)

	ttl := mr.TTL("test:column:backlog")
	assert.True(t, ttl > 0 && ttl <= time.Minute)
}

func TestCache_WriteEvictsBoard(t *testing.T) {
	ctx := context.Background()
	c, backend, mr := setup(t)

	_, err := c.ListByColumn(ctx, task.ColumnDone)
	require.NoError(t, err)
	_, err = c.GetAll(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:column:done"))
	assert.True(t, mr.Exists("test:all"))

	require.NoError(t, c.Insert(ctx, &task.Task{ID: "1", Title: "A", Column: task.ColumnDone}))
	assert.False(t, mr.Exists("test:column:done"))
	assert.False(t, mr.Exists("test:all"))

	done, err := c.ListByColumn(ctx, task.ColumnDone)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, 2, backend.listCalls)
}

func TestCache_UpdateAcrossColumns(t *testing.T) {
	ctx := context.Background()
	c, _, _ := setup(t)

	require.NoError(t, c.Insert(ctx, &task.Task{ID: "1", Title: "A", Column: task.ColumnBacklog}))
	backlog, err := c.ListByColumn(ctx, task.ColumnBacklog)
	require.NoError(t, err)
	require.Len(t, backlog, 1)

	require.NoError(t, c.Update(ctx, &task.Task{ID: "1", Title: "A", Column: task.ColumnReview}))

	backlog, err = c.ListByColumn(ctx, task.ColumnBacklog)
	require.NoError(t, err)
	assert.Empty(t, backlog)

	review, err := c.ListByColumn(ctx, task.ColumnReview)
	require.NoError(t, err)
	assert.Len(t, review, 1)
}

func TestCache_RedisDownFallsBack(t *testing.T) {
	ctx := context.Background()
	c, backend, mr := setup(t)

	require.NoError(t, c.Insert(ctx, &task.Task{ID: "1", Title: "A", Column: task.ColumnBacklog}))
	mr.Close()

	all, err := c.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, 1, backend.allCalls)
	assert.NoError(t, c.HealthCheck(ctx))
}

func TestCache_CorruptEntryIsDropped(t *testing.T) {
	ctx := context.Background()
	c, backend, mr := setup(t)

	require.NoError(t, mr.Set("test:all", "not json"))

	_, err := c.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.allCalls)
}

func TestCache_NilClient(t *testing.T) {
	ctx := context.Background()
	backend := &countingBackend{TaskStorage: inmemory.NewTaskStorage()}
	c := cache.New(backend, nil, time.Minute, "")

	require.NoError(t, c.Insert(ctx, &task.Task{ID: "1", Title: "A", Column: task.ColumnBacklog}))
	_, err := c.GetAll(ctx)
	require.NoError(t, err)
	_, err = c.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.allCalls)
}

// pausingBackend останавливает ListByColumn после чтения, пока тест не отпустит его.
type pausingBackend struct {
	*inmemory.TaskStorage
	loaded  chan struct{}
	release chan struct{}
}

func (b *pausingBackend) ListByColumn(ctx context.Context, column task.Column) ([]*task.Task, error) {
	tasks, err := b.TaskStorage.ListByColumn(ctx, column)
	if b.loaded != nil {
		close(b.loaded)
		<-b.release
		b.loaded = nil
	}
	return tasks, err
}

func TestCache_ReadDuringWriteIsNotCached(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backend := &pausingBackend{
		TaskStorage: inmemory.NewTaskStorage(),
		loaded:      make(chan struct{}),
		release:     make(chan struct{}),
	}
	require.NoError(t, backend.TaskStorage.Insert(ctx, &task.Task{ID: "1", Title: "A", Column: task.ColumnBacklog}))
	c := cache.New(backend, client, time.Minute, "test")

	loaded := backend.loaded
	done := make(chan []*task.Task, 1)
	go func() {
		tasks, err := c.ListByColumn(ctx, task.ColumnBacklog)
		assert.NoError(t, err)
		done <- tasks
	}()

	<-loaded
	require.NoError(t, c.Delete(ctx, "1"))
	close(backend.release)

	stale := <-done
	assert.Len(t, stale, 1, "чтение, начатое до удаления, видит старый снимок")
	assert.False(t, mr.Exists("test:column:backlog"))

	after, err := c.ListByColumn(ctx, task.ColumnBacklog)
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestCache_FillAfterWriteIsCached(t *testing.T) {
	ctx := context.Background()
	c, backend, mr := setup(t)

	require.NoError(t, c.Insert(ctx, &task.Task{ID: "1", Title: "A", Column: task.ColumnBacklog}))
	require.NoError(t, c.Delete(ctx, "1"))
	assert.Equal(t, "2", mustGet(t, mr, "test:gen"))

	_, err := c.ListByColumn(ctx, task.ColumnBacklog)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:column:backlog"))

	_, err = c.ListByColumn(ctx, task.ColumnBacklog)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.listCalls)
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
