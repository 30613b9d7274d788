package cli

import (
	"bytes"
	"context"
	"kanbanBoard/internal/handlers"
	"kanbanBoard/internal/models/task"
	"kanbanBoard/internal/repository/task/inmemory"
	"kanbanBoard/internal/service"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T, tasks ...*task.Task) (string, *inmemory.TaskStorage) {
	t.Helper()
	repo := inmemory.NewTaskStorage()
	for _, tk := range tasks {
		require.NoError(t, repo.Insert(context.Background(), tk))
	}

	r := chi.NewRouter()
	handlers.NewTaskHandler(service.NewTaskService(repo, service.MemoryType), 10).Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL, repo
}

func run(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.Command().SetOut(&out)
	root.Command().SetErr(&out)
	root.Command().SetArgs(append([]string{"--server", server}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestColumnsCommand(t *testing.T) {
	server, _ := setupServer(t)

	out, err := run(t, server, "columns")
	require.NoError(t, err)
	assert.Contains(t, out, "in_progress")
	assert.Contains(t, out, "Review")
}

func TestListCommand(t *testing.T) {
	server, _ := setupServer(t,
		&task.Task{ID: "a", Title: "Alpha", Column: task.ColumnBacklog, Order: 0},
		&task.Task{ID: "b", Title: "Beta", Column: task.ColumnBacklog, Order: 1},
		&task.Task{ID: "c", Title: "Gamma", Column: task.ColumnBacklog, Order: 2},
	)

	out, err := run(t, server, "list", "backlog", "--page-size", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "Beta")
	assert.NotContains(t, out, "Gamma")
	assert.Contains(t, out, "--page 2")

	out, err = run(t, server, "list", "backlog", "-q", "gam")
	require.NoError(t, err)
	assert.Contains(t, out, "Gamma")
	assert.NotContains(t, out, "Alpha")

	_, err = run(t, server, "list", "nowhere")
	assert.Error(t, err)
}

func TestCreateUpdateDeleteCommands(t *testing.T) {
	server, repo := setupServer(t)

	out, err := run(t, server, "create", "Write tests", "-c", "review", "-d", "cli")
	require.NoError(t, err)
	assert.Contains(t, out, "Write tests")

	all, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	id := all[0].ID
	assert.Equal(t, task.ColumnReview, all[0].Column)

	_, err = run(t, server, "update", id, "--title", "Write more tests", "--order", "4")
	require.NoError(t, err)

	got, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Write more tests", got.Title)
	assert.Equal(t, 4, got.Order)
	assert.Equal(t, "cli", got.Description)

	_, err = run(t, server, "update", id)
	assert.Error(t, err)

	_, err = run(t, server, "delete", id)
	require.NoError(t, err)
	assert.Equal(t, 0, repo.Len())
}

func TestMoveCommand(t *testing.T) {
	server, repo := setupServer(t,
		&task.Task{ID: "A", Title: "A", Column: task.ColumnBacklog, Order: 0},
		&task.Task{ID: "B", Title: "B", Column: task.ColumnBacklog, Order: 1},
		&task.Task{ID: "X", Title: "X", Column: task.ColumnDone, Order: 5},
	)
	ctx := context.Background()

	out, err := run(t, server, "move", "A", "--index", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "backlog")

	backlog, err := repo.ListByColumn(ctx, task.ColumnBacklog)
	require.NoError(t, err)
	assert.Equal(t, "B", backlog[0].ID)
	assert.Equal(t, "A", backlog[1].ID)

	_, err = run(t, server, "move", "B", "--to", "done", "--index", "0", "--server-side")
	require.NoError(t, err)

	moved, err := repo.GetByID(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, task.ColumnDone, moved.Column)
	assert.Equal(t, 4, moved.Order)

	_, err = run(t, server, "move", "missing", "--to", "done")
	assert.Error(t, err)
}

func TestBoardCommand(t *testing.T) {
	server, _ := setupServer(t,
		&task.Task{ID: "1", Title: "First", Column: task.ColumnInProgress},
	)

	out, err := run(t, server, "board")
	require.NoError(t, err)
	assert.Contains(t, out, "== In Progress (1) ==")
	assert.Contains(t, out, "== Done (0) ==")
}

func TestLocate(t *testing.T) {
	snapshot := []*task.Task{
		{ID: "x", Column: task.ColumnDone, Order: 0},
		{ID: "a", Column: task.ColumnBacklog, Order: 0},
		{ID: "b", Column: task.ColumnBacklog, Order: 1},
	}

	m, err := locate(snapshot, "b")
	require.NoError(t, err)
	assert.Equal(t, task.ColumnBacklog, m.SourceColumn)
	assert.Equal(t, 1, m.SourceIndex)

	_, err = locate(snapshot, "none")
	assert.Error(t, err)
}
