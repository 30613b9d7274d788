package task_test

import (
	"kanbanBoard/internal/models/task"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumn_Valid(t *testing.T) {
	for _, c := range task.Columns() {
		assert.True(t, c.ID.Valid(), c.ID)
	}
	assert.False(t, task.Column("archive").Valid())
	assert.False(t, task.Column("").Valid())
}

func TestValidOrder(t *testing.T) {
	assert.True(t, task.ValidOrder(0))
	assert.True(t, task.ValidOrder(task.MinOrder))
	assert.True(t, task.ValidOrder(task.MaxOrder))
	assert.False(t, task.ValidOrder(task.MaxOrder+1))
	assert.False(t, task.ValidOrder(task.MinOrder-1))
}

func TestColumns_ReturnsCopy(t *testing.T) {
	cols := task.Columns()
	cols[0].Title = "changed"

	assert.Equal(t, "Backlog", task.Columns()[0].Title)
	assert.Len(t, task.Columns(), 4)
}

func TestSortByOrder_TieBreakByID(t *testing.T) {
	tasks := []*task.Task{
		{ID: "c", Order: 1},
		{ID: "b", Order: 0},
		{ID: "a", Order: 1},
	}

	task.SortByOrder(tasks)

	assert.Equal(t, []string{"b", "a", "c"}, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})
}

func TestFilterColumn(t *testing.T) {
	tasks := []*task.Task{
		{ID: "1", Column: task.ColumnDone, Order: 3},
		{ID: "2", Column: task.ColumnBacklog, Order: 0},
		{ID: "3", Column: task.ColumnDone, Order: -1},
	}

	done := task.FilterColumn(tasks, task.ColumnDone)
	assert.Len(t, done, 2)
	assert.Equal(t, "3", done[0].ID)
	assert.Equal(t, "1", done[1].ID)

	assert.Empty(t, task.FilterColumn(tasks, task.ColumnReview))
	assert.NotNil(t, task.FilterColumn(tasks, task.ColumnReview))
}

func TestApply_SkipsNilOptions(t *testing.T) {
	tk := &task.Task{ID: "1", Title: "old", Column: task.ColumnBacklog}

	tk.Apply(nil, task.WithTitle("new"), task.WithColumn(task.ColumnReview), task.WithOrder(7))

	assert.Equal(t, "new", tk.Title)
	assert.Equal(t, task.ColumnReview, tk.Column)
	assert.Equal(t, 7, tk.Order)
}
