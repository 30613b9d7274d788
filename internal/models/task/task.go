package task

import (
	"cmp"
	"math"
	"slices"
)

type Task struct {
	ID          string `json:"id" yaml:"id" db:"id"`
	Title       string `json:"title" yaml:"title" db:"title"`
	Description string `json:"description" yaml:"description" db:"description"`
	Column      Column `json:"column" yaml:"column" db:"column_id"`
	Order       int    `json:"order" yaml:"order" db:"sort_order"`
}

// Order хранится в колонке INTEGER (int32) у Postgres.
const (
	MinOrder = math.MinInt32
	MaxOrder = math.MaxInt32
)

func ValidOrder(order int) bool {
	return order >= MinOrder && order <= MaxOrder
}

type Column string

const ColumnBacklog Column = "backlog"
const ColumnInProgress Column = "in_progress"
const ColumnReview Column = "review"
const ColumnDone Column = "done"

func (c Column) Valid() bool {
	switch c {
	case ColumnBacklog, ColumnInProgress, ColumnReview, ColumnDone:
		return true
	}
	return false
}

// ColumnInfo описывает колонку доски. Набор колонок фиксирован.
type ColumnInfo struct {
	ID    Column `json:"id"`
	Title string `json:"title"`
	Color string `json:"color"`
}

var columns = []ColumnInfo{
	{ID: ColumnBacklog, Title: "Backlog", Color: "#e3f2fd"},
	{ID: ColumnInProgress, Title: "In Progress", Color: "#fff3e0"},
	{ID: ColumnReview, Title: "Review", Color: "#fce4ec"},
	{ID: ColumnDone, Title: "Done", Color: "#e8f5e9"},
}

// Columns возвращает копию списка колонок в порядке отображения.
func Columns() []ColumnInfo {
	return slices.Clone(columns)
}

// Compare задаёт порядок отображения: order по возрастанию, при равенстве id по возрастанию.
func Compare(a, b *Task) int {
	if c := cmp.Compare(a.Order, b.Order); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// SortByOrder сортирует задачи на месте по правилу Compare.
func SortByOrder(tasks []*Task) {
	slices.SortStableFunc(tasks, Compare)
}

// FilterColumn возвращает задачи колонки, отсортированные по Compare.
func FilterColumn(tasks []*Task, column Column) []*Task {
	res := []*Task{}
	for _, t := range tasks {
		if t.Column == column {
			res = append(res, t)
		}
	}
	SortByOrder(res)
	return res
}

func (t *Task) Clone() *Task {
	c := *t
	return &c
}

func CloneAll(tasks []*Task) []*Task {
	res := make([]*Task, len(tasks))
	for i, t := range tasks {
		res[i] = t.Clone()
	}
	return res
}
