package listing

import (
	"fmt"
	"kanbanBoard/internal/models/task"
)

// Query - REST-форма выборки: column, q, _sort, _order, _start, _limit.
// Пустая колонка означает все колонки.
type Query struct {
	Column    task.Column
	Search    string
	Sort      SortField
	Direction Direction
	Start     int
	Limit     int
}

type Result struct {
	Tasks []*task.Task
	Total int
}

func NewQuery() Query {
	return Query{Sort: SortOrder, Direction: Asc, Limit: DefaultLimit}
}

func (q Query) Validate() error {
	if q.Column != "" && !q.Column.Valid() {
		return fmt.Errorf("%w: неизвестная колонка %q", ErrInvalidQuery, q.Column)
	}
	if _, err := ParseSort(string(q.Sort)); err != nil {
		return err
	}
	if _, err := ParseDirection(string(q.Direction)); err != nil {
		return err
	}
	if q.Start < 0 {
		return fmt.Errorf("%w: _start должен быть >= 0", ErrInvalidQuery)
	}
	if q.Limit <= 0 {
		return fmt.Errorf("%w: _limit должен быть > 0", ErrInvalidQuery)
	}
	return nil
}

// Apply: filter -> search -> sort -> paginate. Total считается до нарезки.
func Apply(tasks []*task.Task, q Query) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	sort, _ := ParseSort(string(q.Sort))
	dir, _ := ParseDirection(string(q.Direction))

	matched := filter(tasks, q.Column, q.Search)
	sortTasks(matched, sort, dir)

	return &Result{
		Tasks: window(matched, q.Start, q.Limit),
		Total: len(matched),
	}, nil
}
