// Package reorder переводит завершённое перетаскивание карточки в набор
// независимых изменений order/column.
//
// Перестановка внутри колонки перенумеровывает колонку 0..n-1 и пишет только
// задачи, чей order изменился. Перенос между колонками меняет только
// перетаскиваемую задачу: новый order берётся у соседа на границе вставки,
// а при вставке в середину совпадает с order задачи на destIndex. Такая
// ничья разрешается сортировкой по id до следующей перестановки в колонке.
package reorder

import (
	"errors"
	"fmt"
	"kanbanBoard/internal/models/task"
	"slices"
)

var (
	ErrInvalidMove   = errors.New("некорректное перемещение")
	ErrStaleSnapshot = errors.New("снимок доски устарел")
	ErrTaskNotFound  = errors.New("перемещаемая задача не найдена")
)

type Move struct {
	TaskID       string      `json:"taskId"`
	SourceColumn task.Column `json:"sourceColumn"`
	SourceIndex  int         `json:"sourceIndex"`
	DestColumn   task.Column `json:"destColumn"`
	DestIndex    int         `json:"destIndex"`
}

// Update - одно изменение задачи. Column пустая, если колонка не меняется.
type Update struct {
	ID     string      `json:"id"`
	Column task.Column `json:"column,omitempty"`
	Order  int         `json:"order"`
}

type Plan struct {
	Updates  []Update      `json:"updates"`
	Affected []task.Column `json:"affectedColumns"`
}

func (p *Plan) Empty() bool {
	return len(p.Updates) == 0
}

func (m Move) SameColumn() bool {
	return m.SourceColumn == m.DestColumn
}

func (m Move) validate() error {
	if !m.SourceColumn.Valid() {
		return fmt.Errorf("%w: неизвестная колонка %q", ErrInvalidMove, m.SourceColumn)
	}
	if !m.DestColumn.Valid() {
		return fmt.Errorf("%w: неизвестная колонка %q", ErrInvalidMove, m.DestColumn)
	}
	if m.SourceIndex < 0 || m.DestIndex < 0 {
		return fmt.Errorf("%w: отрицательный индекс", ErrInvalidMove)
	}
	return nil
}

// Compute строит план по глобальному снимку доски (fetch-all).
func Compute(snapshot []*task.Task, m Move) (*Plan, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	if m.SameColumn() {
		if m.SourceIndex == m.DestIndex {
			return &Plan{Updates: []Update{}}, nil
		}
		return sameColumn(task.FilterColumn(snapshot, m.SourceColumn), m)
	}
	return crossColumn(snapshot, m)
}

// checkSource сверяет снимок с тем, что видел клиент на sourceIndex.
func checkSource(column []*task.Task, m Move) error {
	if m.SourceIndex >= len(column) {
		return fmt.Errorf("%w: sourceIndex %d вне колонки %s из %d задач",
			ErrInvalidMove, m.SourceIndex, m.SourceColumn, len(column))
	}
	if m.TaskID != "" && column[m.SourceIndex].ID != m.TaskID {
		return fmt.Errorf("%w: на позиции %d задача %s, ожидалась %s",
			ErrStaleSnapshot, m.SourceIndex, column[m.SourceIndex].ID, m.TaskID)
	}
	return nil
}

func sameColumn(column []*task.Task, m Move) (*Plan, error) {
	if err := checkSource(column, m); err != nil {
		return nil, err
	}

	moved := column[m.SourceIndex]
	seq := slices.Delete(slices.Clone(column), m.SourceIndex, m.SourceIndex+1)
	dest := min(m.DestIndex, len(seq))
	seq = slices.Insert(seq, dest, moved)

	updates := []Update{}
	for i, t := range seq {
		if t.Order != i {
			updates = append(updates, Update{ID: t.ID, Order: i})
		}
	}

	return &Plan{Updates: updates, Affected: []task.Column{m.SourceColumn}}, nil
}

func crossColumn(snapshot []*task.Task, m Move) (*Plan, error) {
	if m.TaskID == "" {
		return nil, fmt.Errorf("%w: для переноса между колонками нужен taskId", ErrInvalidMove)
	}

	idx := slices.IndexFunc(snapshot, func(t *task.Task) bool { return t.ID == m.TaskID })
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, m.TaskID)
	}
	if snapshot[idx].Column != m.SourceColumn {
		return nil, fmt.Errorf("%w: задача %s находится в колонке %s, а не %s",
			ErrStaleSnapshot, m.TaskID, snapshot[idx].Column, m.SourceColumn)
	}
	if err := checkSource(task.FilterColumn(snapshot, m.SourceColumn), m); err != nil {
		return nil, err
	}

	dest := task.FilterColumn(snapshot, m.DestColumn)
	order, err := boundaryOrder(dest, m.DestIndex)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Updates:  []Update{{ID: m.TaskID, Column: m.DestColumn, Order: order}},
		Affected: []task.Column{m.SourceColumn, m.DestColumn},
	}, nil
}

func boundaryOrder(dest []*task.Task, destIndex int) (int, error) {
	switch {
	case len(dest) == 0:
		return 0, nil
	case destIndex == 0:
		if dest[0].Order <= task.MinOrder {
			return 0, fmt.Errorf("%w: order %d в колонке %s нельзя уменьшить",
				ErrInvalidMove, dest[0].Order, dest[0].Column)
		}
		return dest[0].Order - 1, nil
	case destIndex >= len(dest):
		last := dest[len(dest)-1]
		if last.Order >= task.MaxOrder {
			return 0, fmt.Errorf("%w: order %d в колонке %s нельзя увеличить",
				ErrInvalidMove, last.Order, last.Column)
		}
		return last.Order + 1, nil
	default:
		return dest[destIndex].Order, nil
	}
}
