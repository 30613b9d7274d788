// Package listing реализует протокол выборки задач: фильтр по колонке,
// поиск по подстроке, сортировка и постраничная нарезка.
// Пакет не ходит в хранилище и работает над уже загруженным срезом.
package listing

import (
	"cmp"
	"errors"
	"fmt"
	"kanbanBoard/internal/models/task"
	"slices"
	"strings"
)

var ErrInvalidQuery = errors.New("некорректные параметры выборки")

type SortField string

const (
	SortOrder  SortField = "order"
	SortID     SortField = "id"
	SortTitle  SortField = "title"
	SortColumn SortField = "column"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

const DefaultLimit = 10

func ParseSort(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return SortOrder, nil
	case SortOrder, SortID, SortTitle, SortColumn:
		return f, nil
	default:
		return "", fmt.Errorf("%w: неизвестное поле сортировки %q", ErrInvalidQuery, s)
	}
}

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return Asc, nil
	case Asc, Desc:
		return d, nil
	default:
		return "", fmt.Errorf("%w: неизвестное направление %q", ErrInvalidQuery, s)
	}
}

// Matches - регистронезависимый поиск подстроки в title или description.
// Пустая строка поиска подходит любой задаче.
func Matches(t *task.Task, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle)
}

func filter(tasks []*task.Task, column task.Column, search string) []*task.Task {
	out := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if column != "" && t.Column != column {
			continue
		}
		if !Matches(t, search) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func primary(field SortField, a, b *task.Task) int {
	switch field {
	case SortID:
		return strings.Compare(a.ID, b.ID)
	case SortTitle:
		return strings.Compare(a.Title, b.Title)
	case SortColumn:
		return strings.Compare(string(a.Column), string(b.Column))
	default:
		return cmp.Compare(a.Order, b.Order)
	}
}

// sortTasks переворачивает только основной ключ, id остаётся по возрастанию
func sortTasks(tasks []*task.Task, field SortField, dir Direction) {
	slices.SortStableFunc(tasks, func(a, b *task.Task) int {
		c := primary(field, a, b)
		if dir == Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// window не складывает start+limit, чтобы большие значения не переполняли int
func window(tasks []*task.Task, start, limit int) []*task.Task {
	if start < 0 || limit <= 0 || start >= len(tasks) {
		return []*task.Task{}
	}
	end := len(tasks)
	if limit < end-start {
		end = start + limit
	}
	return tasks[start:end]
}
