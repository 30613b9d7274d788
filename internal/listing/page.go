package listing

import (
	"fmt"
	"kanbanBoard/internal/models/task"
	"math"
)

// PageQuery - постраничный запрос одной колонки, page считается с 1.
type PageQuery struct {
	Column   task.Column
	Page     int
	PageSize int
	Search   string
}

type Page struct {
	Tasks   []*task.Task `json:"tasks"`
	Total   int          `json:"total"`
	HasMore bool         `json:"hasMore"`
}

func (q PageQuery) Validate() error {
	if !q.Column.Valid() {
		return fmt.Errorf("%w: неизвестная колонка %q", ErrInvalidQuery, q.Column)
	}
	if q.Page < 1 {
		return fmt.Errorf("%w: page должен быть >= 1", ErrInvalidQuery)
	}
	if q.PageSize <= 0 {
		return fmt.Errorf("%w: pageSize должен быть > 0", ErrInvalidQuery)
	}
	if q.Page-1 > math.MaxInt/q.PageSize {
		return fmt.Errorf("%w: смещение страницы %d не помещается в int", ErrInvalidQuery, q.Page)
	}
	return nil
}

// Offset переводит номер страницы в смещение _start.
func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// HasMore: страница заполнена целиком. При total кратном pageSize
// клиент сделает один лишний пустой запрос.
func HasMore(pageLen, pageSize int) bool {
	return pageLen == pageSize
}

// Paginate строит страницу колонки по полному набору задач.
func Paginate(tasks []*task.Task, q PageQuery) (*Page, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	matched := filter(tasks, q.Column, q.Search)
	sortTasks(matched, SortOrder, Asc)

	page := window(matched, q.Offset(), q.PageSize)
	return &Page{
		Tasks:   page,
		Total:   len(matched),
		HasMore: HasMore(len(page), q.PageSize),
	}, nil
}
