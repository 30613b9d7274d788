package service

import (
	"context"
	"errors"
	"fmt"
	"kanbanBoard/internal/listing"
	"kanbanBoard/internal/logger"
	"kanbanBoard/internal/models/task"
	rep "kanbanBoard/internal/repository"
	"kanbanBoard/internal/reorder"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

type TaskRepository interface {
	HealthCheck(ctx context.Context) error
	Insert(ctx context.Context, t *task.Task) error
	Update(ctx context.Context, t *task.Task) error
	GetByID(ctx context.Context, id string) (*task.Task, error)
	Delete(ctx context.Context, id string) error
	ListByColumn(ctx context.Context, column task.Column) ([]*task.Task, error)
	GetAll(ctx context.Context) ([]*task.Task, error)
	FetchAndReset(ctx context.Context) ([]*task.Task, error)
	Close() error
}

type RepoType string

const (
	MemoryType   RepoType = "memory"
	FileType     RepoType = "file"
	SQLiteType   RepoType = "sqlite"
	PostgresType RepoType = "postgres"
)

const resourceTask = "Задача"

type TaskService struct {
	repo     TaskRepository
	repoType RepoType

	maxLimit        int
	moveConcurrency int
}

type Option func(*TaskService)

// WithMaxLimit ограничивает _limit в REST-выборке, 0 снимает ограничение.
func WithMaxLimit(n int) Option {
	return func(s *TaskService) {
		if n >= 0 {
			s.maxLimit = n
		}
	}
}

func WithMoveConcurrency(n int) Option {
	return func(s *TaskService) {
		if n >= 0 {
			s.moveConcurrency = n
		}
	}
}

func NewTaskService(repo TaskRepository, repoType RepoType, options ...Option) *TaskService {
	s := &TaskService{
		repo:            repo,
		repoType:        repoType,
		maxLimit:        100,
		moveConcurrency: 8,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *TaskService) RepoType() RepoType {
	return s.repoType
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		logger.Error("Service: Хранилище недоступно", err, zap.String("repo", string(s.repoType)))
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

func (s *TaskService) Columns() []task.ColumnInfo {
	return task.Columns()
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return NewValidationError("title", "не может быть пустым")
	}
	return nil
}

func validateColumn(column task.Column) error {
	if !column.Valid() {
		return NewValidationError("column", fmt.Sprintf("неизвестная колонка %q", column))
	}
	return nil
}

func validateOrder(order int) error {
	if !task.ValidOrder(order) {
		return NewValidationError("order", fmt.Sprintf("должен быть в диапазоне [%d, %d]", task.MinOrder, task.MaxOrder))
	}
	return nil
}

// notFoundOr переводит repository.ErrNotFound в NOT_FOUND, остальное оборачивает.
func notFoundOr(err error, id, action string) error {
	if errors.Is(err, rep.ErrNotFound) {
		logger.Info("Service: Задача не найдена", zap.String("target_id", id))
		return NewNotFound(resourceTask, id)
	}
	return fmt.Errorf("%s: %w", action, err)
}

func queryError(err error) error {
	busErr := NewBusinessError(CodeValidation, err.Error())
	busErr.Err = err
	return busErr
}

// CreateTask создаёт задачу с id UUIDv7. Пустая колонка означает backlog.
func (s *TaskService) CreateTask(ctx context.Context, title, description string, column task.Column, order int) (*task.Task, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if column == "" {
		column = task.ColumnBacklog
	}
	if err := validateColumn(column); err != nil {
		return nil, err
	}
	if err := validateOrder(order); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("генерация id: %w", err)
	}

	newTask := &task.Task{
		ID:          id.String(),
		Title:       title,
		Description: description,
		Column:      column,
		Order:       order,
	}

	if err := s.repo.Insert(ctx, newTask); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Debug("Service: Задача создана", zap.String("id", newTask.ID), zap.String("column", string(column)))
	return newTask, nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, id, "получение задачи")
	}
	return t, nil
}

// UpdateTask накладывает переданные поля на текущую задачу. id не меняется.
func (s *TaskService) UpdateTask(ctx context.Context, id string, options ...task.TaskOption) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, id, "получение задачи")
	}

	before := *t
	t.Apply(options...)
	t.ID = id

	// проверяем только изменённые поля, старые записи с пустым title остаются доступны для перемещения
	if t.Title != before.Title {
		if err := validateTitle(t.Title); err != nil {
			return nil, err
		}
	}
	if t.Column != before.Column {
		if err := validateColumn(t.Column); err != nil {
			return nil, err
		}
	}
	if err := validateOrder(t.Order); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, notFoundOr(err, id, "обновление задачи")
	}
	return t, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, id, "удаление задачи")
	}
	logger.Debug("Service: Задача удалена", zap.String("id", id))
	return nil
}

// FetchAll - полный снимок доски в порядке order, id.
func (s *TaskService) FetchAll(ctx context.Context) ([]*task.Task, error) {
	tasks, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) ListTasks(ctx context.Context, q listing.Query) (*listing.Result, error) {
	if err := q.Validate(); err != nil {
		return nil, queryError(err)
	}
	if s.maxLimit > 0 && q.Limit > s.maxLimit {
		return nil, NewValidationError("_limit", fmt.Sprintf("не больше %d", s.maxLimit))
	}

	var (
		tasks []*task.Task
		err   error
	)
	if q.Column != "" {
		tasks, err = s.repo.ListByColumn(ctx, q.Column)
	} else {
		tasks, err = s.repo.GetAll(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	res, err := listing.Apply(tasks, q)
	if err != nil {
		return nil, queryError(err)
	}
	return res, nil
}

func (s *TaskService) ListPage(ctx context.Context, q listing.PageQuery) (*listing.Page, error) {
	if err := q.Validate(); err != nil {
		return nil, queryError(err)
	}
	if s.maxLimit > 0 && q.PageSize > s.maxLimit {
		return nil, NewValidationError("pageSize", fmt.Sprintf("не больше %d", s.maxLimit))
	}

	tasks, err := s.repo.ListByColumn(ctx, q.Column)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	page, err := listing.Paginate(tasks, q)
	if err != nil {
		return nil, queryError(err)
	}
	return page, nil
}

// MoveTask считает план по свежему снимку и применяет его параллельно.
// При частичном сбое применённые изменения остаются, возвращается MOVE_INCOMPLETE.
func (s *TaskService) MoveTask(ctx context.Context, m reorder.Move) (*reorder.Outcome, error) {
	start := time.Now()

	snapshot, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("снимок доски: %w", err)
	}

	plan, err := reorder.Compute(snapshot, m)
	if err != nil {
		switch {
		case errors.Is(err, reorder.ErrStaleSnapshot):
			logger.Info("Service: Устаревший снимок при перемещении", zap.String("task_id", m.TaskID))
			return nil, NewStaleSnapshot(err)
		case errors.Is(err, reorder.ErrTaskNotFound):
			return nil, NewNotFound(resourceTask, m.TaskID)
		case errors.Is(err, reorder.ErrInvalidMove):
			return nil, queryError(err)
		}
		return nil, fmt.Errorf("расчёт перемещения: %w", err)
	}

	outcome := reorder.Dispatch(ctx, plan, s.applyUpdate, s.moveConcurrency)
	if !outcome.Complete() {
		logger.Error("Service: Перемещение применено частично", outcome.Err,
			zap.Strings("applied", outcome.Applied),
			zap.Strings("failed", outcome.Failed))
		return outcome, NewMoveIncomplete(outcome.Applied, outcome.Failed, outcome.Err)
	}

	logger.Debug("Service: Перемещение выполнено",
		zap.Int("updates", len(plan.Updates)),
		zap.Duration("ms", time.Since(start)))
	return outcome, nil
}

func (s *TaskService) applyUpdate(ctx context.Context, u reorder.Update) error {
	options := []task.TaskOption{task.WithOrder(u.Order)}
	if u.Column != "" {
		options = append(options, task.WithColumn(u.Column))
	}
	_, err := s.UpdateTask(ctx, u.ID, options...)
	return err
}
