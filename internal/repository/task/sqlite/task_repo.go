package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"kanbanBoard/internal/logger"
	"kanbanBoard/internal/models/task"
	repo "kanbanBoard/internal/repository"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	column_id   TEXT NOT NULL,
	sort_order  INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tasks_column_order ON tasks (column_id, sort_order, id);
`

const selectColumns = `id, title, description, column_id, sort_order`

// Storage хранит доску в файле SQLite. Запись идёт через одно соединение,
// иначе параллельные PATCH получают SQLITE_BUSY.
type Storage struct {
	db *sqlx.DB
}

func New(ctx context.Context, path string) (*Storage, error) {
	if path == "" {
		return nil, errors.New("путь к базе SQLite не задан")
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		logger.Error("Repository: Ошибка открытия SQLite", err, zap.String("path", path))
		return nil, fmt.Errorf("открытие базы: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		logger.Error("Repository: Не удалось создать схему", err)
		return nil, fmt.Errorf("создание схемы: %w", err)
	}

	logger.Info("Repository: Успешное открытие SQLite", zap.String("path", path))
	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	logger.Info("Repository: Закрытие базы SQLite")
	return s.db.Close()
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Insert(ctx context.Context, t *task.Task) error {
	query := `INSERT INTO tasks (id, title, description, column_id, sort_order)
				VALUES (:id, :title, :description, :column_id, :sort_order)`

	if _, err := s.db.NamedExecContext(ctx, query, t); err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.String("id", t.ID))
		return fmt.Errorf("добавление задачи: %w", err)
	}
	return nil
}

func (s *Storage) Update(ctx context.Context, t *task.Task) error {
	query := `UPDATE tasks
			SET title = :title,
				description = :description,
				column_id = :column_id,
				sort_order = :sort_order,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = :id`

	res, err := s.db.NamedExecContext(ctx, query, t)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err, zap.String("id", t.ID))
		return fmt.Errorf("обновление задачи: %w", err)
	}
	return checkAffected(res)
}

func (s *Storage) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.String("id", id))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("число затронутых строк: %w", err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id string) (*task.Task, error) {
	t := &task.Task{}
	err := s.db.GetContext(ctx, t, `SELECT `+selectColumns+` FROM tasks WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.String("id", id))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

func (s *Storage) ListByColumn(ctx context.Context, column task.Column) ([]*task.Task, error) {
	return s.selectTasks(ctx, `SELECT `+selectColumns+` FROM tasks
				WHERE column_id = ?
				ORDER BY sort_order ASC, id ASC`, column)
}

func (s *Storage) GetAll(ctx context.Context) ([]*task.Task, error) {
	return s.selectTasks(ctx, `SELECT `+selectColumns+` FROM tasks ORDER BY sort_order ASC, id ASC`)
}

func (s *Storage) FetchAndReset(ctx context.Context) ([]*task.Task, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback()

	tasks := []*task.Task{}
	if err := tx.SelectContext(ctx, &tasks, `SELECT `+selectColumns+` FROM tasks ORDER BY sort_order ASC, id ASC`); err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return nil, fmt.Errorf("очистка задач: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("фиксация транзакции: %w", err)
	}
	return tasks, nil
}

func (s *Storage) selectTasks(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	start := time.Now()

	tasks := []*task.Task{}
	if err := s.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return tasks, nil
}
