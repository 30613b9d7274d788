package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"kanbanBoard/internal/logger"
	"kanbanBoard/internal/models/task"
	repo "kanbanBoard/internal/repository"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const selectColumns = `id, title, description, column_id, sort_order`

type Storage struct {
	pool       *pgxpool.Pool
	connString string
}

type Option func(*pgxpool.Config)

func WithMaxConns(n int32) Option {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

func WithMinConns(n int32) Option {
	return func(c *pgxpool.Config) {
		if n >= 0 {
			c.MinConns = n
		}
	}
}

func WithIdleTimeout(d time.Duration) Option {
	return func(c *pgxpool.Config) {
		if d > 0 {
			c.MaxConnIdleTime = d
		}
	}
}

func New(ctx context.Context, connString string, options ...Option) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	for _, opt := range options {
		opt(config)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool, connString: connString}, nil
}

func (s *Storage) Close() error {
	if s.pool == nil {
		return nil
	}
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
	return nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func warnIfSlow(start time.Time, limit time.Duration, op string) {
	if time.Since(start) > limit {
		logger.Warn("Repository: Медленный запрос", zap.String("operation", op), zap.Duration("ms", time.Since(start)))
	}
}

func (s *Storage) Insert(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks (id, title, description, column_id, sort_order)
				VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, query,
		taskToCreate.ID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Column,
		taskToCreate.Order,
	)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	warnIfSlow(start, time.Millisecond*50, "insert")
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				column_id = $3,
				sort_order = $4,
				updated_at = NOW()
			WHERE id = $5`

	tag, err := s.pool.Exec(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Column,
		taskToUpdate.Order,
		taskToUpdate.ID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("обновление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow(start, time.Millisecond*100, "update")
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id string) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + selectColumns + ` FROM tasks WHERE id = $1`

	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	t, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[task.Task])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	warnIfSlow(start, time.Millisecond*100, "get_by_id")
	return t, nil
}

func (s *Storage) Delete(ctx context.Context, id string) error {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow(start, time.Millisecond*100, "delete")
	return nil
}

// id сравниваются побайтово (COLLATE "C"), как в task.Compare
func (s *Storage) ListByColumn(ctx context.Context, column task.Column) ([]*task.Task, error) {
	query := `SELECT ` + selectColumns + `
				FROM tasks
				WHERE column_id = $1
				ORDER BY sort_order ASC, id COLLATE "C" ASC`
	return s.queryTasks(ctx, "list_by_column", query, column)
}

func (s *Storage) GetAll(ctx context.Context) ([]*task.Task, error) {
	query := `SELECT ` + selectColumns + `
				FROM tasks
				ORDER BY sort_order ASC, id COLLATE "C" ASC`
	return s.queryTasks(ctx, "get_all", query)
}

func (s *Storage) FetchAndReset(ctx context.Context) ([]*task.Task, error) {
	tasks, err := s.queryTasks(ctx, "fetch_and_reset", `DELETE FROM tasks RETURNING `+selectColumns)
	if err != nil {
		return nil, err
	}
	task.SortByOrder(tasks)
	return tasks, nil
}

func (s *Storage) queryTasks(ctx context.Context, op, query string, args ...any) ([]*task.Task, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.String("operation", op), zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	tasks, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[task.Task])
	if err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err, zap.String("operation", op))
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}

	warnIfSlow(start, time.Millisecond*50+time.Millisecond*time.Duration(len(tasks)), op)
	return tasks, nil
}

// migrateURL переводит строку подключения на схему драйвера pgx/v5 для golang-migrate
func migrateURL(connString string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(connString, prefix) {
			return "pgx5://" + strings.TrimPrefix(connString, prefix)
		}
	}
	return connString
}

func (s *Storage) newMigrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("источник миграций: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(s.connString))
	if err != nil {
		return nil, fmt.Errorf("инициализация миграций: %w", err)
	}
	return m, nil
}

func (s *Storage) Migrate(ctx context.Context) error {
	logger.Info("Repository: Применение миграций")

	m, err := s.newMigrator()
	if err != nil {
		logger.Error("Repository: Не удалось подготовить миграции", err)
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Не удалось применить миграции", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	logger.Info("Repository: Миграции применены")
	return nil
}

func (s *Storage) Down(ctx context.Context) error {
	logger.Info("Repository: Откат миграций")

	m, err := s.newMigrator()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Не удалось откатить миграции", err)
		return fmt.Errorf("откат миграций: %w", err)
	}

	logger.Info("Repository: Миграции откачены")
	return nil
}
