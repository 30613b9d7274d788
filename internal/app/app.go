package app

import (
	"context"
	"errors"
	"fmt"
	"kanbanBoard/internal/config"
	"kanbanBoard/internal/handlers"
	"kanbanBoard/internal/logger"
	"kanbanBoard/internal/middleware"
	"kanbanBoard/internal/repository/task/cache"
	"kanbanBoard/internal/repository/task/filestore"
	"kanbanBoard/internal/repository/task/inmemory"
	"kanbanBoard/internal/repository/task/postgres"
	"kanbanBoard/internal/repository/task/sqlite"
	"kanbanBoard/internal/service"
	"kanbanBoard/internal/worker"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository service.TaskRepository // интерфейс!
	service    *service.TaskService
	worker     *worker.FlushWorker
	shutdowns  []func() // функции для graceful shutdown, выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	if err := a.initRepository(ctx); err != nil {
		a.Shutdown()
		return nil, err
	}

	a.service = service.NewTaskService(a.repository, service.RepoType(a.config.Repository.Type),
		service.WithMaxLimit(a.config.Listing.MaxLimit),
		service.WithMoveConcurrency(a.config.Listing.MoveConcurrency),
	)

	a.initRouter()

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      otelhttp.NewHandler(a.router, "kanban"),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	logger.Info("Приложение инициализировано",
		zap.String("repository", a.config.Repository.Type),
		zap.Bool("cache", a.config.Cache.Enabled),
		zap.String("addr", a.server.Addr))

	return a, nil
}

func (a *App) initRepository(ctx context.Context) error {
	var base cache.Backend

	switch service.RepoType(a.config.Repository.Type) {
	case service.MemoryType:
		base = inmemory.NewTaskStorage()

	case service.FileType:
		storage, err := filestore.New(ctx, a.config.File.Path, a.config.File.FlushOnWrite)
		if err != nil {
			return fmt.Errorf("файловое хранилище: %w", err)
		}
		logger.Info("Файловое хранилище подключено", zap.String("path", storage.Path()))
		base = storage
		interval := a.config.File.FlushInterval
		a.worker = worker.NewFlushWorker(storage, &interval)

	case service.SQLiteType:
		storage, err := sqlite.New(ctx, a.config.SQLite.Path)
		if err != nil {
			return fmt.Errorf("хранилище SQLite: %w", err)
		}
		base = storage

	case service.PostgresType:
		storage, err := a.connectPostgres(ctx)
		if err != nil {
			return err
		}
		base = storage

	default:
		return fmt.Errorf("неизвестный тип хранилища %q", a.config.Repository.Type)
	}

	a.shutdowns = append(a.shutdowns, func() {
		if err := base.Close(); err != nil {
			logger.Error("Ошибка закрытия хранилища", err)
		}
	})

	a.repository = base
	if a.config.Cache.Enabled {
		a.repository = a.withCache(ctx, base)
	}
	return nil
}

// connectPostgres ждёт базу с экспоненциальной задержкой, пока не истечёт connect_timeout.
func (a *App) connectPostgres(ctx context.Context) (*postgres.Storage, error) {
	dbCfg := a.config.Database

	var storage *postgres.Storage
	connect := func() error {
		s, err := postgres.New(ctx, dbCfg.URL,
			postgres.WithMaxConns(int32(dbCfg.MaxConnections)),
			postgres.WithMinConns(int32(dbCfg.MinConnections)),
			postgres.WithIdleTimeout(dbCfg.IdleTimeout),
		)
		if err != nil {
			return err
		}
		storage = s
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = dbCfg.ConnectTimeout

	err := backoff.RetryNotify(connect, backoff.WithContext(policy, ctx), func(err error, next time.Duration) {
		logger.Warn("Повторное подключение к PostgreSQL", zap.Error(err), zap.Duration("next", next))
	})
	if err != nil {
		return nil, fmt.Errorf("подключение к PostgreSQL: %w", err)
	}

	if dbCfg.Migrate {
		if err := storage.Migrate(ctx); err != nil {
			storage.Close()
			return nil, fmt.Errorf("миграции PostgreSQL: %w", err)
		}
	}
	return storage, nil
}

// withCache оборачивает хранилище кэшем выборок. Недоступный Redis не мешает старту.
func (a *App) withCache(ctx context.Context, base cache.Backend) *cache.Cache {
	cacheCfg := a.config.Cache

	client := redis.NewClient(&redis.Options{
		Addr:     cacheCfg.Addr,
		Password: cacheCfg.Password,
		DB:       cacheCfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis недоступен, выборки пойдут напрямую в хранилище",
			zap.String("addr", cacheCfg.Addr), zap.Error(err))
	}

	a.shutdowns = append(a.shutdowns, func() {
		if err := client.Close(); err != nil {
			logger.Error("Ошибка закрытия клиента Redis", err)
		}
	})

	return cache.New(base, client, cacheCfg.TTL, cacheCfg.Prefix)
}

func (a *App) initRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Total-Count", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.RateLimit(a.config.Server.RateLimit))

	handler := handlers.NewTaskHandler(a.service, a.config.Listing.DefaultLimit)
	handler.Register(r)

	a.router = r
}

// Handler возвращает роутер без сервера, удобно для httptest.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run блокируется до отмены ctx или ошибки сервера, затем останавливает всё по порядку.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	if a.worker != nil {
		g.Go(func() error {
			return a.worker.Start(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Остановка сервера...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка сервера: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.Shutdown()
	return err
}

func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
