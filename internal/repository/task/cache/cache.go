// Package cache оборачивает хранилище задач кэшем чтения в Redis.
// Кэшируются только выборки колонок и полный снимок доски, любая запись
// сбрасывает все ключи доски.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"kanbanBoard/internal/logger"
	"kanbanBoard/internal/models/task"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Backend interface {
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

type Cache struct {
	base   Backend
	redis  *redis.Client
	ttl    time.Duration
	prefix string
}

func New(base Backend, client *redis.Client, ttl time.Duration, prefix string) *Cache {
	if base == nil {
		panic("cache.New: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if prefix == "" {
		prefix = "kanban"
	}
	return &Cache{base: base, redis: client, ttl: ttl, prefix: prefix}
}

func (c *Cache) columnKey(column task.Column) string {
	return c.prefix + ":column:" + string(column)
}

func (c *Cache) allKey() string {
	return c.prefix + ":all"
}

func (c *Cache) HealthCheck(ctx context.Context) error {
	if err := c.base.HealthCheck(ctx); err != nil {
		return err
	}
	if c.redis == nil {
		return nil
	}
	// недоступный Redis не валит сервис, чтения уходят в хранилище
	if err := c.redis.Ping(ctx).Err(); err != nil {
		logger.Warn("Repository: Redis недоступен", zap.Error(err))
	}
	return nil
}

func (c *Cache) GetByID(ctx context.Context, id string) (*task.Task, error) {
	return c.base.GetByID(ctx, id)
}

func (c *Cache) ListByColumn(ctx context.Context, column task.Column) ([]*task.Task, error) {
	return c.readThrough(ctx, c.columnKey(column), func() ([]*task.Task, error) {
		return c.base.ListByColumn(ctx, column)
	})
}

func (c *Cache) GetAll(ctx context.Context) ([]*task.Task, error) {
	return c.readThrough(ctx, c.allKey(), func() ([]*task.Task, error) {
		return c.base.GetAll(ctx)
	})
}

// readThrough запоминает поколение до чтения из хранилища и кладёт результат,
// только если за время чтения не было записи.
func (c *Cache) readThrough(ctx context.Context, key string, fetch func() ([]*task.Task, error)) ([]*task.Task, error) {
	if tasks, ok := c.load(ctx, key); ok {
		return tasks, nil
	}

	gen, genOK := c.generation(ctx)

	tasks, err := fetch()
	if err != nil {
		return nil, err
	}

	if genOK {
		c.store(ctx, key, gen, tasks)
	}
	return tasks, nil
}

func (c *Cache) Insert(ctx context.Context, t *task.Task) error {
	if err := c.base.Insert(ctx, t); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) Update(ctx context.Context, t *task.Task) error {
	// задача могла сменить колонку, поэтому сбрасываем всю доску
	if err := c.base.Update(ctx, t); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) Delete(ctx context.Context, id string) error {
	if err := c.base.Delete(ctx, id); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) FetchAndReset(ctx context.Context) ([]*task.Task, error) {
	tasks, err := c.base.FetchAndReset(ctx)
	if err != nil {
		return nil, err
	}
	c.evict(ctx)
	return tasks, nil
}

func (c *Cache) Close() error {
	return c.base.Close()
}

func (c *Cache) load(ctx context.Context, key string) ([]*task.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("Repository: Ошибка чтения кэша", zap.String("key", key), zap.Error(err))
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}

	tasks := []*task.Task{}
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	logger.Debug("Repository: Попадание в кэш", zap.String("key", key))
	return tasks, true
}

// storeScript пишет значение, только если поколение доски не изменилось.
var storeScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

func (c *Cache) genKey() string {
	return c.prefix + ":gen"
}

// generation читает счётчик записей доски, отсутствующий ключ - поколение "0".
func (c *Cache) generation(ctx context.Context) (string, bool) {
	if c.redis == nil || c.ttl == 0 {
		return "", false
	}
	gen, err := c.redis.Get(ctx, c.genKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "0", true
	}
	if err != nil {
		return "", false
	}
	return gen, true
}

func (c *Cache) store(ctx context.Context, key, gen string, tasks []*task.Task) {
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	stored, err := storeScript.Run(ctx, c.redis, []string{c.genKey(), key}, gen, data, c.ttl.Milliseconds()).Int()
	if err != nil {
		logger.Warn("Repository: Не удалось записать кэш", zap.String("key", key), zap.Error(err))
		return
	}
	if stored == 0 {
		logger.Debug("Repository: Кэш не записан, доска изменилась во время чтения", zap.String("key", key))
	}
}

// evict поднимает поколение и удаляет ключи доски. Чтения, начатые до записи,
// после этого не смогут положить старый снимок.
func (c *Cache) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	keys := []string{c.allKey()}
	for _, col := range task.Columns() {
		keys = append(keys, c.columnKey(col.ID))
	}
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey())
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		logger.Warn("Repository: Не удалось сбросить кэш", zap.Error(err))
	}
}
