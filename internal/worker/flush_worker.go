package worker

import (
	"context"
	"fmt"
	"kanbanBoard/internal/logger"
	"time"

	"go.uber.org/zap"
)

type Flusher interface {
	Flush(ctx context.Context) error
}

// FlushWorker периодически сбрасывает файловое хранилище на диск.
type FlushWorker struct {
	store    Flusher
	interval time.Duration
}

func NewFlushWorker(store Flusher, interval *time.Duration) *FlushWorker {
	var intervalToSet time.Duration
	if interval == nil || *interval <= 0 {
		intervalToSet = 30 * time.Second
	} else {
		intervalToSet = *interval
	}

	return &FlushWorker{
		store:    store,
		interval: intervalToSet,
	}
}

func (w *FlushWorker) Interval() time.Duration {
	return w.interval
}

// Start блокируется до отмены ctx. Перед выходом выполняется последний сброс.
func (w *FlushWorker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Фоновое сохранение доски запущено", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ticker.C:
			if err := w.Flush(ctx); err != nil {
				logger.Warn("Worker: Ошибка сохранения доски", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Info("Worker: Фоновое сохранение останавливается")
			// ctx уже отменён, последний сброс идёт со своим таймаутом
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return w.Flush(flushCtx)
		}
	}
}

func (w *FlushWorker) Flush(ctx context.Context) error {
	start := time.Now()

	if err := w.store.Flush(ctx); err != nil {
		return fmt.Errorf("сохранение доски: %w", err)
	}

	logger.Debug("Worker: Доска сохранена", zap.Duration("ms", time.Since(start)))
	return nil
}
