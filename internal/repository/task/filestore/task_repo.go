// Package filestore хранит доску в одном файле JSON (или YAML по расширению).
// Файл читается целиком при старте, изменения живут в памяти и сбрасываются
// на диск через Flush: при остановке, фоновым воркером или после каждой записи.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"kanbanBoard/internal/logger"
	"kanbanBoard/internal/models/task"
	"kanbanBoard/internal/repository/task/inmemory"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Format string

const FormatJSON Format = "json"
const FormatYAML Format = "yaml"

// Document - формат файла: {"tasks": [...]}
type Document struct {
	Tasks []*task.Task `json:"tasks" yaml:"tasks"`
}

type Storage struct {
	*inmemory.TaskStorage

	path         string
	format       Format
	flushOnWrite bool

	dirty    atomic.Bool
	flushMtx sync.Mutex
}

func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

func New(ctx context.Context, path string, flushOnWrite bool) (*Storage, error) {
	if path == "" {
		return nil, errors.New("путь к файлу хранилища не задан")
	}

	s := &Storage{
		TaskStorage:  inmemory.NewTaskStorage(),
		path:         path,
		format:       FormatFromPath(path),
		flushOnWrite: flushOnWrite,
	}

	doc, err := readDocument(path, s.format)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("Repository: Файл доски не найден, начинаем с пустой доски", zap.String("path", path))
			return s, nil
		}
		logger.Error("Repository: Ошибка чтения файла доски", err, zap.String("path", path))
		return nil, fmt.Errorf("чтение %s: %w", path, err)
	}

	for _, t := range doc.Tasks {
		if t == nil || t.ID == "" {
			logger.Warn("Repository: Пропущена задача без id", zap.String("path", path))
			continue
		}
		if err := s.TaskStorage.Insert(ctx, t); err != nil {
			return nil, fmt.Errorf("загрузка задачи %s: %w", t.ID, err)
		}
	}

	logger.Info("Repository: Доска загружена из файла",
		zap.String("path", path),
		zap.String("format", string(s.format)),
		zap.Int("tasks", s.Len()))
	return s, nil
}

func readDocument(path string, format Format) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, doc)
	default:
		err = json.Unmarshal(data, doc)
	}
	if err != nil {
		return nil, fmt.Errorf("разбор документа: %w", err)
	}
	return doc, nil
}

func encodeDocument(doc *Document, format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(doc)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (s *Storage) Path() string {
	return s.path
}

func (s *Storage) Dirty() bool {
	return s.dirty.Load()
}

func (s *Storage) Insert(ctx context.Context, t *task.Task) error {
	if err := s.TaskStorage.Insert(ctx, t); err != nil {
		return err
	}
	return s.afterWrite(ctx)
}

func (s *Storage) Update(ctx context.Context, t *task.Task) error {
	if err := s.TaskStorage.Update(ctx, t); err != nil {
		return err
	}
	return s.afterWrite(ctx)
}

func (s *Storage) Delete(ctx context.Context, id string) error {
	if err := s.TaskStorage.Delete(ctx, id); err != nil {
		return err
	}
	return s.afterWrite(ctx)
}

func (s *Storage) FetchAndReset(ctx context.Context) ([]*task.Task, error) {
	tasks, err := s.TaskStorage.FetchAndReset(ctx)
	if err != nil {
		return nil, err
	}
	s.dirty.Store(true)
	return tasks, nil
}

func (s *Storage) afterWrite(ctx context.Context) error {
	s.dirty.Store(true)
	if !s.flushOnWrite {
		return nil
	}
	// Запись уже в памяти: при ошибке диска флаг dirty остаётся, файл допишет воркер или Close.
	if err := s.Flush(ctx); err != nil {
		logger.Warn("Repository: Сброс после записи не удался, повторим позже", zap.Error(err))
	}
	return nil
}

// Flush атомарно переписывает файл текущим состоянием (временный файл + rename).
func (s *Storage) Flush(ctx context.Context) error {
	s.flushMtx.Lock()
	defer s.flushMtx.Unlock()

	if !s.dirty.Swap(false) {
		return nil
	}

	start := time.Now()
	tasks, err := s.TaskStorage.GetAll(ctx)
	if err != nil {
		s.dirty.Store(true)
		return fmt.Errorf("снимок доски: %w", err)
	}

	if err := writeAtomic(s.path, &Document{Tasks: tasks}, s.format); err != nil {
		s.dirty.Store(true)
		logger.Error("Repository: Не удалось сохранить доску", err, zap.String("path", s.path))
		return fmt.Errorf("сохранение %s: %w", s.path, err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	logger.Debug("Repository: Доска сохранена", zap.String("path", s.path), zap.Int("tasks", len(tasks)))
	return nil
}

func writeAtomic(path string, doc *Document, format Format) error {
	data, err := encodeDocument(doc, format)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *Storage) Close() error {
	logger.Info("Repository: Сохранение доски перед остановкой", zap.String("path", s.path))
	return s.Flush(context.Background())
}
