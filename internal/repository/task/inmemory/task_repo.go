package inmemory

import (
	"context"
	"kanbanBoard/internal/logger"
	"kanbanBoard/internal/models/task"
	repo "kanbanBoard/internal/repository"
	"sync"
)

// TaskStorage хранит задачи в памяти процесса.
// Мьютекс защищает только целостность map при параллельных запросах,
// транзакционной семантики нет: побеждает последняя запись.
type TaskStorage struct {
	storage map[string]*task.Task
	mtx     *sync.RWMutex
	ids     []string
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[string]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []string{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Close() error {
	return nil
}

func (s *TaskStorage) Insert(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToCreate.ID]; !ok {
		s.ids = append(s.ids, taskToCreate.ID)
	}
	s.storage[taskToCreate.ID] = taskToCreate.Clone()
	return nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToUpdate.ID]; !ok {
		return repo.ErrNotFound
	}
	s.storage[taskToUpdate.ID] = taskToUpdate.Clone()
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id string) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return taskToGet.Clone(), nil
}

// полное удаление, мягкого удаления у доски нет
func (s *TaskStorage) Delete(ctx context.Context, id string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

// задачи одной колонки в порядке отображения
func (s *TaskStorage) ListByColumn(ctx context.Context, column task.Column) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		t := s.storage[id]
		if t.Column != column {
			continue
		}
		res = append(res, t.Clone())
	}
	task.SortByOrder(res)
	return res, nil
}

// все задачи без фильтра по колонке, в порядке отображения
func (s *TaskStorage) GetAll(ctx context.Context) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*task.Task, 0, len(s.ids))
	for _, id := range s.ids {
		res = append(res, s.storage[id].Clone())
	}
	task.SortByOrder(res)
	return res, nil
}

// FetchAndReset возвращает содержимое хранилища и очищает его.
func (s *TaskStorage) FetchAndReset(ctx context.Context) ([]*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	res := make([]*task.Task, 0, len(s.ids))
	for _, id := range s.ids {
		res = append(res, s.storage[id])
	}
	task.SortByOrder(res)

	s.storage = make(map[string]*task.Task)
	s.ids = []string{}
	return res, nil
}

func (s *TaskStorage) Len() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.ids)
}
