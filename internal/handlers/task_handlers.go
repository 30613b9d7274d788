package handlers

import (
	"context"
	"encoding/json"
	"kanbanBoard/internal/handlers/dto"
	"kanbanBoard/internal/listing"
	"kanbanBoard/internal/logger"
	"kanbanBoard/internal/models/task"
	"kanbanBoard/internal/reorder"
	"kanbanBoard/internal/service"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Service interface {
	HealthCheck(ctx context.Context) error
	RepoType() service.RepoType
	Columns() []task.ColumnInfo
	CreateTask(ctx context.Context, title, description string, column task.Column, order int) (*task.Task, error)
	GetTask(ctx context.Context, id string) (*task.Task, error)
	UpdateTask(ctx context.Context, id string, options ...task.TaskOption) (*task.Task, error)
	DeleteTask(ctx context.Context, id string) error
	FetchAll(ctx context.Context) ([]*task.Task, error)
	ListTasks(ctx context.Context, q listing.Query) (*listing.Result, error)
	ListPage(ctx context.Context, q listing.PageQuery) (*listing.Page, error)
	MoveTask(ctx context.Context, m reorder.Move) (*reorder.Outcome, error)
}

const (
	allowedTaskMethods     = "GET, POST, PATCH, DELETE"
	allowedTaskItemMethods = "GET, PATCH, DELETE"
)

type TaskHandler struct {
	TaskService  Service
	defaultLimit int
}

func NewTaskHandler(taskService Service, defaultLimit int) *TaskHandler {
	if defaultLimit <= 0 {
		defaultLimit = listing.DefaultLimit
	}
	return &TaskHandler{
		TaskService:  taskService,
		defaultLimit: defaultLimit,
	}
}

// intParam читает целый query-параметр, пустое значение даёт def.
func intParam(r *http.Request, name string, def int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warn("HTTP: Ошибка получения параметра",
			zap.String("query", name),
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		return 0, false
	}
	return n, true
}

// taskID берёт id из пути /tasks/{id} или из ?id=
func taskID(r *http.Request) string {
	if id := chi.URLParam(r, "id"); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("id"))
}

// ListTasks - GET /tasks: column, q, _sort, _order, _start, _limit.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := r.URL.Query()

	q := listing.NewQuery()
	q.Column = task.Column(query.Get("column"))
	q.Search = query.Get("q")
	if sort := query.Get("_sort"); sort != "" {
		q.Sort = listing.SortField(sort)
	}
	if order := query.Get("_order"); order != "" {
		q.Direction = listing.Direction(order)
	}

	var ok bool
	if q.Start, ok = intParam(r, "_start", 0); !ok {
		validationError(w, r, "_start", "должен быть целым числом")
		return
	}
	if q.Limit, ok = intParam(r, "_limit", h.defaultLimit); !ok {
		validationError(w, r, "_limit", "должен быть целым числом")
		return
	}

	res, err := h.TaskService.ListTasks(r.Context(), q)
	if err != nil {
		handleError(w, r, err, "list_tasks")
		return
	}

	logger.Debug("HTTP_OUT: Задачи получены",
		zap.Int("count", len(res.Tasks)),
		zap.Int("total", res.Total),
		zap.Duration("ms", time.Since(start)))

	w.Header().Set("X-Total-Count", strconv.Itoa(res.Total))
	writeJSON(w, http.StatusOK, res.Tasks)
}

// FetchAll - GET /tasks/all, вся доска без пагинации.
func (h *TaskHandler) FetchAll(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.TaskService.FetchAll(r.Context())
	if err != nil {
		handleError(w, r, err, "fetch_all")
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(len(tasks)))
	writeJSON(w, http.StatusOK, tasks)
}

// ListPage - GET /tasks/page?column&page&pageSize&q
func (h *TaskHandler) ListPage(w http.ResponseWriter, r *http.Request) {
	page, ok := intParam(r, "page", 1)
	if !ok {
		validationError(w, r, "page", "должен быть целым числом")
		return
	}
	pageSize, ok := intParam(r, "pageSize", h.defaultLimit)
	if !ok {
		validationError(w, r, "pageSize", "должен быть целым числом")
		return
	}

	res, err := h.TaskService.ListPage(r.Context(), listing.PageQuery{
		Column:   task.Column(r.URL.Query().Get("column")),
		Page:     page,
		PageSize: pageSize,
		Search:   r.URL.Query().Get("q"),
	})
	if err != nil {
		handleError(w, r, err, "list_page")
		return
	}

	writeJSON(w, http.StatusOK, dto.PageResponse{Tasks: res.Tasks, Total: res.Total, HasMore: res.HasMore})
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := taskID(r)
	if id == "" {
		validationError(w, r, "id", "не может быть пустым")
		return
	}

	t, err := h.TaskService.GetTask(r.Context(), id)
	if err != nil {
		handleError(w, r, err, "get_task")
		return
	}

	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		validationError(w, r, "body", "неверное тело запроса")
		return
	}

	created, err := h.TaskService.CreateTask(r.Context(), request.Title, request.Description, request.Column, request.Order)
	if err != nil {
		handleError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	writeJSON(w, http.StatusCreated, created)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := taskID(r)
	if id == "" {
		validationError(w, r, "id", "не может быть пустым")
		return
	}

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		validationError(w, r, "body", "неверно переданы параметры обновления")
		return
	}

	updated, err := h.TaskService.UpdateTask(r.Context(), id, request.Options()...)
	if err != nil {
		handleError(w, r, err, "update_task")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := taskID(r)
	if id == "" {
		validationError(w, r, "id", "не может быть пустым")
		return
	}

	if err := h.TaskService.DeleteTask(r.Context(), id); err != nil {
		handleError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена", zap.String("task_id", id))
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Task deleted"})
}

// MoveTask - POST /tasks/move, серверная версия перетаскивания.
func (h *TaskHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.MoveTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		validationError(w, r, "body", "неверное тело запроса")
		return
	}

	outcome, err := h.TaskService.MoveTask(r.Context(), request.ToMove())
	if err != nil {
		handleError(w, r, err, "move_task")
		return
	}

	logger.Info("HTTP_OUT: Задача перемещена",
		zap.String("task_id", request.TaskID),
		zap.Int("updates", len(outcome.Applied)),
		zap.Duration("ms", time.Since(start)))

	writeJSON(w, http.StatusOK, dto.FromOutcome(outcome))
}

func (h *TaskHandler) Columns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.TaskService.Columns())
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Health check не пройден", err)
		writeJSON(w, http.StatusServiceUnavailable, dto.HealthResponse{
			Status:     "unavailable",
			Repository: string(h.TaskService.RepoType()),
		})
		return
	}
	writeJSON(w, http.StatusOK, dto.HealthResponse{
		Status:     "ok",
		Repository: string(h.TaskService.RepoType()),
	})
}

// MethodNotAllowed отвечает 405 для коллекции /tasks.
func (h *TaskHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	methodNotAllowed(w, r, allowedTaskMethods)
}

// ItemMethodNotAllowed отвечает 405 для /tasks/{id}.
func (h *TaskHandler) ItemMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	methodNotAllowed(w, r, allowedTaskItemMethods)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allow string) {
	logger.Warn("HTTP: Неверный метод",
		zap.String("received", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("client_ip", r.RemoteAddr))

	w.Header().Set("Allow", allow)
	responseWithError(w, http.StatusMethodNotAllowed, "Method "+r.Method+" Not Allowed")
}
