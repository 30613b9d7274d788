// Package client говорит с сервером доски по REST: постраничные выборки
// колонок, CRUD задач и перетаскивание через движок перестановки.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"kanbanBoard/internal/handlers/dto"
	"kanbanBoard/internal/listing"
	"kanbanBoard/internal/logger"
	"kanbanBoard/internal/models/task"
	"kanbanBoard/internal/reorder"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// APIError - ответ сервера со статусом не 2xx.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Code)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func IsStale(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}

type Client struct {
	baseURL         string
	httpClient      *http.Client
	moveConcurrency int
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.httpClient.Timeout = d
		}
	}
}

func WithMoveConcurrency(n int) Option {
	return func(cl *Client) {
		if n >= 0 {
			cl.moveConcurrency = n
		}
	}
}

func New(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		moveConcurrency: 8,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("кодирование запроса: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("создание запроса: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	logger.Debug("Client: Ответ сервера",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("ms", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("разбор ответа %s %s: %w", method, path, err)
		}
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Error != "" {
			apiErr.Code = body.Error
		}
		apiErr.Message = body.Message
	}
	return apiErr
}

func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
	return err
}

func (c *Client) Columns(ctx context.Context) ([]task.ColumnInfo, error) {
	var columns []task.ColumnInfo
	if _, err := c.do(ctx, http.MethodGet, "/columns", nil, nil, &columns); err != nil {
		return nil, err
	}
	return columns, nil
}

// List выполняет REST-выборку. Total берётся из X-Total-Count.
func (c *Client) List(ctx context.Context, q listing.Query) (*listing.Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	params := url.Values{}
	if q.Column != "" {
		params.Set("column", string(q.Column))
	}
	if q.Search != "" {
		params.Set("q", q.Search)
	}
	params.Set("_sort", string(q.Sort))
	params.Set("_order", string(q.Direction))
	params.Set("_start", strconv.Itoa(q.Start))
	params.Set("_limit", strconv.Itoa(q.Limit))

	var tasks []*task.Task
	resp, err := c.do(ctx, http.MethodGet, "/tasks", params, nil, &tasks)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}

	total := len(tasks)
	if raw := resp.Header.Get("X-Total-Count"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			total = n
		}
	}
	return &listing.Result{Tasks: tasks, Total: total}, nil
}

// ListColumn загружает страницу колонки: _start=(page-1)*pageSize, сортировка по order.
func (c *Client) ListColumn(ctx context.Context, q listing.PageQuery) (*listing.Page, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	res, err := c.List(ctx, listing.Query{
		Column:    q.Column,
		Search:    q.Search,
		Sort:      listing.SortOrder,
		Direction: listing.Asc,
		Start:     q.Offset(),
		Limit:     q.PageSize,
	})
	if err != nil {
		return nil, err
	}

	return &listing.Page{
		Tasks:   res.Tasks,
		Total:   res.Total,
		HasMore: listing.HasMore(len(res.Tasks), q.PageSize),
	}, nil
}

// FetchAll - вся доска, отсортированная по order и id.
func (c *Client) FetchAll(ctx context.Context) ([]*task.Task, error) {
	var tasks []*task.Task
	if _, err := c.do(ctx, http.MethodGet, "/tasks/all", nil, nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}
	task.SortByOrder(tasks)
	return tasks, nil
}

func (c *Client) Get(ctx context.Context, id string) (*task.Task, error) {
	var t task.Task
	if _, err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) Create(ctx context.Context, req dto.CreateTaskRequest) (*task.Task, error) {
	var t task.Task
	if _, err := c.do(ctx, http.MethodPost, "/tasks", nil, req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) Update(ctx context.Context, id string, req dto.UpdateTaskRequest) (*task.Task, error) {
	var t task.Task
	if _, err := c.do(ctx, http.MethodPatch, "/tasks/"+url.PathEscape(id), nil, req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil, nil)
	return err
}

// Move считает план по свежему снимку доски и отправляет PATCH параллельно.
// Outcome возвращается и при частичном сбое, Affected - колонки для перезагрузки.
func (c *Client) Move(ctx context.Context, m reorder.Move) (*reorder.Outcome, error) {
	snapshot, err := c.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("снимок доски: %w", err)
	}

	plan, err := reorder.Compute(snapshot, m)
	if err != nil {
		return nil, err
	}

	outcome := reorder.Dispatch(ctx, plan, c.applyUpdate, c.moveConcurrency)
	if !outcome.Complete() {
		logger.Warn("Client: Перемещение применено частично",
			zap.Strings("failed", outcome.Failed),
			zap.Error(outcome.Err))
		return outcome, fmt.Errorf("перемещение применено частично: %w", outcome.Err)
	}
	return outcome, nil
}

func (c *Client) applyUpdate(ctx context.Context, u reorder.Update) error {
	req := dto.UpdateTaskRequest{Order: &u.Order}
	if u.Column != "" {
		column := u.Column
		req.Column = &column
	}
	_, err := c.Update(ctx, u.ID, req)
	return err
}

// MoveOnServer отдаёт перемещение серверу одним запросом POST /tasks/move.
func (c *Client) MoveOnServer(ctx context.Context, m reorder.Move) (*dto.MoveTaskResponse, error) {
	var out dto.MoveTaskResponse
	req := dto.MoveTaskRequest{
		TaskID:       m.TaskID,
		SourceColumn: m.SourceColumn,
		SourceIndex:  m.SourceIndex,
		DestColumn:   m.DestColumn,
		DestIndex:    m.DestIndex,
	}
	if _, err := c.do(ctx, http.MethodPost, "/tasks/move", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
