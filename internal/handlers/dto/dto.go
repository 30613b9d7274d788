package dto

import (
	"kanbanBoard/internal/models/task"
	"kanbanBoard/internal/reorder"
)

type CreateTaskRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Column      task.Column `json:"column"`
	Order       int         `json:"order"`
}

// UpdateTaskRequest - частичное обновление, nil означает "не менять".
type UpdateTaskRequest struct {
	Title       *string      `json:"title,omitempty"`
	Description *string      `json:"description,omitempty"`
	Column      *task.Column `json:"column,omitempty"`
	Order       *int         `json:"order,omitempty"`
}

func (r UpdateTaskRequest) Options() []task.TaskOption {
	var options []task.TaskOption
	if r.Title != nil {
		options = append(options, task.WithTitle(*r.Title))
	}
	if r.Description != nil {
		options = append(options, task.WithDescription(*r.Description))
	}
	if r.Column != nil {
		options = append(options, task.WithColumn(*r.Column))
	}
	if r.Order != nil {
		options = append(options, task.WithOrder(*r.Order))
	}
	return options
}

func (r UpdateTaskRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Column == nil && r.Order == nil
}

type MoveTaskRequest struct {
	TaskID       string      `json:"taskId"`
	SourceColumn task.Column `json:"sourceColumn"`
	SourceIndex  int         `json:"sourceIndex"`
	DestColumn   task.Column `json:"destColumn"`
	DestIndex    int         `json:"destIndex"`
}

func (r MoveTaskRequest) ToMove() reorder.Move {
	return reorder.Move{
		TaskID:       r.TaskID,
		SourceColumn: r.SourceColumn,
		SourceIndex:  r.SourceIndex,
		DestColumn:   r.DestColumn,
		DestIndex:    r.DestIndex,
	}
}

type MoveTaskResponse struct {
	Applied         []string      `json:"applied"`
	Failed          []string      `json:"failed"`
	AffectedColumns []task.Column `json:"affectedColumns"`
}

func FromOutcome(o *reorder.Outcome) MoveTaskResponse {
	affected := o.Affected
	if affected == nil {
		affected = []task.Column{}
	}
	return MoveTaskResponse{
		Applied:         o.Applied,
		Failed:          o.Failed,
		AffectedColumns: affected,
	}
}

type PageResponse struct {
	Tasks   []*task.Task `json:"tasks"`
	Total   int          `json:"total"`
	HasMore bool         `json:"hasMore"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status     string `json:"status"`
	Repository string `json:"repository,omitempty"`
}
