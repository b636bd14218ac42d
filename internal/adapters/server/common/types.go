// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"

	"github.com/evanschultz/taskflow/internal/domain"
)

// Fixed response messages of the task service.
const (
	RootMessage            = "Task Manager API"
	TaskDeletedMessage     = "Task deleted"
	CategoryDeletedMessage = "Category deleted"
)

// TaskService is the operation set both transports expose.
type TaskService interface {
	ListTasks(context.Context, domain.TaskFilter) ([]domain.Task, error)
	GetTask(context.Context, string) (domain.Task, error)
	CreateTask(context.Context, domain.TaskInput) (domain.Task, error)
	UpdateTask(context.Context, string, domain.TaskPatch) (domain.Task, error)
	DeleteTask(context.Context, string) error
	ListCategories(context.Context) ([]domain.Category, error)
	CreateCategory(context.Context, domain.CategoryInput) (domain.Category, error)
	DeleteCategory(context.Context, string) error
	Stats(context.Context) (domain.Stats, error)
}

// Pinger reports readiness of the backing store.
type Pinger interface {
	Ping(context.Context) error
}

// MessageResponse is the body of acknowledgement-only responses.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrInvalidRequest reports a malformed request payload.
var ErrInvalidRequest = errors.New("invalid request")
