package app

import (
	"context"

	"github.com/evanschultz/taskflow/internal/domain"
)

// API is the remote task service as seen by the orchestrator.
type API interface {
	ListTasks(context.Context, domain.TaskFilter) ([]domain.Task, error)
	GetTask(context.Context, string) (domain.Task, error)
	CreateTask(context.Context, domain.TaskInput) (domain.Task, error)
	UpdateTask(context.Context, string, domain.TaskPatch) (domain.Task, error)
	DeleteTask(context.Context, string) error

	ListCategories(context.Context) ([]domain.Category, error)
	CreateCategory(context.Context, domain.CategoryInput) (domain.Category, error)
	DeleteCategory(context.Context, string) error

	GetStats(context.Context) (domain.Stats, error)
}

// Logger receives diagnostics for failures that users only see as a toast.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
