package backend

import (
	"context"

	"github.com/evanschultz/taskflow/internal/domain"
)

// Repository persists tasks and categories. Implementations return
// ErrNotFound for unknown ids.
type Repository interface {
	CreateTask(context.Context, domain.Task) error
	UpdateTask(context.Context, domain.Task) error
	GetTask(context.Context, string) (domain.Task, error)
	ListTasks(context.Context, domain.TaskFilter) ([]domain.Task, error)
	DeleteTask(context.Context, string) error

	CreateCategory(context.Context, domain.Category) error
	GetCategory(context.Context, string) (domain.Category, error)
	ListCategories(context.Context) ([]domain.Category, error)
	// DeleteCategory removes the category and unsets category_id on every
	// task that referenced it.
	DeleteCategory(context.Context, string) error

	Stats(context.Context) (domain.Stats, error)
}
