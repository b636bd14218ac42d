package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evanschultz/taskflow/internal/domain"
)

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service implements the task service behind the REST and MCP adapters.
type Service struct {
	repo  Repository
	idGen IDGenerator
	clock Clock
}

func NewService(repo Repository, idGen IDGenerator, clock Clock) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{repo: repo, idGen: idGen, clock: clock}
}

// EnsureDefaultCategories seeds the built-in categories that are missing.
func (s *Service) EnsureDefaultCategories(ctx context.Context) error {
	for _, c := range domain.DefaultCategories() {
		_, err := s.repo.GetCategory(ctx, c.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("lookup default category %q: %w", c.ID, err)
		}
		if err := s.repo.CreateCategory(ctx, c); err != nil {
			return fmt.Errorf("seed default category %q: %w", c.ID, err)
		}
	}
	return nil
}

func (s *Service) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	filter.CategoryID = strings.TrimSpace(filter.CategoryID)
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return s.repo.ListTasks(ctx, filter)
}

func (s *Service) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return s.repo.GetTask(ctx, strings.TrimSpace(id))
}

func (s *Service) CreateTask(ctx context.Context, in domain.TaskInput) (domain.Task, error) {
	task, err := domain.NewTask(s.idGen(), in, s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// UpdateTask applies a partial update. Only the fields present in patch
// change.
func (s *Service) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	if err := patch.Validate(); err != nil {
		return domain.Task{}, err
	}
	task, err := s.repo.GetTask(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Task{}, err
	}
	if err := task.Apply(patch, s.clock()); err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

func (s *Service) DeleteTask(ctx context.Context, id string) error {
	return s.repo.DeleteTask(ctx, strings.TrimSpace(id))
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, in domain.CategoryInput) (domain.Category, error) {
	category, err := domain.NewCategory(s.idGen(), in)
	if err != nil {
		return domain.Category{}, err
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

// DeleteCategory refuses default categories. Tasks in the deleted category
// keep existing without one.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	category, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if category.IsDefault {
		return fmt.Errorf("delete category %q: %w", id, ErrDefaultCategory)
	}
	return s.repo.DeleteCategory(ctx, id)
}

func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	return s.repo.Stats(ctx)
}
