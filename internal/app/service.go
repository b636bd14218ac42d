package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/evanschultz/taskflow/internal/domain"
)

// Outcome is the result of one user intent. Refresh is true only when the
// remote call succeeded, and then a full refresh scoped to the selected
// category must follow.
type Outcome struct {
	Op           Op
	Notification Notification
	Refresh      bool
	Err          error
	TargetID     string
	Task         domain.Task
	Category     domain.Category
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

// Service wires intents to API calls. It never patches state locally: the
// caller records the outcome in its Store and refreshes on success.
type Service struct {
	api API
	log Logger
}

func NewService(api API, logger Logger) *Service {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Service{api: api, log: logger}
}

// Fetch loads tasks (scoped to categoryID when set), categories and stats
// concurrently. If any call fails the whole result fails.
func (s *Service) Fetch(ctx context.Context, token uint64, categoryID string) RefreshResult {
	var (
		tasks      []domain.Task
		categories []domain.Category
		stats      domain.Stats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := s.api.ListTasks(gctx, domain.TaskFilter{CategoryID: categoryID})
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		tasks = out
		return nil
	})
	g.Go(func() error {
		out, err := s.api.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		categories = out
		return nil
	})
	g.Go(func() error {
		out, err := s.api.GetStats(gctx)
		if err != nil {
			return fmt.Errorf("get stats: %w", err)
		}
		stats = out
		return nil
	})
	if err := g.Wait(); err != nil {
		s.log.Error("refresh failed", "op", OpRefresh, "token", token, "category_id", categoryID, "err", err)
		return RefreshResult{Token: token, CategoryID: categoryID, Err: err}
	}
	s.log.Debug("refresh complete", "token", token, "category_id", categoryID, "tasks", len(tasks), "categories", len(categories))
	return RefreshResult{
		Token:      token,
		CategoryID: categoryID,
		Snapshot: Snapshot{
			Tasks:      tasks,
			Categories: categories,
			Stats:      stats,
		},
	}
}

// Refresh runs a full synchronous refresh against store.
func (s *Service) Refresh(ctx context.Context, store *Store) bool {
	token := store.BeginRefresh()
	return store.ApplyRefresh(s.Fetch(ctx, token, store.SelectedCategory()))
}

// Run records an outcome in store and refreshes when the outcome requires it.
func (s *Service) Run(ctx context.Context, store *Store, o Outcome) Outcome {
	if store.Record(o) {
		s.Refresh(ctx, store)
	}
	return o
}

func (s *Service) CreateTask(ctx context.Context, in domain.TaskInput) Outcome {
	task, err := s.api.CreateTask(ctx, in)
	if err != nil {
		return s.failed(OpCreateTask, "", err)
	}
	s.log.Info("task created", "task_id", task.ID)
	return succeeded(OpCreateTask, task.ID, "Task created", withTask(task))
}

func (s *Service) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) Outcome {
	task, err := s.api.UpdateTask(ctx, id, patch)
	if err != nil {
		return s.failed(OpUpdateTask, id, err)
	}
	s.log.Info("task updated", "task_id", id)
	return succeeded(OpUpdateTask, id, "Task updated", withTask(task))
}

// SaveTask submits an editor draft. Drafts with an id update the existing
// task; others create a new one. An invalid draft issues no call.
func (s *Service) SaveTask(ctx context.Context, draft domain.TaskDraft) Outcome {
	if draft.IsNew() {
		in, err := draft.Input()
		if err != nil {
			return Outcome{Op: OpCreateTask, Err: err}
		}
		return s.CreateTask(ctx, in)
	}
	patch, err := draft.Patch()
	if err != nil {
		return Outcome{Op: OpUpdateTask, TargetID: draft.ID, Err: err}
	}
	return s.UpdateTask(ctx, draft.ID, patch)
}

// ChangeStatus sends a status-only update.
func (s *Service) ChangeStatus(ctx context.Context, id string, status domain.Status) Outcome {
	if !status.Valid() {
		return Outcome{Op: OpChangeStatus, TargetID: id, Err: domain.ErrInvalidStatus}
	}
	task, err := s.api.UpdateTask(ctx, id, domain.StatusPatch(status))
	if err != nil {
		return s.failed(OpChangeStatus, id, err)
	}
	msg := "Task moved"
	if status == domain.StatusDone {
		msg = "Task completed!"
	}
	s.log.Info("task status changed", "task_id", id, "status", status)
	return succeeded(OpChangeStatus, id, msg, withTask(task))
}

// Move applies a committed drag gesture.
func (s *Service) Move(ctx context.Context, change domain.StatusChange) Outcome {
	return s.ChangeStatus(ctx, change.TaskID, change.To)
}

func (s *Service) DeleteTask(ctx context.Context, id string) Outcome {
	if err := s.api.DeleteTask(ctx, id); err != nil {
		return s.failed(OpDeleteTask, id, err)
	}
	s.log.Info("task deleted", "task_id", id)
	return succeeded(OpDeleteTask, id, "Task deleted")
}

func (s *Service) CreateCategory(ctx context.Context, in domain.CategoryInput) Outcome {
	category, err := s.api.CreateCategory(ctx, in)
	if err != nil {
		return s.failed(OpCreateCategory, "", err)
	}
	s.log.Info("category created", "category_id", category.ID)
	return succeeded(OpCreateCategory, category.ID, "Category created", withCategory(category))
}

// SaveCategory submits the create-category form. An invalid draft issues no
// call.
func (s *Service) SaveCategory(ctx context.Context, draft domain.CategoryDraft) Outcome {
	in, err := draft.Input()
	if err != nil {
		return Outcome{Op: OpCreateCategory, Err: err}
	}
	return s.CreateCategory(ctx, in)
}

func (s *Service) DeleteCategory(ctx context.Context, id string) Outcome {
	if err := s.api.DeleteCategory(ctx, id); err != nil {
		return s.failed(OpDeleteCategory, id, err)
	}
	s.log.Info("category deleted", "category_id", id)
	return succeeded(OpDeleteCategory, id, "Category deleted")
}

func (s *Service) failed(op Op, targetID string, err error) Outcome {
	s.log.Error("operation failed", "op", op, "target_id", targetID, "err", err)
	return Outcome{
		Op:           op,
		TargetID:     targetID,
		Err:          err,
		Notification: Notification{Level: LevelError, Message: FailureMessage(op)},
	}
}

type outcomeOption func(*Outcome)

func withTask(t domain.Task) outcomeOption {
	return func(o *Outcome) { o.Task = t }
}

func withCategory(c domain.Category) outcomeOption {
	return func(o *Outcome) { o.Category = c }
}

func succeeded(op Op, targetID, message string, opts ...outcomeOption) Outcome {
	o := Outcome{
		Op:           op,
		TargetID:     targetID,
		Refresh:      true,
		Notification: Notification{Level: LevelSuccess, Message: message},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
