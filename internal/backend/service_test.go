package backend

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/evanschultz/taskflow/internal/domain"
)

type fakeRepo struct {
	tasks      map[string]domain.Task
	order      []string
	categories map[string]domain.Category
	catOrder   []string
	getCatErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		tasks:      map[string]domain.Task{},
		categories: map[string]domain.Category{},
	}
}

func (f *fakeRepo) CreateTask(_ context.Context, t domain.Task) error {
	f.tasks[t.ID] = t
	f.order = append(f.order, t.ID)
	return nil
}

func (f *fakeRepo) UpdateTask(_ context.Context, t domain.Task) error {
	if _, ok := f.tasks[t.ID]; !ok {
		return ErrNotFound
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeRepo) GetTask(_ context.Context, id string) (domain.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return domain.Task{}, ErrNotFound
	}
	return t, nil
}

func (f *fakeRepo) ListTasks(_ context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	out := []domain.Task{}
	for _, id := range f.order {
		if t := f.tasks[id]; filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepo) DeleteTask(_ context.Context, id string) error {
	if _, ok := f.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(f.tasks, id)
	f.order = slices.DeleteFunc(f.order, func(v string) bool { return v == id })
	return nil
}

func (f *fakeRepo) CreateCategory(_ context.Context, c domain.Category) error {
	f.categories[c.ID] = c
	f.catOrder = append(f.catOrder, c.ID)
	return nil
}

func (f *fakeRepo) GetCategory(_ context.Context, id string) (domain.Category, error) {
	if f.getCatErr != nil {
		return domain.Category{}, f.getCatErr
	}
	c, ok := f.categories[id]
	if !ok {
		return domain.Category{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) ListCategories(context.Context) ([]domain.Category, error) {
	out := make([]domain.Category, 0, len(f.catOrder))
	for _, id := range f.catOrder {
		out = append(out, f.categories[id])
	}
	return out, nil
}

func (f *fakeRepo) DeleteCategory(_ context.Context, id string) error {
	if _, ok := f.categories[id]; !ok {
		return ErrNotFound
	}
	delete(f.categories, id)
	f.catOrder = slices.DeleteFunc(f.catOrder, func(v string) bool { return v == id })
	for tid, t := range f.tasks {
		if t.CategoryID == id {
			t.CategoryID = ""
			f.tasks[tid] = t
		}
	}
	return nil
}

func (f *fakeRepo) Stats(context.Context) (domain.Stats, error) {
	var s domain.Stats
	for _, t := range f.tasks {
		s.Total++
		switch t.Status {
		case domain.StatusTodo:
			s.Todo++
		case domain.StatusInProgress:
			s.InProgress++
		case domain.StatusDone:
			s.Done++
		}
		if t.Priority == domain.PriorityHigh && t.Status != domain.StatusDone {
			s.HighPriority++
		}
	}
	return s, nil
}

func newTestService(repo Repository) (*Service, *time.Time) {
	ids := 0
	now := time.Date(2026, 2, 21, 9, 30, 0, 0, time.UTC)
	svc := NewService(repo, func() string {
		ids++
		return fmt.Sprintf("id-%d", ids)
	}, func() time.Time { return now })
	return svc, &now
}

func TestEnsureDefaultCategories(t *testing.T) {
	repo := newFakeRepo()
	repo.categories["cat-work"] = domain.Category{ID: "cat-work", Name: "Renamed", Color: "#000000", IsDefault: true}
	repo.catOrder = []string{"cat-work"}
	svc, _ := newTestService(repo)

	if err := svc.EnsureDefaultCategories(context.Background()); err != nil {
		t.Fatalf("EnsureDefaultCategories() error = %v", err)
	}
	if err := svc.EnsureDefaultCategories(context.Background()); err != nil {
		t.Fatalf("EnsureDefaultCategories() second run error = %v", err)
	}
	categories, _ := svc.ListCategories(context.Background())
	if len(categories) != 4 {
		t.Fatalf("expected 4 categories, got %d", len(categories))
	}
	if categories[0].Name != "Renamed" {
		t.Fatalf("expected existing category untouched, got %q", categories[0].Name)
	}
}

func TestEnsureDefaultCategoriesPropagatesErrors(t *testing.T) {
	repo := newFakeRepo()
	repo.getCatErr = errors.New("disk gone")
	svc, _ := newTestService(repo)
	if err := svc.EnsureDefaultCategories(context.Background()); err == nil || !strings.Contains(err.Error(), "disk gone") {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestCreateTaskAppliesDefaults(t *testing.T) {
	svc, now := newTestService(newFakeRepo())
	task, err := svc.CreateTask(context.Background(), domain.TaskInput{Title: "  Write report  "})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if task.ID != "id-1" || task.Title != "Write report" {
		t.Fatalf("unexpected task %#v", task)
	}
	if task.Status != domain.StatusTodo || task.Priority != domain.PriorityMedium {
		t.Fatalf("unexpected defaults %q/%q", task.Status, task.Priority)
	}
	if !task.CreatedAt.Equal(*now) || task.CompletedAt != nil {
		t.Fatalf("unexpected timestamps %v %v", task.CreatedAt, task.CompletedAt)
	}

	if _, err := svc.CreateTask(context.Background(), domain.TaskInput{Title: "   "}); !errors.Is(err, domain.ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
}

func TestUpdateTaskCompletionTimestamps(t *testing.T) {
	svc, now := newTestService(newFakeRepo())
	ctx := context.Background()
	task, err := svc.CreateTask(ctx, domain.TaskInput{Title: "Ship", Priority: domain.PriorityHigh})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	*now = now.Add(time.Hour)
	done, err := svc.UpdateTask(ctx, task.ID, domain.StatusPatch(domain.StatusDone))
	if err != nil {
		t.Fatalf("UpdateTask(done) error = %v", err)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(*now) {
		t.Fatalf("expected completed_at stamped, got %v", done.CompletedAt)
	}
	if done.Title != "Ship" || done.Priority != domain.PriorityHigh {
		t.Fatalf("expected untouched fields, got %#v", done)
	}

	reopened, err := svc.UpdateTask(ctx, task.ID, domain.StatusPatch(domain.StatusInProgress))
	if err != nil {
		t.Fatalf("UpdateTask(in_progress) error = %v", err)
	}
	if reopened.CompletedAt != nil {
		t.Fatalf("expected completed_at cleared, got %v", reopened.CompletedAt)
	}
}

func TestUpdateTaskErrors(t *testing.T) {
	svc, _ := newTestService(newFakeRepo())
	ctx := context.Background()
	if _, err := svc.UpdateTask(ctx, "missing", domain.StatusPatch(domain.StatusDone)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	task, _ := svc.CreateTask(ctx, domain.TaskInput{Title: "A"})
	if _, err := svc.UpdateTask(ctx, task.ID, domain.TaskPatch{}); !errors.Is(err, domain.ErrEmptyPatch) {
		t.Fatalf("expected ErrEmptyPatch, got %v", err)
	}
	bad := domain.Status("later")
	if _, err := svc.UpdateTask(ctx, task.ID, domain.TaskPatch{Status: &bad}); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestListTasksValidatesFilter(t *testing.T) {
	svc, _ := newTestService(newFakeRepo())
	ctx := context.Background()
	_, _ = svc.CreateTask(ctx, domain.TaskInput{Title: "A", Priority: domain.PriorityHigh, CategoryID: "cat-work"})
	_, _ = svc.CreateTask(ctx, domain.TaskInput{Title: "B", Priority: domain.PriorityLow})

	tasks, err := svc.ListTasks(ctx, domain.TaskFilter{Priority: domain.PriorityHigh})
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "A" {
		t.Fatalf("unexpected filtered tasks %#v", tasks)
	}
	if _, err := svc.ListTasks(ctx, domain.TaskFilter{Status: "archived"}); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestDeleteCategoryRules(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()
	if err := svc.EnsureDefaultCategories(ctx); err != nil {
		t.Fatalf("EnsureDefaultCategories() error = %v", err)
	}

	if err := svc.DeleteCategory(ctx, "cat-work"); !errors.Is(err, ErrDefaultCategory) {
		t.Fatalf("expected ErrDefaultCategory, got %v", err)
	}
	if err := svc.DeleteCategory(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	errands, err := svc.CreateCategory(ctx, domain.CategoryInput{Name: " Errands "})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if errands.Color != domain.DefaultCategoryColor || errands.Name != "Errands" || errands.IsDefault {
		t.Fatalf("unexpected category %#v", errands)
	}
	task, _ := svc.CreateTask(ctx, domain.TaskInput{Title: "Post office", CategoryID: errands.ID})

	if err := svc.DeleteCategory(ctx, errands.ID); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	got, err := svc.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.CategoryID != "" {
		t.Fatalf("expected category unset, got %q", got.CategoryID)
	}
}

func TestStatsCountsOpenHighPriority(t *testing.T) {
	svc, _ := newTestService(newFakeRepo())
	ctx := context.Background()
	_, _ = svc.CreateTask(ctx, domain.TaskInput{Title: "A", Priority: domain.PriorityHigh})
	_, _ = svc.CreateTask(ctx, domain.TaskInput{Title: "B", Priority: domain.PriorityHigh, Status: domain.StatusDone})
	_, _ = svc.CreateTask(ctx, domain.TaskInput{Title: "C", Status: domain.StatusInProgress})

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	want := domain.Stats{Total: 3, Todo: 1, InProgress: 1, Done: 1, HighPriority: 1}
	if stats != want {
		t.Fatalf("unexpected stats %#v", stats)
	}
}
