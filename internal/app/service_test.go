package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/evanschultz/taskflow/internal/domain"
)

type apiCall struct {
	Op     string
	ID     string
	Filter domain.TaskFilter
	Patch  domain.TaskPatch
}

// fakeAPI is an in-memory task service that records every call.
type fakeAPI struct {
	mu         sync.Mutex
	tasks      []domain.Task
	categories []domain.Category
	calls      []apiCall
	fail       map[string]error
	nextID     int
	now        time.Time
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		categories: domain.DefaultCategories(),
		fail:       map[string]error{},
		now:        time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeAPI) record(c apiCall) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.fail[c.Op]
}

func (f *fakeAPI) callsFor(op string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]apiCall, 0)
	for _, c := range f.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) setFail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

func (f *fakeAPI) ListTasks(_ context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	if err := f.record(apiCall{Op: "ListTasks", Filter: filter}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeAPI) GetTask(_ context.Context, id string) (domain.Task, error) {
	if err := f.record(apiCall{Op: "GetTask", ID: id}); err != nil {
		return domain.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Task{}, errors.New("task not found")
}

func (f *fakeAPI) CreateTask(_ context.Context, in domain.TaskInput) (domain.Task, error) {
	if err := f.record(apiCall{Op: "CreateTask"}); err != nil {
		return domain.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	task, err := domain.NewTask(fmt.Sprintf("t%d", f.nextID), in, f.now)
	if err != nil {
		return domain.Task{}, err
	}
	f.tasks = append(f.tasks, task)
	return task, nil
}

func (f *fakeAPI) UpdateTask(_ context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	if err := f.record(apiCall{Op: "UpdateTask", ID: id, Patch: patch}); err != nil {
		return domain.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			if err := f.tasks[i].Apply(patch, f.now); err != nil {
				return domain.Task{}, err
			}
			return f.tasks[i], nil
		}
	}
	return domain.Task{}, errors.New("task not found")
}

func (f *fakeAPI) DeleteTask(_ context.Context, id string) error {
	if err := f.record(apiCall{Op: "DeleteTask", ID: id}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = slices.DeleteFunc(f.tasks, func(t domain.Task) bool { return t.ID == id })
	return nil
}

func (f *fakeAPI) ListCategories(context.Context) ([]domain.Category, error) {
	if err := f.record(apiCall{Op: "ListCategories"}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.categories), nil
}

func (f *fakeAPI) CreateCategory(_ context.Context, in domain.CategoryInput) (domain.Category, error) {
	if err := f.record(apiCall{Op: "CreateCategory"}); err != nil {
		return domain.Category{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c, err := domain.NewCategory(fmt.Sprintf("c%d", f.nextID), in)
	if err != nil {
		return domain.Category{}, err
	}
	f.categories = append(f.categories, c)
	return c, nil
}

func (f *fakeAPI) DeleteCategory(_ context.Context, id string) error {
	if err := f.record(apiCall{Op: "DeleteCategory", ID: id}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories = slices.DeleteFunc(f.categories, func(c domain.Category) bool { return c.ID == id })
	for i := range f.tasks {
		if f.tasks[i].CategoryID == id {
			f.tasks[i].CategoryID = ""
		}
	}
	return nil
}

func (f *fakeAPI) GetStats(context.Context) (domain.Stats, error) {
	if err := f.record(apiCall{Op: "GetStats"}); err != nil {
		return domain.Stats{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
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

type logEntry struct {
	Level string
	Msg   string
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{Level: level, Msg: msg})
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.add("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...any) { l.add("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any) { l.add("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.add("error", msg) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

func fixedClock() time.Time {
	return time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
}

func newTestSession(t *testing.T) (*fakeAPI, *Service, *Store, *recordingLogger) {
	t.Helper()
	api := newFakeAPI()
	logger := &recordingLogger{}
	return api, NewService(api, logger), NewStore(fixedClock), logger
}

func latestMessage(t *testing.T, store *Store) string {
	t.Helper()
	n, ok := store.LatestNotification()
	if !ok {
		t.Fatal("expected a notification")
	}
	return n.Message
}

func TestRefreshLoadsSnapshot(t *testing.T) {
	api, svc, store, _ := newTestSession(t)
	api.tasks = []domain.Task{
		{ID: "a", Title: "A", Status: domain.StatusTodo, Priority: domain.PriorityHigh, CategoryID: "cat-work"},
		{ID: "b", Title: "B", Status: domain.StatusDone, Priority: domain.PriorityLow},
	}

	if !svc.Refresh(context.Background(), store) {
		t.Fatal("expected refresh to apply")
	}
	if store.Loading() {
		t.Fatal("expected loading to end")
	}
	if got := len(store.Tasks()); got != 2 {
		t.Fatalf("expected 2 tasks, got %d", got)
	}
	if got := len(store.Categories()); got != 4 {
		t.Fatalf("expected 4 categories, got %d", got)
	}
	if store.Stats().Total != 2 || store.Stats().HighPriority != 1 {
		t.Fatalf("unexpected stats %+v", store.Stats())
	}
	if len(api.callsFor("ListTasks")) != 1 || len(api.callsFor("ListCategories")) != 1 || len(api.callsFor("GetStats")) != 1 {
		t.Fatalf("expected one call per resource, got %+v", api.calls)
	}
}

func TestRefreshScopesTasksToSelectedCategory(t *testing.T) {
	api, svc, store, _ := newTestSession(t)
	api.tasks = []domain.Task{
		{ID: "a", Title: "A", Status: domain.StatusTodo, Priority: domain.PriorityHigh, CategoryID: "cat-work"},
		{ID: "b", Title: "B", Status: domain.StatusTodo, Priority: domain.PriorityLow, CategoryID: "cat-health"},
	}
	store.SelectCategory("cat-work")

	svc.Refresh(context.Background(), store)
	calls := api.callsFor("ListTasks")
	if len(calls) != 1 || calls[0].Filter != (domain.TaskFilter{CategoryID: "cat-work"}) {
		t.Fatalf("unexpected list calls %+v", calls)
	}
	if ids := taskIDs(store.Tasks()); !slices.Equal(ids, []string{"a"}) {
		t.Fatalf("unexpected scoped tasks %v", ids)
	}
	if store.Title() != "Work" {
		t.Fatalf("unexpected title %q", store.Title())
	}
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	api, svc, store, logger := newTestSession(t)
	api.tasks = []domain.Task{{ID: "a", Title: "A", Status: domain.StatusTodo, Priority: domain.PriorityHigh}}
	svc.Refresh(context.Background(), store)
	before := store.Snapshot()

	api.tasks = append(api.tasks, domain.Task{ID: "b", Title: "B", Status: domain.StatusTodo, Priority: domain.PriorityLow})
	api.setFail("GetStats", errors.New("boom"))
	if svc.Refresh(context.Background(), store) {
		t.Fatal("expected refresh failure")
	}
	if store.Loading() {
		t.Fatal("expected loading to end after failure")
	}
	if got := taskIDs(store.Tasks()); !slices.Equal(got, taskIDs(before.Tasks)) {
		t.Fatalf("expected snapshot unchanged, got %v", got)
	}
	if msg := latestMessage(t, store); msg != "Failed to load data" {
		t.Fatalf("unexpected notification %q", msg)
	}
	if logger.count("error") == 0 {
		t.Fatal("expected a diagnostic log entry")
	}
}

func TestApplyRefreshDiscardsStaleResults(t *testing.T) {
	store := NewStore(fixedClock)
	first := store.BeginRefresh()
	second := store.BeginRefresh()

	newer := RefreshResult{Token: second, Snapshot: Snapshot{Tasks: []domain.Task{{ID: "new"}}}}
	older := RefreshResult{Token: first, Snapshot: Snapshot{Tasks: []domain.Task{{ID: "old"}}}}

	if !store.ApplyRefresh(newer) {
		t.Fatal("expected newest result to apply")
	}
	if store.Loading() {
		t.Fatal("expected loading to end once the newest refresh resolved")
	}
	if store.ApplyRefresh(older) {
		t.Fatal("expected stale result to be discarded")
	}
	if ids := taskIDs(store.Tasks()); !slices.Equal(ids, []string{"new"}) {
		t.Fatalf("stale response overwrote snapshot: %v", ids)
	}
}

func TestApplyRefreshKeepsLoadingUntilNewest(t *testing.T) {
	store := NewStore(fixedClock)
	first := store.BeginRefresh()
	second := store.BeginRefresh()

	if !store.ApplyRefresh(RefreshResult{Token: first, Snapshot: Snapshot{Tasks: []domain.Task{{ID: "old"}}}}) {
		t.Fatal("expected in-order result to apply")
	}
	if !store.Loading() {
		t.Fatal("expected loading while the newest refresh is in flight")
	}
	if store.ApplyRefresh(RefreshResult{Token: second, Err: errors.New("offline")}) {
		t.Fatal("expected failed result not to apply")
	}
	if store.Loading() {
		t.Fatal("expected loading to end")
	}
	if ids := taskIDs(store.Tasks()); !slices.Equal(ids, []string{"old"}) {
		t.Fatalf("unexpected snapshot %v", ids)
	}
}

func TestMutationSuccessRefreshes(t *testing.T) {
	api, svc, store, _ := newTestSession(t)
	ctx := context.Background()

	draft := domain.NewDraft()
	draft.Title = "Buy milk"
	o := svc.Run(ctx, store, svc.SaveTask(ctx, draft))
	if !o.OK() || !o.Refresh {
		t.Fatalf("unexpected outcome %+v", o)
	}
	if msg := latestMessage(t, store); msg != "Task created" {
		t.Fatalf("unexpected notification %q", msg)
	}
	if len(api.callsFor("ListTasks")) != 1 {
		t.Fatalf("expected one refresh after create, got %d", len(api.callsFor("ListTasks")))
	}
	if got := len(store.Tasks()); got != 1 {
		t.Fatalf("expected created task in snapshot, got %d", got)
	}

	edit := domain.DraftFromTask(store.Tasks()[0])
	edit.Title = "Buy oat milk"
	svc.Run(ctx, store, svc.SaveTask(ctx, edit))
	if msg := latestMessage(t, store); msg != "Task updated" {
		t.Fatalf("unexpected notification %q", msg)
	}
	if store.Tasks()[0].Title != "Buy oat milk" {
		t.Fatalf("expected refreshed title, got %q", store.Tasks()[0].Title)
	}
}

func TestMutationFailureSkipsRefresh(t *testing.T) {
	api, svc, store, logger := newTestSession(t)
	ctx := context.Background()
	api.setFail("CreateTask", errors.New("503"))

	draft := domain.NewDraft()
	draft.Title = "Buy milk"
	o := svc.Run(ctx, store, svc.SaveTask(ctx, draft))
	if o.OK() || o.Refresh {
		t.Fatalf("expected failed outcome without refresh, got %+v", o)
	}
	if msg := latestMessage(t, store); msg != "Failed to save task" {
		t.Fatalf("unexpected notification %q", msg)
	}
	if n := len(api.callsFor("ListTasks")); n != 0 {
		t.Fatalf("expected no refresh, got %d list calls", n)
	}
	if logger.count("error") != 1 {
		t.Fatalf("expected one diagnostic, got %d", logger.count("error"))
	}
}

func TestSaveTaskWithBlankTitleIssuesNoCall(t *testing.T) {
	api, svc, store, _ := newTestSession(t)
	draft := domain.NewDraft()
	draft.Title = "   "

	o := svc.Run(context.Background(), store, svc.SaveTask(context.Background(), draft))
	if !errors.Is(o.Err, domain.ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle, got %v", o.Err)
	}
	if len(api.callsFor("CreateTask")) != 0 || len(api.callsFor("UpdateTask")) != 0 {
		t.Fatal("expected no create/update call")
	}
	if _, ok := store.LatestNotification(); ok {
		t.Fatal("expected no notification for a blocked submit")
	}
}

func TestChangeStatusSendsOnlyStatus(t *testing.T) {
	api, svc, store, _ := newTestSession(t)
	ctx := context.Background()
	api.tasks = []domain.Task{{ID: "t1", Title: "Ship", Description: "keep me", Status: domain.StatusTodo, Priority: domain.PriorityHigh, CategoryID: "cat-work"}}

	svc.Run(ctx, store, svc.ChangeStatus(ctx, "t1", domain.StatusInProgress))
	if msg := latestMessage(t, store); msg != "Task moved" {
		t.Fatalf("unexpected notification %q", msg)
	}
	svc.Run(ctx, store, svc.ChangeStatus(ctx, "t1", domain.StatusDone))
	if msg := latestMessage(t, store); msg != "Task completed!" {
		t.Fatalf("unexpected notification %q", msg)
	}

	updates := api.callsFor("UpdateTask")
	if len(updates) != 2 {
		t.Fatalf("expected 2 update calls, got %d", len(updates))
	}
	for _, call := range updates {
		p := call.Patch
		if p.Status == nil || p.Title != nil || p.Description != nil || p.Priority != nil || p.CategoryID != nil || p.DueDate != nil {
			t.Fatalf("expected status-only patch, got %+v", p)
		}
	}

	board := store.Board()
	if len(board.Done) != 1 || len(board.Todo) != 0 || len(board.InProgress) != 0 {
		t.Fatalf("expected task only in done, got %+v", board)
	}
	if got := board.Done[0]; got.Description != "keep me" || got.CategoryID != "cat-work" {
		t.Fatalf("status change altered other fields: %+v", got)
	}
}

func TestChangeStatusFailure(t *testing.T) {
	api, svc, store, _ := newTestSession(t)
	api.setFail("UpdateTask", errors.New("down"))

	o := svc.Run(context.Background(), store, svc.ChangeStatus(context.Background(), "t1", domain.StatusDone))
	if o.OK() {
		t.Fatal("expected failure")
	}
	if msg := latestMessage(t, store); msg != "Failed to update task" {
		t.Fatalf("unexpected notification %q", msg)
	}
}

func TestDeleteTaskOutcomes(t *testing.T) {
	api, svc, store, _ := newTestSession(t)
	ctx := context.Background()
	api.tasks = []domain.Task{{ID: "t1", Title: "x", Status: domain.StatusTodo, Priority: domain.PriorityLow}}

	svc.Run(ctx, store, svc.DeleteTask(ctx, "t1"))
	if msg := latestMessage(t, store); msg != "Task deleted" {
		t.Fatalf("unexpected notification %q", msg)
	}
	if len(store.Tasks()) != 0 {
		t.Fatalf("expected empty snapshot, got %v", taskIDs(store.Tasks()))
	}

	api.setFail("DeleteTask", errors.New("gone"))
	svc.Run(ctx, store, svc.DeleteTask(ctx, "t2"))
	if msg := latestMessage(t, store); msg != "Failed to delete task" {
		t.Fatalf("unexpected notification %q", msg)
	}
}

func TestCategoryScenario(t *testing.T) {
	api, svc, store, _ := newTestSession(t)
	ctx := context.Background()

	catDraft := domain.NewCategoryDraft()
	catDraft.Name = "Errands"
	catDraft.Color = "#10B981"
	o := svc.Run(ctx, store, svc.SaveCategory(ctx, catDraft))
	if !o.OK() {
		t.Fatalf("SaveCategory() error = %v", o.Err)
	}
	if msg := latestMessage(t, store); msg != "Category created" {
		t.Fatalf("unexpected notification %q", msg)
	}
	errands, ok := store.CategoryByID(o.TargetID)
	if !ok || errands.Name != "Errands" || errands.Color != "#10B981" {
		t.Fatalf("expected Errands in navigator, got %+v (%t)", errands, ok)
	}
	if n := store.TaskCount(errands.ID); n != 0 {
		t.Fatalf("expected zero task count, got %d", n)
	}

	taskDraft := domain.NewDraft()
	taskDraft.Title = "Buy milk"
	taskDraft.Priority = domain.PriorityLow
	taskDraft.CategoryID = errands.ID
	svc.Run(ctx, store, svc.SaveTask(ctx, taskDraft))
	board := store.Board()
	if len(board.Todo) != 1 || board.Todo[0].CategoryID != errands.ID {
		t.Fatalf("expected task in todo tagged Errands, got %+v", board)
	}
	taskID := board.Todo[0].ID

	var g domain.DragGesture
	g.Begin(board.Todo[0])
	g.Hover(domain.StatusInProgress)
	change, ok := g.Commit()
	if !ok {
		t.Fatal("expected a status change intent")
	}
	listsBefore := len(api.callsFor("ListTasks"))
	svc.Run(ctx, store, svc.Move(ctx, change))

	updates := api.callsFor("UpdateTask")
	if len(updates) != 1 || updates[0].ID != taskID || updates[0].Patch.Status == nil || *updates[0].Patch.Status != domain.StatusInProgress {
		t.Fatalf("expected one status update, got %+v", updates)
	}
	if len(api.callsFor("ListTasks")) != listsBefore+1 {
		t.Fatal("expected a full refresh after the move")
	}
	board = store.Board()
	if len(board.InProgress) != 1 || len(board.Todo) != 0 || len(board.Done) != 0 {
		t.Fatalf("expected task only under In Progress, got %+v", board)
	}

	store.SelectCategory(errands.ID)
	svc.Run(ctx, store, svc.DeleteCategory(ctx, errands.ID))
	if store.SelectedCategory() != "" {
		t.Fatalf("expected selection cleared after deleting the selected category, got %q", store.SelectedCategory())
	}
	if msg := latestMessage(t, store); msg != "Category deleted" {
		t.Fatalf("unexpected notification %q", msg)
	}
	if task, ok := store.TaskByID(taskID); !ok || task.CategoryID != "" {
		t.Fatalf("expected task to survive with no category, got %+v", task)
	}
}

func TestCreateCategoryFailure(t *testing.T) {
	api, svc, store, _ := newTestSession(t)
	api.setFail("CreateCategory", errors.New("conflict"))

	o := svc.Run(context.Background(), store, svc.CreateCategory(context.Background(), domain.CategoryInput{Name: "X"}))
	if o.OK() || o.Refresh {
		t.Fatalf("unexpected outcome %+v", o)
	}
	if msg := latestMessage(t, store); msg != "Failed to create category" {
		t.Fatalf("unexpected notification %q", msg)
	}
}
