package app

import (
	"slices"
	"strings"
	"time"

	"github.com/evanschultz/taskflow/internal/domain"
)

// AllTasksTitle is the navigator entry that clears the category filter.
const AllTasksTitle = "All Tasks"

// Snapshot is the last fetched copy of remote state.
type Snapshot struct {
	Tasks      []domain.Task
	Categories []domain.Category
	Stats      domain.Stats
}

// RefreshResult is the joined outcome of one refresh round trip.
type RefreshResult struct {
	Token      uint64
	CategoryID string
	Snapshot   Snapshot
	Err        error
}

// Store is the single client-side state container. It is not safe for
// concurrent use; one controller owns it and applies every change.
type Store struct {
	clock Clock

	snapshot Snapshot
	loaded   bool
	loading  bool
	issued   uint64
	resolved uint64

	selectedCategory string
	search           string
	priorities       []domain.Priority

	notifications []Notification
	nextNoticeID  uint64
}

// Clock returns the current time.
type Clock func() time.Time

func NewStore(clock Clock) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{clock: clock}
}

func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Tasks:      slices.Clone(s.snapshot.Tasks),
		Categories: slices.Clone(s.snapshot.Categories),
		Stats:      s.snapshot.Stats,
	}
}

func (s *Store) Tasks() []domain.Task {
	return slices.Clone(s.snapshot.Tasks)
}

func (s *Store) Categories() []domain.Category {
	return slices.Clone(s.snapshot.Categories)
}

func (s *Store) Stats() domain.Stats {
	return s.snapshot.Stats
}

// Loading reports whether the newest refresh is still in flight.
func (s *Store) Loading() bool {
	return s.loading
}

// Loaded reports whether any refresh has ever been applied.
func (s *Store) Loaded() bool {
	return s.loaded
}

func (s *Store) SelectedCategory() string {
	return s.selectedCategory
}

func (s *Store) Search() string {
	return s.search
}

func (s *Store) PriorityFilter() []domain.Priority {
	return slices.Clone(s.priorities)
}

func (s *Store) ViewFilter() domain.ViewFilter {
	return domain.ViewFilter{Search: s.search, Priorities: slices.Clone(s.priorities)}
}

// VisibleTasks applies the search and priority filter to the snapshot.
func (s *Store) VisibleTasks() []domain.Task {
	return domain.FilterTasks(s.snapshot.Tasks, s.ViewFilter())
}

// Board partitions the visible tasks by status.
func (s *Store) Board() domain.Board {
	return domain.Partition(s.VisibleTasks())
}

func (s *Store) CategoryByID(id string) (domain.Category, bool) {
	return domain.FindCategory(s.snapshot.Categories, id)
}

// TaskByID looks a task up in the snapshot.
func (s *Store) TaskByID(id string) (domain.Task, bool) {
	for _, t := range s.snapshot.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

// TaskCount counts snapshot tasks that reference a category.
func (s *Store) TaskCount(categoryID string) int {
	n := 0
	for _, t := range s.snapshot.Tasks {
		if t.CategoryID == categoryID {
			n++
		}
	}
	return n
}

// Title is the selected category's name, or AllTasksTitle.
func (s *Store) Title() string {
	if s.selectedCategory == "" {
		return AllTasksTitle
	}
	if c, ok := s.CategoryByID(s.selectedCategory); ok {
		return c.Name
	}
	return AllTasksTitle
}

func (s *Store) SetSearch(query string) {
	s.search = query
}

func (s *Store) TogglePriority(p domain.Priority) {
	s.priorities = domain.TogglePriority(s.priorities, p)
}

func (s *Store) SetPriorityFilter(set []domain.Priority) {
	out := make([]domain.Priority, 0, len(set))
	for _, p := range domain.Priorities() {
		if slices.Contains(set, p) {
			out = append(out, p)
		}
	}
	s.priorities = out
}

func (s *Store) ClearFilters() {
	s.search = ""
	s.priorities = nil
}

// SelectCategory scopes subsequent refreshes. An empty id selects all tasks.
// It reports whether the selection changed.
func (s *Store) SelectCategory(id string) bool {
	id = strings.TrimSpace(id)
	if id == s.selectedCategory {
		return false
	}
	s.selectedCategory = id
	return true
}

// BeginRefresh marks loading and returns the token the result must carry.
func (s *Store) BeginRefresh() uint64 {
	s.issued++
	s.loading = true
	return s.issued
}

// ApplyRefresh installs a refresh result. Results older than one already
// resolved are discarded. Loading ends once the newest refresh resolves. A
// failed result keeps the previous snapshot and raises a notification. It
// reports whether the snapshot was replaced.
func (s *Store) ApplyRefresh(r RefreshResult) bool {
	if r.Token <= s.resolved || r.Token > s.issued {
		return false
	}
	s.resolved = r.Token
	if r.Token == s.issued {
		s.loading = false
	}
	if r.Err != nil {
		s.Notify(LevelError, FailureMessage(OpRefresh))
		return false
	}
	s.snapshot = Snapshot{
		Tasks:      slices.Clone(r.Snapshot.Tasks),
		Categories: slices.Clone(r.Snapshot.Categories),
		Stats:      r.Snapshot.Stats,
	}
	s.loaded = true
	return true
}

// Record applies the local side effects of a mutation outcome and reports
// whether a refresh must follow.
func (s *Store) Record(o Outcome) bool {
	if !o.Notification.IsZero() {
		s.Notify(o.Notification.Level, o.Notification.Message)
	}
	if o.Err == nil && o.Op == OpDeleteCategory && o.TargetID == s.selectedCategory {
		s.selectedCategory = ""
	}
	return o.Refresh
}

// Notify queues a notification and returns it.
func (s *Store) Notify(level Level, message string) Notification {
	s.nextNoticeID++
	n := Notification{
		ID:      s.nextNoticeID,
		Level:   level,
		Message: message,
		At:      s.clock(),
	}
	s.notifications = append(s.notifications, n)
	return n
}

func (s *Store) Notifications() []Notification {
	return slices.Clone(s.notifications)
}

// LatestNotification returns the newest queued notification.
func (s *Store) LatestNotification() (Notification, bool) {
	if len(s.notifications) == 0 {
		return Notification{}, false
	}
	return s.notifications[len(s.notifications)-1], true
}

func (s *Store) Dismiss(id uint64) {
	s.notifications = slices.DeleteFunc(s.notifications, func(n Notification) bool {
		return n.ID == id
	})
}

func (s *Store) DismissAll() {
	s.notifications = nil
}

// ExpireNotifications drops notifications older than ttl.
func (s *Store) ExpireNotifications(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	now := s.clock()
	s.notifications = slices.DeleteFunc(s.notifications, func(n Notification) bool {
		return now.Sub(n.At) >= ttl
	})
}
