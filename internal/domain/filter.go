package domain

import (
	"slices"
	"strings"
)

// TaskFilter narrows a remote task listing. Unset keys are not sent.
type TaskFilter struct {
	Status     Status   `schema:"status,omitempty" json:"status,omitempty" validate:"omitempty,oneof=todo in_progress done"`
	Priority   Priority `schema:"priority,omitempty" json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
	CategoryID string   `schema:"category_id,omitempty" json:"category_id,omitempty"`
}

func (f TaskFilter) Validate() error {
	return validateStruct(f)
}

// Matches reports whether a task satisfies every set key.
func (f TaskFilter) Matches(t Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.CategoryID != "" && t.CategoryID != f.CategoryID {
		return false
	}
	return true
}

// ViewFilter is the client-local search and priority filter.
type ViewFilter struct {
	Search     string
	Priorities []Priority
}

// Empty reports whether the filter is the identity filter.
func (f ViewFilter) Empty() bool {
	return f.Search == "" && len(f.Priorities) == 0
}

// Matches is the AND of a case-insensitive substring match on title or
// description and membership in the priority set. Empty parts match all.
// The query is matched as typed, whitespace included.
func (f ViewFilter) Matches(t Task) bool {
	query := strings.ToLower(f.Search)
	if query != "" &&
		!strings.Contains(strings.ToLower(t.Title), query) &&
		!strings.Contains(strings.ToLower(t.Description), query) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, t.Priority) {
		return false
	}
	return true
}

// FilterTasks returns the matching tasks in their original order.
func FilterTasks(tasks []Task, f ViewFilter) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// TogglePriority adds p to the set when absent and removes it otherwise.
// The returned set keeps the canonical priority order.
func TogglePriority(set []Priority, p Priority) []Priority {
	if !p.Valid() {
		return slices.Clone(set)
	}
	out := make([]Priority, 0, len(validPriorities))
	has := slices.Contains(set, p)
	for _, candidate := range validPriorities {
		if candidate == p {
			if !has {
				out = append(out, candidate)
			}
			continue
		}
		if slices.Contains(set, candidate) {
			out = append(out, candidate)
		}
	}
	return out
}
