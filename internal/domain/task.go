package domain

import (
	"strings"
	"time"
)

type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Status      Status     `json:"status" yaml:"status"`
	Priority    Priority   `json:"priority" yaml:"priority"`
	CategoryID  string     `json:"category_id,omitempty" yaml:"category_id,omitempty"`
	DueDate     *Date      `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// TaskInput carries every task field except the identifier.
type TaskInput struct {
	Title       string   `json:"title" yaml:"title" validate:"notblank"`
	Description string   `json:"description" yaml:"description"`
	Status      Status   `json:"status,omitempty" yaml:"status,omitempty" validate:"omitempty,oneof=todo in_progress done"`
	Priority    Priority `json:"priority,omitempty" yaml:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
	CategoryID  string   `json:"category_id,omitempty" yaml:"category_id,omitempty"`
	DueDate     *Date    `json:"due_date,omitempty" yaml:"due_date,omitempty"`
}

// Normalize trims text fields, applies status and priority defaults and
// validates the result.
func (in TaskInput) Normalize() (TaskInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	if in.Status == "" {
		in.Status = StatusTodo
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if in.DueDate != nil && in.DueDate.IsZero() {
		in.DueDate = nil
	}
	if err := validateStruct(in); err != nil {
		return TaskInput{}, err
	}
	return in, nil
}

// NewTask builds a task from normalized input.
func NewTask(id string, in TaskInput, now time.Time) (Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Task{}, ErrInvalidID
	}
	in, err := in.Normalize()
	if err != nil {
		return Task{}, err
	}
	task := Task{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		CategoryID:  in.CategoryID,
		DueDate:     cloneDate(in.DueDate),
		CreatedAt:   now.UTC(),
	}
	if task.Status == StatusDone {
		ts := now.UTC()
		task.CompletedAt = &ts
	}
	return task, nil
}

// TaskPatch is a partial update. Nil fields are left untouched. An empty
// CategoryID or a zero DueDate clears the field.
type TaskPatch struct {
	Title       *string   `json:"title,omitempty" yaml:"title,omitempty" validate:"omitempty,notblank"`
	Description *string   `json:"description,omitempty" yaml:"description,omitempty"`
	Status      *Status   `json:"status,omitempty" yaml:"status,omitempty" validate:"omitempty,oneof=todo in_progress done"`
	Priority    *Priority `json:"priority,omitempty" yaml:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
	CategoryID  *string   `json:"category_id,omitempty" yaml:"category_id,omitempty"`
	DueDate     *Date     `json:"due_date,omitempty" yaml:"due_date,omitempty"`
}

// StatusPatch returns the restricted update used for status changes.
func StatusPatch(status Status) TaskPatch {
	return TaskPatch{Status: &status}
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil &&
		p.Description == nil &&
		p.Status == nil &&
		p.Priority == nil &&
		p.CategoryID == nil &&
		p.DueDate == nil
}

func (p TaskPatch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	return validateStruct(p)
}

// Apply merges a patch into the task. A status change to done stamps
// CompletedAt and any other status clears it.
func (t *Task) Apply(p TaskPatch, now time.Time) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.CategoryID != nil {
		t.CategoryID = strings.TrimSpace(*p.CategoryID)
	}
	if p.DueDate != nil {
		if p.DueDate.IsZero() {
			t.DueDate = nil
		} else {
			t.DueDate = cloneDate(p.DueDate)
		}
	}
	if p.Status != nil {
		t.Status = *p.Status
		if t.Status == StatusDone {
			ts := now.UTC()
			t.CompletedAt = &ts
		} else {
			t.CompletedAt = nil
		}
	}
	return nil
}

func (t Task) IsDone() bool {
	return t.Status == StatusDone
}

type DueState int

const (
	DueNone DueState = iota
	DueUpcoming
	DueToday
	DueOverdue
)

// DueState classifies the due date against today. Finished tasks are never
// overdue.
func (t Task) DueState(today Date) DueState {
	if t.DueDate == nil || t.DueDate.IsZero() {
		return DueNone
	}
	due := *t.DueDate
	switch {
	case due.Equal(today):
		return DueToday
	case due.Before(today) && !t.IsDone():
		return DueOverdue
	default:
		return DueUpcoming
	}
}

// DueLabel returns the short badge text for the due date, or "" when unset.
func (t Task) DueLabel(today Date) string {
	switch t.DueState(today) {
	case DueNone:
		return ""
	case DueOverdue:
		return "Overdue"
	case DueToday:
		return "Today"
	default:
		return t.DueDate.Format("Jan 2")
	}
}

func cloneDate(d *Date) *Date {
	if d == nil {
		return nil
	}
	out := *d
	return &out
}
