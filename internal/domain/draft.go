package domain

import (
	"slices"
	"strings"
)

// TaskDraft is the editable staging copy behind the task editor. ID is set
// only when the draft was opened from an existing task.
type TaskDraft struct {
	ID          string   `json:"id"`
	Title       string   `json:"title" validate:"notblank"`
	Description string   `json:"description"`
	Status      Status   `json:"status" validate:"oneof=todo in_progress done"`
	Priority    Priority `json:"priority" validate:"oneof=high medium low"`
	CategoryID  string   `json:"category_id"`
	DueDate     Date     `json:"due_date"`
}

// NewDraft returns a blank draft with creation defaults.
func NewDraft() TaskDraft {
	return TaskDraft{
		Status:   StatusTodo,
		Priority: PriorityMedium,
	}
}

// DraftFromTask pre-fills a draft from an existing task.
func DraftFromTask(t Task) TaskDraft {
	d := TaskDraft{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		CategoryID:  t.CategoryID,
	}
	if !d.Status.Valid() {
		d.Status = StatusTodo
	}
	if !d.Priority.Valid() {
		d.Priority = PriorityMedium
	}
	if t.DueDate != nil {
		d.DueDate = *t.DueDate
	}
	return d
}

func (d TaskDraft) IsNew() bool {
	return strings.TrimSpace(d.ID) == ""
}

// Valid gates submission: the title must be non-empty after trimming.
func (d TaskDraft) Valid() bool {
	return validateStruct(d) == nil
}

func (d TaskDraft) Validate() error {
	return validateStruct(d)
}

// Input converts the draft into a create request.
func (d TaskDraft) Input() (TaskInput, error) {
	if err := d.Validate(); err != nil {
		return TaskInput{}, err
	}
	in := TaskInput{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Status:      d.Status,
		Priority:    d.Priority,
		CategoryID:  strings.TrimSpace(d.CategoryID),
	}
	if !d.DueDate.IsZero() {
		due := d.DueDate
		in.DueDate = &due
	}
	return in, nil
}

// Patch converts the draft into an update carrying every editable field.
// An unset category or due date is sent as a clear.
func (d TaskDraft) Patch() (TaskPatch, error) {
	if err := d.Validate(); err != nil {
		return TaskPatch{}, err
	}
	title := strings.TrimSpace(d.Title)
	description := strings.TrimSpace(d.Description)
	status := d.Status
	priority := d.Priority
	categoryID := strings.TrimSpace(d.CategoryID)
	due := d.DueDate
	return TaskPatch{
		Title:       &title,
		Description: &description,
		Status:      &status,
		Priority:    &priority,
		CategoryID:  &categoryID,
		DueDate:     &due,
	}, nil
}

// CategoryDraft backs the create-category form.
type CategoryDraft struct {
	Name  string `json:"name" validate:"notblank"`
	Color string `json:"color" validate:"hexcolor"`
}

func NewCategoryDraft() CategoryDraft {
	return CategoryDraft{Color: palette[0]}
}

func (d CategoryDraft) Valid() bool {
	return validateStruct(d) == nil
}

// Reset clears the name and restores the default color.
func (d *CategoryDraft) Reset() {
	*d = NewCategoryDraft()
}

// CycleColor moves the selected color through the palette, wrapping at
// both ends.
func (d *CategoryDraft) CycleColor(delta int) {
	d.CycleColorIn(palette, delta)
}

// CycleColorIn cycles through colors instead of the built-in palette. An
// empty list leaves the color unchanged.
func (d *CategoryDraft) CycleColorIn(colors []string, delta int) {
	n := len(colors)
	if n == 0 {
		return
	}
	idx := slices.Index(colors, d.Color)
	if idx < 0 {
		idx = 0
	}
	idx = ((idx+delta)%n + n) % n
	d.Color = colors[idx]
}

func (d CategoryDraft) Input() (CategoryInput, error) {
	if err := validateStruct(d); err != nil {
		return CategoryInput{}, err
	}
	return CategoryInput{Name: strings.TrimSpace(d.Name), Color: d.Color}, nil
}
