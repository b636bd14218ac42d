package tui

import (
	"context"
	"errors"
	"slices"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/evanschultz/taskflow/internal/app"
	"github.com/evanschultz/taskflow/internal/domain"
)

// task-editor field indexes in display order.
const (
	editorFieldTitle = iota
	editorFieldDescription
	editorFieldStatus
	editorFieldPriority
	editorFieldCategory
	editorFieldDue
	editorFieldCount
)

var editorFieldLabels = []string{"Title", "Description", "Status", "Priority", "Category", "Due date"}

// errTitleRequired and errDueDate are shown inline in the editor.
var (
	errTitleRequired = errors.New("title is required")
	errDueDate       = errors.New("due date must be YYYY-MM-DD")
)

// taskEditor stages a task draft while the editor modal is open.
type taskEditor struct {
	draft       domain.TaskDraft
	title       textinput.Model
	description textinput.Model
	due         textinput.Model
	focus       int
	err         error
}

func newTaskEditor(draft domain.TaskDraft) taskEditor {
	e := taskEditor{
		draft:       draft,
		title:       newModalInput("", "What needs doing?", draft.Title, 200),
		description: newModalInput("", "Optional details (markdown)", draft.Description, 2000),
		due:         newModalInput("", "YYYY-MM-DD", draft.DueDate.String(), 10),
	}
	return e
}

// newModalInput builds one single-line form input.
func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// focusField moves focus, focusing the text input behind text fields.
func (e *taskEditor) focusField(idx int) tea.Cmd {
	e.focus = clamp(idx, 0, editorFieldCount-1)
	e.title.Blur()
	e.description.Blur()
	e.due.Blur()
	switch e.focus {
	case editorFieldTitle:
		return e.title.Focus()
	case editorFieldDescription:
		return e.description.Focus()
	case editorFieldDue:
		return e.due.Focus()
	}
	return nil
}

// isTextField reports whether the focused field takes free text.
func (e taskEditor) isTextField() bool {
	return e.focus == editorFieldTitle || e.focus == editorFieldDescription || e.focus == editorFieldDue
}

// updateFocused routes a message to the focused text input.
func (e *taskEditor) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch e.focus {
	case editorFieldTitle:
		e.title, cmd = e.title.Update(msg)
		e.draft.Title = e.title.Value()
	case editorFieldDescription:
		e.description, cmd = e.description.Update(msg)
		e.draft.Description = e.description.Value()
	case editorFieldDue:
		e.due, cmd = e.due.Update(msg)
	}
	return cmd
}

// cycle steps the focused choice field through its options.
func (e *taskEditor) cycle(delta int, categories []domain.Category) {
	switch e.focus {
	case editorFieldStatus:
		e.draft.Status = cycleValue(domain.Statuses(), e.draft.Status, delta)
	case editorFieldPriority:
		e.draft.Priority = cycleValue(domain.Priorities(), e.draft.Priority, delta)
	case editorFieldCategory:
		ids := make([]string, 0, len(categories)+1)
		ids = append(ids, "")
		for _, c := range categories {
			ids = append(ids, c.ID)
		}
		e.draft.CategoryID = cycleValue(ids, e.draft.CategoryID, delta)
	}
}

// canSubmit reports whether the current draft passes the submit gate.
func (e taskEditor) canSubmit() bool {
	return e.draft.Valid()
}

// submission returns the draft with the due date parsed.
func (e taskEditor) submission() (domain.TaskDraft, error) {
	draft := e.draft
	due, err := domain.ParseDate(e.due.Value())
	if err != nil {
		return draft, errDueDate
	}
	draft.DueDate = due
	if !draft.Valid() {
		return draft, errTitleRequired
	}
	return draft, nil
}

func cycleValue[T comparable](values []T, current T, delta int) T {
	if len(values) == 0 {
		return current
	}
	idx := slices.Index(values, current)
	if idx < 0 {
		idx = 0
	}
	n := len(values)
	return values[((idx+delta)%n+n)%n]
}

func (m *Model) startEditor(draft domain.TaskDraft) tea.Cmd {
	m.mode = modeEditor
	m.saving = false
	m.editor = newTaskEditor(draft)
	return m.editor.focusField(editorFieldTitle)
}

func (m *Model) closeEditor() {
	m.mode = modeNone
	m.editor = taskEditor{}
}

// handleEditorKey handles field navigation, choice cycling, submit and cancel.
func (m Model) handleEditorKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeEditor()
		return m, nil
	case "enter", "ctrl+s":
		return m.submitEditor()
	case "tab", "down":
		return m, m.editor.focusField((m.editor.focus + 1) % editorFieldCount)
	case "shift+tab", "up":
		return m, m.editor.focusField((m.editor.focus + editorFieldCount - 1) % editorFieldCount)
	case "left", "right", " ", "space":
		if !m.editor.isTextField() {
			delta := 1
			if msg.String() == "left" {
				delta = -1
			}
			m.editor.cycle(delta, m.store.Categories())
			return m, nil
		}
	}
	if !m.editor.isTextField() {
		return m, nil
	}
	m.editor.err = nil
	return m, m.editor.updateFocused(msg)
}

// submitEditor saves the draft. An invalid draft issues no call and a
// failed save leaves the editor open with the draft intact.
func (m Model) submitEditor() (tea.Model, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	draft, err := m.editor.submission()
	if err != nil {
		m.editor.err = err
		return m, nil
	}
	m.editor.err = nil
	m.saving = true
	return m, m.mutate(func(ctx context.Context, svc Service) app.Outcome {
		return svc.SaveTask(ctx, draft)
	})
}

// categoryForm stages a new category.
type categoryForm struct {
	draft domain.CategoryDraft
	name  textinput.Model
	err   error
}

func (m *Model) startCategoryForm() tea.Cmd {
	m.mode = modeCategoryForm
	m.saving = false
	draft := domain.NewCategoryDraft()
	if len(m.palette) > 0 {
		draft.Color = m.palette[0]
	}
	m.categoryForm = categoryForm{
		draft: draft,
		name:  newModalInput("name: ", "e.g. Errands", "", 60),
	}
	return m.categoryForm.name.Focus()
}

// closeCategoryForm clears and closes the form.
func (m *Model) closeCategoryForm() {
	m.categoryForm.draft.Reset()
	m.categoryForm = categoryForm{draft: m.categoryForm.draft}
	m.mode = modeNone
}

// handleCategoryFormKey edits the name, cycles the color with up/down and
// submits with enter.
func (m Model) handleCategoryFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeCategoryForm()
		return m, nil
	case "up", "shift+tab":
		m.categoryForm.draft.CycleColorIn(m.palette, -1)
		return m, nil
	case "down", "tab":
		m.categoryForm.draft.CycleColorIn(m.palette, 1)
		return m, nil
	case "enter":
		if m.saving {
			return m, nil
		}
		if !m.categoryForm.draft.Valid() {
			m.categoryForm.err = errors.New("name is required")
			return m, nil
		}
		draft := m.categoryForm.draft
		m.saving = true
		return m, m.mutate(func(ctx context.Context, svc Service) app.Outcome {
			return svc.SaveCategory(ctx, draft)
		})
	}
	var cmd tea.Cmd
	m.categoryForm.name, cmd = m.categoryForm.name.Update(msg)
	m.categoryForm.draft.Name = m.categoryForm.name.Value()
	m.categoryForm.err = nil
	return m, cmd
}
