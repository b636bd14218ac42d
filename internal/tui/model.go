package tui

import (
	"context"
	"slices"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/evanschultz/taskflow/internal/app"
	"github.com/evanschultz/taskflow/internal/domain"
)

// Service is the orchestrator surface the board drives. Every call is made
// from a tea.Cmd, so implementations must not touch the Store.
type Service interface {
	Fetch(context.Context, uint64, string) app.RefreshResult
	SaveTask(context.Context, domain.TaskDraft) app.Outcome
	ChangeStatus(context.Context, string, domain.Status) app.Outcome
	Move(context.Context, domain.StatusChange) app.Outcome
	DeleteTask(context.Context, string) app.Outcome
	SaveCategory(context.Context, domain.CategoryDraft) app.Outcome
	DeleteCategory(context.Context, string) app.Outcome
}

// inputMode identifies which overlay currently owns key input.
type inputMode int

const (
	modeNone inputMode = iota
	modeSearch
	modePriorityMenu
	modeEditor
	modeTaskInfo
	modeDrag
	modeCategoryForm
	modeConfirmDelete
)

// pane identifies the focused region of the main screen.
type pane int

const (
	paneBoard pane = iota
	paneCategories
)

// confirmKind names what a pending delete confirmation removes.
type confirmKind int

const (
	confirmTask confirmKind = iota
	confirmCategory
)

// confirmAction describes a destructive action waiting for y/n.
type confirmAction struct {
	kind  confirmKind
	id    string
	label string
}

// Model is the bubbletea model for the kanban board.
type Model struct {
	svc   Service
	store *app.Store

	ready  bool
	width  int
	height int

	help help.Model
	keys keyMap

	notificationTTL time.Duration
	showDescription bool
	palette         []string
	now             func() time.Time
	copyText        func(string) error

	focus          pane
	selectedColumn int
	selectedRows   [3]int
	categoryCursor int

	mode           inputMode
	searchInput    textinput.Model
	priorityCursor int
	editor         taskEditor
	categoryForm   categoryForm
	drag           domain.DragGesture
	infoTaskID     string
	pendingConfirm confirmAction
	saving         bool

	markdown *markdownRenderer
}

// refreshedMsg carries one joined refresh result back to Update.
type refreshedMsg struct {
	result app.RefreshResult
}

// outcomeMsg carries the result of one mutation back to Update.
type outcomeMsg struct {
	outcome app.Outcome
}

// toastExpiredMsg dismisses one notification after its TTL.
type toastExpiredMsg struct {
	id uint64
}

// copiedMsg reports a clipboard write.
type copiedMsg struct {
	id  string
	err error
}

// NewModel builds a board over svc. A nil store gets a fresh one.
func NewModel(svc Service, store *app.Store, opts ...Option) Model {
	if store == nil {
		store = app.NewStore(nil)
	}
	h := help.New()
	h.ShowAll = false
	searchInput := textinput.New()
	searchInput.Prompt = "/ "
	searchInput.Placeholder = "search title or description"
	searchInput.CharLimit = 120
	m := Model{
		svc:             svc,
		store:           store,
		help:            h,
		keys:            newKeyMap(),
		notificationTTL: defaultNotificationTTL,
		showDescription: true,
		palette:         defaultPalette(),
		now:             time.Now,
		copyText:        systemClipboard,
		searchInput:     searchInput,
		markdown:        &markdownRenderer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init starts the first refresh.
func (m Model) Init() tea.Cmd {
	return m.refreshCmd()
}

// Update applies one message to the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetWidth(max(0, msg.Width-2))
		return m, nil

	case refreshedMsg:
		before := m.lastNoticeID()
		m.store.ApplyRefresh(msg.result)
		m.clampSelections()
		return m, m.expireNoticesAfter(before)

	case outcomeMsg:
		return m.applyOutcome(msg.outcome)

	case toastExpiredMsg:
		m.store.Dismiss(msg.id)
		return m, nil

	case copiedMsg:
		before := m.lastNoticeID()
		if msg.err != nil {
			m.store.Notify(app.LevelError, "Failed to copy task id")
		} else {
			m.store.Notify(app.LevelInfo, "Copied task id "+msg.id)
		}
		return m, m.expireNoticesAfter(before)

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)
	}
	return m.forwardToInput(msg)
}

// Store exposes the state container, mainly for tests and the CLI.
func (m Model) Store() *app.Store {
	return m.store
}

// refreshCmd issues a refresh token and fetches scoped to the selected category.
func (m Model) refreshCmd() tea.Cmd {
	token := m.store.BeginRefresh()
	categoryID := m.store.SelectedCategory()
	svc := m.svc
	return func() tea.Msg {
		return refreshedMsg{result: svc.Fetch(context.Background(), token, categoryID)}
	}
}

// mutate wraps one service call in a command that reports its outcome.
func (m Model) mutate(call func(context.Context, Service) app.Outcome) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return outcomeMsg{outcome: call(context.Background(), svc)}
	}
}

// applyOutcome records a mutation outcome, closes forms on success and
// refreshes when required.
func (m Model) applyOutcome(o app.Outcome) (tea.Model, tea.Cmd) {
	m.saving = false
	switch o.Op {
	case app.OpCreateTask, app.OpUpdateTask:
		if o.OK() && m.mode == modeEditor {
			m.closeEditor()
		}
	case app.OpCreateCategory:
		if o.OK() && m.mode == modeCategoryForm {
			m.closeCategoryForm()
		}
	}

	before := m.lastNoticeID()
	refresh := m.store.Record(o)
	cmds := []tea.Cmd{m.expireNoticesAfter(before)}
	if refresh {
		cmds = append(cmds, m.refreshCmd())
	}
	m.clampSelections()
	return m, tea.Batch(cmds...)
}

// lastNoticeID returns the id of the newest queued notification.
func (m Model) lastNoticeID() uint64 {
	n, ok := m.store.LatestNotification()
	if !ok {
		return 0
	}
	return n.ID
}

// expireNoticesAfter schedules dismissal of notifications newer than id.
func (m Model) expireNoticesAfter(id uint64) tea.Cmd {
	if m.notificationTTL <= 0 {
		return nil
	}
	var cmds []tea.Cmd
	for _, n := range m.store.Notifications() {
		if n.ID <= id {
			continue
		}
		noticeID := n.ID
		cmds = append(cmds, tea.Tick(m.notificationTTL, func(time.Time) tea.Msg {
			return toastExpiredMsg{id: noticeID}
		}))
	}
	return tea.Batch(cmds...)
}

// handleNormalModeKey handles keys when no overlay is open.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.reload):
		return m, m.refreshCmd()
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.switchPane):
		if m.focus == paneBoard {
			m.focus = paneCategories
		} else {
			m.focus = paneBoard
		}
		return m, nil
	case key.Matches(msg, m.keys.search):
		return m, m.startSearch()
	case key.Matches(msg, m.keys.priorityFilter):
		m.mode = modePriorityMenu
		m.priorityCursor = 0
		return m, nil
	case key.Matches(msg, m.keys.clearFilters):
		m.store.ClearFilters()
		m.searchInput.SetValue("")
		m.clampSelections()
		return m, nil
	case key.Matches(msg, m.keys.addTask):
		return m, m.startEditor(domain.NewDraft())
	case key.Matches(msg, m.keys.newCategory):
		return m, m.startCategoryForm()
	}
	if m.focus == paneCategories {
		return m.handleCategoryPaneKey(msg)
	}
	return m.handleBoardKey(msg)
}

// handleBoardKey handles navigation and task actions on the board.
func (m Model) handleBoardKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.moveLeft):
		m.selectedColumn = clamp(m.selectedColumn-1, 0, len(domain.Statuses())-1)
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		m.selectedColumn = clamp(m.selectedColumn+1, 0, len(domain.Statuses())-1)
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.selectedRows[m.selectedColumn] = clamp(m.selectedRows[m.selectedColumn]-1, 0, len(m.columnTasks(m.selectedColumn))-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.selectedRows[m.selectedColumn] = clamp(m.selectedRows[m.selectedColumn]+1, 0, len(m.columnTasks(m.selectedColumn))-1)
		return m, nil
	}

	task, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.taskInfo):
		m.mode = modeTaskInfo
		m.infoTaskID = task.ID
		return m, nil
	case key.Matches(msg, m.keys.editTask):
		return m, m.startEditor(domain.DraftFromTask(task))
	case key.Matches(msg, m.keys.completeTask):
		if task.IsDone() {
			return m, nil
		}
		id := task.ID
		return m, m.mutate(func(ctx context.Context, svc Service) app.Outcome {
			return svc.ChangeStatus(ctx, id, domain.StatusDone)
		})
	case key.Matches(msg, m.keys.dragTask):
		m.drag.Begin(task)
		m.mode = modeDrag
		return m, nil
	case key.Matches(msg, m.keys.deleteTask):
		m.pendingConfirm = confirmAction{kind: confirmTask, id: task.ID, label: task.Title}
		m.mode = modeConfirmDelete
		return m, nil
	case key.Matches(msg, m.keys.copyTaskID):
		return m, m.copyTaskIDCmd(task.ID)
	}
	return m, nil
}

// handleCategoryPaneKey handles the category navigator.
func (m Model) handleCategoryPaneKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	entries := len(m.store.Categories()) + 1
	switch {
	case key.Matches(msg, m.keys.moveUp):
		m.categoryCursor = clamp(m.categoryCursor-1, 0, entries-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.categoryCursor = clamp(m.categoryCursor+1, 0, entries-1)
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		m.focus = paneBoard
		return m, nil
	case key.Matches(msg, m.keys.taskInfo):
		return m.selectCategoryAtCursor()
	case key.Matches(msg, m.keys.deleteCategory):
		category, ok := m.categoryAtCursor()
		if !ok {
			return m, nil
		}
		m.pendingConfirm = confirmAction{kind: confirmCategory, id: category.ID, label: category.Name}
		m.mode = modeConfirmDelete
		return m, nil
	}
	return m, nil
}

// selectCategoryAtCursor scopes the board to the focused navigator entry.
func (m Model) selectCategoryAtCursor() (tea.Model, tea.Cmd) {
	id := ""
	if category, ok := m.categoryAtCursor(); ok {
		id = category.ID
	}
	if !m.store.SelectCategory(id) {
		return m, nil
	}
	m.selectedRows = [3]int{}
	return m, m.refreshCmd()
}

// categoryAtCursor resolves the navigator cursor. Row zero is "All Tasks".
func (m Model) categoryAtCursor() (domain.Category, bool) {
	categories := m.store.Categories()
	idx := m.categoryCursor - 1
	if idx < 0 || idx >= len(categories) {
		return domain.Category{}, false
	}
	return categories[idx], true
}

// handleInputModeKey routes keys to the open overlay.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modePriorityMenu:
		return m.handlePriorityMenuKey(msg)
	case modeEditor:
		return m.handleEditorKey(msg)
	case modeTaskInfo:
		return m.handleTaskInfoKey(msg)
	case modeDrag:
		return m.handleDragKey(msg)
	case modeCategoryForm:
		return m.handleCategoryFormKey(msg)
	case modeConfirmDelete:
		return m.handleConfirmKey(msg)
	}
	m.mode = modeNone
	return m, nil
}

func (m *Model) startSearch() tea.Cmd {
	m.mode = modeSearch
	m.searchInput.SetValue(m.store.Search())
	m.searchInput.CursorEnd()
	return m.searchInput.Focus()
}

// handleSearchKey edits the query live. Esc clears it and enter keeps it.
func (m Model) handleSearchKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchInput.SetValue("")
		m.searchInput.Blur()
		m.store.SetSearch("")
		m.mode = modeNone
		m.clampSelections()
		return m, nil
	case "enter":
		m.searchInput.Blur()
		m.mode = modeNone
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.store.SetSearch(m.searchInput.Value())
	m.clampSelections()
	return m, cmd
}

// handlePriorityMenuKey toggles priorities in the filter menu.
func (m Model) handlePriorityMenuKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	priorities := domain.Priorities()
	switch msg.String() {
	case "esc", "p", "q":
		m.mode = modeNone
	case "up", "k":
		m.priorityCursor = clamp(m.priorityCursor-1, 0, len(priorities)-1)
	case "down", "j":
		m.priorityCursor = clamp(m.priorityCursor+1, 0, len(priorities)-1)
	case "enter", " ", "space":
		m.store.TogglePriority(priorities[m.priorityCursor])
	case "1", "2", "3":
		idx := int(msg.String()[0] - '1')
		m.priorityCursor = idx
		m.store.TogglePriority(priorities[idx])
	case "backspace", "c":
		m.store.SetPriorityFilter(nil)
	}
	m.clampSelections()
	return m, nil
}

// handleTaskInfoKey handles the detail overlay.
func (m Model) handleTaskInfoKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	task, ok := m.store.TaskByID(m.infoTaskID)
	switch {
	case !ok:
		m.mode = modeNone
		m.infoTaskID = ""
		return m, nil
	case key.Matches(msg, m.keys.editTask):
		m.infoTaskID = ""
		return m, m.startEditor(domain.DraftFromTask(task))
	case key.Matches(msg, m.keys.copyTaskID):
		return m, m.copyTaskIDCmd(task.ID)
	case key.Matches(msg, m.keys.completeTask):
		if task.IsDone() {
			return m, nil
		}
		m.mode = modeNone
		m.infoTaskID = ""
		id := task.ID
		return m, m.mutate(func(ctx context.Context, svc Service) app.Outcome {
			return svc.ChangeStatus(ctx, id, domain.StatusDone)
		})
	}
	switch msg.String() {
	case "esc", "q", "i", "enter":
		m.mode = modeNone
		m.infoTaskID = ""
	}
	return m, nil
}

// handleDragKey moves a picked-up card between columns.
func (m Model) handleDragKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	statuses := domain.Statuses()
	hovered := slices.Index(statuses, m.drag.Target())
	switch {
	case key.Matches(msg, m.keys.moveLeft):
		m.drag.Hover(statuses[clamp(hovered-1, 0, len(statuses)-1)])
		m.selectedColumn = slices.Index(statuses, m.drag.Target())
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		m.drag.Hover(statuses[clamp(hovered+1, 0, len(statuses)-1)])
		m.selectedColumn = slices.Index(statuses, m.drag.Target())
		return m, nil
	}
	switch msg.String() {
	case "esc":
		origin := slices.Index(statuses, m.drag.Task().Status)
		m.drag.Cancel()
		m.mode = modeNone
		if origin >= 0 {
			m.selectedColumn = origin
		}
		return m, nil
	case "enter", "m":
		m.mode = modeNone
		change, ok := m.drag.Commit()
		if !ok {
			return m, nil
		}
		return m, m.mutate(func(ctx context.Context, svc Service) app.Outcome {
			return svc.Move(ctx, change)
		})
	}
	return m, nil
}

// handleConfirmKey resolves a pending delete.
func (m Model) handleConfirmKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		action := m.pendingConfirm
		m.pendingConfirm = confirmAction{}
		m.mode = modeNone
		if action.kind == confirmCategory {
			return m, m.mutate(func(ctx context.Context, svc Service) app.Outcome {
				return svc.DeleteCategory(ctx, action.id)
			})
		}
		return m, m.mutate(func(ctx context.Context, svc Service) app.Outcome {
			return svc.DeleteTask(ctx, action.id)
		})
	case "n", "esc", "q":
		m.pendingConfirm = confirmAction{}
		m.mode = modeNone
	}
	return m, nil
}

func (m Model) copyTaskIDCmd(id string) tea.Cmd {
	write := m.copyText
	return func() tea.Msg {
		return copiedMsg{id: id, err: write(id)}
	}
}

// forwardToInput passes non-key messages such as cursor blinks to the
// focused text input.
func (m Model) forwardToInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.mode {
	case modeSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
	case modeEditor:
		cmd = m.editor.updateFocused(msg)
	case modeCategoryForm:
		m.categoryForm.name, cmd = m.categoryForm.name.Update(msg)
	}
	return m, cmd
}

// columnTasks returns the visible tasks of one board column.
func (m Model) columnTasks(idx int) []domain.Task {
	statuses := domain.Statuses()
	if idx < 0 || idx >= len(statuses) {
		return nil
	}
	return m.store.Board().Column(statuses[idx])
}

// selectedTask returns the focused card.
func (m Model) selectedTask() (domain.Task, bool) {
	tasks := m.columnTasks(m.selectedColumn)
	if len(tasks) == 0 {
		return domain.Task{}, false
	}
	return tasks[clamp(m.selectedRows[m.selectedColumn], 0, len(tasks)-1)], true
}

// clampSelections keeps cursors inside the current snapshot.
func (m *Model) clampSelections() {
	m.selectedColumn = clamp(m.selectedColumn, 0, len(domain.Statuses())-1)
	for i := range m.selectedRows {
		m.selectedRows[i] = clamp(m.selectedRows[i], 0, len(m.columnTasks(i))-1)
	}
	m.categoryCursor = clamp(m.categoryCursor, 0, len(m.store.Categories()))
}
