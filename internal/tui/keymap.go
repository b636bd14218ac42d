package tui

import "charm.land/bubbles/v2/key"

// keyMap holds the board-level key bindings.
type keyMap struct {
	quit           key.Binding
	reload         key.Binding
	toggleHelp     key.Binding
	moveLeft       key.Binding
	moveRight      key.Binding
	moveUp         key.Binding
	moveDown       key.Binding
	switchPane     key.Binding
	addTask        key.Binding
	editTask       key.Binding
	taskInfo       key.Binding
	completeTask   key.Binding
	dragTask       key.Binding
	deleteTask     key.Binding
	copyTaskID     key.Binding
	search         key.Binding
	priorityFilter key.Binding
	clearFilters   key.Binding
	newCategory    key.Binding
	deleteCategory key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:       key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:      key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		moveDown:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		switchPane:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "categories/board")),
		addTask:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		editTask:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit task")),
		taskInfo:       key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "task info")),
		completeTask:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "mark complete")),
		dragTask:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move task")),
		deleteTask:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete task")),
		copyTaskID:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy task id")),
		search:         key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		priorityFilter: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "priority filter")),
		clearFilters:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filters")),
		newCategory:    key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "new category")),
		deleteCategory: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete category")),
	}
}

// ShortHelp returns the bindings shown in the collapsed help bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addTask, k.editTask, k.completeTask, k.dragTask, k.search, k.priorityFilter, k.switchPane, k.toggleHelp, k.quit,
	}
}

// FullHelp returns every binding grouped by concern.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addTask, k.editTask, k.taskInfo, k.completeTask, k.dragTask, k.deleteTask, k.copyTaskID},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.switchPane},
		{k.search, k.priorityFilter, k.clearFilters, k.newCategory, k.deleteCategory},
		{k.reload, k.toggleHelp, k.quit},
	}
}
