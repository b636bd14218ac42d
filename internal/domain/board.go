package domain

// Board holds the visible tasks split into one bucket per status. Each
// bucket keeps the order the tasks were received in.
type Board struct {
	Todo       []Task
	InProgress []Task
	Done       []Task
}

// Partition places every task into exactly one bucket. Tasks with an
// unknown status are dropped.
func Partition(tasks []Task) Board {
	var b Board
	for _, t := range tasks {
		switch t.Status {
		case StatusTodo:
			b.Todo = append(b.Todo, t)
		case StatusInProgress:
			b.InProgress = append(b.InProgress, t)
		case StatusDone:
			b.Done = append(b.Done, t)
		}
	}
	return b
}

// Column returns the bucket for a status.
func (b Board) Column(status Status) []Task {
	switch status {
	case StatusTodo:
		return b.Todo
	case StatusInProgress:
		return b.InProgress
	case StatusDone:
		return b.Done
	default:
		return nil
	}
}

// AllowsAdd reports whether a column offers the add-task affordance.
func AllowsAdd(status Status) bool {
	return status == StatusTodo
}

// StatusChange is the single intent a drag gesture can produce.
type StatusChange struct {
	TaskID string
	From   Status
	To     Status
}

// DragGesture models begin(task) -> hover(column) -> commit(column).
type DragGesture struct {
	task   Task
	target Status
	active bool
}

// Begin picks up a task. Hovering starts over the task's own column.
func (g *DragGesture) Begin(t Task) {
	g.task = t
	g.target = t.Status
	g.active = true
}

func (g *DragGesture) Hover(status Status) {
	if !g.active || !status.Valid() {
		return
	}
	g.target = status
}

func (g DragGesture) Active() bool {
	return g.active
}

func (g DragGesture) Task() Task {
	return g.task
}

func (g DragGesture) Target() Status {
	return g.target
}

// Commit ends the gesture. It yields an intent only when the target column
// differs from the task's current status.
func (g *DragGesture) Commit() (StatusChange, bool) {
	if !g.active {
		return StatusChange{}, false
	}
	task, target := g.task, g.target
	g.Cancel()
	if target == task.Status {
		return StatusChange{}, false
	}
	return StatusChange{TaskID: task.ID, From: task.Status, To: target}, true
}

func (g *DragGesture) Cancel() {
	*g = DragGesture{}
}
