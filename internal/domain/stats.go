package domain

// Stats holds aggregate counts computed by the task service.
type Stats struct {
	Total        int `json:"total" yaml:"total"`
	Todo         int `json:"todo" yaml:"todo"`
	InProgress   int `json:"in_progress" yaml:"in_progress"`
	Done         int `json:"done" yaml:"done"`
	HighPriority int `json:"high_priority" yaml:"high_priority"`
}

// Count returns the number of tasks in one status.
func (s Stats) Count(status Status) int {
	switch status {
	case StatusTodo:
		return s.Todo
	case StatusInProgress:
		return s.InProgress
	case StatusDone:
		return s.Done
	default:
		return 0
	}
}
