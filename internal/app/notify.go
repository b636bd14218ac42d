package app

import "time"

type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a transient, dismissible message shown to the user.
type Notification struct {
	ID      uint64
	Level   Level
	Message string
	At      time.Time
}

func (n Notification) IsZero() bool {
	return n.Message == ""
}

// Op names a user-triggered operation.
type Op string

const (
	OpRefresh        Op = "refresh"
	OpCreateTask     Op = "create_task"
	OpUpdateTask     Op = "update_task"
	OpChangeStatus   Op = "change_status"
	OpDeleteTask     Op = "delete_task"
	OpCreateCategory Op = "create_category"
	OpDeleteCategory Op = "delete_category"
)

var failureMessages = map[Op]string{
	OpRefresh:        "Failed to load data",
	OpCreateTask:     "Failed to save task",
	OpUpdateTask:     "Failed to save task",
	OpChangeStatus:   "Failed to update task",
	OpDeleteTask:     "Failed to delete task",
	OpCreateCategory: "Failed to create category",
	OpDeleteCategory: "Failed to delete category",
}

// FailureMessage returns the fixed user-facing text for a failed operation.
func FailureMessage(op Op) string {
	if msg, ok := failureMessages[op]; ok {
		return msg
	}
	return "Something went wrong"
}
