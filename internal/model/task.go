package model

import "time"

// TaskState is the lifecycle state of one provider task within a run.
type TaskState int

// Task states. A task moves PENDING -> RUNNING -> one terminal state;
// PENDING may also go straight to CANCELLED.
const (
	TaskPending TaskState = iota
	TaskRunning
	TaskCompleted
	TaskFailed
	TaskCancelled
)

func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	case TaskCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s TaskState) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// CanTransition reports whether moving from s to next is legal.
func (s TaskState) CanTransition(next TaskState) bool {
	switch s {
	case TaskPending:
		return next == TaskRunning || next == TaskCancelled
	case TaskRunning:
		return next == TaskCompleted || next == TaskFailed || next == TaskCancelled
	case TaskCompleted, TaskFailed, TaskCancelled:
		return false
	}

	return false
}

// Task records the progress of a single provider invocation.
type Task struct {
	ID       string        `json:"id" yaml:"id"`
	Provider string        `json:"provider" yaml:"provider"`
	State    TaskState     `json:"state" yaml:"state"`
	Findings int           `json:"findings" yaml:"findings"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Cause    string        `json:"cause,omitempty" yaml:"cause,omitempty"`
}
