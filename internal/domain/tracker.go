package domain

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	m "prscore.dev/pkg/prscore/internal/model"
)

// TaskListener observes every task change. It is called outside the
// tracker's lock, with a copy of the task.
type TaskListener func(task m.Task)

// TaskUpdate carries the fields recorded alongside a state transition.
type TaskUpdate struct {
	Findings int
	Duration time.Duration
	Cause    string
}

// TaskTracker is a concurrency-safe store of provider tasks that only
// accepts legal state transitions.
type TaskTracker interface {
	Add(provider string) m.Task
	Transition(id string, next m.TaskState, update TaskUpdate) (m.Task, error)
	Get(id string) (m.Task, bool)
	Tasks() []m.Task
}

type taskTracker struct {
	mu        sync.Mutex
	tasks     map[string]*m.Task
	order     []string
	listeners []TaskListener
}

// NewTaskTracker creates an empty TaskTracker notifying the given listeners.
func NewTaskTracker(listeners ...TaskListener) TaskTracker {
	return &taskTracker{
		tasks:     map[string]*m.Task{},
		listeners: listeners,
	}
}

func (t *taskTracker) Add(provider string) m.Task {
	task := m.Task{
		ID:       uuid.NewString(),
		Provider: provider,
		State:    m.TaskPending,
	}

	t.mu.Lock()
	t.tasks[task.ID] = &task
	t.order = append(t.order, task.ID)
	snapshot := task
	t.mu.Unlock()

	t.notify(snapshot)

	return snapshot
}

func (t *taskTracker) Transition(id string, next m.TaskState, update TaskUpdate) (m.Task, error) {
	t.mu.Lock()

	task, ok := t.tasks[id]
	if !ok {
		t.mu.Unlock()
		return m.Task{}, fmt.Errorf("%w: unknown task %q", ErrInvalidTransition, id)
	}

	if !task.State.CanTransition(next) {
		state := task.State
		t.mu.Unlock()

		return m.Task{}, fmt.Errorf("%w: %s -> %s for task %q", ErrInvalidTransition, state, next, id)
	}

	task.State = next
	task.Findings = update.Findings
	task.Duration = update.Duration
	task.Cause = update.Cause
	snapshot := *task
	t.mu.Unlock()

	t.notify(snapshot)

	return snapshot, nil
}

func (t *taskTracker) Get(id string) (m.Task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task, ok := t.tasks[id]
	if !ok {
		return m.Task{}, false
	}

	return *task, true
}

// Tasks returns copies of all tasks in the order they were added.
func (t *taskTracker) Tasks() []m.Task {
	t.mu.Lock()
	defer t.mu.Unlock()

	tasks := make([]m.Task, 0, len(t.order))
	for _, id := range t.order {
		tasks = append(tasks, *t.tasks[id])
	}

	return tasks
}

func (t *taskTracker) notify(task m.Task) {
	for _, listener := range t.listeners {
		listener(task)
	}
}
