package server

import (
	"sync"

	"github.com/google/uuid"
)

// TaskStatus defines the possible states of a background task.
type TaskStatus string

const (
	TaskStatusStarted   TaskStatus = "started"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// TaskInfo is the JSON shape of a task as returned by the API. It is a
// point-in-time copy, safe to marshal while the task keeps running.
type TaskInfo struct {
	ID       string     `json:"id"`
	Status   TaskStatus `json:"status"`
	Progress string     `json:"progress,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// Task tracks one long-running operation, such as an embedding reindex.
// The ID never changes; everything else goes through the setters.
type Task struct {
	ID string

	mu       sync.RWMutex
	status   TaskStatus
	progress string
	errMsg   string
}

// SetStatus updates the lifecycle state of the task.
func (t *Task) SetStatus(status TaskStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
}

// SetProgress updates the human-readable progress message.
func (t *Task) SetProgress(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress = message
}

// SetError marks the task as failed and records the error message.
func (t *Task) SetError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = TaskStatusFailed
	t.errMsg = err.Error()
}

// Snapshot returns a consistent copy of the current task state.
func (t *Task) Snapshot() TaskInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return TaskInfo{
		ID:       t.ID,
		Status:   t.status,
		Progress: t.progress,
		Error:    t.errMsg,
	}
}

// TaskManager tracks all background tasks by id.
type TaskManager struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

// NewTaskManager creates an empty task manager.
func NewTaskManager() *TaskManager {
	return &TaskManager{
		tasks: make(map[string]*Task),
	}
}

// NewTask creates a task in the started state, registers it, and returns it.
func (tm *TaskManager) NewTask() *Task {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	task := &Task{
		ID:     uuid.NewString(),
		status: TaskStatusStarted,
	}
	tm.tasks[task.ID] = task
	return task
}

// GetTask retrieves a task by its id.
func (tm *TaskManager) GetTask(id string) (*Task, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	task, found := tm.tasks[id]
	return task, found
}
