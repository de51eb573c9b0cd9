package model

import (
	"fmt"
	"time"
)

// TaskStatus represents the lifecycle state of a task or a sub-task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has been created but no work started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress indicates the task is being worked on.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusCompleted indicates all work finished successfully.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task aborted with an error.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusCancelled indicates the task was cancelled before finishing.
	TaskStatusCancelled TaskStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed from the status.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	}
	return false
}

// Valid reports whether the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	}
	return false
}

// TaskPriority represents the relative priority of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Task represents a user-level goal decomposed into ordered sub-tasks.
type Task struct {
	ID          string
	Title       string
	Description string
	Status      TaskStatus
	Priority    TaskPriority
	DueDate     *time.Time
	CompletedAt *time.Time
	// Metadata is an opaque JSON payload, see TaskMetadata.
	Metadata  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the task fields.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("id is required: %w", ErrNotValid)
	}
	if t.Title == "" {
		return fmt.Errorf("title is required: %w", ErrNotValid)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("unknown status %q: %w", t.Status, ErrNotValid)
	}
	return nil
}

// SubTask is one ordered unit of work within a task. Sub-tasks are created in
// a single batch when planning completes and are never reordered afterwards.
type SubTask struct {
	ID          string
	TaskID      string
	Title       string
	Description string
	Status      TaskStatus
	// Order is the unique ascending execution position within the task,
	// starting at 0.
	Order       int
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// LogLevel represents the severity of a task log entry.
type LogLevel string

const (
	LogLevelDebug    LogLevel = "debug"
	LogLevelInfo     LogLevel = "info"
	LogLevelWarning  LogLevel = "warning"
	LogLevelError    LogLevel = "error"
	LogLevelCritical LogLevel = "critical"
)

// TaskLog is an append-only audit record attached to a task and optionally to
// one of its sub-tasks. Entries are immutable once created and only removed
// through the owning task's cascade delete.
type TaskLog struct {
	ID     string
	TaskID string
	// SubTaskID is empty for task-level entries.
	SubTaskID string
	Level     LogLevel
	Message   string
	// Metadata is an opaque JSON payload, see PlanLogMetadata and
	// ExecutionLogMetadata.
	Metadata  string
	CreatedAt time.Time
}
