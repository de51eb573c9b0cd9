package storage

import (
	"context"
	"time"

	"github.com/taskpilot/taskpilot/internal/model"
)

// TaskRepository is the interface for task, sub-task and audit log persistence.
type TaskRepository interface {
	CreateTask(ctx context.Context, t model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context) ([]model.Task, error)
	UpdateTask(ctx context.Context, t model.Task) error
	// DeleteTask removes a task and cascades to its sub-tasks and logs.
	DeleteTask(ctx context.Context, id string) error

	// CreateSubTasks persists a planning batch atomically.
	CreateSubTasks(ctx context.Context, subTasks []model.SubTask) error
	// ListSubTasks returns a task's sub-tasks in ascending execution order.
	ListSubTasks(ctx context.Context, taskID string) ([]model.SubTask, error)
	// NextPendingSubTask returns the pending sub-task with the lowest order,
	// or nil if there is none.
	NextPendingSubTask(ctx context.Context, taskID string) (*model.SubTask, error)
	// InProgressSubTask returns the sub-task currently in progress, or nil if
	// there is none.
	InProgressSubTask(ctx context.Context, taskID string) (*model.SubTask, error)
	UpdateSubTask(ctx context.Context, st model.SubTask) error

	// CancelTask atomically marks the task and every pending or in-progress
	// sub-task as cancelled.
	CancelTask(ctx context.Context, taskID string) error

	CreateTaskLog(ctx context.Context, l model.TaskLog) error
	// ListTaskLogs returns a task's audit entries in creation order.
	ListTaskLogs(ctx context.Context, taskID string) ([]model.TaskLog, error)
}

// SessionRepository is the interface for sandbox session persistence,
// including the durable command and output history.
type SessionRepository interface {
	CreateSession(ctx context.Context, s model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	ListSessions(ctx context.Context) ([]model.Session, error)
	// ListSessionsUpdatedBefore returns the sessions whose last update
	// precedes the cutoff, used by retention cleanup.
	ListSessionsUpdatedBefore(ctx context.Context, cutoff time.Time) ([]model.Session, error)
	UpdateSession(ctx context.Context, s model.Session) error
	// DeleteSession removes a session and cascades to its history.
	DeleteSession(ctx context.Context, id string) error

	AppendCommand(ctx context.Context, r model.CommandRecord) error
	ListCommands(ctx context.Context, sessionID string) ([]model.CommandRecord, error)
	AppendOutput(ctx context.Context, r model.OutputRecord) error
	ListOutputs(ctx context.Context, sessionID string) ([]model.OutputRecord, error)
}
