package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskpilot/taskpilot/internal/log"
	"github.com/taskpilot/taskpilot/internal/model"
)

// TaskRepositoryConfig is the configuration for the SQLite task repository.
type TaskRepositoryConfig struct {
	DB     *sql.DB
	Logger log.Logger
}

func (c *TaskRepositoryConfig) defaults() error {
	if c.DB == nil {
		return fmt.Errorf("db is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLiteTask"})
	return nil
}

// TaskRepository is a SQLite implementation of storage.TaskRepository. It
// shares the database connection owned by Repository.
type TaskRepository struct {
	db     *sql.DB
	logger log.Logger
}

// NewTaskRepository creates a new SQLite task repository.
func NewTaskRepository(cfg TaskRepositoryConfig) (*TaskRepository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &TaskRepository{
		db:     cfg.DB,
		logger: cfg.Logger,
	}, nil
}

const taskColumns = `id, title, description, status, priority, due_date, completed_at, metadata, created_at, updated_at`

// CreateTask creates a new task.
func (r *TaskRepository) CreateTask(ctx context.Context, t model.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		t.ID,
		t.Title,
		t.Description,
		t.Status,
		t.Priority,
		unixPtr(t.DueDate),
		unixPtr(t.CompletedAt),
		t.Metadata,
		t.CreatedAt.Unix(),
		t.UpdatedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("task already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert task: %w", err)
	}

	r.logger.Debugf("Created task in repository: %s", t.ID)
	return nil
}

// GetTask retrieves a task by ID.
func (r *TaskRepository) GetTask(ctx context.Context, id string) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query task: %w", err)
	}

	return t, nil
}

// ListTasks returns all tasks ordered by creation time.
func (r *TaskRepository) ListTasks(ctx context.Context) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}

	return tasks, rows.Err()
}

// UpdateTask updates an existing task.
func (r *TaskRepository) UpdateTask(ctx context.Context, t model.Task) error {
	query := `
		UPDATE tasks
		SET title = ?, description = ?, status = ?, priority = ?, due_date = ?,
		    completed_at = ?, metadata = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := r.db.ExecContext(
		ctx,
		query,
		t.Title,
		t.Description,
		t.Status,
		t.Priority,
		unixPtr(t.DueDate),
		unixPtr(t.CompletedAt),
		t.Metadata,
		t.UpdatedAt.Unix(),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("could not update task: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %s: %w", t.ID, model.ErrNotFound)
	}

	return nil
}

// DeleteTask removes a task, sub-tasks and logs cascade.
func (r *TaskRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete task: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}

	return nil
}

// CreateSubTasks persists a planning batch in one transaction.
func (r *TaskRepository) CreateSubTasks(ctx context.Context, subTasks []model.SubTask) error {
	if len(subTasks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO subtasks (id, task_id, title, description, status, position, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("could not prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, st := range subTasks {
		_, err := stmt.ExecContext(ctx, st.ID, st.TaskID, st.Title, st.Description, st.Status, st.Order, unixPtr(st.CompletedAt), st.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("could not insert sub-task: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Created %d sub-tasks for task %s", len(subTasks), subTasks[0].TaskID)
	return nil
}

const subTaskColumns = `id, task_id, title, description, status, position, completed_at, created_at`

// ListSubTasks returns a task's sub-tasks in ascending execution order.
func (r *TaskRepository) ListSubTasks(ctx context.Context, taskID string) ([]model.SubTask, error) {
	query := `SELECT ` + subTaskColumns + ` FROM subtasks WHERE task_id = ? ORDER BY position ASC`

	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("could not query sub-tasks: %w", err)
	}
	defer rows.Close()

	subTasks := []model.SubTask{}
	for rows.Next() {
		st, err := scanSubTask(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan sub-task: %w", err)
		}
		subTasks = append(subTasks, *st)
	}

	return subTasks, rows.Err()
}

// NextPendingSubTask returns the pending sub-task with the lowest order, or
// nil if there is none.
func (r *TaskRepository) NextPendingSubTask(ctx context.Context, taskID string) (*model.SubTask, error) {
	return r.firstSubTaskWithStatus(ctx, taskID, model.TaskStatusPending)
}

// InProgressSubTask returns the sub-task currently in progress, or nil if
// there is none.
func (r *TaskRepository) InProgressSubTask(ctx context.Context, taskID string) (*model.SubTask, error) {
	return r.firstSubTaskWithStatus(ctx, taskID, model.TaskStatusInProgress)
}

func (r *TaskRepository) firstSubTaskWithStatus(ctx context.Context, taskID string, status model.TaskStatus) (*model.SubTask, error) {
	query := `
		SELECT ` + subTaskColumns + `
		FROM subtasks
		WHERE task_id = ? AND status = ?
		ORDER BY position ASC
		LIMIT 1
	`

	st, err := scanSubTask(r.db.QueryRowContext(ctx, query, taskID, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not query sub-task: %w", err)
	}

	return st, nil
}

// UpdateSubTask updates an existing sub-task.
func (r *TaskRepository) UpdateSubTask(ctx context.Context, st model.SubTask) error {
	query := `
		UPDATE subtasks
		SET title = ?, description = ?, status = ?, completed_at = ?
		WHERE id = ?
	`

	res, err := r.db.ExecContext(ctx, query, st.Title, st.Description, st.Status, unixPtr(st.CompletedAt), st.ID)
	if err != nil {
		return fmt.Errorf("could not update sub-task: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sub-task %s: %w", st.ID, model.ErrNotFound)
	}

	return nil
}

// CancelTask cancels the task and every non-terminal sub-task in one
// transaction.
func (r *TaskRepository) CancelTask(ctx context.Context, taskID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Unix()

	res, err := tx.ExecContext(ctx, `UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`, model.TaskStatusCancelled, now, taskID)
	if err != nil {
		return fmt.Errorf("could not cancel task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %s: %w", taskID, model.ErrNotFound)
	}

	_, err = tx.ExecContext(
		ctx,
		`UPDATE subtasks SET status = ? WHERE task_id = ? AND status IN (?, ?)`,
		model.TaskStatusCancelled,
		taskID,
		model.TaskStatusPending,
		model.TaskStatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("could not cancel sub-tasks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// CreateTaskLog appends an audit entry.
func (r *TaskRepository) CreateTaskLog(ctx context.Context, l model.TaskLog) error {
	query := `
		INSERT INTO task_logs (id, task_id, subtask_id, level, message, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, l.ID, l.TaskID, l.SubTaskID, l.Level, l.Message, l.Metadata, l.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("could not insert task log: %w", err)
	}

	return nil
}

// ListTaskLogs returns a task's audit entries in creation order.
func (r *TaskRepository) ListTaskLogs(ctx context.Context, taskID string) ([]model.TaskLog, error) {
	query := `
		SELECT id, task_id, subtask_id, level, message, metadata, created_at
		FROM task_logs
		WHERE task_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("could not query task logs: %w", err)
	}
	defer rows.Close()

	logs := []model.TaskLog{}
	for rows.Next() {
		var l model.TaskLog
		var createdAt int64
		if err := rows.Scan(&l.ID, &l.TaskID, &l.SubTaskID, &l.Level, &l.Message, &l.Metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("could not scan task log: %w", err)
		}
		l.CreatedAt = time.Unix(createdAt, 0).UTC()
		logs = append(logs, l)
	}

	return logs, rows.Err()
}

func scanTask(row scanner) (*model.Task, error) {
	var t model.Task
	var dueDate, completedAt sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &dueDate, &completedAt, &t.Metadata, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.DueDate = timePtr(dueDate)
	t.CompletedAt = timePtr(completedAt)
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	t.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &t, nil
}

func scanSubTask(row scanner) (*model.SubTask, error) {
	var st model.SubTask
	var completedAt sql.NullInt64
	var createdAt int64

	err := row.Scan(&st.ID, &st.TaskID, &st.Title, &st.Description, &st.Status, &st.Order, &completedAt, &createdAt)
	if err != nil {
		return nil, err
	}

	st.CompletedAt = timePtr(completedAt)
	st.CreatedAt = time.Unix(createdAt, 0).UTC()

	return &st, nil
}

func unixPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	u := t.Unix()
	return &u
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
