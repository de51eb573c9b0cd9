package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/taskpilot/taskpilot/internal/log"
	"github.com/taskpilot/taskpilot/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.TaskRepository and
// storage.SessionRepository.
type Repository struct {
	tasks    map[string]model.Task
	subTasks map[string]model.SubTask
	logs     map[string]model.TaskLog
	sessions map[string]model.Session
	commands map[string]model.CommandRecord
	outputs  map[string]model.OutputRecord
	seq      int
	order    map[string]int // insertion order for logs and history
	mu       sync.RWMutex
	logger   log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		tasks:    make(map[string]model.Task),
		subTasks: make(map[string]model.SubTask),
		logs:     make(map[string]model.TaskLog),
		sessions: make(map[string]model.Session),
		commands: make(map[string]model.CommandRecord),
		outputs:  make(map[string]model.OutputRecord),
		order:    make(map[string]int),
		logger:   cfg.Logger,
	}, nil
}

// next returns a monotonically increasing insertion index. Must be called with
// the write lock held.
func (r *Repository) next(id string) {
	r.seq++
	r.order[id] = r.seq
}

// CreateTask creates a new task in the repository.
func (r *Repository) CreateTask(ctx context.Context, t model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.ID]; ok {
		return fmt.Errorf("task with id %s: %w", t.ID, model.ErrAlreadyExists)
	}

	r.tasks[t.ID] = t
	r.logger.Debugf("Created task in repository: %s", t.ID)

	return nil
}

// GetTask retrieves a task by ID.
func (r *Repository) GetTask(ctx context.Context, id string) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}

	taskCopy := t
	return &taskCopy, nil
}

// ListTasks returns all tasks ordered by creation time.
func (r *Repository) ListTasks(ctx context.Context) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.Before(tasks[j].CreatedAt) })

	return tasks, nil
}

// UpdateTask updates an existing task.
func (r *Repository) UpdateTask(ctx context.Context, t model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.ID]; !ok {
		return fmt.Errorf("task %s: %w", t.ID, model.ErrNotFound)
	}

	r.tasks[t.ID] = t
	return nil
}

// DeleteTask removes a task and cascades to its sub-tasks and logs.
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}

	delete(r.tasks, id)
	for stID, st := range r.subTasks {
		if st.TaskID == id {
			delete(r.subTasks, stID)
		}
	}
	for lID, l := range r.logs {
		if l.TaskID == id {
			delete(r.logs, lID)
		}
	}

	return nil
}

// CreateSubTasks persists a planning batch atomically.
func (r *Repository) CreateSubTasks(ctx context.Context, subTasks []model.SubTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, st := range subTasks {
		if _, ok := r.subTasks[st.ID]; ok {
			return fmt.Errorf("sub-task with id %s: %w", st.ID, model.ErrAlreadyExists)
		}
	}
	for _, st := range subTasks {
		r.subTasks[st.ID] = st
	}

	return nil
}

// ListSubTasks returns a task's sub-tasks in ascending execution order.
func (r *Repository) ListSubTasks(ctx context.Context, taskID string) ([]model.SubTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.listSubTasksLocked(taskID), nil
}

func (r *Repository) listSubTasksLocked(taskID string) []model.SubTask {
	subTasks := []model.SubTask{}
	for _, st := range r.subTasks {
		if st.TaskID == taskID {
			subTasks = append(subTasks, st)
		}
	}
	sort.Slice(subTasks, func(i, j int) bool { return subTasks[i].Order < subTasks[j].Order })
	return subTasks
}

// NextPendingSubTask returns the pending sub-task with the lowest order.
func (r *Repository) NextPendingSubTask(ctx context.Context, taskID string) (*model.SubTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, st := range r.listSubTasksLocked(taskID) {
		if st.Status == model.TaskStatusPending {
			stCopy := st
			return &stCopy, nil
		}
	}

	return nil, nil
}

// InProgressSubTask returns the sub-task currently in progress.
func (r *Repository) InProgressSubTask(ctx context.Context, taskID string) (*model.SubTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, st := range r.listSubTasksLocked(taskID) {
		if st.Status == model.TaskStatusInProgress {
			stCopy := st
			return &stCopy, nil
		}
	}

	return nil, nil
}

// UpdateSubTask updates an existing sub-task.
func (r *Repository) UpdateSubTask(ctx context.Context, st model.SubTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subTasks[st.ID]; !ok {
		return fmt.Errorf("sub-task %s: %w", st.ID, model.ErrNotFound)
	}

	r.subTasks[st.ID] = st
	return nil
}

// CancelTask atomically cancels a task and its non-terminal sub-tasks.
func (r *Repository) CancelTask(ctx context.Context, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %s: %w", taskID, model.ErrNotFound)
	}

	now := time.Now().UTC()
	t.Status = model.TaskStatusCancelled
	t.UpdatedAt = now
	r.tasks[taskID] = t

	for id, st := range r.subTasks {
		if st.TaskID != taskID {
			continue
		}
		if st.Status == model.TaskStatusPending || st.Status == model.TaskStatusInProgress {
			st.Status = model.TaskStatusCancelled
			r.subTasks[id] = st
		}
	}

	return nil
}

// CreateTaskLog appends an audit entry.
func (r *Repository) CreateTaskLog(ctx context.Context, l model.TaskLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.logs[l.ID]; ok {
		return fmt.Errorf("task log with id %s: %w", l.ID, model.ErrAlreadyExists)
	}

	r.logs[l.ID] = l
	r.next(l.ID)

	return nil
}

// ListTaskLogs returns a task's audit entries in creation order.
func (r *Repository) ListTaskLogs(ctx context.Context, taskID string) ([]model.TaskLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	logs := []model.TaskLog{}
	for _, l := range r.logs {
		if l.TaskID == taskID {
			logs = append(logs, l)
		}
	}
	sort.Slice(logs, func(i, j int) bool { return r.order[logs[i].ID] < r.order[logs[j].ID] })

	return logs, nil
}

// CreateSession creates a new session in the repository.
func (r *Repository) CreateSession(ctx context.Context, s model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID]; ok {
		return fmt.Errorf("session with id %s: %w", s.ID, model.ErrAlreadyExists)
	}

	r.sessions[s.ID] = s
	r.logger.Debugf("Created session in repository: %s", s.ID)

	return nil
}

// GetSession retrieves a session by ID.
func (r *Repository) GetSession(ctx context.Context, id string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, model.ErrNotFound)
	}

	sessionCopy := s
	return &sessionCopy, nil
}

// ListSessions returns all sessions ordered by creation time.
func (r *Repository) ListSessions(ctx context.Context) ([]model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]model.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.Before(sessions[j].CreatedAt) })

	return sessions, nil
}

// ListSessionsUpdatedBefore returns the sessions last updated before the cutoff.
func (r *Repository) ListSessionsUpdatedBefore(ctx context.Context, cutoff time.Time) ([]model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := []model.Session{}
	for _, s := range r.sessions {
		if s.UpdatedAt.Before(cutoff) {
			sessions = append(sessions, s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.Before(sessions[j].CreatedAt) })

	return sessions, nil
}

// UpdateSession updates an existing session.
func (r *Repository) UpdateSession(ctx context.Context, s model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID]; !ok {
		return fmt.Errorf("session %s: %w", s.ID, model.ErrNotFound)
	}

	r.sessions[s.ID] = s
	return nil
}

// DeleteSession removes a session and cascades to its history.
func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, model.ErrNotFound)
	}

	delete(r.sessions, id)
	for cID, c := range r.commands {
		if c.SessionID == id {
			delete(r.commands, cID)
		}
	}
	for oID, o := range r.outputs {
		if o.SessionID == id {
			delete(r.outputs, oID)
		}
	}

	return nil
}

// AppendCommand appends a command history entry.
func (r *Repository) AppendCommand(ctx context.Context, rec model.CommandRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.commands[rec.ID]; ok {
		return fmt.Errorf("command record with id %s: %w", rec.ID, model.ErrAlreadyExists)
	}

	r.commands[rec.ID] = rec
	r.next(rec.ID)

	return nil
}

// ListCommands returns a session's command history in append order.
func (r *Repository) ListCommands(ctx context.Context, sessionID string) ([]model.CommandRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := []model.CommandRecord{}
	for _, c := range r.commands {
		if c.SessionID == sessionID {
			records = append(records, c)
		}
	}
	sort.Slice(records, func(i, j int) bool { return r.order[records[i].ID] < r.order[records[j].ID] })

	return records, nil
}

// AppendOutput appends an output history entry.
func (r *Repository) AppendOutput(ctx context.Context, rec model.OutputRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.outputs[rec.ID]; ok {
		return fmt.Errorf("output record with id %s: %w", rec.ID, model.ErrAlreadyExists)
	}

	r.outputs[rec.ID] = rec
	r.next(rec.ID)

	return nil
}

// ListOutputs returns a session's output history in append order.
func (r *Repository) ListOutputs(ctx context.Context, sessionID string) ([]model.OutputRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := []model.OutputRecord{}
	for _, o := range r.outputs {
		if o.SessionID == sessionID {
			records = append(records, o)
		}
	}
	sort.Slice(records, func(i, j int) bool { return r.order[records[i].ID] < r.order[records[j].ID] })

	return records, nil
}
