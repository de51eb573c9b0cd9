package orchestrator

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taskpilot/taskpilot/internal/ai"
	"github.com/taskpilot/taskpilot/internal/log"
	"github.com/taskpilot/taskpilot/internal/model"
	"github.com/taskpilot/taskpilot/internal/session"
	"github.com/taskpilot/taskpilot/internal/storage"
)

// systemPrompt is the fixed system role sent on every chat completion. It
// describes the capabilities the assistant can assume are available.
const systemPrompt = `You are a task planning and execution assistant. You have access to a web browser, a sandboxed shell, file reading and writing, and editor control. Break goals into small concrete steps and carry each step out when asked.`

// ServiceConfig is the configuration of Service.
type ServiceConfig struct {
	Repository storage.TaskRepository
	AIClient   ai.Client
	// Sessions is optional. When set, every task gets a sandbox session bound
	// to it for the duration of the run.
	Sessions *session.Manager
	// Model is the chat model used for planning and sub-task execution.
	Model  string
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("task repository is required")
	}

	if c.AIClient == nil {
		return fmt.Errorf("ai client is required")
	}

	if c.Model == "" {
		c.Model = model.DefaultChatModel
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"service": "orchestrator.Service"})

	return nil
}

// Service orchestrates tasks: it plans a goal into ordered sub-tasks through
// the chat model and executes them strictly sequentially. Planning and
// execution failures never propagate to the caller, they end up as a FAILED
// task plus audit log entries.
type Service struct {
	repo     storage.TaskRepository
	aiClient ai.Client
	sessions *session.Manager
	model    string
	logger   log.Logger
}

// NewService returns a new orchestrator service.
func NewService(cfg ServiceConfig) (*Service, error) {
	err := cfg.defaults()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Service{
		repo:     cfg.Repository,
		aiClient: cfg.AIClient,
		sessions: cfg.Sessions,
		model:    cfg.Model,
		logger:   cfg.Logger,
	}, nil
}

// CreateTask persists a new task and immediately plans and runs it. The
// returned error only covers persistence of the task itself, planning and
// execution failures are reported through the task state and its logs.
func (s *Service) CreateTask(ctx context.Context, title, description string) (*model.Task, error) {
	now := time.Now().UTC()
	task := model.Task{
		ID:          newID(now),
		Title:       title,
		Description: description,
		Status:      model.TaskStatusPending,
		Priority:    model.TaskPriorityMedium,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := task.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}

	err = s.repo.CreateTask(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("could not store task: %w", err)
	}

	logger := s.logger.WithValues(log.Kv{"task-id": task.ID})
	logger.Infof("Task created")

	s.provisionSession(ctx, &task)

	err = s.plan(ctx, task.ID)
	if err != nil {
		logger.Errorf("Planning failed: %s", err)
	} else {
		s.runLoop(ctx, task.ID)
	}

	s.releaseSession(ctx, task.ID)

	// Return the final state.
	final, err := s.repo.GetTask(ctx, task.ID)
	if err != nil {
		return &task, nil
	}
	return final, nil
}

// provisionSession binds a fresh sandbox session to the task when a session
// manager is configured, recording its id in the task metadata.
func (s *Service) provisionSession(ctx context.Context, task *model.Task) {
	if s.sessions == nil {
		return
	}

	logger := s.logger.WithValues(log.Kv{"task-id": task.ID})

	sess, err := s.sessions.Create(ctx, "task-"+task.ID, true)
	if err != nil {
		logger.Warningf("Could not provision sandbox session: %s", err)
		return
	}

	md, err := model.EncodeMetadata(model.TaskMetadata{SessionID: sess.ID})
	if err != nil {
		logger.Warningf("Could not encode task metadata: %s", err)
		return
	}

	task.Metadata = md
	task.UpdatedAt = time.Now().UTC()
	err = s.repo.UpdateTask(ctx, *task)
	if err != nil {
		logger.Warningf("Could not bind sandbox session to task: %s", err)
	}
}

// releaseSession terminates the sandbox session bound to the task, if any.
func (s *Service) releaseSession(ctx context.Context, taskID string) {
	if s.sessions == nil {
		return
	}

	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return
	}

	md := model.TaskMetadata{}
	err = model.DecodeMetadata(task.Metadata, &md)
	if err != nil || md.SessionID == "" {
		return
	}

	_, err = s.sessions.Terminate(ctx, md.SessionID)
	if err != nil {
		s.logger.WithValues(log.Kv{"task-id": taskID, "session-id": md.SessionID}).Warningf("Could not terminate task session: %s", err)
	}
}

// plan marks the task in progress, asks the model for a plan and persists the
// parsed steps as the task's sub-tasks. Any failure marks the task FAILED and
// records an error audit entry.
func (s *Service) plan(ctx context.Context, taskID string) error {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("could not get task: %w", err)
	}

	task.Status = model.TaskStatusInProgress
	task.UpdatedAt = time.Now().UTC()
	err = s.repo.UpdateTask(ctx, *task)
	if err != nil {
		return fmt.Errorf("could not update task: %w", err)
	}

	planText, err := s.aiClient.Chat(ctx, s.model, []ai.Message{
		{Role: ai.RoleSystem, Content: systemPrompt},
		{Role: ai.RoleUser, Content: fmt.Sprintf("Create a numbered step-by-step plan to accomplish this goal.\n\nGoal: %s\n\n%s", task.Title, task.Description)},
	})
	if err != nil {
		planErr := fmt.Errorf("model planning call failed: %s: %w", err, model.ErrPlanning)
		s.failTask(ctx, taskID, planErr)
		return planErr
	}

	steps := ParsePlan(planText)

	now := time.Now().UTC()
	subTasks := make([]model.SubTask, 0, len(steps))
	for i, step := range steps {
		subTasks = append(subTasks, model.SubTask{
			ID:          newID(now),
			TaskID:      taskID,
			Title:       step.Title,
			Description: step.Description,
			Status:      model.TaskStatusPending,
			Order:       i,
			CreatedAt:   now,
		})
	}

	if len(subTasks) > 0 {
		err = s.repo.CreateSubTasks(ctx, subTasks)
		if err != nil {
			planErr := fmt.Errorf("could not store sub-tasks: %s: %w", err, model.ErrPlanning)
			s.failTask(ctx, taskID, planErr)
			return planErr
		}
	}

	s.addLog(ctx, taskID, "", model.LogLevelInfo, fmt.Sprintf("planned %d sub-tasks", len(subTasks)), model.PlanLogMetadata{
		Plan:         planText,
		SubTaskCount: len(subTasks),
	})

	return nil
}

// runLoop executes the task's pending sub-tasks strictly in ascending order.
// The loop head checks for cancellation by reloading the task, so a cancel
// that landed while a sub-task was in flight stops the run before the next
// one starts.
func (s *Service) runLoop(ctx context.Context, taskID string) {
	logger := s.logger.WithValues(log.Kv{"task-id": taskID})

	for {
		if ctx.Err() != nil {
			logger.Warningf("Run aborted: %s", ctx.Err())
			return
		}

		task, err := s.repo.GetTask(ctx, taskID)
		if err != nil {
			logger.Errorf("Could not reload task: %s", err)
			return
		}
		if task.Status.IsTerminal() {
			return
		}

		next, err := s.repo.NextPendingSubTask(ctx, taskID)
		if err != nil {
			s.failRun(ctx, taskID, fmt.Errorf("could not get next sub-task: %s: %w", err, model.ErrExecution))
			return
		}

		if next == nil {
			now := time.Now().UTC()
			task.Status = model.TaskStatusCompleted
			task.CompletedAt = &now
			task.UpdatedAt = now
			err = s.repo.UpdateTask(ctx, *task)
			if err != nil {
				logger.Errorf("Could not complete task: %s", err)
				return
			}
			s.addLog(ctx, taskID, "", model.LogLevelInfo, "all sub-tasks complete", nil)
			logger.Infof("Task completed")
			return
		}

		err = s.runSubTask(ctx, task, next)
		if err != nil {
			s.failRun(ctx, taskID, err)
			return
		}
	}
}

func (s *Service) runSubTask(ctx context.Context, task *model.Task, st *model.SubTask) error {
	st.Status = model.TaskStatusInProgress
	err := s.repo.UpdateSubTask(ctx, *st)
	if err != nil {
		return fmt.Errorf("could not start sub-task: %s: %w", err, model.ErrExecution)
	}
	s.addLog(ctx, task.ID, st.ID, model.LogLevelInfo, fmt.Sprintf("sub-task started: %s", st.Title), nil)

	response, err := s.aiClient.Chat(ctx, s.model, []ai.Message{
		{Role: ai.RoleSystem, Content: systemPrompt},
		{Role: ai.RoleUser, Content: fmt.Sprintf("Carry out this step of the task %q.\n\nStep: %s\n\n%s", task.Title, st.Title, st.Description)},
	})
	if err != nil {
		return fmt.Errorf("model execution call failed: %s: %w", err, model.ErrExecution)
	}

	now := time.Now().UTC()
	st.Status = model.TaskStatusCompleted
	st.CompletedAt = &now
	err = s.repo.UpdateSubTask(ctx, *st)
	if err != nil {
		return fmt.Errorf("could not complete sub-task: %s: %w", err, model.ErrExecution)
	}
	s.addLog(ctx, task.ID, st.ID, model.LogLevelInfo, fmt.Sprintf("sub-task completed: %s", st.Title), model.ExecutionLogMetadata{Response: response})

	return nil
}

// failRun marks the in-flight sub-task (looked up fresh) and the task as
// FAILED. No later sub-task is attempted.
func (s *Service) failRun(ctx context.Context, taskID string, runErr error) {
	st, err := s.repo.InProgressSubTask(ctx, taskID)
	if err == nil && st != nil {
		st.Status = model.TaskStatusFailed
		err = s.repo.UpdateSubTask(ctx, *st)
		if err != nil {
			s.logger.WithValues(log.Kv{"task-id": taskID}).Errorf("Could not mark sub-task failed: %s", err)
		}
		s.addLog(ctx, taskID, st.ID, model.LogLevelError, runErr.Error(), nil)
	} else {
		s.addLog(ctx, taskID, "", model.LogLevelError, runErr.Error(), nil)
	}

	s.failTask(ctx, taskID, runErr)
}

// failTask transitions the task to FAILED and records an error audit entry
// when there is not one attached to a sub-task already.
func (s *Service) failTask(ctx context.Context, taskID string, cause error) {
	logger := s.logger.WithValues(log.Kv{"task-id": taskID})

	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		logger.Errorf("Could not get task to fail it: %s", err)
		return
	}

	task.Status = model.TaskStatusFailed
	task.UpdatedAt = time.Now().UTC()
	err = s.repo.UpdateTask(ctx, *task)
	if err != nil {
		logger.Errorf("Could not mark task failed: %s", err)
	}

	if errors.Is(cause, model.ErrPlanning) {
		s.addLog(ctx, taskID, "", model.LogLevelError, cause.Error(), nil)
	}

	logger.Errorf("Task failed: %s", cause)
}

// Cancel cancels a task and its pending or in-progress sub-tasks atomically.
// It returns false when the task is missing or already terminal. In-flight
// model or process calls are not interrupted, the run loop observes the
// cancellation before starting the next sub-task.
func (s *Service) Cancel(ctx context.Context, taskID string) (bool, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("could not get task: %w", err)
	}

	if task.Status.IsTerminal() {
		return false, nil
	}

	err = s.repo.CancelTask(ctx, taskID)
	if err != nil {
		return false, fmt.Errorf("could not cancel task: %w", err)
	}

	s.addLog(ctx, taskID, "", model.LogLevelInfo, "task cancelled", nil)
	s.logger.WithValues(log.Kv{"task-id": taskID}).Infof("Task cancelled")

	return true, nil
}

// GetTask returns a task by id, nil when it does not exist.
func (s *Service) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not get task: %w", err)
	}
	return task, nil
}

// GetSubTasks returns a task's sub-tasks in execution order.
func (s *Service) GetSubTasks(ctx context.Context, taskID string) ([]model.SubTask, error) {
	subTasks, err := s.repo.ListSubTasks(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("could not list sub-tasks: %w", err)
	}
	return subTasks, nil
}

// GetLogs returns a task's audit entries in creation order.
func (s *Service) GetLogs(ctx context.Context, taskID string) ([]model.TaskLog, error) {
	logs, err := s.repo.ListTaskLogs(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("could not list task logs: %w", err)
	}
	return logs, nil
}

// ListTasks returns every stored task.
func (s *Service) ListTasks(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list tasks: %w", err)
	}
	return tasks, nil
}

func (s *Service) addLog(ctx context.Context, taskID, subTaskID string, level model.LogLevel, message string, metadata any) {
	now := time.Now().UTC()
	l := model.TaskLog{
		ID:        newID(now),
		TaskID:    taskID,
		SubTaskID: subTaskID,
		Level:     level,
		Message:   message,
		CreatedAt: now,
	}

	if metadata != nil {
		md, err := model.EncodeMetadata(metadata)
		if err != nil {
			s.logger.WithValues(log.Kv{"task-id": taskID}).Warningf("Could not encode log metadata: %s", err)
		} else {
			l.Metadata = md
		}
	}

	err := s.repo.CreateTaskLog(ctx, l)
	if err != nil {
		s.logger.WithValues(log.Kv{"task-id": taskID}).Errorf("Could not store task log: %s", err)
	}
}

func newID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
