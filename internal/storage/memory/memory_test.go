package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpilot/taskpilot/internal/log"
	"github.com/taskpilot/taskpilot/internal/model"
	"github.com/taskpilot/taskpilot/internal/storage/memory"
)

func newRepo(t *testing.T) *memory.Repository {
	t.Helper()
	repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: log.Noop})
	require.NoError(t, err)
	return repo
}

func taskFixture(id string) model.Task {
	now := time.Now().UTC()
	return model.Task{
		ID:        id,
		Title:     "Ship the release",
		Status:    model.TaskStatusPending,
		Priority:  model.TaskPriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func subTaskFixture(id, taskID string, order int) model.SubTask {
	return model.SubTask{
		ID:        id,
		TaskID:    taskID,
		Title:     "step",
		Status:    model.TaskStatusPending,
		Order:     order,
		CreatedAt: time.Now().UTC(),
	}
}

func TestTaskCRUD(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	task := taskFixture("t1")
	require.NoError(t, repo.CreateTask(ctx, task))

	err := repo.CreateTask(ctx, task)
	assert.ErrorIs(t, err, model.ErrAlreadyExists)

	got, err := repo.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, task.Title, got.Title)

	got.Status = model.TaskStatusInProgress
	require.NoError(t, repo.UpdateTask(ctx, *got))

	got, err = repo.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusInProgress, got.Status)

	_, err = repo.GetTask(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestNextPendingSubTaskOrder(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateTask(ctx, taskFixture("t1")))
	require.NoError(t, repo.CreateSubTasks(ctx, []model.SubTask{
		subTaskFixture("st2", "t1", 1),
		subTaskFixture("st1", "t1", 0),
		subTaskFixture("st3", "t1", 2),
	}))

	next, err := repo.NextPendingSubTask(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "st1", next.ID)

	next.Status = model.TaskStatusCompleted
	require.NoError(t, repo.UpdateSubTask(ctx, *next))

	next, err = repo.NextPendingSubTask(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "st2", next.ID)
}

func TestNextPendingSubTaskNone(t *testing.T) {
	repo := newRepo(t)

	next, err := repo.NextPendingSubTask(context.Background(), "t1")
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestCancelTask(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateTask(ctx, taskFixture("t1")))

	inProgress := subTaskFixture("st1", "t1", 0)
	inProgress.Status = model.TaskStatusInProgress
	completed := subTaskFixture("st2", "t1", 1)
	completed.Status = model.TaskStatusCompleted
	require.NoError(t, repo.CreateSubTasks(ctx, []model.SubTask{
		inProgress,
		completed,
		subTaskFixture("st3", "t1", 2),
	}))

	require.NoError(t, repo.CancelTask(ctx, "t1"))

	task, err := repo.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCancelled, task.Status)

	subTasks, err := repo.ListSubTasks(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCancelled, subTasks[0].Status)
	assert.Equal(t, model.TaskStatusCompleted, subTasks[1].Status)
	assert.Equal(t, model.TaskStatusCancelled, subTasks[2].Status)
}

func TestDeleteTaskCascades(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateTask(ctx, taskFixture("t1")))
	require.NoError(t, repo.CreateSubTasks(ctx, []model.SubTask{subTaskFixture("st1", "t1", 0)}))
	require.NoError(t, repo.CreateTaskLog(ctx, model.TaskLog{ID: "l1", TaskID: "t1", Level: model.LogLevelInfo, Message: "started"}))

	require.NoError(t, repo.DeleteTask(ctx, "t1"))

	subTasks, err := repo.ListSubTasks(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, subTasks)

	logs, err := repo.ListTaskLogs(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestTaskLogsKeepAppendOrder(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	for _, id := range []string{"l1", "l2", "l3"} {
		require.NoError(t, repo.CreateTaskLog(ctx, model.TaskLog{
			ID:      id,
			TaskID:  "t1",
			Level:   model.LogLevelInfo,
			Message: id,
		}))
	}

	logs, err := repo.ListTaskLogs(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "l1", logs[0].ID)
	assert.Equal(t, "l3", logs[2].ID)
}

func TestSessionCRUDAndHistory(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	sess := model.Session{ID: "s1", Name: "build", WorkDir: "/data/sessions/s1", TempDir: "/data/sessions/s1/tmp", Active: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.CreateSession(ctx, sess))

	got, err := repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "build", got.Name)

	require.NoError(t, repo.AppendCommand(ctx, model.CommandRecord{ID: "c1", SessionID: "s1", Command: "echo hi", CreatedAt: now}))
	require.NoError(t, repo.AppendOutput(ctx, model.OutputRecord{ID: "o1", SessionID: "s1", ProcessID: "p1", Stdout: "hi\n", CreatedAt: now}))

	commands, err := repo.ListCommands(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, commands, 1)
	assert.Equal(t, "echo hi", commands[0].Command)

	require.NoError(t, repo.DeleteSession(ctx, "s1"))

	commands, err = repo.ListCommands(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, commands)

	outputs, err := repo.ListOutputs(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, outputs)
}

func TestListSessionsUpdatedBefore(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	stale := model.Session{ID: "stale", Name: "stale", CreatedAt: now.Add(-10 * 24 * time.Hour), UpdatedAt: now.Add(-10 * 24 * time.Hour)}
	fresh := model.Session{ID: "fresh", Name: "fresh", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.CreateSession(ctx, stale))
	require.NoError(t, repo.CreateSession(ctx, fresh))

	got, err := repo.ListSessionsUpdatedBefore(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "stale", got[0].ID)
}
