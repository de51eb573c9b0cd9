package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taskpilot/taskpilot/internal/log"
	"github.com/taskpilot/taskpilot/internal/model"
	"github.com/taskpilot/taskpilot/internal/process/local"
	"github.com/taskpilot/taskpilot/internal/process/processmock"
	"github.com/taskpilot/taskpilot/internal/session"
	"github.com/taskpilot/taskpilot/internal/storage/memory"
	"github.com/taskpilot/taskpilot/internal/storage/storagemock"
)

func newManager(t *testing.T) (*session.Manager, *memory.Repository) {
	t.Helper()

	engine, err := local.NewEngine(local.EngineConfig{Logger: log.Noop})
	require.NoError(t, err)

	repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: log.Noop})
	require.NoError(t, err)

	manager, err := session.NewManager(session.ManagerConfig{
		Engine:       engine,
		Repository:   repo,
		DataDir:      t.TempDir(),
		PollInterval: 10 * time.Millisecond,
		Logger:       log.Noop,
	})
	require.NoError(t, err)

	return manager, repo
}

func TestCreateProvisionsDirectories(t *testing.T) {
	manager, _ := newManager(t)
	ctx := context.Background()

	sess, err := manager.Create(ctx, "build", false)
	require.NoError(t, err)

	info, err := os.Stat(sess.WorkDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	info, err = os.Stat(sess.TempDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, filepath.Join(sess.WorkDir, "tmp"), sess.TempDir)

	got, err := manager.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "build", got.Name)
	assert.True(t, got.Active)
}

func TestGetUnknownSession(t *testing.T) {
	manager, _ := newManager(t)

	_, err := manager.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestExecuteSuccess(t *testing.T) {
	manager, repo := newManager(t)
	ctx := context.Background()

	sess, err := manager.Create(ctx, "build", false)
	require.NoError(t, err)

	result, err := manager.Execute(ctx, sess.ID, `echo "hello world"`, session.ExecOptions{})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hello world\n", result.Stdout)
	assert.NotEmpty(t, result.ProcessID)

	commands, err := repo.ListCommands(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, commands, 1)
	assert.Equal(t, `echo "hello world"`, commands[0].Command)
	assert.Empty(t, commands[0].Error)

	outputs, err := repo.ListOutputs(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, "hello world\n", outputs[0].Stdout)
	assert.Equal(t, 0, outputs[0].ExitCode)
}

func TestExecuteNonZeroExit(t *testing.T) {
	manager, _ := newManager(t)
	ctx := context.Background()

	sess, err := manager.Create(ctx, "build", false)
	require.NoError(t, err)

	result, err := manager.Execute(ctx, sess.ID, `sh -c "echo oops >&2; exit 3"`, session.ExecOptions{})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "oops\n", result.Stderr)
}

func TestExecuteBadExecutableIsFailureResult(t *testing.T) {
	manager, repo := newManager(t)
	ctx := context.Background()

	sess, err := manager.Create(ctx, "build", false)
	require.NoError(t, err)

	result, err := manager.Execute(ctx, sess.ID, "definitely-not-a-binary", session.ExecOptions{})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, -1, result.ExitCode)
	assert.NotEmpty(t, result.Stderr)

	commands, err := repo.ListCommands(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, commands, 1)
	assert.NotEmpty(t, commands[0].Error)

	outputs, err := repo.ListOutputs(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, outputs, 1)
}

func TestExecuteUnknownSession(t *testing.T) {
	manager, _ := newManager(t)

	_, err := manager.Execute(context.Background(), "missing", "echo hi", session.ExecOptions{})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestExecuteDetached(t *testing.T) {
	manager, _ := newManager(t)
	ctx := context.Background()

	sess, err := manager.Create(ctx, "build", false)
	require.NoError(t, err)

	result, err := manager.Execute(ctx, sess.ID, "sleep 30", session.ExecOptions{Isolation: model.IsolationFull})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.ProcessID)
	assert.Empty(t, result.Stdout)

	// Stops the detached process.
	ok, err := manager.Terminate(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExecuteInjectsTempEnvAndWorkDir(t *testing.T) {
	manager, _ := newManager(t)
	ctx := context.Background()

	sess, err := manager.Create(ctx, "build", false)
	require.NoError(t, err)

	result, err := manager.Execute(ctx, sess.ID, `sh -c "echo $TEMP; pwd"`, session.ExecOptions{})
	require.NoError(t, err)

	require.True(t, result.Success)
	assert.Equal(t, sess.TempDir+"\n"+sess.WorkDir+"\n", result.Stdout)
}

func TestTerminate(t *testing.T) {
	manager, repo := newManager(t)
	ctx := context.Background()

	sess, err := manager.Create(ctx, "build", false)
	require.NoError(t, err)

	ok, err := manager.Terminate(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	// Not cached anymore, second call is a no-op.
	ok, err = manager.Terminate(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemove(t *testing.T) {
	manager, repo := newManager(t)
	ctx := context.Background()

	sess, err := manager.Create(ctx, "build", false)
	require.NoError(t, err)

	require.NoError(t, manager.Remove(ctx, sess.ID))

	_, err = os.Stat(sess.WorkDir)
	assert.True(t, os.IsNotExist(err))

	_, err = repo.GetSession(ctx, sess.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	err = manager.Remove(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCleanup(t *testing.T) {
	manager, repo := newManager(t)
	ctx := context.Background()

	stale, err := manager.Create(ctx, "stale", false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(stale.WorkDir, "artifact.txt"), []byte("x"), 0o644))

	fresh, err := manager.Create(ctx, "fresh", false)
	require.NoError(t, err)

	// Age the stale session.
	aged := *stale
	aged.UpdatedAt = time.Now().UTC().Add(-10 * 24 * time.Hour)
	require.NoError(t, repo.UpdateSession(ctx, aged))

	result, err := manager.Cleanup(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, 1, result.DeletedSessions)
	assert.Equal(t, 1, result.DeletedFiles)
	assert.Empty(t, result.Errors())

	_, err = os.Stat(stale.WorkDir)
	assert.True(t, os.IsNotExist(err))

	_, err = repo.GetSession(ctx, stale.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = repo.GetSession(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestExecuteEngineStartFailure(t *testing.T) {
	engine := processmock.NewEngine(t)
	engine.On("Start", mock.Anything, mock.Anything).Once().Return(nil, errors.New("spawn refused"))

	repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: log.Noop})
	require.NoError(t, err)

	manager, err := session.NewManager(session.ManagerConfig{
		Engine:     engine,
		Repository: repo,
		DataDir:    t.TempDir(),
		Logger:     log.Noop,
	})
	require.NoError(t, err)

	ctx := context.Background()
	sess, err := manager.Create(ctx, "broken", false)
	require.NoError(t, err)

	result, err := manager.Execute(ctx, sess.ID, "true", session.ExecOptions{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, -1, result.ExitCode)
	assert.Contains(t, result.Stderr, "spawn refused")

	commands, err := repo.ListCommands(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, commands, 1)
	assert.Contains(t, commands[0].Error, "spawn refused")
}

func TestCleanupListFailure(t *testing.T) {
	engine := processmock.NewEngine(t)

	repo := storagemock.NewSessionRepository(t)
	repo.On("ListSessionsUpdatedBefore", mock.Anything, mock.Anything).Once().Return(nil, errors.New("storage unavailable"))

	manager, err := session.NewManager(session.ManagerConfig{
		Engine:     engine,
		Repository: repo,
		DataDir:    t.TempDir(),
		Logger:     log.Noop,
	})
	require.NoError(t, err)

	_, err = manager.Cleanup(context.Background(), 7)
	assert.Error(t, err)
}
