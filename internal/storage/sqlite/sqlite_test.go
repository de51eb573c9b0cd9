package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpilot/taskpilot/internal/log"
	"github.com/taskpilot/taskpilot/internal/model"
	"github.com/taskpilot/taskpilot/internal/storage/sqlite"
)

func newRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
		Logger: log.Noop,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sessionFixture(id, name string) model.Session {
	now := time.Now().UTC().Truncate(time.Second)
	return model.Session{
		ID:        id,
		Name:      name,
		WorkDir:   "/data/sessions/" + id,
		TempDir:   "/data/sessions/" + id + "/tmp",
		Isolated:  true,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSessionCRUD(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	sess := sessionFixture("s1", "build")
	require.NoError(t, repo.CreateSession(ctx, sess))

	err := repo.CreateSession(ctx, sess)
	assert.ErrorIs(t, err, model.ErrAlreadyExists)

	got, err := repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sess.Name, got.Name)
	assert.Equal(t, sess.WorkDir, got.WorkDir)
	assert.Equal(t, sess.TempDir, got.TempDir)
	assert.True(t, got.Isolated)
	assert.True(t, got.Active)

	got.Active = false
	got.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.UpdateSession(ctx, *got))

	got, err = repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, got.Active)

	require.NoError(t, repo.DeleteSession(ctx, "s1"))

	_, err = repo.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSessionHistoryCascade(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateSession(ctx, sessionFixture("s1", "build")))

	now := time.Now().UTC()
	require.NoError(t, repo.AppendCommand(ctx, model.CommandRecord{ID: "c1", SessionID: "s1", Command: "echo one", CreatedAt: now}))
	require.NoError(t, repo.AppendCommand(ctx, model.CommandRecord{ID: "c2", SessionID: "s1", Command: "echo two", Error: "boom", CreatedAt: now}))
	require.NoError(t, repo.AppendOutput(ctx, model.OutputRecord{ID: "o1", SessionID: "s1", ProcessID: "p1", Stdout: "one\n", ExitCode: 0, Duration: 120 * time.Millisecond, CreatedAt: now}))

	commands, err := repo.ListCommands(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, commands, 2)
	assert.Equal(t, "echo one", commands[0].Command)
	assert.Equal(t, "boom", commands[1].Error)

	outputs, err := repo.ListOutputs(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, 120*time.Millisecond, outputs[0].Duration)

	require.NoError(t, repo.DeleteSession(ctx, "s1"))

	commands, err = repo.ListCommands(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, commands)
}

func TestListSessionsUpdatedBefore(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()

	stale := sessionFixture("stale", "stale")
	stale.CreatedAt = now.Add(-10 * 24 * time.Hour)
	stale.UpdatedAt = now.Add(-10 * 24 * time.Hour)
	require.NoError(t, repo.CreateSession(ctx, stale))
	require.NoError(t, repo.CreateSession(ctx, sessionFixture("fresh", "fresh")))

	got, err := repo.ListSessionsUpdatedBefore(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "stale", got[0].ID)
}
