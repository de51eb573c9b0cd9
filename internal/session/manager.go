package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taskpilot/taskpilot/internal/conventions"
	"github.com/taskpilot/taskpilot/internal/log"
	"github.com/taskpilot/taskpilot/internal/model"
	"github.com/taskpilot/taskpilot/internal/process"
	"github.com/taskpilot/taskpilot/internal/storage"
	"github.com/taskpilot/taskpilot/internal/utils/env"
	"github.com/taskpilot/taskpilot/internal/utils/shellwords"
)

// ManagerConfig is the configuration of Manager.
type ManagerConfig struct {
	Engine     process.Engine
	Repository storage.SessionRepository
	// DataDir is the root directory where session workspaces are created.
	DataDir string
	// PollInterval is how often attached executions poll the engine for
	// process termination.
	PollInterval time.Duration
	Logger       log.Logger
}

func (c *ManagerConfig) defaults() error {
	if c.Engine == nil {
		return fmt.Errorf("process engine is required")
	}

	if c.Repository == nil {
		return fmt.Errorf("session repository is required")
	}

	if c.DataDir == "" {
		return fmt.Errorf("data dir is required")
	}

	if c.PollInterval == 0 {
		c.PollInterval = 100 * time.Millisecond
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"service": "session.Manager"})

	return nil
}

// ExecOptions customizes a single command execution inside a session.
type ExecOptions struct {
	// WorkingDir overrides the session working directory.
	WorkingDir string
	// Timeout bounds the process runtime. Zero means unbounded.
	Timeout time.Duration
	// Env contains extra environment variables for the command.
	Env map[string]string
	// Isolation controls how the command runs, full runs detached.
	Isolation model.IsolationLevel
}

// liveSession is the in-memory state tracked for a session, the persisted
// record plus the ids of the processes launched through it.
type liveSession struct {
	session   model.Session
	processes []string
}

// Manager owns the live session registry and runs shell commands inside
// sessions through the process engine, persisting their history.
type Manager struct {
	engine       process.Engine
	repo         storage.SessionRepository
	dataDir      string
	pollInterval time.Duration
	logger       log.Logger

	mu    sync.Mutex
	cache map[string]*liveSession
}

// NewManager returns a new session manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	err := cfg.defaults()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Manager{
		engine:       cfg.Engine,
		repo:         cfg.Repository,
		dataDir:      cfg.DataDir,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
		cache:        map[string]*liveSession{},
	}, nil
}

// Create provisions a new session: persisted record plus working and temp
// directories under the data dir.
func (m *Manager) Create(ctx context.Context, name string, isolated bool) (*model.Session, error) {
	now := time.Now().UTC()
	id := newID(now)

	sess := model.Session{
		ID:        id,
		Name:      name,
		WorkDir:   conventions.SessionDir(m.dataDir, id),
		TempDir:   conventions.SessionTempPath(m.dataDir, id),
		Isolated:  isolated,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := sess.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}

	err = m.repo.CreateSession(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("could not store session: %w", err)
	}

	// Temp dir is nested inside the work dir, one call provisions both.
	err = os.MkdirAll(sess.TempDir, 0o755)
	if err != nil {
		if delErr := m.repo.DeleteSession(ctx, sess.ID); delErr != nil {
			m.logger.WithValues(log.Kv{"session-id": sess.ID}).Errorf("Could not roll back session record: %s", delErr)
		}
		return nil, fmt.Errorf("could not create session directories: %s: %w", err, model.ErrDirCreation)
	}

	m.mu.Lock()
	m.cache[sess.ID] = &liveSession{session: sess}
	m.mu.Unlock()

	m.logger.WithValues(log.Kv{"session-id": sess.ID, "session-name": sess.Name}).Infof("Session created")

	return &sess, nil
}

// Get returns a session by id, rehydrating it from the store when it is not
// cached. On cache hits the tracked process statuses are refreshed first.
func (m *Manager) Get(ctx context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	live, ok := m.cache[id]
	m.mu.Unlock()

	if ok {
		m.refreshProcesses(ctx, live)
		sess := live.session
		return &sess, nil
	}

	sess, err := m.repo.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("could not get session: %w", err)
	}

	if sess.WorkDir == "" {
		sess.WorkDir = conventions.SessionDir(m.dataDir, sess.ID)
	}
	if sess.TempDir == "" {
		sess.TempDir = conventions.SessionTempPath(m.dataDir, sess.ID)
	}

	m.mu.Lock()
	m.cache[id] = &liveSession{session: *sess}
	m.mu.Unlock()

	return sess, nil
}

// refreshProcesses polls every tracked process so cached terminal states are
// up to date. Unknown processes are ignored.
func (m *Manager) refreshProcesses(ctx context.Context, live *liveSession) {
	m.mu.Lock()
	ids := make([]string, len(live.processes))
	copy(ids, live.processes)
	m.mu.Unlock()

	for _, id := range ids {
		_, err := m.engine.Poll(ctx, id)
		if err != nil {
			m.logger.WithValues(log.Kv{"process-id": id}).Debugf("Could not refresh process: %s", err)
		}
	}
}

// Execute runs a shell command line inside a session. The only error it
// returns is an unknown session, every failure after resolution is converted
// into a failure result and recorded in the session history.
func (m *Manager) Execute(ctx context.Context, sessionID, commandLine string, opts ExecOptions) (*model.ExecResult, error) {
	sess, err := m.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	logger := m.logger.WithValues(log.Kv{"session-id": sess.ID})

	result, execErr := m.execute(ctx, sess, commandLine, opts)
	if execErr != nil {
		logger.Warningf("Command execution failed: %s", execErr)
		result = &model.ExecResult{
			Success:   false,
			Stderr:    execErr.Error(),
			ExitCode:  -1,
			Timestamp: time.Now().UTC(),
		}
	}

	m.recordHistory(ctx, sess.ID, commandLine, result, execErr)

	return result, nil
}

func (m *Manager) execute(ctx context.Context, sess *model.Session, commandLine string, opts ExecOptions) (*model.ExecResult, error) {
	tokens := shellwords.Split(commandLine)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty command line: %w", model.ErrNotValid)
	}

	cmdEnv := env.MergeMaps(map[string]string{
		"TEMP": sess.TempDir,
		"TMP":  sess.TempDir,
	}, opts.Env)

	workDir := sess.WorkDir
	if opts.WorkingDir != "" {
		workDir = opts.WorkingDir
	}

	detached := opts.Isolation == model.IsolationFull

	start := time.Now().UTC()
	info, err := m.engine.Start(ctx, process.StartOptions{
		Command:    tokens[0],
		Args:       tokens[1:],
		WorkingDir: workDir,
		Env:        cmdEnv,
		Timeout:    opts.Timeout,
		Detached:   detached,
	})
	if err != nil {
		return nil, fmt.Errorf("could not start process: %w", err)
	}

	m.mu.Lock()
	if live, ok := m.cache[sess.ID]; ok {
		live.processes = append(live.processes, info.ID)
	}
	m.mu.Unlock()

	if detached {
		return &model.ExecResult{
			Success:   true,
			ProcessID: info.ID,
			Duration:  time.Since(start),
			Timestamp: start,
		}, nil
	}

	info, err = m.waitTerminal(ctx, info.ID)
	if err != nil {
		return nil, err
	}

	stdout, stderr, err := m.engine.Output(ctx, info.ID)
	if err != nil {
		return nil, fmt.Errorf("could not get process output: %w", err)
	}

	return &model.ExecResult{
		Success:   info.Status == model.ProcessStatusCompleted && info.ExitCode == 0,
		Stdout:    stdout,
		Stderr:    stderr,
		ExitCode:  info.ExitCode,
		ProcessID: info.ID,
		Duration:  time.Since(start),
		Timestamp: start,
	}, nil
}

func (m *Manager) waitTerminal(ctx context.Context, processID string) (*model.ProcessInfo, error) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		info, err := m.engine.Poll(ctx, processID)
		if err != nil {
			return nil, fmt.Errorf("could not poll process: %w", err)
		}
		if info.Status.IsTerminal() {
			return info, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (m *Manager) recordHistory(ctx context.Context, sessionID, commandLine string, result *model.ExecResult, execErr error) {
	now := time.Now().UTC()

	cmd := model.CommandRecord{
		ID:        newID(now),
		SessionID: sessionID,
		Command:   commandLine,
		CreatedAt: now,
	}
	if execErr != nil {
		cmd.Error = execErr.Error()
	}
	err := m.repo.AppendCommand(ctx, cmd)
	if err != nil {
		m.logger.WithValues(log.Kv{"session-id": sessionID}).Errorf("Could not store command history: %s", err)
	}

	out := model.OutputRecord{
		ID:        newID(now),
		SessionID: sessionID,
		ProcessID: result.ProcessID,
		Stdout:    result.Stdout,
		Stderr:    result.Stderr,
		ExitCode:  result.ExitCode,
		Duration:  result.Duration,
		CreatedAt: now,
	}
	err = m.repo.AppendOutput(ctx, out)
	if err != nil {
		m.logger.WithValues(log.Kv{"session-id": sessionID}).Errorf("Could not store output history: %s", err)
	}
}

// Terminate force-stops every tracked non-terminal process of a session,
// evicts it from the cache and marks the record inactive. Returns false when
// the session is not cached.
func (m *Manager) Terminate(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	live, ok := m.cache[id]
	if ok {
		delete(m.cache, id)
	}
	m.mu.Unlock()

	if !ok {
		return false, nil
	}

	logger := m.logger.WithValues(log.Kv{"session-id": id})

	for _, pid := range live.processes {
		err := m.engine.Stop(ctx, pid, true)
		if err != nil {
			logger.WithValues(log.Kv{"process-id": pid}).Debugf("Could not stop process: %s", err)
		}
	}

	sess := live.session
	sess.Active = false
	sess.UpdatedAt = time.Now().UTC()
	err := m.repo.UpdateSession(ctx, sess)
	if err != nil {
		return true, fmt.Errorf("could not mark session inactive: %w", err)
	}

	logger.Infof("Session terminated")

	return true, nil
}

// Cleanup sweeps sessions whose last update is older than the given number of
// days, removing their working trees and records. Per-session failures are
// accumulated in the result and never abort the sweep.
func (m *Manager) Cleanup(ctx context.Context, olderThanDays int) (*model.CleanupResult, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(olderThanDays) * 24 * time.Hour)

	stale, err := m.repo.ListSessionsUpdatedBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("could not list stale sessions: %w", err)
	}

	result := &model.CleanupResult{}
	for _, sess := range stale {
		outcome := m.cleanupSession(ctx, sess)
		if outcome.Error == "" {
			result.DeletedSessions++
			result.DeletedFiles += outcome.DeletedFiles
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	m.logger.WithValues(log.Kv{
		"deleted-sessions": result.DeletedSessions,
		"deleted-files":    result.DeletedFiles,
		"errors":           len(result.Errors()),
	}).Infof("Session cleanup finished")

	return result, nil
}

func (m *Manager) cleanupSession(ctx context.Context, sess model.Session) model.CleanupOutcome {
	outcome := model.CleanupOutcome{SessionID: sess.ID}

	_, err := m.Terminate(ctx, sess.ID)
	if err != nil {
		m.logger.WithValues(log.Kv{"session-id": sess.ID}).Warningf("Could not terminate session during cleanup: %s", err)
	}

	workDir := sess.WorkDir
	if workDir == "" {
		workDir = conventions.SessionDir(m.dataDir, sess.ID)
	}

	outcome.DeletedFiles = countFiles(workDir)

	err = os.RemoveAll(workDir)
	if err != nil {
		outcome.Error = fmt.Sprintf("could not remove session directory: %s", err)
		return outcome
	}

	err = m.repo.DeleteSession(ctx, sess.ID)
	if err != nil {
		outcome.Error = fmt.Sprintf("could not delete session record: %s", err)
		return outcome
	}

	return outcome
}

// Remove terminates a session and deletes its working tree and persisted
// record, history included.
func (m *Manager) Remove(ctx context.Context, id string) error {
	sess, err := m.Get(ctx, id)
	if err != nil {
		return err
	}

	outcome := m.cleanupSession(ctx, *sess)
	if outcome.Error != "" {
		return fmt.Errorf("could not remove session: %s", outcome.Error)
	}

	return nil
}

// History returns a session's durable command and output history.
func (m *Manager) History(ctx context.Context, id string) ([]model.CommandRecord, []model.OutputRecord, error) {
	commands, err := m.repo.ListCommands(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("could not list session commands: %w", err)
	}

	outputs, err := m.repo.ListOutputs(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("could not list session outputs: %w", err)
	}

	return commands, outputs, nil
}

// List returns every persisted session.
func (m *Manager) List(ctx context.Context) ([]model.Session, error) {
	sessions, err := m.repo.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list sessions: %w", err)
	}
	return sessions, nil
}

func countFiles(root string) int {
	count := 0
	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	return count
}

func newID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
