// Package local implements the process engine on top of os/exec.
package local

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taskpilot/taskpilot/internal/log"
	"github.com/taskpilot/taskpilot/internal/model"
	"github.com/taskpilot/taskpilot/internal/process"
)

// EngineConfig is the configuration for the local process engine.
type EngineConfig struct {
	Logger log.Logger
}

func (c *EngineConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "process.Local"})
	return nil
}

// Engine spawns, tracks and terminates OS-level child processes. The process
// table is owned by the engine instance and guarded by a mutex, there are no
// process-wide registries.
type Engine struct {
	procs  map[string]*proc
	mu     sync.RWMutex
	logger log.Logger
}

// NewEngine creates a new local process engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		procs:  make(map[string]*proc),
		logger: cfg.Logger,
	}, nil
}

type proc struct {
	mu       sync.Mutex
	info     model.ProcessInfo
	cmd      *exec.Cmd
	stdout   *lockedBuffer
	stderr   *lockedBuffer
	timedOut bool
	stopped  bool
	done     chan struct{}
}

// snapshot returns a copy of the tracked state with current output buffers.
func (p *proc) snapshot() model.ProcessInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	info := p.info
	info.Args = append([]string(nil), p.info.Args...)
	info.Stdout = p.stdout.String()
	info.Stderr = p.stderr.String()
	return info
}

// Start spawns a new process.
func (e *Engine) Start(ctx context.Context, opts process.StartOptions) (*model.ProcessInfo, error) {
	if opts.Command == "" {
		return nil, fmt.Errorf("command is required: %w", model.ErrNotValid)
	}

	p := &proc{
		stdout: &lockedBuffer{},
		stderr: &lockedBuffer{},
		done:   make(chan struct{}),
		info: model.ProcessInfo{
			ID:        ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String(),
			Command:   opts.Command,
			Args:      append([]string(nil), opts.Args...),
			Status:    model.ProcessStatusStarting,
			ExitCode:  -1,
			StartedAt: time.Now().UTC(),
		},
	}

	cmd := exec.Command(opts.Command, opts.Args...)
	cmd.Dir = opts.WorkingDir
	cmd.Stdout = p.stdout
	cmd.Stderr = p.stderr
	if len(opts.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range opts.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}
	setSysProcAttr(cmd, opts.HideWindow)
	p.cmd = cmd

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("could not spawn %q: %s: %w", opts.Command, err, model.ErrLaunch)
	}

	p.info.Status = model.ProcessStatusRunning
	p.info.PID = cmd.Process.Pid

	e.mu.Lock()
	e.procs[p.info.ID] = p
	e.mu.Unlock()

	go e.wait(p, opts.Timeout)

	e.logger.Debugf("Started process %s (pid %d): %s", p.info.ID, p.info.PID, opts.Command)

	info := p.snapshot()
	return &info, nil
}

// wait blocks on process termination and records the terminal transition.
func (e *Engine) wait(p *proc, timeout time.Duration) {
	var timer *time.Timer
	if timeout > 0 {
		timer = time.AfterFunc(timeout, func() {
			p.mu.Lock()
			p.timedOut = true
			p.mu.Unlock()
			_ = p.cmd.Process.Kill()
		})
	}

	err := p.cmd.Wait()
	if timer != nil {
		timer.Stop()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now().UTC()
	p.info.EndedAt = &now

	var exitErr *exec.ExitError
	switch {
	case p.timedOut:
		p.info.Status = model.ProcessStatusTimeout
	case p.stopped:
		p.info.Status = model.ProcessStatusStopped
	case err == nil:
		p.info.Status = model.ProcessStatusCompleted
		p.info.ExitCode = 0
	case errors.As(err, &exitErr):
		p.info.Status = model.ProcessStatusFailed
		p.info.ExitCode = exitErr.ExitCode()
	default:
		p.info.Status = model.ProcessStatusFailed
	}

	close(p.done)

	e.logger.Debugf("Process %s finished with status %s (exit code %d)", p.info.ID, p.info.Status, p.info.ExitCode)
}

// Poll returns the current tracked state of a process.
func (e *Engine) Poll(ctx context.Context, id string) (*model.ProcessInfo, error) {
	p, err := e.get(id)
	if err != nil {
		return nil, err
	}

	info := p.snapshot()
	return &info, nil
}

// Output returns the output captured so far.
func (e *Engine) Output(ctx context.Context, id string) (string, string, error) {
	p, err := e.get(id)
	if err != nil {
		return "", "", err
	}

	return p.stdout.String(), p.stderr.String(), nil
}

// Stop requests termination of a running process.
func (e *Engine) Stop(ctx context.Context, id string, force bool) error {
	p, err := e.get(id)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.info.Status.IsTerminal() {
		p.mu.Unlock()
		return fmt.Errorf("process %s: %w", id, model.ErrAlreadyTerminal)
	}
	p.stopped = true
	p.info.Status = model.ProcessStatusStopping
	p.mu.Unlock()

	if force {
		if err := p.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("could not kill process %s: %w", id, err)
		}
		return nil
	}

	// Graceful termination, the wait goroutine records the final state.
	if err := terminate(p.cmd); err != nil {
		if err := p.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("could not kill process %s: %w", id, err)
		}
	}

	return nil
}

// List returns every tracked process ordered by start time.
func (e *Engine) List(ctx context.Context) ([]model.ProcessInfo, error) {
	e.mu.RLock()
	procs := make([]*proc, 0, len(e.procs))
	for _, p := range e.procs {
		procs = append(procs, p)
	}
	e.mu.RUnlock()

	infos := make([]model.ProcessInfo, 0, len(procs))
	for _, p := range procs {
		infos = append(infos, p.snapshot())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].StartedAt.Before(infos[j].StartedAt) })

	return infos, nil
}

func (e *Engine) get(id string) (*proc, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.procs[id]
	if !ok {
		return nil, fmt.Errorf("process %s: %w", id, model.ErrNotFound)
	}
	return p, nil
}

var _ process.Engine = (*Engine)(nil)

// lockedBuffer is a bytes.Buffer safe for concurrent writes from the process
// output pipes and reads from pollers.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
