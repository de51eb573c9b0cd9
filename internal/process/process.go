package process

import (
	"context"
	"time"

	"github.com/taskpilot/taskpilot/internal/model"
)

// StartOptions contains the options for spawning a process.
type StartOptions struct {
	// Command is the executable to run.
	Command string
	// Args are the command arguments.
	Args []string
	// WorkingDir is the directory the process runs in (optional).
	WorkingDir string
	// Env contains extra environment variables merged over the current
	// environment.
	Env map[string]string
	// Timeout bounds the process runtime, exceeding it kills the process and
	// marks it as timed out. Zero means unbounded.
	Timeout time.Duration
	// Detached marks the process as fire-and-forget, callers poll at will.
	Detached bool
	// HideWindow hides the console window on Windows, ignored elsewhere.
	HideWindow bool
}

// Engine manages the full lifecycle of spawned OS processes.
type Engine interface {
	// Start spawns a process and starts tracking it. It returns once the OS
	// confirms the launch, without waiting for termination.
	Start(ctx context.Context, opts StartOptions) (*model.ProcessInfo, error)

	// Poll returns the current tracked state of a process, side-effect free.
	Poll(ctx context.Context, id string) (*model.ProcessInfo, error)

	// Output returns the stdout and stderr captured so far, available while
	// the process is still running.
	Output(ctx context.Context, id string) (stdout, stderr string, err error)

	// Stop requests process termination, forcefully when force is set.
	Stop(ctx context.Context, id string, force bool) error

	// List returns the tracked state of every known process.
	List(ctx context.Context) ([]model.ProcessInfo, error)
}
