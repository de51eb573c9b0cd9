package model

import "time"

// ProcessStatus represents the status of a spawned OS process.
type ProcessStatus string

const (
	// ProcessStatusStarting indicates the process is being spawned.
	ProcessStatusStarting ProcessStatus = "starting"
	// ProcessStatusRunning indicates the OS confirmed the launch.
	ProcessStatusRunning ProcessStatus = "running"
	// ProcessStatusStopping indicates termination has been requested.
	ProcessStatusStopping ProcessStatus = "stopping"
	// ProcessStatusCompleted indicates the process exited with code 0.
	ProcessStatusCompleted ProcessStatus = "completed"
	// ProcessStatusStopped indicates the process was terminated on request.
	ProcessStatusStopped ProcessStatus = "stopped"
	// ProcessStatusFailed indicates the process exited with a non-zero code or
	// could not be waited on.
	ProcessStatusFailed ProcessStatus = "failed"
	// ProcessStatusTimeout indicates the process exceeded its runtime bound and
	// was killed.
	ProcessStatusTimeout ProcessStatus = "timeout"
)

// IsTerminal reports whether the process reached a final state.
func (s ProcessStatus) IsTerminal() bool {
	switch s {
	case ProcessStatusCompleted, ProcessStatusStopped, ProcessStatusFailed, ProcessStatusTimeout:
		return true
	}
	return false
}

// ProcessInfo is the tracked state of one spawned process. It is mutated by
// the process engine while the process runs and immutable once terminal.
type ProcessInfo struct {
	ID      string
	PID     int
	Command string
	Args    []string
	Status  ProcessStatus
	// Stdout and Stderr hold the output captured so far, available while the
	// process is still running.
	Stdout    string
	Stderr    string
	ExitCode  int
	StartedAt time.Time
	EndedAt   *time.Time
}
