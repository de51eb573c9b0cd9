package model

import (
	"fmt"
	"time"
)

// IsolationLevel controls how a command runs inside a session.
type IsolationLevel string

const (
	// IsolationNone runs the command attached with the caller environment.
	IsolationNone IsolationLevel = "none"
	// IsolationPartial runs the command attached but only with the session
	// environment.
	IsolationPartial IsolationLevel = "partial"
	// IsolationFull runs the command fully detached, the caller polls at will.
	IsolationFull IsolationLevel = "full"
)

// Session is an isolated working context (directories plus tracked processes)
// used to run shell commands. The tracked process list lives in memory only,
// command and output history are persisted.
type Session struct {
	ID       string
	Name     string
	WorkDir  string
	TempDir  string
	Isolated bool
	// Active is false once the session has been terminated.
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the session fields.
func (s *Session) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("id is required: %w", ErrNotValid)
	}
	if s.Name == "" {
		return fmt.Errorf("name is required: %w", ErrNotValid)
	}
	return nil
}

// CommandRecord is one entry of a session's durable command history.
type CommandRecord struct {
	ID        string
	SessionID string
	Command   string
	// Error holds the failure message when the execution could not run,
	// empty otherwise.
	Error     string
	CreatedAt time.Time
}

// OutputRecord is one entry of a session's durable output history, paired with
// the command record written for the same execution.
type OutputRecord struct {
	ID        string
	SessionID string
	ProcessID string
	Stdout    string
	Stderr    string
	ExitCode  int
	Duration  time.Duration
	CreatedAt time.Time
}

// ExecResult is the outcome of one command execution inside a session.
// Execution failures are reported through Success/ExitCode/Stderr, never as
// errors.
type ExecResult struct {
	Success   bool
	Stdout    string
	Stderr    string
	ExitCode  int
	ProcessID string
	Duration  time.Duration
	Timestamp time.Time
}

// CleanupOutcome is the per-session result of a retention sweep.
type CleanupOutcome struct {
	SessionID    string
	DeletedFiles int
	// Error holds the failure reason, empty on success.
	Error string
}

// CleanupResult aggregates a retention sweep. Per-session failures never abort
// the sweep, they are accumulated in the outcomes.
type CleanupResult struct {
	DeletedSessions int
	DeletedFiles    int
	Outcomes        []CleanupOutcome
}

// Errors returns the failure reasons accumulated during the sweep.
func (r CleanupResult) Errors() []string {
	var errs []string
	for _, o := range r.Outcomes {
		if o.Error != "" {
			errs = append(errs, o.Error)
		}
	}
	return errs
}
