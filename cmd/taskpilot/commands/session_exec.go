package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/taskpilot/taskpilot/internal/model"
	"github.com/taskpilot/taskpilot/internal/printer"
	"github.com/taskpilot/taskpilot/internal/session"
)

type SessionExecCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	sessionID  string
	command    []string
	workingDir string
	envSpecs   []string
	timeout    time.Duration
	isolation  string
	format     string
}

// NewSessionExecCommand returns the session exec command.
func NewSessionExecCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *SessionExecCommand {
	c := &SessionExecCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("exec", "Execute a shell command inside a session.")
	c.Cmd.Arg("session-id", "Session ID.").Required().StringVar(&c.sessionID)
	c.Cmd.Arg("command", "Command to execute (use -- before command).").Required().StringsVar(&c.command)
	c.Cmd.Flag("workdir", "Working directory for command execution.").Short('w').StringVar(&c.workingDir)
	c.Cmd.Flag("env", "Environment variables (KEY=VALUE or KEY from current environment). Can be repeated.").Short('e').StringsVar(&c.envSpecs)
	c.Cmd.Flag("timeout", "Maximum runtime for the command (e.g. 30s).").DurationVar(&c.timeout)
	c.Cmd.Flag("isolation", "Isolation level (none, partial, full).").Default("none").EnumVar(&c.isolation, "none", "partial", "full")
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c SessionExecCommand) Name() string { return c.Cmd.FullCommand() }

func (c SessionExecCommand) Run(ctx context.Context) error {
	cmdEnv, err := parseEnvSpecs(c.envSpecs)
	if err != nil {
		return fmt.Errorf("invalid --env value: %w", err)
	}

	repo, err := newRepository(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	manager, err := newSessionManager(repo, c.rootCmd)
	if err != nil {
		return err
	}

	result, err := manager.Execute(ctx, c.sessionID, strings.Join(c.command, " "), session.ExecOptions{
		WorkingDir: c.workingDir,
		Timeout:    c.timeout,
		Env:        cmdEnv,
		Isolation:  model.IsolationLevel(c.isolation),
	})
	if err != nil {
		return fmt.Errorf("could not execute command: %w", err)
	}

	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintExecResult(*result); err != nil {
		return fmt.Errorf("could not print result: %w", err)
	}

	return nil
}
