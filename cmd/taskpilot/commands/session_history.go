package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/taskpilot/taskpilot/internal/printer"
)

type SessionHistoryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	sessionID string
	format    string
}

// NewSessionHistoryCommand returns the session history command.
func NewSessionHistoryCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *SessionHistoryCommand {
	c := &SessionHistoryCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("history", "Show a session's command and output history.")
	c.Cmd.Arg("session-id", "Session ID.").Required().StringVar(&c.sessionID)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c SessionHistoryCommand) Name() string { return c.Cmd.FullCommand() }

func (c SessionHistoryCommand) Run(ctx context.Context) error {
	repo, err := newRepository(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	manager, err := newSessionManager(repo, c.rootCmd)
	if err != nil {
		return err
	}

	commands, outputs, err := manager.History(ctx, c.sessionID)
	if err != nil {
		return fmt.Errorf("could not get session history: %w", err)
	}

	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintSessionHistory(commands, outputs); err != nil {
		return fmt.Errorf("could not print history: %w", err)
	}

	return nil
}
