package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/taskpilot/taskpilot/internal/printer"
)

type SessionListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewSessionListCommand returns the session list command.
func NewSessionListCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *SessionListCommand {
	c := &SessionListCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("list", "List all sessions.")
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c SessionListCommand) Name() string { return c.Cmd.FullCommand() }

func (c SessionListCommand) Run(ctx context.Context) error {
	repo, err := newRepository(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	sessions, err := repo.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("could not list sessions: %w", err)
	}

	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintSessionList(sessions); err != nil {
		return fmt.Errorf("could not print list: %w", err)
	}

	return nil
}
