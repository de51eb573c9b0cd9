package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/taskpilot/taskpilot/internal/printer"
)

type CleanupCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	olderThanDays int
	format        string
}

// NewCleanupCommand returns the cleanup command.
func NewCleanupCommand(rootCmd *RootCommand, app *kingpin.Application) *CleanupCommand {
	c := &CleanupCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("cleanup", "Delete sessions not updated for a number of days.")
	c.Cmd.Flag("older-than", "Retention threshold in days.").Default("7").IntVar(&c.olderThanDays)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c CleanupCommand) Name() string { return c.Cmd.FullCommand() }

func (c CleanupCommand) Run(ctx context.Context) error {
	repo, err := newRepository(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	manager, err := newSessionManager(repo, c.rootCmd)
	if err != nil {
		return err
	}

	result, err := manager.Cleanup(ctx, c.olderThanDays)
	if err != nil {
		return fmt.Errorf("could not clean up sessions: %w", err)
	}

	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintCleanupResult(*result); err != nil {
		return fmt.Errorf("could not print cleanup result: %w", err)
	}

	return nil
}
