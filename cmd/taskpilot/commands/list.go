package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/taskpilot/taskpilot/internal/model"
	"github.com/taskpilot/taskpilot/internal/printer"
)

type ListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	statusFilter string
	format       string
}

// NewListCommand returns the list command.
func NewListCommand(rootCmd *RootCommand, app *kingpin.Application) *ListCommand {
	c := &ListCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("list", "List all tasks.")
	c.Cmd.Flag("status", "Filter by status (pending, in_progress, completed, failed, cancelled).").StringVar(&c.statusFilter)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c ListCommand) Name() string { return c.Cmd.FullCommand() }

func (c ListCommand) Run(ctx context.Context) error {
	// Parse status filter if provided.
	var statusFilter *model.TaskStatus
	if c.statusFilter != "" {
		status := model.TaskStatus(strings.ToLower(c.statusFilter))
		if !status.Valid() {
			return fmt.Errorf("invalid status filter: %s (must be: pending, in_progress, completed, failed, cancelled)", c.statusFilter)
		}
		statusFilter = &status
	}

	repo, err := newRepository(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	taskRepo, err := newTaskRepository(repo, c.rootCmd)
	if err != nil {
		return err
	}

	tasks, err := taskRepo.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("could not list tasks: %w", err)
	}

	if statusFilter != nil {
		filtered := tasks[:0]
		for _, t := range tasks {
			if t.Status == *statusFilter {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}

	p := c.printer()
	if err := p.PrintTaskList(tasks); err != nil {
		return fmt.Errorf("could not print list: %w", err)
	}

	return nil
}

func (c ListCommand) printer() printer.Printer {
	if c.format == "json" {
		return printer.NewJSONPrinter(c.rootCmd.Stdout)
	}
	return printer.NewTablePrinter(c.rootCmd.Stdout)
}
