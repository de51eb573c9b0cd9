package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/taskpilot/taskpilot/internal/ai"
	"github.com/taskpilot/taskpilot/internal/orchestrator"
)

type CancelCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID string
}

// NewCancelCommand returns the cancel command.
func NewCancelCommand(rootCmd *RootCommand, app *kingpin.Application) *CancelCommand {
	c := &CancelCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("cancel", "Cancel a task and its remaining sub-tasks.")
	c.Cmd.Arg("task-id", "Task ID.").Required().StringVar(&c.taskID)

	return c
}

func (c CancelCommand) Name() string { return c.Cmd.FullCommand() }

func (c CancelCommand) Run(ctx context.Context) error {
	repo, err := newRepository(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	taskRepo, err := newTaskRepository(repo, c.rootCmd)
	if err != nil {
		return err
	}

	// Cancelling never talks to the model.
	svc, err := orchestrator.NewService(orchestrator.ServiceConfig{
		Repository: taskRepo,
		AIClient:   ai.Noop,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create orchestrator: %w", err)
	}

	cancelled, err := svc.Cancel(ctx, c.taskID)
	if err != nil {
		return fmt.Errorf("could not cancel task: %w", err)
	}

	if !cancelled {
		fmt.Fprintf(c.rootCmd.Stdout, "Task %s not cancelled (missing or already finished)\n", c.taskID)
		return nil
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Task %s cancelled\n", c.taskID)

	return nil
}
