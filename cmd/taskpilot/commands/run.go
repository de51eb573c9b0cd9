package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/taskpilot/taskpilot/internal/printer"
)

type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	title       string
	description string
	noSandbox   bool
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("run", "Create a task from a goal and run it to completion.")
	c.Cmd.Arg("title", "Goal of the task.").Required().StringVar(&c.title)
	c.Cmd.Flag("description", "Extra context for the goal.").Short('d').StringVar(&c.description)
	c.Cmd.Flag("no-sandbox", "Do not provision a sandbox session for the task.").BoolVar(&c.noSandbox)

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) error {
	cfg, err := c.rootCmd.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
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

	manager, err := newSessionManager(repo, c.rootCmd)
	if err != nil {
		return err
	}
	if c.noSandbox {
		manager = nil
	}

	svc, err := newOrchestrator(cfg, taskRepo, manager, c.rootCmd)
	if err != nil {
		return err
	}

	task, err := svc.CreateTask(ctx, c.title, c.description)
	if err != nil {
		return fmt.Errorf("could not create task: %w", err)
	}

	subTasks, err := svc.GetSubTasks(ctx, task.ID)
	if err != nil {
		return err
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	if err := p.PrintTaskStatus(*task, subTasks); err != nil {
		return fmt.Errorf("could not print task: %w", err)
	}

	return nil
}
