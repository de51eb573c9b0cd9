package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
)

type SessionCreateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	name     string
	isolated bool
}

// NewSessionCreateCommand returns the session create command.
func NewSessionCreateCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *SessionCreateCommand {
	c := &SessionCreateCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("create", "Create a new sandbox session.")
	c.Cmd.Flag("name", "Name for the session.").Short('n').Required().StringVar(&c.name)
	c.Cmd.Flag("isolated", "Run the session's commands with the session environment only.").BoolVar(&c.isolated)

	return c
}

func (c SessionCreateCommand) Name() string { return c.Cmd.FullCommand() }

func (c SessionCreateCommand) Run(ctx context.Context) error {
	repo, err := newRepository(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	manager, err := newSessionManager(repo, c.rootCmd)
	if err != nil {
		return err
	}

	sess, err := manager.Create(ctx, c.name, c.isolated)
	if err != nil {
		return fmt.Errorf("could not create session: %w", err)
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Session created successfully!\n")
	fmt.Fprintf(c.rootCmd.Stdout, "  ID:       %s\n", sess.ID)
	fmt.Fprintf(c.rootCmd.Stdout, "  Name:     %s\n", sess.Name)
	fmt.Fprintf(c.rootCmd.Stdout, "  Work dir: %s\n", sess.WorkDir)

	return nil
}
