package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
)

type SessionRmCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	sessionID string
}

// NewSessionRmCommand returns the session rm command.
func NewSessionRmCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *SessionRmCommand {
	c := &SessionRmCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("rm", "Remove a session, its working tree and history.")
	c.Cmd.Arg("session-id", "Session ID.").Required().StringVar(&c.sessionID)

	return c
}

func (c SessionRmCommand) Name() string { return c.Cmd.FullCommand() }

func (c SessionRmCommand) Run(ctx context.Context) error {
	repo, err := newRepository(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	manager, err := newSessionManager(repo, c.rootCmd)
	if err != nil {
		return err
	}

	if err := manager.Remove(ctx, c.sessionID); err != nil {
		return fmt.Errorf("could not remove session: %w", err)
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Session %s removed\n", c.sessionID)

	return nil
}
