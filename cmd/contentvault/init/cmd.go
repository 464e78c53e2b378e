// Package initcmd implements the `contentvault init` command.
package initcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/contentvault/cmd/contentvault/shared"
	"github.com/go-ports/contentvault/internal/service"
)

// Command implements `contentvault init`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the init command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize the home directory and the app group storage",
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	home, _ := c.ctx.ResolveHome()
	created, err := service.Init(home)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	svc, err := c.ctx.OpenService(nil)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer svc.Close()
	if err := svc.StorageErr(); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Content vault initialized at %s\n", home)
	if created {
		fmt.Fprintf(out, "Created %s\n", service.ConfigPath(home))
	}
	fmt.Fprintf(out, "App group: %s\n", svc.Config.AppGroup)
	return nil
}
