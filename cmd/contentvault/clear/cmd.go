// Package clearcmd implements the `contentvault clear` command.
package clearcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/contentvault/cmd/contentvault/shared"
	"github.com/go-ports/contentvault/internal/bridge"
)

// Command implements `contentvault clear`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the clear command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "clear",
		Short: "Remove all pending shared items (clearSharedData)",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	svc, err := c.ctx.OpenService(nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	ch := bridge.New(svc, bridge.WithLogger(svc.Logger().Named("bridge")), bridge.WithMetrics(svc.Metrics()))
	if ch.ClearSharedData(cmd.Context()) {
		fmt.Fprintln(cmd.OutOrStdout(), "Cleared shared items.")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "App group storage unavailable; nothing cleared.")
	}
	return nil
}
