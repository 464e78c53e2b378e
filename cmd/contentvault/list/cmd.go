// Package listcmd implements the `contentvault list` command.
package listcmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/contentvault/cmd/contentvault/shared"
	"github.com/go-ports/contentvault/internal/bridge"
)

// Command implements `contentvault list`.
type Command struct {
	ctx    *shared.Context
	cmd    *cobra.Command
	asJSON bool
}

// New creates the list command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "list",
		Short: "Show pending shared items (getSharedData)",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().BoolVar(&c.asJSON, "json", false, "Print the items as a JSON array")
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
	items := ch.GetSharedData(cmd.Context())
	out := cmd.OutOrStdout()

	if c.asJSON {
		b, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
		return nil
	}

	if len(items) == 0 {
		fmt.Fprintln(out, "No shared items.")
		return nil
	}
	for i, item := range items {
		fmt.Fprintf(out, "%3d  %-8s %s\n", i+1, item.Type, item.Path)
	}
	return nil
}
