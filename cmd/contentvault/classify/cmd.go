// Package classifycmd implements the `contentvault classify` command.
package classifycmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/contentvault/cmd/contentvault/shared"
	"github.com/go-ports/contentvault/internal/classify"
)

// Command implements `contentvault classify`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the classify command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "classify <payload>",
		Short: "Print the category a payload would be saved under",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (*Command) run(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), classify.Category(args[0]))
	return nil
}
