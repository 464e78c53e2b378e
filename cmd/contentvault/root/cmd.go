// Package rootcmd wires the root cobra.Command for the contentvault CLI binary.
package rootcmd

import (
	"github.com/spf13/cobra"

	classifycmd "github.com/go-ports/contentvault/cmd/contentvault/classify"
	clearcmd "github.com/go-ports/contentvault/cmd/contentvault/clear"
	configcmd "github.com/go-ports/contentvault/cmd/contentvault/config"
	initcmd "github.com/go-ports/contentvault/cmd/contentvault/init"
	listcmd "github.com/go-ports/contentvault/cmd/contentvault/list"
	mcpcmd "github.com/go-ports/contentvault/cmd/contentvault/mcp"
	sharecmd "github.com/go-ports/contentvault/cmd/contentvault/share"
	"github.com/go-ports/contentvault/cmd/contentvault/shared"
	versioncmd "github.com/go-ports/contentvault/cmd/contentvault/version"
)

// New creates and returns the root cobra.Command for the contentvault CLI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "contentvault",
		Short:         "ContentVault: collect shared links and text for later",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	root.PersistentFlags().StringVar(
		&ctx.Home, "home", "",
		"Override home directory (default: $CONTENTVAULT_HOME env → persisted config → ~/.contentvault)",
	)
	root.PersistentFlags().StringVar(
		&ctx.LogLevel, "log-level", "",
		"Override log level from config.yaml (debug, info, warn, error)",
	)

	root.AddCommand(
		initcmd.New(ctx).Cmd(),
		sharecmd.New(ctx).Cmd(),
		listcmd.New(ctx).Cmd(),
		clearcmd.New(ctx).Cmd(),
		classifycmd.New(ctx).Cmd(),
		configcmd.New(ctx).Cmd(),
		mcpcmd.New(ctx).Cmd(),
		versioncmd.New(ctx).Cmd(),
	)

	return root
}
