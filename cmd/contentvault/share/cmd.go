// Package sharecmd implements the `contentvault share` command.
package sharecmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-ports/contentvault/cmd/contentvault/shared"
	"github.com/go-ports/contentvault/internal/extension"
	"github.com/go-ports/contentvault/internal/ingest"
)

// Command implements `contentvault share`.
type Command struct {
	ctx    *shared.Context
	cmd    *cobra.Command
	text   bool
	stdin  bool
	cancel bool
}

// New creates the share command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "share [item...]",
		Short: "Run a share action with each argument as one attachment",
		Long: `Run a share action with each argument as one attachment.

Arguments that parse as absolute URLs are shared as URLs, everything else as
plain text. Every attachment is classified and appended to the shared queue.`,
		RunE: c.run,
	}
	c.cmd.Flags().BoolVar(&c.text, "text", false, "Share every argument as plain text")
	c.cmd.Flags().BoolVar(&c.stdin, "stdin", false, "Also share stdin as one plain-text attachment")
	c.cmd.Flags().BoolVar(&c.cancel, "cancel", false, "Cancel the share action instead of posting it")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	attachments, err := c.attachments(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	if len(attachments) == 0 {
		return errors.New("share: nothing to share")
	}

	svc, err := c.ctx.OpenService(nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	h := ingest.New(svc,
		ingest.WithLogger(svc.Logger().Named("ingest")),
		ingest.WithMetrics(svc.Metrics()),
		ingest.WithLoadTimeout(svc.Config.Ingest.LoadTimeout),
	)
	ext := extension.NewStaticContext(attachments...)
	out := cmd.OutOrStdout()

	if c.cancel {
		h.DidCancel(ext)
		fmt.Fprintln(out, "Share cancelled; nothing saved.")
		return nil
	}

	report := h.DidSelectPost(cmd.Context(), ext)
	for _, res := range report.Results {
		switch res.Outcome {
		case ingest.OutcomeSaved:
			fmt.Fprintf(out, "saved    %-8s %s\n", res.Item.Type, res.Item.Path)
		case ingest.OutcomeDropped:
			fmt.Fprintf(out, "dropped  %-8s %s\n", res.Item.Type, res.Item.Path)
		default:
			fmt.Fprintf(out, "skipped  #%d: %v\n", res.Index+1, res.Err)
		}
	}
	fmt.Fprintf(out, "%d saved, %d skipped, %d dropped\n",
		report.Count(ingest.OutcomeSaved),
		report.Count(ingest.OutcomeLoadFailed)+report.Count(ingest.OutcomeUnsupported),
		report.Count(ingest.OutcomeDropped))
	return nil
}

func (c *Command) attachments(stdin io.Reader, args []string) ([]extension.Attachment, error) {
	attachments := make([]extension.Attachment, 0, len(args)+1)
	for _, arg := range args {
		if c.text {
			attachments = append(attachments, extension.NewStaticAttachment([]string{extension.TypePlainText}, arg))
			continue
		}
		attachments = append(attachments, extension.AttachmentFromArg(arg))
	}
	if c.stdin {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("share: read stdin: %w", err)
		}
		if s := strings.TrimRight(string(data), "\n"); s != "" {
			attachments = append(attachments, extension.NewStaticAttachment([]string{extension.TypeUTF8PlainText}, s))
		}
	}
	return attachments, nil
}
