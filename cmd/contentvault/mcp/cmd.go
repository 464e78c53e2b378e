// Package mcpcmd implements the `contentvault mcp` command.
package mcpcmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/go-ports/contentvault/cmd/contentvault/shared"
	"github.com/go-ports/contentvault/internal/bridge"
	internalmcp "github.com/go-ports/contentvault/internal/mcp"
	"github.com/go-ports/contentvault/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// Command implements `contentvault mcp`.
type Command struct {
	ctx         *shared.Context
	cmd         *cobra.Command
	metricsAddr string
}

// New creates the mcp command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "mcp",
		Short: "Serve the " + bridge.ChannelName + " bridge as an MCP server (stdio transport)",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().StringVar(&c.metricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics on this address (overrides metrics.addr)")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc, err := c.ctx.OpenService(reg)
	if err != nil {
		return err
	}
	defer svc.Close()
	logger := svc.Logger()

	addr := svc.Config.Metrics.Addr
	if c.metricsAddr != "" {
		addr = c.metricsAddr
	}
	if addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           metrics.Handler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("metrics server starting", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", zap.Error(err))
			}
		}()
	}

	ch := bridge.New(svc, bridge.WithLogger(logger.Named("bridge")), bridge.WithMetrics(svc.Metrics()))
	logger.Info("bridge serving", zap.String("channel", ch.Name()))
	err = internalmcp.Serve(ctx, ch)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
