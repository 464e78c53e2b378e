// Package shared holds the context passed to all CLI commands.
package shared

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-ports/contentvault/internal/config"
	"github.com/go-ports/contentvault/internal/logging"
	"github.com/go-ports/contentvault/internal/metrics"
	"github.com/go-ports/contentvault/internal/service"
)

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// Home overrides the contentvault home directory.
	// When empty, resolution falls through to CONTENTVAULT_HOME env var → persisted config → ~/.contentvault.
	Home string

	// LogLevel overrides log.level from config.yaml when set.
	LogLevel string
}

// ResolveHome returns the effective home directory and its source
// ("flag", "env", "config", or "default").
func (c *Context) ResolveHome() (home, source string) {
	if c.Home != "" {
		return c.Home, "flag"
	}
	return config.ResolveHome()
}

// OpenService loads the config for the resolved home, builds its logger,
// and opens a Service. reg, when non-nil, receives the service metrics.
func (c *Context) OpenService(reg prometheus.Registerer) (*service.Service, error) {
	home, _ := c.ResolveHome()
	cfg, err := config.Load(service.ConfigPath(home))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Log.Level
	if c.LogLevel != "" {
		level = c.LogLevel
	}
	logger, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	return service.New(home,
		service.WithConfig(cfg),
		service.WithLogger(logger),
		service.WithMetrics(metrics.New(reg)),
	)
}
