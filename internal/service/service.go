// Package service implements the contentvault orchestrator that wires
// together configuration, the app group storage area, the shared queue,
// logging, and metrics.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/go-ports/contentvault/internal/appgroup"
	"github.com/go-ports/contentvault/internal/classify"
	"github.com/go-ports/contentvault/internal/config"
	"github.com/go-ports/contentvault/internal/metrics"
	"github.com/go-ports/contentvault/internal/models"
	"github.com/go-ports/contentvault/internal/queue"
)

// Service owns the shared queue for one home directory.
//
// Construction never fails because the storage area is unavailable: the
// failure is recorded, logged, and every operation degrades (appends are
// dropped, reads are empty, clears report false).
type Service struct {
	Home   string
	Config *config.Config

	logger   *zap.Logger
	metrics  *metrics.Metrics
	suite    *appgroup.Suite
	queue    *queue.Queue
	storeErr error
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.logger = l } }

// WithMetrics sets the metrics sink. The default is unregistered.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithConfig uses cfg instead of loading <home>/config.yaml.
func WithConfig(cfg *config.Config) Option { return func(s *Service) { s.Config = cfg } }

// New initialises a Service rooted at home.
// If home is empty it is resolved via config.GetHome.
func New(home string, opts ...Option) (*Service, error) {
	if home == "" {
		home = config.GetHome()
	}

	s := &Service{Home: home}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = metrics.New(nil)
	}
	if s.Config == nil {
		cfg, err := config.Load(ConfigPath(home))
		if err != nil {
			return nil, fmt.Errorf("service.New: load config: %w", err)
		}
		s.Config = cfg
	}

	suite, err := appgroup.Open(home, s.Config.AppGroup)
	if err != nil {
		s.storeErr = err
		s.logger.Warn("app group storage unavailable",
			zap.String("app_group", s.Config.AppGroup),
			zap.String("home", home),
			zap.Error(err))
		return s, nil
	}
	s.suite = suite
	s.queue = queue.New(suite,
		queue.WithKey(s.Config.StorageKey),
		queue.WithLogger(s.logger.Named("queue")),
		queue.WithReclassifier(classify.Category),
	)
	return s, nil
}

// ConfigPath returns the config file path for home.
func ConfigPath(home string) string {
	return filepath.Join(home, "config.yaml")
}

// Init creates the home directory and writes a default config.yaml if none
// exists. It returns true when the config file was created.
func Init(home string) (bool, error) {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return false, fmt.Errorf("service.Init: %w", err)
	}
	path := ConfigPath(home)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := config.Save(path, config.Default()); err != nil {
		return false, fmt.Errorf("service.Init: %w", err)
	}
	return true, nil
}

// Close releases all resources held by the service.
func (s *Service) Close() error {
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.suite != nil {
		return s.suite.Close()
	}
	return nil
}

// Logger returns the service logger.
func (s *Service) Logger() *zap.Logger { return s.logger }

// Metrics returns the service metrics.
func (s *Service) Metrics() *metrics.Metrics { return s.metrics }

// StorageErr returns the error that made storage unavailable, or nil.
func (s *Service) StorageErr() error { return s.storeErr }

// ---------------------------------------------------------------------------
// Queue operations
// ---------------------------------------------------------------------------

// Append adds item to the shared queue. With storage unavailable the item
// is dropped and an error wrapping appgroup.ErrUnavailable is returned for
// the caller to log.
func (s *Service) Append(ctx context.Context, item models.SharedItem) error {
	if s.queue == nil {
		s.metrics.StorageUnavailable.Inc()
		return fmt.Errorf("service.Append: %w", s.unavailable())
	}
	if err := s.queue.Append(ctx, item); err != nil {
		return fmt.Errorf("service.Append: %w", err)
	}
	s.metrics.ItemsSaved.WithLabelValues(string(item.Type)).Inc()
	return nil
}

// SharedData returns every pending item, or an empty slice if storage is
// unavailable or unreadable.
func (s *Service) SharedData(ctx context.Context) []models.SharedItem {
	if s.queue == nil {
		s.metrics.StorageUnavailable.Inc()
		s.logger.Info("no shared data: storage unavailable", zap.Error(s.storeErr))
		return make([]models.SharedItem, 0)
	}
	items, err := s.queue.All(ctx)
	if err != nil {
		s.logger.Warn("read shared data", zap.Error(err))
		return make([]models.SharedItem, 0)
	}
	s.logger.Debug("found shared items", zap.Int("count", len(items)))
	return items
}

// ClearSharedData removes the stored queue. It returns false only when the
// storage area could not be opened.
func (s *Service) ClearSharedData(ctx context.Context) bool {
	if s.queue == nil {
		s.metrics.StorageUnavailable.Inc()
		s.logger.Warn("clear shared data: storage unavailable", zap.Error(s.storeErr))
		return false
	}
	if err := s.queue.Clear(ctx); err != nil {
		s.logger.Warn("clear shared data", zap.Error(err))
		return true
	}
	s.logger.Debug("cleared shared data")
	return true
}

func (s *Service) unavailable() error {
	if s.storeErr != nil {
		return s.storeErr
	}
	return appgroup.ErrUnavailable
}
