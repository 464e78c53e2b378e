// Package bridge answers the host application's method calls on the shared
// queue.
package bridge

import (
	"context"

	"go.uber.org/zap"

	"github.com/go-ports/contentvault/internal/metrics"
	"github.com/go-ports/contentvault/internal/models"
)

// ChannelName identifies the method channel to the host.
const ChannelName = "contentvault/userdefaults"

// Supported methods.
const (
	MethodGetSharedData   = "getSharedData"
	MethodClearSharedData = "clearSharedData"
)

// Store is the queue view the bridge needs. *service.Service satisfies it.
type Store interface {
	SharedData(ctx context.Context) []models.SharedItem
	ClearSharedData(ctx context.Context) bool
}

// Call is one method invocation from the host.
type Call struct {
	Method string
	Args   map[string]any
}

// Result is the answer to a Call. Value is []models.SharedItem for
// getSharedData and bool for clearSharedData.
type Result struct {
	Value          any
	NotImplemented bool
}

// NotImplemented answers every unknown method.
var NotImplemented = Result{NotImplemented: true}

// Option configures a Channel.
type Option func(*Channel)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(ch *Channel) { ch.logger = l } }

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option { return func(ch *Channel) { ch.metrics = m } }

// Channel dispatches calls to a Store.
type Channel struct {
	store   Store
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New returns a Channel over store.
func New(store Store, opts ...Option) *Channel {
	ch := &Channel{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(ch)
	}
	if ch.metrics == nil {
		ch.metrics = metrics.New(nil)
	}
	return ch
}

// Name returns ChannelName.
func (*Channel) Name() string { return ChannelName }

// Handle answers call. It never fails; storage problems surface as an empty
// list or false.
func (ch *Channel) Handle(ctx context.Context, call Call) Result {
	log := ch.logger.With(zap.String("method", call.Method))

	switch call.Method {
	case MethodGetSharedData:
		items := ch.store.SharedData(ctx)
		log.Debug("bridge call", zap.Int("items", len(items)))
		ch.metrics.BridgeCalls.WithLabelValues(call.Method, "ok").Inc()
		return Result{Value: items}

	case MethodClearSharedData:
		ok := ch.store.ClearSharedData(ctx)
		outcome := "ok"
		if !ok {
			outcome = "unavailable"
		}
		log.Debug("bridge call", zap.Bool("cleared", ok))
		ch.metrics.BridgeCalls.WithLabelValues(call.Method, outcome).Inc()
		return Result{Value: ok}

	default:
		log.Info("bridge method not implemented")
		ch.metrics.BridgeCalls.WithLabelValues("other", "not_implemented").Inc()
		return NotImplemented
	}
}

// GetSharedData is shorthand for the getSharedData call.
func (ch *Channel) GetSharedData(ctx context.Context) []models.SharedItem {
	items, _ := ch.Handle(ctx, Call{Method: MethodGetSharedData}).Value.([]models.SharedItem)
	return items
}

// ClearSharedData is shorthand for the clearSharedData call.
func (ch *Channel) ClearSharedData(ctx context.Context) bool {
	ok, _ := ch.Handle(ctx, Call{Method: MethodClearSharedData}).Value.(bool)
	return ok
}
