// Package ingest converts a share action's attachments into shared items.
//
// Every attachment is loaded and appended by its own goroutine. The handler
// joins all of them before signalling completion to the extension host, so
// no in-flight append outlives the request.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/go-ports/contentvault/internal/classify"
	"github.com/go-ports/contentvault/internal/extension"
	"github.com/go-ports/contentvault/internal/metrics"
	"github.com/go-ports/contentvault/internal/models"
)

// ErrCancelled is passed to the host when the user cancels a share action.
var ErrCancelled = errors.New("share cancelled by user")

// DefaultLoadTimeout bounds a single attachment load.
const DefaultLoadTimeout = 5 * time.Second

// Sink receives the items produced by ingestion.
// *service.Service and *queue.Queue satisfy it.
type Sink interface {
	Append(ctx context.Context, item models.SharedItem) error
}

// Outcome describes what happened to one attachment.
type Outcome int

// Attachment outcomes.
const (
	OutcomeSaved Outcome = iota
	OutcomeLoadFailed
	OutcomeUnsupported
	OutcomeDropped // loaded, but the append failed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSaved:
		return "saved"
	case OutcomeLoadFailed:
		return "load_failed"
	case OutcomeUnsupported:
		return "unsupported"
	case OutcomeDropped:
		return "dropped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the per-attachment record of a share action.
type Result struct {
	Index   int
	Outcome Outcome
	Item    models.SharedItem // set when the attachment loaded
	Err     error
}

// Report summarizes one share action, in attachment order.
type Report struct {
	Results []Result
}

// Count returns how many attachments ended with o.
func (r Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Saved returns the items appended, in attachment order.
func (r Report) Saved() []models.SharedItem {
	items := make([]models.SharedItem, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Outcome == OutcomeSaved {
			items = append(items, res.Item)
		}
	}
	return items
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option { return func(h *Handler) { h.logger = l } }

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option { return func(h *Handler) { h.metrics = m } }

// WithLoadTimeout overrides DefaultLoadTimeout.
func WithLoadTimeout(d time.Duration) Option { return func(h *Handler) { h.loadTimeout = d } }

// Handler is the share extension's entry point.
type Handler struct {
	sink        Sink
	logger      *zap.Logger
	metrics     *metrics.Metrics
	loadTimeout time.Duration
}

// New returns a Handler appending into sink.
func New(sink Sink, opts ...Option) *Handler {
	h := &Handler{
		sink:        sink,
		logger:      zap.NewNop(),
		loadTimeout: DefaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.metrics == nil {
		h.metrics = metrics.New(nil)
	}
	return h
}

// IsContentValid reports whether the post button may be enabled. Any
// content is accepted; unusable attachments are skipped at ingestion.
func (*Handler) IsContentValid() bool { return true }

// DidSelectPost ingests every attachment of ext, waits for all of them, and
// then completes the request. It never fails: per-attachment problems are
// logged and reported.
func (h *Handler) DidSelectPost(ctx context.Context, ext extension.Context) Report {
	attachments := ext.Attachments()
	h.logger.Debug("share action", zap.Int("attachments", len(attachments)))

	results := make([]Result, len(attachments))
	var g errgroup.Group
	for i, att := range attachments {
		g.Go(func() error {
			results[i] = h.ingest(ctx, i, att)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Results: results}
	h.logger.Info("share action complete",
		zap.Int("attachments", len(attachments)),
		zap.Int("saved", report.Count(OutcomeSaved)),
		zap.Int("load_failed", report.Count(OutcomeLoadFailed)),
		zap.Int("unsupported", report.Count(OutcomeUnsupported)),
		zap.Int("dropped", report.Count(OutcomeDropped)),
	)
	h.metrics.ShareActions.WithLabelValues("completed").Inc()
	ext.CompleteRequest()
	return report
}

// DidCancel releases the extension context without writing anything.
func (h *Handler) DidCancel(ext extension.Context) {
	h.logger.Info("share action cancelled")
	h.metrics.ShareActions.WithLabelValues("cancelled").Inc()
	ext.CancelRequest(ErrCancelled)
}

// ingest loads one attachment and appends its item.
func (h *Handler) ingest(ctx context.Context, idx int, att extension.Attachment) Result {
	log := h.logger.With(zap.Int("attachment", idx))
	log.Debug("attachment type identifiers", zap.Strings("types", att.TypeIdentifiers()))

	payload, err := h.load(ctx, att)
	if err != nil {
		outcome, reason := OutcomeLoadFailed, metrics.ReasonLoadFailed
		if errors.Is(err, extension.ErrUnsupported) {
			outcome, reason = OutcomeUnsupported, metrics.ReasonUnsupported
		}
		log.Info("attachment skipped", zap.Stringer("outcome", outcome), zap.Error(err))
		h.metrics.AttachmentsSkipped.WithLabelValues(reason).Inc()
		return Result{Index: idx, Outcome: outcome, Err: err}
	}

	path := payload.String()
	item := models.NewSharedItem(path, classify.Category(path))
	log.Debug("attachment loaded",
		zap.Stringer("kind", payload.Kind),
		zap.String("path", path),
		zap.String("type", string(item.Type)))

	if err := h.sink.Append(ctx, item); err != nil {
		log.Warn("shared item dropped", zap.String("path", path), zap.Error(err))
		h.metrics.AttachmentsSkipped.WithLabelValues(metrics.ReasonDropped).Inc()
		return Result{Index: idx, Outcome: OutcomeDropped, Item: item, Err: err}
	}
	return Result{Index: idx, Outcome: OutcomeSaved, Item: item}
}

// load picks the representation to request from the declared identifiers:
// URL first, then text, then a plain-text attempt as a last resort.
func (h *Handler) load(ctx context.Context, att extension.Attachment) (extension.Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, h.loadTimeout)
	defer cancel()

	types := att.TypeIdentifiers()
	switch {
	case extension.HasItemConformingTo(types, extension.TypeURL):
		return expect(att.Load(ctx, extension.TypeURL))(extension.KindURL)
	case extension.HasItemConformingTo(types, extension.TypePlainText):
		return expect(att.Load(ctx, extension.TypePlainText))(extension.KindText)
	case extension.HasItemConformingTo(types, extension.TypeText):
		return expect(att.Load(ctx, extension.TypeText))(extension.KindText)
	default:
		p, err := att.Load(ctx, extension.TypePlainText)
		if err != nil || p.Kind != extension.KindText {
			return extension.Payload{}, fmt.Errorf("%w: declared %v", extension.ErrUnsupported, types)
		}
		return p, nil
	}
}

// expect narrows a load result to kind.
func expect(p extension.Payload, err error) func(extension.Kind) (extension.Payload, error) {
	return func(kind extension.Kind) (extension.Payload, error) {
		if err != nil {
			if errors.Is(err, extension.ErrLoadFailed) {
				return extension.Payload{}, err
			}
			return extension.Payload{}, fmt.Errorf("%w: %w", extension.ErrLoadFailed, err)
		}
		if p.Kind != kind {
			return extension.Payload{}, fmt.Errorf("%w: got %s, want %s", extension.ErrLoadFailed, p.Kind, kind)
		}
		return p, nil
	}
}
