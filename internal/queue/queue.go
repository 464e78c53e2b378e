// Package queue implements the shared item queue as a single-writer
// service. One goroutine owns every read and write of the serialized list,
// so concurrent appends from independent attachment loads are applied one
// after another instead of racing on a read-modify-write.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/go-ports/contentvault/internal/db"
	"github.com/go-ports/contentvault/internal/models"
)

// DefaultKey is the storage key holding the serialized queue.
const DefaultKey = "ShareMedia"

// ErrClosed is returned by operations on a closed Queue.
var ErrClosed = errors.New("queue closed")

// Backend is the storage area the queue persists into.
// *appgroup.Suite satisfies it.
type Backend interface {
	Data(key string) ([]byte, bool, error)
	Update(key string, fn db.UpdateFunc) error
	RemoveObject(key string) error
}

// Option configures a Queue.
type Option func(*Queue)

// WithKey overrides DefaultKey.
func WithKey(key string) Option { return func(q *Queue) { q.key = key } }

// WithLogger sets the logger used for degraded reads.
func WithLogger(l *zap.Logger) Option { return func(q *Queue) { q.logger = l } }

// WithReclassifier sets the function used to categorize legacy records.
func WithReclassifier(fn models.Reclassifier) Option {
	return func(q *Queue) { q.reclassify = fn }
}

type opKind int

const (
	opAppend opKind = iota
	opAll
	opClear
)

type request struct {
	op    opKind
	items []models.SharedItem
	reply chan response
}

type response struct {
	items []models.SharedItem
	err   error
}

// Queue serializes all access to one key of a Backend.
type Queue struct {
	key        string
	backend    Backend
	logger     *zap.Logger
	reclassify models.Reclassifier

	reqs      chan request
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// New starts the queue's owner goroutine. Call Close to stop it.
func New(backend Backend, opts ...Option) *Queue {
	q := &Queue{
		key:     DefaultKey,
		backend: backend,
		logger:  zap.NewNop(),
		reqs:    make(chan request),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	go q.run()
	return q
}

// Key returns the storage key the queue persists under.
func (q *Queue) Key() string { return q.key }

// Append adds item to the end of the queue.
func (q *Queue) Append(ctx context.Context, item models.SharedItem) error {
	return q.AppendAll(ctx, []models.SharedItem{item})
}

// AppendAll adds items, in order, to the end of the queue in one write.
func (q *Queue) AppendAll(ctx context.Context, items []models.SharedItem) error {
	if len(items) == 0 {
		return nil
	}
	_, err := q.do(ctx, request{op: opAppend, items: items})
	return err
}

// All returns every item in the queue in append order. An absent or
// unreadable value yields an empty slice.
func (q *Queue) All(ctx context.Context) ([]models.SharedItem, error) {
	return q.do(ctx, request{op: opAll})
}

// Len returns the number of queued items.
func (q *Queue) Len(ctx context.Context) (int, error) {
	items, err := q.All(ctx)
	return len(items), err
}

// Clear removes the stored queue entirely.
func (q *Queue) Clear(ctx context.Context) error {
	_, err := q.do(ctx, request{op: opClear})
	return err
}

// Close stops the owner goroutine after the request in progress, if any.
// It is safe to call more than once.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() { close(q.quit) })
	<-q.stopped
	return nil
}

func (q *Queue) do(ctx context.Context, req request) ([]models.SharedItem, error) {
	req.reply = make(chan response, 1)
	select {
	case q.reqs <- req:
	case <-q.quit:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	// The owner always answers an accepted request, so the result is
	// awaited even if ctx ends: the write may already be committed.
	resp := <-req.reply
	return resp.items, resp.err
}

func (q *Queue) run() {
	defer close(q.stopped)
	for {
		select {
		case <-q.quit:
			return
		case req := <-q.reqs:
			req.reply <- q.handle(req)
		}
	}
}

func (q *Queue) handle(req request) response {
	switch req.op {
	case opAppend:
		err := q.backend.Update(q.key, func(cur []byte, _ bool) ([]byte, error) {
			items := q.decode(cur)
			items = append(items, req.items...)
			return models.EncodeQueue(items)
		})
		if err != nil {
			return response{err: fmt.Errorf("queue.Append: %w", err)}
		}
		return response{}
	case opAll:
		data, ok, err := q.backend.Data(q.key)
		if err != nil {
			return response{err: fmt.Errorf("queue.All: %w", err)}
		}
		if !ok {
			return response{items: make([]models.SharedItem, 0)}
		}
		return response{items: q.decode(data)}
	case opClear:
		if err := q.backend.RemoveObject(q.key); err != nil {
			return response{err: fmt.Errorf("queue.Clear: %w", err)}
		}
		return response{}
	default:
		return response{err: fmt.Errorf("queue: unknown op %d", req.op)}
	}
}

// decode parses a stored value, treating an unreadable value as empty.
func (q *Queue) decode(data []byte) []models.SharedItem {
	items, err := models.DecodeQueue(data, q.reclassify)
	if err != nil {
		q.logger.Warn("stored queue unreadable, treating as empty",
			zap.String("key", q.key), zap.Error(err))
		return make([]models.SharedItem, 0)
	}
	return items
}
