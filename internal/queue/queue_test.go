package queue_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/contentvault/internal/appgroup"
	"github.com/go-ports/contentvault/internal/classify"
	"github.com/go-ports/contentvault/internal/db"
	"github.com/go-ports/contentvault/internal/models"
	"github.com/go-ports/contentvault/internal/queue"
)

func newQueue(c *qt.C, backend queue.Backend, opts ...queue.Option) *queue.Queue {
	q := queue.New(backend, opts...)
	c.Cleanup(func() { _ = q.Close() })
	return q
}

func item(path string) models.SharedItem {
	return models.NewSharedItem(path, classify.Category(path))
}

// gatedBackend blocks every Update until release is closed.
type gatedBackend struct {
	*queue.MemoryBackend
	entered chan struct{}
	release chan struct{}
}

func (g *gatedBackend) Update(key string, fn db.UpdateFunc) error {
	g.entered <- struct{}{}
	<-g.release
	return g.MemoryBackend.Update(key, fn)
}

// failingBackend fails every operation.
type failingBackend struct{ err error }

func (f failingBackend) Data(string) ([]byte, bool, error)  { return nil, false, f.err }
func (f failingBackend) Update(string, db.UpdateFunc) error { return f.err }
func (f failingBackend) RemoveObject(string) error          { return f.err }

// ---------------------------------------------------------------------------
// Append / All
// ---------------------------------------------------------------------------

func TestAppendAll_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Run("empty queue reads as empty slice", func(c *qt.C) {
		q := newQueue(c, queue.NewMemoryBackend())
		items, err := q.All(ctx)
		c.Assert(err, qt.IsNil)
		c.Assert(items, qt.IsNotNil)
		c.Assert(items, qt.HasLen, 0)
	})

	c.Run("sequential appends keep order", func(c *qt.C) {
		q := newQueue(c, queue.NewMemoryBackend())
		want := make([]models.SharedItem, 0, 5)
		for i := 0; i < 5; i++ {
			it := item(fmt.Sprintf("https://example.com/%d", i))
			c.Assert(q.Append(ctx, it), qt.IsNil)
			want = append(want, it)
		}
		got, err := q.All(ctx)
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.DeepEquals, want)

		n, err := q.Len(ctx)
		c.Assert(err, qt.IsNil)
		c.Assert(n, qt.Equals, 5)
	})

	c.Run("append all writes a batch in order", func(c *qt.C) {
		q := newQueue(c, queue.NewMemoryBackend())
		batch := []models.SharedItem{item("https://x.com/a"), item("hello")}
		c.Assert(q.AppendAll(ctx, batch), qt.IsNil)
		c.Assert(q.AppendAll(ctx, nil), qt.IsNil)
		got, err := q.All(ctx)
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.DeepEquals, batch)
	})

	c.Run("custom key is honoured", func(c *qt.C) {
		backend := queue.NewMemoryBackend()
		q := newQueue(c, backend, queue.WithKey("Other"))
		c.Assert(q.Key(), qt.Equals, "Other")
		c.Assert(q.Append(ctx, item("p")), qt.IsNil)
		_, ok, _ := backend.Data("Other")
		c.Assert(ok, qt.IsTrue)
		_, ok, _ = backend.Data(queue.DefaultKey)
		c.Assert(ok, qt.IsFalse)
	})

	c.Run("legacy records are normalized on read", func(c *qt.C) {
		backend := queue.NewMemoryBackend()
		backend.Set(queue.DefaultKey, []byte(`[{"path":"https://threads.net/p","type":0,"thumbnail":null,"duration":null}]`))
		q := newQueue(c, backend, queue.WithReclassifier(classify.Category))
		got, err := q.All(ctx)
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.DeepEquals, []models.SharedItem{
			{Path: "https://threads.net/p", Type: models.CategoryThreads},
		})
	})

	c.Run("corrupt value reads empty and is replaced on append", func(c *qt.C) {
		backend := queue.NewMemoryBackend()
		backend.Set(queue.DefaultKey, []byte("garbage"))
		q := newQueue(c, backend)

		got, err := q.All(ctx)
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.HasLen, 0)

		c.Assert(q.Append(ctx, item("p")), qt.IsNil)
		got, err = q.All(ctx)
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.HasLen, 1)
	})
}

func TestAppend_Concurrent(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	suite, err := appgroup.Open(t.TempDir(), "group.test.queue")
	c.Assert(err, qt.IsNil)
	defer suite.Close()

	q := newQueue(c, suite)
	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Check(q.Append(ctx, item(fmt.Sprintf("https://example.com/%d", i))), qt.IsNil)
		}(i)
	}
	wg.Wait()

	got, err := q.All(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.HasLen, n)
}

func TestAppend_TwoQueuesSameStorage(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	home := t.TempDir()

	open := func() *queue.Queue {
		s, err := appgroup.Open(home, "group.test.twoprocs")
		c.Assert(err, qt.IsNil)
		c.Cleanup(func() { _ = s.Close() })
		return newQueue(c, s)
	}
	extension, host := open(), open()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.Check(extension.Append(ctx, item(fmt.Sprintf("a%d", i))), qt.IsNil)
		}(i)
		go func(i int) {
			defer wg.Done()
			c.Check(host.Append(ctx, item(fmt.Sprintf("b%d", i))), qt.IsNil)
		}(i)
	}
	wg.Wait()

	got, err := host.All(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.HasLen, 20)
}

// ---------------------------------------------------------------------------
// Clear
// ---------------------------------------------------------------------------

func TestClear_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	suite, err := appgroup.Open(filepath.Join(t.TempDir(), "home"), appgroup.DefaultGroupID)
	c.Assert(err, qt.IsNil)
	defer suite.Close()
	q := newQueue(c, suite)

	c.Assert(q.Append(ctx, item("one")), qt.IsNil)
	c.Assert(q.Clear(ctx), qt.IsNil)

	got, err := q.All(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.HasLen, 0)

	keys, err := suite.Keys()
	c.Assert(err, qt.IsNil)
	c.Assert(keys, qt.HasLen, 0)

	c.Run("clearing an empty queue succeeds", func(c *qt.C) {
		c.Assert(q.Clear(ctx), qt.IsNil)
	})
}

// ---------------------------------------------------------------------------
// Failure paths
// ---------------------------------------------------------------------------

func TestQueue_FailurePath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Run("backend errors are wrapped", func(c *qt.C) {
		boom := errors.New("disk gone")
		q := newQueue(c, failingBackend{err: boom})

		err := q.Append(ctx, item("p"))
		c.Assert(errors.Is(err, boom), qt.IsTrue)
		c.Assert(err, qt.ErrorMatches, "queue.Append: .*")

		_, err = q.All(ctx)
		c.Assert(errors.Is(err, boom), qt.IsTrue)

		err = q.Clear(ctx)
		c.Assert(errors.Is(err, boom), qt.IsTrue)
	})

	c.Run("closed queue rejects requests", func(c *qt.C) {
		q := queue.New(queue.NewMemoryBackend())
		c.Assert(q.Close(), qt.IsNil)
		c.Assert(q.Close(), qt.IsNil)

		err := q.Append(ctx, item("p"))
		c.Assert(errors.Is(err, queue.ErrClosed), qt.IsTrue)
	})

	c.Run("cancelled context while owner is busy", func(c *qt.C) {
		g := &gatedBackend{
			MemoryBackend: queue.NewMemoryBackend(),
			entered:       make(chan struct{}, 1),
			release:       make(chan struct{}),
		}
		q := newQueue(c, g)

		done := make(chan error, 1)
		go func() { done <- q.Append(ctx, item("first")) }()
		<-g.entered

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := q.Append(cctx, item("second"))
		c.Assert(errors.Is(err, context.Canceled), qt.IsTrue)

		close(g.release)
		c.Assert(<-done, qt.IsNil)

		got, err := q.All(ctx)
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.HasLen, 1)
	})
}
