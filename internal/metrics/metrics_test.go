package metrics_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/go-ports/contentvault/internal/metrics"
)

func TestNew_HappyPath(t *testing.T) {
	c := qt.New(t)

	c.Run("instruments are registered and counted", func(c *qt.C) {
		reg := prometheus.NewRegistry()
		m := metrics.New(reg)

		m.ItemsSaved.WithLabelValues("youtube").Inc()
		m.ItemsSaved.WithLabelValues("youtube").Inc()
		m.AttachmentsSkipped.WithLabelValues(metrics.ReasonUnsupported).Inc()
		m.StorageUnavailable.Inc()

		c.Assert(testutil.ToFloat64(m.ItemsSaved.WithLabelValues("youtube")), qt.Equals, 2.0)
		c.Assert(testutil.ToFloat64(m.StorageUnavailable), qt.Equals, 1.0)

		families, err := reg.Gather()
		c.Assert(err, qt.IsNil)
		names := make([]string, 0, len(families))
		for _, f := range families {
			names = append(names, f.GetName())
		}
		c.Assert(names, qt.Contains, "contentvault_items_saved_total")
		c.Assert(names, qt.Contains, "contentvault_attachments_skipped_total")
		c.Assert(names, qt.Contains, "contentvault_storage_unavailable_total")
	})

	c.Run("nil registerer is allowed", func(c *qt.C) {
		m := metrics.New(nil)
		m.BridgeCalls.WithLabelValues("getSharedData", "ok").Inc()
		c.Assert(testutil.ToFloat64(m.BridgeCalls.WithLabelValues("getSharedData", "ok")), qt.Equals, 1.0)
	})

	c.Run("registering twice panics", func(c *qt.C) {
		reg := prometheus.NewRegistry()
		metrics.New(reg)
		c.Assert(func() { metrics.New(reg) }, qt.PanicMatches, ".*duplicate metrics collector registration attempted.*")
	})
}
