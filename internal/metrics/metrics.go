// Package metrics defines the Prometheus instruments for ingestion and the
// bridge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Skip reasons recorded by AttachmentsSkipped.
const (
	ReasonLoadFailed  = "load_failed"
	ReasonUnsupported = "unsupported"
	ReasonDropped     = "dropped"
)

// Metrics groups all Prometheus instruments used across the application.
type Metrics struct {
	ItemsSaved         *prometheus.CounterVec
	AttachmentsSkipped *prometheus.CounterVec
	BridgeCalls        *prometheus.CounterVec
	StorageUnavailable prometheus.Counter
	ShareActions       *prometheus.CounterVec
}

// New registers all instruments with reg and returns them. A nil reg
// registers nothing, which is what tests and one-shot commands use.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ItemsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contentvault_items_saved_total",
			Help: "Shared items appended to the queue, by category.",
		}, []string{"category"}),

		AttachmentsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contentvault_attachments_skipped_total",
			Help: "Attachments that produced no item, by reason.",
		}, []string{"reason"}),

		BridgeCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contentvault_bridge_calls_total",
			Help: "Bridge method calls, by method and outcome.",
		}, []string{"method", "outcome"}),

		StorageUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contentvault_storage_unavailable_total",
			Help: "Operations that found the app group storage unavailable.",
		}),

		ShareActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contentvault_share_actions_total",
			Help: "Share actions handled, by result (completed or cancelled).",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ItemsSaved,
			m.AttachmentsSkipped,
			m.BridgeCalls,
			m.StorageUnavailable,
			m.ShareActions,
		)
	}
	return m
}
