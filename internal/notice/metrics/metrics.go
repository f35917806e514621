package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the notice domain.
type Metrics struct {
	NoticesPosted       prometheus.Counter
	SubmissionsRejected prometheus.Counter
	AllowListDenied     prometheus.Counter
	SnapshotsDelivered  prometheus.Counter
	WatchErrors         prometheus.Counter
}

// New creates and registers all notice metrics.
func New() *Metrics {
	return &Metrics{
		NoticesPosted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusboard_notices_posted_total",
			Help: "Total number of notices posted to the board",
		}),
		SubmissionsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusboard_notice_submissions_rejected_total",
			Help: "Total number of notice submissions rejected by validation",
		}),
		AllowListDenied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusboard_notice_allowlist_denied_total",
			Help: "Total number of notice submissions denied by the admin allow-list",
		}),
		SnapshotsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusboard_notice_snapshots_delivered_total",
			Help: "Total number of notice subscription snapshots delivered",
		}),
		WatchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusboard_notice_watch_errors_total",
			Help: "Total number of notice subscription errors",
		}),
	}
}

func (m *Metrics) IncNoticesPosted() {
	if m != nil {
		m.NoticesPosted.Inc()
	}
}

func (m *Metrics) IncSubmissionsRejected() {
	if m != nil {
		m.SubmissionsRejected.Inc()
	}
}

func (m *Metrics) IncAllowListDenied() {
	if m != nil {
		m.AllowListDenied.Inc()
	}
}

func (m *Metrics) IncSnapshotsDelivered() {
	if m != nil {
		m.SnapshotsDelivered.Inc()
	}
}

func (m *Metrics) IncWatchErrors() {
	if m != nil {
		m.WatchErrors.Inc()
	}
}
