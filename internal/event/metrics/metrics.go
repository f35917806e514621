package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the event domain.
type Metrics struct {
	EventsCreated       prometheus.Counter
	SubmissionsRejected prometheus.Counter
	DuplicatesIgnored   prometheus.Counter
	SnapshotsDelivered  prometheus.Counter
	WatchErrors         prometheus.Counter
}

// New creates and registers all event metrics.
func New() *Metrics {
	return &Metrics{
		EventsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusboard_events_created_total",
			Help: "Total number of events created through the submission flow",
		}),
		SubmissionsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusboard_event_submissions_rejected_total",
			Help: "Total number of event submissions rejected by validation",
		}),
		DuplicatesIgnored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusboard_event_duplicates_ignored_total",
			Help: "Total number of duplicate event submissions ignored by the guard",
		}),
		SnapshotsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusboard_event_snapshots_delivered_total",
			Help: "Total number of event subscription snapshots delivered",
		}),
		WatchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusboard_event_watch_errors_total",
			Help: "Total number of event subscription errors",
		}),
	}
}

func (m *Metrics) IncEventsCreated() {
	if m != nil {
		m.EventsCreated.Inc()
	}
}

func (m *Metrics) IncSubmissionsRejected() {
	if m != nil {
		m.SubmissionsRejected.Inc()
	}
}

func (m *Metrics) IncDuplicatesIgnored() {
	if m != nil {
		m.DuplicatesIgnored.Inc()
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
