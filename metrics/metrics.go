package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	EntriesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "lsr_entries_created_total", Help: "Total run entries created"},
	)
	EventJoins = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "lsr_event_joins_total", Help: "Total successful event joins"},
	)
	PolicyRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "lsr_policy_rejections_total", Help: "Total policy check rejections"},
		[]string{"check"},
	)
)

func Register() {
	prometheus.MustRegister(EntriesCreated, EventJoins, PolicyRejections)
}
