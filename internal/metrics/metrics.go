package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobboard",
			Subsystem: "intake",
			Name:      "submissions_total",
			Help:      "Total number of job submissions by outcome",
		},
		[]string{"result"},
	)
	NotificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobboard",
			Subsystem: "intake",
			Name:      "notification_failures_total",
			Help:      "Total number of notifications that could not be delivered",
		},
		[]string{"template"},
	)
	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobboard",
			Subsystem: "lifecycle",
			Name:      "status_transitions_total",
			Help:      "Total number of posting status transitions applied",
		},
		[]string{"from", "to"},
	)
	Sweeps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobboard",
			Subsystem: "lifecycle",
			Name:      "sweeps_total",
			Help:      "Total number of expiration sweeps by outcome",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// Register adds the collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(Submissions, NotificationFailures, StatusTransitions, Sweeps)
	})
}
