package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain metrics for the terminal session itself. pkg/usage already accounts for per-history-entry
// byte/truncation bookkeeping the app needs internally (see
// Applier.observeStream); these are the subset worth exporting to an
// operator watching a running session from the outside.
var (
	// DispatchEventsTotal counts events flowing through the Event
	// Dispatcher's priority queue, by Kind.
	DispatchEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tuichat_dispatch_events_total",
			Help: "Events posted to the dispatcher's queue",
		},
		[]string{"kind"},
	)

	// TermRunExecsTotal counts Terminal Run Pool execs by backend and
	// outcome ("started", "exited", "failed").
	TermRunExecsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tuichat_termrun_execs_total",
			Help: "Terminal run pool execs by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	// TermRunDuration records exec wall-clock duration by backend.
	TermRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tuichat_termrun_duration_seconds",
			Help:    "Terminal run exec duration",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
		},
		[]string{"backend"},
	)
)

func init() {
	prometheus.MustRegister(DispatchEventsTotal, TermRunExecsTotal, TermRunDuration)
}
