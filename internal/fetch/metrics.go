package fetch

import "github.com/prometheus/client_golang/prometheus"

var fetchAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "labportal_fetch_attempts_total",
		Help: "Backoff fetch attempts by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

func init() {
	prometheus.MustRegister(fetchAttempts)
}
