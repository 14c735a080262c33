package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// SignalMetrics labels generated metric records.
	SignalMetrics = "metrics"
	// SignalLogs labels generated log records.
	SignalLogs = "logs"
	// SignalTraces labels generated trace records.
	SignalTraces = "traces"
	// SignalEvents labels generated event records.
	SignalEvents = "events"

	// RolePrimary labels scheduled root-cause incidents.
	RolePrimary = "primary"
	// RoleCascading labels scheduled downstream incidents.
	RoleCascading = "cascading"
)

var (
	recordsGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meltsim",
			Name:      "records_generated_total",
			Help:      "Total number of records generated, partitioned by signal kind.",
		},
		[]string{"signal"},
	)

	incidentsScheduledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meltsim",
			Name:      "incidents_scheduled_total",
			Help:      "Total number of incidents scheduled, partitioned by type and role.",
		},
		[]string{"type", "role"},
	)

	dayGenerationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "meltsim",
			Name:      "day_generation_seconds",
			Help:      "Wall-clock time to generate and persist one simulated day.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)
)

// Register attaches meltsim collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		recordsGeneratedTotal,
		incidentsScheduledTotal,
		dayGenerationSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// CountRecords adds generated record counts for a signal kind.
func CountRecords(signal string, n int) {
	if n <= 0 {
		return
	}
	recordsGeneratedTotal.WithLabelValues(signal).Add(float64(n))
}

// CountIncident records one scheduled incident.
func CountIncident(incidentType string, primary bool) {
	role := RoleCascading
	if primary {
		role = RolePrimary
	}
	incidentsScheduledTotal.WithLabelValues(incidentType, role).Inc()
}

// ObserveDayGeneration records the wall-clock duration of one simulated day.
func ObserveDayGeneration(duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	dayGenerationSeconds.Observe(duration.Seconds())
}
