// Package metrics exposes the Prometheus instrumentation described in spec
// §6, built with promauto the way the teacher repo's metric packages are
// (e.g. internal/metrics/ffmpeg.go), under a "kaleidoscope" namespace in
// place of the teacher's "videonode".
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// tickBuckets are 10 exponential buckets starting at 100µs with growth
// factor sqrt(1.5), matching the original implementation's prom.rs almost
// verbatim.
func tickBuckets() []float64 {
	return prometheus.ExponentialBuckets(0.0001, 1.224744871391589, 10)
}

var (
	// LoadedPrograms reports how many programs are loaded across all
	// fixtures.
	LoadedPrograms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "kaleidoscope",
		Name:      "loaded_programs",
		Help:      "Number of programs currently loaded across all fixtures.",
	})

	// ActivePrograms reports how many fixtures currently have an active
	// (non-default) program selected.
	ActivePrograms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "kaleidoscope",
		Name:      "active_programs",
		Help:      "Number of fixtures with a non-default active program.",
	})

	// TickDuration records the wall-clock time spent computing one tick
	// across all fixtures, excluding the upstream POST.
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kaleidoscope",
		Name:      "tick_duration_seconds",
		Help:      "Time spent computing one scheduler tick.",
		Buckets:   tickBuckets(),
	})

	// SendDuration records the wall-clock time spent posting a tick's
	// set-requests upstream.
	SendDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kaleidoscope",
		Name:      "send_duration_seconds",
		Help:      "Time spent posting a tick's set-requests upstream.",
		Buckets:   tickBuckets(),
	})

	// TicksFailedTotal counts ticks whose upstream POST failed (spec §4.7
	// step 5).
	TicksFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kaleidoscope",
		Name:      "ticks_failed_total",
		Help:      "Total number of ticks whose upstream POST failed.",
	})

	// EventsProcessedTotal is the monotonic events-processed counter the
	// ingester increments for every decoded message that is not a Config
	// message (spec §4.8 step 1); messages that fail to decode are not
	// counted.
	EventsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kaleidoscope",
		Name:      "events_processed_total",
		Help:      "Total number of events applied by the ingester.",
	})
)
