package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	sessionSaves    *prom.CounterVec
	captureDuration prom.Histogram
	restoreOutcomes *prom.CounterVec
	restoreDuration prom.Histogram
	protocolErrors  prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.sessionSaves = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "nirinit",
			Name:      "session_saves_total",
			Help:      "Autosave ticks by result (written or skipped as unchanged)",
		}, []string{"result"})
		pr.captureDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "nirinit",
			Name:      "capture_duration_seconds",
			Help:      "Duration of live state capture",
			Buckets:   prom.DefBuckets,
		})
		pr.restoreOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "nirinit",
			Name:      "restore_entries_total",
			Help:      "Restore worklist entries by terminal state",
		}, []string{"state"})
		pr.restoreDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "nirinit",
			Name:      "restore_pass_duration_seconds",
			Help:      "Total restore pass duration",
			Buckets:   prom.DefBuckets,
		})
		pr.protocolErrors = prom.NewCounter(prom.CounterOpts{
			Namespace: "nirinit",
			Name:      "protocol_errors_total",
			Help:      "Compositor IPC failures",
		})
		reg.MustRegister(pr.sessionSaves, pr.captureDuration, pr.restoreOutcomes, pr.restoreDuration, pr.protocolErrors)
	})
	return pr
}

func (pr *PrometheusRecorder) IncSessionSaved() {
	pr.sessionSaves.WithLabelValues("written").Inc()
}

func (pr *PrometheusRecorder) IncSessionSaveSkipped() {
	pr.sessionSaves.WithLabelValues("skipped").Inc()
}

func (pr *PrometheusRecorder) ObserveCaptureDuration(d time.Duration) {
	pr.captureDuration.Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncRestoreOutcome(outcome RestoreOutcome) {
	pr.restoreOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (pr *PrometheusRecorder) ObserveRestorePassDuration(d time.Duration) {
	pr.restoreDuration.Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncProtocolError() {
	pr.protocolErrors.Inc()
}
