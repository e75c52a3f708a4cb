package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name unless configured otherwise.
const DefaultNamespace = "steptimer"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	timersStarted    prom.Counter
	timersEnded      *prom.CounterVec
	runDuration      prom.Histogram
	stepsStarted     *prom.CounterVec
	runningTimers    prom.Gauge
	schedulerFires   *prom.CounterVec
	broadcastFailure *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg. A nil reg gets a
// fresh registry; an empty namespace means DefaultNamespace.
func NewPrometheusRecorder(reg *prom.Registry, namespace string) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	pr := &PrometheusRecorder{
		timersStarted: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "timers_started_total",
			Help:      "Timer runs that began",
		}),
		timersEnded: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "timers_ended_total",
			Help:      "Timer runs that ended, by outcome",
		}, []string{"outcome"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of recorded timer runs",
			Buckets:   prom.ExponentialBuckets(30, 2, 10),
		}),
		stepsStarted: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "steps_started_total",
			Help:      "Steps started, by step type",
		}, []string{"type"}),
		runningTimers: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "running_timers",
			Help:      "Timers currently loaded in the engine",
		}),
		schedulerFires: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_fires_total",
			Help:      "Schedulers fired, by action",
		}, []string{"action"}),
		broadcastFailure: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_failures_total",
			Help:      "Event broadcasts that failed after retries, by kind",
		}, []string{"kind"}),
	}
	reg.MustRegister(pr.timersStarted, pr.timersEnded, pr.runDuration, pr.stepsStarted,
		pr.runningTimers, pr.schedulerFires, pr.broadcastFailure)
	return pr
}

func (p *PrometheusRecorder) IncTimerStarted() {
	if p == nil {
		return
	}
	p.timersStarted.Inc()
}

func (p *PrometheusRecorder) IncTimerEnded(outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.timersEnded.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepStarted(stepType string) {
	if p == nil {
		return
	}
	p.stepsStarted.WithLabelValues(stepType).Inc()
}

func (p *PrometheusRecorder) SetRunningTimers(n int) {
	if p == nil {
		return
	}
	p.runningTimers.Set(float64(n))
}

func (p *PrometheusRecorder) IncSchedulerFire(action string) {
	if p == nil {
		return
	}
	p.schedulerFires.WithLabelValues(action).Inc()
}

func (p *PrometheusRecorder) IncBroadcastFailure(kind string) {
	if p == nil {
		return
	}
	p.broadcastFailure.WithLabelValues(kind).Inc()
}
