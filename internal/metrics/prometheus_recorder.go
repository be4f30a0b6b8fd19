package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "pub"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	compileDuration prom.Histogram
	compileOutcome  *prom.CounterVec
	artifacts       prom.Gauge
	fileFailures    *prom.CounterVec
	reloads         prom.Counter
	reloadClients   prom.Gauge
	requests        *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		compileDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Duration of full compile passes",
			Buckets:   prom.DefBuckets,
		}),
		compileOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "compile_outcomes_total",
			Help:      "Compile passes by outcome",
		}, []string{"outcome"}),
		artifacts: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "artifacts",
			Help:      "Artifacts produced by the last compile pass",
		}),
		fileFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "file_failures_total",
			Help:      "Per-file transform failures by source extension",
		}, []string{"ext"}),
		reloads: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "livereload_broadcasts_total",
			Help:      "Reload notifications broadcast to browsers",
		}),
		reloadClients: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "livereload_clients",
			Help:      "Connected live-reload clients",
		}),
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Dev server responses by status code",
		}, []string{"code"}),
	}
	reg.MustRegister(pr.compileDuration, pr.compileOutcome, pr.artifacts, pr.fileFailures, pr.reloads, pr.reloadClients, pr.requests)
	return pr
}

func (p *PrometheusRecorder) ObserveCompileDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.compileDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCompileOutcome(outcome CompileOutcome) {
	if p == nil {
		return
	}
	p.compileOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetArtifacts(n int) {
	if p == nil {
		return
	}
	p.artifacts.Set(float64(n))
}

func (p *PrometheusRecorder) IncFileFailure(ext string) {
	if p == nil {
		return
	}
	p.fileFailures.WithLabelValues(ext).Inc()
}

func (p *PrometheusRecorder) IncReloadBroadcast() {
	if p == nil {
		return
	}
	p.reloads.Inc()
}

func (p *PrometheusRecorder) SetLiveReloadClients(n int) {
	if p == nil {
		return
	}
	p.reloadClients.Set(float64(n))
}

func (p *PrometheusRecorder) IncRequest(status int) {
	if p == nil {
		return
	}
	p.requests.WithLabelValues(strconv.Itoa(status)).Inc()
}
