package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once              sync.Once
	resolutions       *prom.CounterVec
	fallbacks         *prom.CounterVec
	compileDuration   prom.Histogram
	highlightFallback prom.Counter
	invalidations     *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.resolutions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pillarpress",
			Name:      "content_resolutions_total",
			Help:      "Content resolutions by kind, source and outcome",
		}, []string{"kind", "source", "outcome"})
		pr.fallbacks = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pillarpress",
			Name:      "content_source_fallbacks_total",
			Help:      "Fallbacks from the relational source to the file source",
		}, []string{"reason"})
		pr.compileDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pillarpress",
			Name:      "compile_duration_seconds",
			Help:      "Duration of document compilation",
			Buckets:   prom.DefBuckets,
		})
		pr.highlightFallback = prom.NewCounter(prom.CounterOpts{
			Namespace: "pillarpress",
			Name:      "highlight_fallbacks_total",
			Help:      "Code fences passed through without highlighting",
		})
		pr.invalidations = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pillarpress",
			Name:      "invalidations_published_total",
			Help:      "Stale path notifications by result",
		}, []string{"result"})
		reg.MustRegister(pr.resolutions, pr.fallbacks, pr.compileDuration, pr.highlightFallback, pr.invalidations)
	})
	return pr
}

func (p *PrometheusRecorder) IncResolution(kind, source, outcome string) {
	if p == nil || p.resolutions == nil {
		return
	}
	p.resolutions.WithLabelValues(kind, source, outcome).Inc()
}

func (p *PrometheusRecorder) IncFallback(reason string) {
	if p == nil || p.fallbacks == nil {
		return
	}
	p.fallbacks.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) ObserveCompileDuration(d time.Duration) {
	if p == nil || p.compileDuration == nil {
		return
	}
	p.compileDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncHighlightFallback() {
	if p == nil || p.highlightFallback == nil {
		return
	}
	p.highlightFallback.Inc()
}

func (p *PrometheusRecorder) IncInvalidation(success bool) {
	if p == nil || p.invalidations == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.invalidations.WithLabelValues(res).Inc()
}

// NewRegistry returns a registry with the Go and process collectors installed.
func NewRegistry() *prom.Registry {
	reg := prom.NewRegistry()
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return reg
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		reg = NewRegistry()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
