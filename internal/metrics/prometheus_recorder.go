package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	fileOps        *prom.CounterVec
	derefDuration  prom.Histogram
	derefFiles     prom.Counter
	cacheLookups   *prom.CounterVec
	cacheEvictions *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.fileOps = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docfs",
			Name:      "file_operations_total",
			Help:      "File layer operations by kind, backend and result",
		}, []string{"op", "backend", "result"})
		pr.derefDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docfs",
			Name:      "dereference_duration_seconds",
			Help:      "Duration of manifest dereference passes",
			Buckets:   prom.DefBuckets,
		})
		pr.derefFiles = prom.NewCounter(prom.CounterOpts{
			Namespace: "docfs",
			Name:      "dereferenced_files_total",
			Help:      "Linked manifest entries materialized into real files",
		})
		pr.cacheLookups = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docfs",
			Name:      "cache_lookups_total",
			Help:      "Incremental cache lookups by outcome",
		}, []string{"result"})
		pr.cacheEvictions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docfs",
			Name:      "cache_evictions_total",
			Help:      "Incremental cache entries removed by cleanup",
		}, []string{"reason"})
		reg.MustRegister(pr.fileOps, pr.derefDuration, pr.derefFiles, pr.cacheLookups, pr.cacheEvictions)
	})
	return pr
}

func (p *PrometheusRecorder) IncFileOp(op FileOp, backend string, result ResultLabel) {
	if p == nil || p.fileOps == nil {
		return
	}
	p.fileOps.WithLabelValues(string(op), backend, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveDereference(d time.Duration, files int) {
	if p == nil || p.derefDuration == nil {
		return
	}
	p.derefDuration.Observe(d.Seconds())
	p.derefFiles.Add(float64(files))
}

func (p *PrometheusRecorder) IncCacheLookup(result CacheResult) {
	if p == nil || p.cacheLookups == nil {
		return
	}
	p.cacheLookups.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) AddCacheEvictions(reason string, n int) {
	if p == nil || p.cacheEvictions == nil || n <= 0 {
		return
	}
	p.cacheEvictions.WithLabelValues(reason).Add(float64(n))
}
