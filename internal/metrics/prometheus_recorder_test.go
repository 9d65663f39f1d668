package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncFileOp(OpCopy, "real", ResultSuccess)
	pr.IncFileOp(OpCopy, "real", ResultSuccess)
	pr.IncFileOp(OpLink, "manifest", ResultSuccess)
	pr.ObserveDereference(150*time.Millisecond, 4)
	pr.IncCacheLookup(CacheHit)
	pr.AddCacheEvictions("age", 2)
	pr.AddCacheEvictions("count", 0)

	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}

	if got := testutil.ToFloat64(pr.fileOps.WithLabelValues("copy", "real", "success")); got != 2 {
		t.Errorf("copy counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(pr.derefFiles); got != 4 {
		t.Errorf("dereferenced files = %v, want 4", got)
	}
	if got := testutil.ToFloat64(pr.cacheEvictions.WithLabelValues("age")); got != 2 {
		t.Errorf("age evictions = %v, want 2", got)
	}
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncFileOp(OpCreate, "real", ResultFailed)
	pr.ObserveDereference(time.Second, 1)
	pr.IncCacheLookup(CacheMiss)
	pr.AddCacheEvictions("age", 1)
}
