package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// countingRecorder is a Recorder used to verify call sites in other packages' tests.
type countingRecorder struct {
	mu      sync.Mutex
	ops     map[FileOp]int
	lookups map[CacheResult]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{ops: map[FileOp]int{}, lookups: map[CacheResult]int{}}
}

func (c *countingRecorder) IncFileOp(op FileOp, _ string, _ ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops[op]++
}
func (c *countingRecorder) ObserveDereference(time.Duration, int) {}
func (c *countingRecorder) IncCacheLookup(r CacheResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups[r]++
}
func (c *countingRecorder) AddCacheEvictions(string, int) {}

func TestRecorderImplementations(t *testing.T) {
	var _ Recorder = NoopRecorder{}
	var _ Recorder = (*PrometheusRecorder)(nil)
	var _ Recorder = newCountingRecorder()

	r := newCountingRecorder()
	r.IncFileOp(OpCreate, "real", ResultSuccess)
	r.IncCacheLookup(CacheInvalid)
	if r.ops[OpCreate] != 1 || r.lookups[CacheInvalid] != 1 {
		t.Fatalf("unexpected counts: %+v %+v", r.ops, r.lookups)
	}
}

func TestResultOf(t *testing.T) {
	if ResultOf(nil) != ResultSuccess {
		t.Error("nil error should map to success")
	}
	if ResultOf(errors.New("x")) != ResultFailed {
		t.Error("non-nil error should map to failed")
	}
}
