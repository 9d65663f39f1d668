package metrics

import "time"

// ResultLabel enumerates operation result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultSkipped ResultLabel = "skipped"
)

// FileOp names a physical or virtual file operation performed by a backend.
type FileOp string

const (
	OpCreate FileOp = "create"
	OpCopy   FileOp = "copy"
	OpLink   FileOp = "link" // recorded in the manifest, no bytes moved
	OpRead   FileOp = "read"
)

// CacheResult is the outcome of an incremental cache lookup.
type CacheResult string

const (
	CacheHit     CacheResult = "hit"
	CacheMiss    CacheResult = "miss"
	CacheInvalid CacheResult = "invalid"
)

// Recorder defines observability hooks for the file layer and the incremental cache.
type Recorder interface {
	IncFileOp(op FileOp, backend string, result ResultLabel)
	ObserveDereference(d time.Duration, files int)
	IncCacheLookup(result CacheResult)
	AddCacheEvictions(reason string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncFileOp(FileOp, string, ResultLabel) {}
func (NoopRecorder) ObserveDereference(time.Duration, int) {}
func (NoopRecorder) IncCacheLookup(CacheResult)            {}
func (NoopRecorder) AddCacheEvictions(string, int)         {}

// ResultOf maps an error to a result label.
func ResultOf(err error) ResultLabel {
	if err != nil {
		return ResultFailed
	}
	return ResultSuccess
}
