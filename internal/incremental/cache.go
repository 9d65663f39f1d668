package incremental

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/docfs/internal/foundation/errors"
	"git.home.luguber.info/inful/docfs/internal/logfields"
	"git.home.luguber.info/inful/docfs/internal/metrics"
	"git.home.luguber.info/inful/docfs/internal/storage"
	"git.home.luguber.info/inful/docfs/internal/version"
)

// Policy bounds how many build records a store keeps.
type Policy struct {
	// MaxAge removes entries triggered longer ago than this.
	MaxAge time.Duration
	// HighWater is the entry count above which only Retain entries are kept.
	HighWater int
	Retain    int
}

// DefaultPolicy is used unless WithPolicy overrides it.
var DefaultPolicy = Policy{MaxAge: 7 * 24 * time.Hour, HighWater: 20, Retain: 10}

type document struct {
	Entries map[string]*BuildInfo `json:"entries"`
}

// Cache is one incremental build store: a map from input-set fingerprint to
// the most recent BuildInfo recorded for it.
//
// The store is loaded on first use; an unreadable store is treated as empty.
// Every SaveToCache runs cleanup and persists synchronously.
type Cache struct {
	store       storage.DocumentStore
	policy      Policy
	logger      *slog.Logger
	recorder    metrics.Recorder
	now         func() time.Time
	toolVersion string

	mu      sync.Mutex
	loaded  bool
	entries map[string]*BuildInfo
}

// NewCache creates a cache over store.
func NewCache(store storage.DocumentStore) *Cache {
	return &Cache{
		store:       store,
		policy:      DefaultPolicy,
		logger:      slog.Default(),
		recorder:    metrics.NoopRecorder{},
		now:         time.Now,
		toolVersion: version.Fingerprint(),
		entries:     make(map[string]*BuildInfo),
	}
}

// WithLogger sets a custom logger.
func (c *Cache) WithLogger(logger *slog.Logger) *Cache {
	c.logger = logger
	return c
}

// WithRecorder sets the metrics recorder.
func (c *Cache) WithRecorder(r metrics.Recorder) *Cache {
	c.recorder = r
	return c
}

// WithPolicy overrides the cleanup policy.
func (c *Cache) WithPolicy(p Policy) *Cache {
	c.policy = p
	return c
}

// WithClock replaces the time source used by cleanup.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// WithToolVersion overrides the tool fingerprint stamped into new records.
// Records carrying another version are never valid.
func (c *Cache) WithToolVersion(v string) *Cache {
	c.toolVersion = v
	return c
}

// Path identifies the underlying store.
func (c *Cache) Path() string { return c.store.Path() }

// Load reads the store, replacing any in-memory state. A missing or
// unreadable store yields an empty cache.
func (c *Cache) Load(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(ctx)
}

func (c *Cache) loadLocked(ctx context.Context) {
	c.loaded = true
	c.entries = make(map[string]*BuildInfo)

	var doc document
	if err := c.store.Load(ctx, &doc); err != nil {
		if !storage.IsNotFound(err) {
			c.logger.Warn("Incremental cache unreadable, starting empty",
				logfields.Path(c.store.Path()),
				logfields.Error(err))
		}
		return
	}
	for key, info := range doc.Entries {
		if info != nil {
			c.entries[key] = info
		}
	}
	c.logger.Debug("Loaded incremental cache",
		logfields.Path(c.store.Path()),
		logfields.Count(len(c.entries)))
}

func (c *Cache) ensureLoadedLocked(ctx context.Context) {
	if !c.loaded {
		c.loadLocked(ctx)
	}
}

// GetValidConfig returns the build recorded for inputs if its declared
// outputs are unchanged. Any doubt, including a failed recomputation,
// resolves to a miss.
func (c *Cache) GetValidConfig(ctx context.Context, inputs []string) (*BuildInfo, bool) {
	key := Fingerprint(inputs)

	c.mu.Lock()
	c.ensureLoadedLocked(ctx)
	entry, ok := c.entries[key]
	if ok {
		entry = entry.clone()
	}
	c.mu.Unlock()

	if !ok {
		c.recorder.IncCacheLookup(metrics.CacheMiss)
		c.logger.Debug("No cached build for input set", logfields.Fingerprint(key))
		return nil, false
	}

	if entry.ToolVersion != c.toolVersion {
		c.recorder.IncCacheLookup(metrics.CacheInvalid)
		c.logger.Info("Cached build made by another tool version",
			logfields.Fingerprint(key),
			slog.String("cached_version", entry.ToolVersion))
		return nil, false
	}
	if err := entry.verify(); err != nil {
		c.recorder.IncCacheLookup(metrics.CacheInvalid)
		c.logger.Info("Cached build is no longer valid",
			logfields.Fingerprint(key),
			logfields.Folder(entry.OutputFolder),
			logfields.Error(err))
		return nil, false
	}

	c.recorder.IncCacheLookup(metrics.CacheHit)
	return entry, true
}

// SaveToCache records a completed build of inputs whose outputs are files
// (relative to outputFolder), then runs cleanup and persists the store.
func (c *Cache) SaveToCache(ctx context.Context, inputs []string, outputFolder string, files []string, triggeredAt, completedAt time.Time) (*BuildInfo, error) {
	key := Fingerprint(inputs)
	info := &BuildInfo{
		InputSetKey:         key,
		TriggeredAt:         triggeredAt.UTC(),
		CompletedAt:         completedAt.UTC(),
		ToolVersion:         c.toolVersion,
		OutputFolder:        outputFolder,
		RelativeOutputFiles: slices.Clone(files),
	}
	sum, err := ComputeChecksum(outputFolder, files)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryCache, "compute build checksum").
			WithContext("folder", outputFolder).
			Warning().
			Build()
	}
	info.Checksum = sum

	c.mu.Lock()
	defer c.mu.Unlock()
	// another instance may have saved to the same store since our last load
	c.loadLocked(ctx)
	c.entries[key] = info
	c.cleanupLocked()

	doc := document{Entries: c.entries}
	if err := c.store.Save(ctx, doc); err != nil {
		return info.clone(), ferrors.WrapError(err, ferrors.CategoryCache, "persist incremental cache").
			WithContext("path", c.store.Path()).
			Warning().
			Build()
	}
	c.logger.Debug("Recorded build",
		logfields.Fingerprint(key),
		logfields.Folder(outputFolder),
		logfields.Count(len(files)))
	return info.clone(), nil
}

// cleanupLocked evicts by age, then by count. Entries without a trigger
// time cannot be ranked and are left alone.
func (c *Cache) cleanupLocked() {
	now := c.now()

	aged := 0
	if c.policy.MaxAge > 0 {
		for key, info := range c.entries {
			if !info.TriggeredAt.IsZero() && now.Sub(info.TriggeredAt) > c.policy.MaxAge {
				delete(c.entries, key)
				aged++
			}
		}
	}

	excess := 0
	if c.policy.HighWater > 0 && len(c.entries) > c.policy.HighWater {
		dated := make([]string, 0, len(c.entries))
		for key, info := range c.entries {
			if !info.TriggeredAt.IsZero() {
				dated = append(dated, key)
			}
		}
		slices.SortFunc(dated, func(a, b string) int {
			return c.entries[b].TriggeredAt.Compare(c.entries[a].TriggeredAt)
		})
		for _, key := range dated[min(c.policy.Retain, len(dated)):] {
			delete(c.entries, key)
			excess++
		}
	}

	if aged > 0 {
		c.recorder.AddCacheEvictions("age", aged)
	}
	if excess > 0 {
		c.recorder.AddCacheEvictions("count", excess)
	}
	if aged+excess > 0 {
		c.logger.Debug("Evicted cached builds",
			logfields.Path(c.store.Path()),
			slog.Int("aged", aged),
			slog.Int("excess", excess))
	}
}

// Entries returns a snapshot of the records, most recently triggered first.
func (c *Cache) Entries(ctx context.Context) []BuildInfo {
	c.mu.Lock()
	c.ensureLoadedLocked(ctx)
	out := make([]BuildInfo, 0, len(c.entries))
	for _, info := range c.entries {
		out = append(out, *info.clone())
	}
	c.mu.Unlock()

	slices.SortFunc(out, func(a, b BuildInfo) int {
		if n := b.TriggeredAt.Compare(a.TriggeredAt); n != 0 {
			return n
		}
		return strings.Compare(a.InputSetKey, b.InputSetKey)
	})
	return out
}
