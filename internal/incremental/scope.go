package incremental

import (
	"crypto/md5" // #nosec G501 - file naming, not security
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"git.home.luguber.info/inful/docfs/internal/metrics"
	"git.home.luguber.info/inful/docfs/internal/storage"
)

// CacheDirName is created next to the project and holds every cache store.
const CacheDirName = ".docfs"

// Scope selects how stores are keyed.
type Scope string

const (
	// ScopeProject keeps one store per project.
	ScopeProject Scope = "project"
	// ScopeApplication keeps one store per distinct input set of a project.
	ScopeApplication Scope = "application"
)

// Stores memoizes one Cache per resolved store path so repeated lookups for
// the same project or input set share one in-memory instance.
type Stores struct {
	mu       sync.Mutex
	caches   *lru.Cache[string, *Cache]
	open     func(path string) storage.DocumentStore
	policy   Policy
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewStores creates a registry remembering up to size caches.
func NewStores(size int) *Stores {
	if size < 1 {
		size = 1
	}
	caches, err := lru.New[string, *Cache](size)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &Stores{
		caches:   caches,
		open:     func(path string) storage.DocumentStore { return storage.NewFSStore(path) },
		policy:   DefaultPolicy,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
}

// WithStoreFactory replaces how a store is opened for a path.
func (s *Stores) WithStoreFactory(open func(path string) storage.DocumentStore) *Stores {
	s.open = open
	return s
}

// WithPolicy sets the cleanup policy of caches created from now on.
func (s *Stores) WithPolicy(p Policy) *Stores {
	s.policy = p
	return s
}

// WithLogger sets the logger of caches created from now on.
func (s *Stores) WithLogger(logger *slog.Logger) *Stores {
	s.logger = logger
	return s
}

// WithRecorder sets the recorder of caches created from now on.
func (s *Stores) WithRecorder(r metrics.Recorder) *Stores {
	s.recorder = r
	return s
}

// Project returns the project-level cache of projectPath, a project file or folder.
func (s *Stores) Project(projectPath string) (*Cache, error) {
	dir, name, err := projectLocation(projectPath)
	if err != nil {
		return nil, err
	}
	return s.get(filepath.Join(dir, CacheDirName, "cache", "project", name+".json")), nil
}

// Application returns the cache dedicated to one input set of projectPath.
func (s *Stores) Application(projectPath string, inputs []string) (*Cache, error) {
	dir, _, err := projectLocation(projectPath)
	if err != nil {
		return nil, err
	}
	sum := md5.Sum([]byte(Fingerprint(inputs))) // #nosec G401 - file naming, not security
	return s.get(filepath.Join(dir, CacheDirName, "cache", "app", hex.EncodeToString(sum[:])+".json")), nil
}

// For returns the cache of the given scope.
func (s *Stores) For(scope Scope, projectPath string, inputs []string) (*Cache, error) {
	switch scope {
	case ScopeProject:
		return s.Project(projectPath)
	case ScopeApplication:
		return s.Application(projectPath, inputs)
	default:
		return nil, fmt.Errorf("unknown cache scope %q", scope)
	}
}

// Len is the number of memoized caches.
func (s *Stores) Len() int { return s.caches.Len() }

func (s *Stores) get(path string) *Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.caches.Get(path); ok {
		return c
	}
	c := NewCache(s.open(path)).
		WithPolicy(s.policy).
		WithLogger(s.logger).
		WithRecorder(s.recorder)
	s.caches.Add(path, c)
	return c
}

// projectLocation resolves the folder holding the project and a name for it.
func projectLocation(projectPath string) (dir, name string, err error) {
	if strings.TrimSpace(projectPath) == "" {
		return "", "", fmt.Errorf("project path is required")
	}
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		return "", "", fmt.Errorf("resolve project path: %w", err)
	}
	if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
		return abs, filepath.Base(abs), nil
	}
	base := filepath.Base(abs)
	return filepath.Dir(abs), strings.TrimSuffix(base, filepath.Ext(base)), nil
}

var defaultStores = NewStores(64)

// ProjectLevelCache returns the process-wide memoized project cache.
func ProjectLevelCache(projectPath string) (*Cache, error) {
	return defaultStores.Project(projectPath)
}

// ApplicationLevelCache returns the process-wide memoized cache for one input set.
func ApplicationLevelCache(projectPath string, inputs []string) (*Cache, error) {
	return defaultStores.Application(projectPath, inputs)
}
