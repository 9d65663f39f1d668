package incremental

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docfs/internal/storage"
)

func TestProjectCacheLocation(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(project, []byte("{}"), 0o600))

	stores := NewStores(4)
	cache, err := stores.Project(project)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".docfs", "cache", "project", "site.json"), cache.Path())

	folderCache, err := stores.Project(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".docfs", "cache", "project", filepath.Base(dir)+".json"), folderCache.Path())
}

func TestApplicationCachePerInputSet(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, "site.yaml")
	stores := NewStores(4)

	a, err := stores.Application(project, []string{"/x/a.md", "/x/b.md"})
	require.NoError(t, err)
	sameSet, err := stores.Application(project, []string{"/x/b.md", "/x/a.md"})
	require.NoError(t, err)
	other, err := stores.Application(project, []string{"/x/a.md"})
	require.NoError(t, err)

	assert.Same(t, a, sameSet)
	assert.NotSame(t, a, other)
	assert.Equal(t, filepath.Join(dir, ".docfs", "cache", "app"), filepath.Dir(a.Path()))
	assert.Equal(t, 2, stores.Len())
}

func TestStoresMemoizePerPath(t *testing.T) {
	opened := 0
	stores := NewStores(2).WithStoreFactory(func(path string) storage.DocumentStore {
		opened++
		return storage.NewMemoryStore(path)
	})

	first, err := stores.For(ScopeProject, "/proj/site.yaml", nil)
	require.NoError(t, err)
	second, err := stores.For(ScopeProject, "/proj/./site.yaml", nil)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, opened)

	_, err = stores.For(Scope("global"), "/proj/site.yaml", nil)
	assert.Error(t, err)
	_, err = stores.Project("  ")
	assert.Error(t, err)
}

func TestPackageLevelCachesShareInstances(t *testing.T) {
	project := filepath.Join(t.TempDir(), "site.yaml")
	a, err := ProjectLevelCache(project)
	require.NoError(t, err)
	b, err := ProjectLevelCache(project)
	require.NoError(t, err)
	assert.Same(t, a, b)

	x, err := ApplicationLevelCache(project, []string{"a.md"})
	require.NoError(t, err)
	y, err := ApplicationLevelCache(project, []string{"A.MD"})
	require.NoError(t, err)
	assert.Same(t, x, y)
}

func TestEvictedCacheDoesNotLoseEntries(t *testing.T) {
	ctx := context.Background()
	files := map[string]*storage.MemoryStore{}
	stores := NewStores(1).WithStoreFactory(func(path string) storage.DocumentStore {
		if _, ok := files[path]; !ok {
			files[path] = storage.NewMemoryStore(path)
		}
		return files[path]
	})
	out := t.TempDir()

	held, err := stores.Project("/proj/site.yaml")
	require.NoError(t, err)
	_, err = stores.Application("/proj/site.yaml", []string{"a.md"})
	require.NoError(t, err)
	again, err := stores.Project("/proj/site.yaml")
	require.NoError(t, err)
	require.NotSame(t, held, again, "the first instance was evicted")

	_, err = again.SaveToCache(ctx, []string{"b.md"}, out, nil, time.Now(), time.Now())
	require.NoError(t, err)
	_, err = held.SaveToCache(ctx, []string{"c.md"}, out, nil, time.Now(), time.Now())
	require.NoError(t, err)

	fresh := NewCache(files[held.Path()])
	keys := []string{}
	for _, e := range fresh.Entries(ctx) {
		keys = append(keys, e.InputSetKey)
	}
	assert.ElementsMatch(t, []string{Fingerprint([]string{"b.md"}), Fingerprint([]string{"c.md"})}, keys)
}
