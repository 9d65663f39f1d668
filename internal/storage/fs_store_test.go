package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type document struct {
	Name    string            `json:"name"`
	Entries map[string]string `json:"entries"`
	At      time.Time         `json:"at"`
}

func TestFSStoreSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.json")
	store := NewFSStore(path)
	assert.Equal(t, path, store.Path())

	ctx := context.Background()
	in := document{Name: "site", Entries: map[string]string{"k": "v"}, At: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Save(ctx, in))

	var out document
	require.NoError(t, NewFSStore(path).Load(ctx, &out))
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Entries, out.Entries)
	assert.True(t, in.At.Equal(out.At))
}

func TestFSStoreLoadMissing(t *testing.T) {
	store := NewFSStore(filepath.Join(t.TempDir(), "missing", "cache.json"))
	var out document
	err := store.Load(context.Background(), &out)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestFSStoreLoadCorrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	var out document
	err := NewFSStore(path).Load(context.Background(), &out)
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
}

func TestFSStoreSaveLeavesNoTemporaries(t *testing.T) {
	dir := t.TempDir()
	store := NewFSStore(filepath.Join(dir, "cache.json"))
	ctx := context.Background()
	for i := range 3 {
		require.NoError(t, store.Save(ctx, document{Name: string(rune('a' + i))}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"cache.json", "cache.json.lock"}, names)

	var out document
	require.NoError(t, store.Load(ctx, &out))
	assert.Equal(t, "c", out.Name)
}

func TestFSStoreConcurrentSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// separate instances model separate processes
			assert.NoError(t, NewFSStore(path).Save(ctx, document{Name: "writer", Entries: map[string]string{"i": string(rune('0' + i))}}))
		}()
	}
	wg.Wait()

	var out document
	require.NoError(t, NewFSStore(path).Load(ctx, &out))
	assert.Equal(t, "writer", out.Name)
	assert.Len(t, out.Entries, 1)
}

func TestFSStoreLockHonorsContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	store := NewFSStore(path)
	require.NoError(t, store.Save(context.Background(), document{Name: "x"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := store.Save(ctx, document{Name: "y"})
	if err == nil {
		// an uncontended lock may be granted before the context is consulted
		return
	}
	assert.ErrorIs(t, err, context.Canceled)
}
