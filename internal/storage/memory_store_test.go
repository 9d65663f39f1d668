package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore("mem")
	ctx := context.Background()

	var out document
	assert.True(t, IsNotFound(store.Load(ctx, &out)))

	require.NoError(t, store.Save(ctx, document{Name: "a", Entries: map[string]string{"x": "1"}}))
	require.NoError(t, store.Load(ctx, &out))
	assert.Equal(t, "a", out.Name)

	// loads return independent values
	out.Entries["x"] = "changed"
	var again document
	require.NoError(t, store.Load(ctx, &again))
	assert.Equal(t, "1", again.Entries["x"])

	assert.Equal(t, MemoryCalls{Load: 3, Save: 1}, store.Calls())
}

func TestMemoryStoreInjectedErrors(t *testing.T) {
	store := NewMemoryStore("mem")
	boom := errors.New("boom")
	store.SaveErr = boom
	assert.ErrorIs(t, store.Save(context.Background(), document{}), boom)

	store.SetRaw([]byte("garbage"))
	var out document
	assert.Error(t, store.Load(context.Background(), &out))
	assert.Equal(t, []byte("garbage"), store.Raw())
}
