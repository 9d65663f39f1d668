package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
)

// MemoryStore is an in-memory DocumentStore for testing. Documents are kept
// encoded so that loads return fresh values, as with a file store.
type MemoryStore struct {
	mu    sync.Mutex
	name  string
	data  []byte
	calls MemoryCalls

	// LoadErr and SaveErr, when set, are returned instead of touching the document.
	LoadErr error
	SaveErr error
}

// MemoryCalls tracks method invocations for test verification.
type MemoryCalls struct {
	Load int
	Save int
}

// NewMemoryStore creates an empty store identified by name.
func NewMemoryStore(name string) *MemoryStore {
	return &MemoryStore{name: name}
}

func (m *MemoryStore) Path() string { return m.name }

func (m *MemoryStore) Load(_ context.Context, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Load++

	if m.LoadErr != nil {
		return m.LoadErr
	}
	if m.data == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, m.name)
	}
	return json.Unmarshal(m.data, v)
}

func (m *MemoryStore) Save(_ context.Context, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Save++

	if m.SaveErr != nil {
		return m.SaveErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	m.data = data
	return nil
}

// SetRaw replaces the stored bytes, e.g. to simulate a corrupted document.
func (m *MemoryStore) SetRaw(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
}

// Raw returns the stored bytes.
func (m *MemoryStore) Raw() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// Calls returns the invocation counters.
func (m *MemoryStore) Calls() MemoryCalls {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
