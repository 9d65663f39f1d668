// Package manifest models the build's running record of every output it has
// produced or intends to produce, and where each output currently lives.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"git.home.luguber.info/inful/docfs/internal/fspath"
)

// ErrEntryNotFound is returned when a logical path has no output entry.
var ErrEntryNotFound = errors.New("manifest entry not found")

// OutputFileInfo is a single output of a build item.
//
// LinkToPath, when set, is the physical location of the output's bytes; the
// file was never copied under the manifest folder. Empty means the bytes live
// at manifestFolder/RelativePath.
type OutputFileInfo struct {
	RelativePath string `json:"relative_path"`
	LinkToPath   string `json:"link_to_path,omitempty"`
}

// IsLinked reports whether the output's bytes live elsewhere.
func (o OutputFileInfo) IsLinked() bool { return o.LinkToPath != "" }

// ManifestItem is one source document and its named outputs (keyed by output kind, e.g. ".html").
type ManifestItem struct {
	Type               string                     `json:"type,omitempty"`
	SourceRelativePath string                     `json:"source_relative_path"`
	Output             map[string]*OutputFileInfo `json:"output"`
}

// Manifest is shared by many concurrent per-document build workers. Entry
// mutation goes through SetLink, which serializes on an internal index lock;
// the lock is never held across physical I/O.
type Manifest struct {
	ID        string          `json:"id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Files     []*ManifestItem `json:"files"`

	mu    sync.RWMutex
	index map[fspath.LogicalPath]*OutputFileInfo
}

// New creates an empty manifest.
func New(id string) *Manifest {
	return &Manifest{
		ID:        id,
		Timestamp: time.Now().UTC(),
		index:     make(map[fspath.LogicalPath]*OutputFileInfo),
	}
}

// Key normalizes a relative output path into the working-folder form used as index key.
func Key(relativePath string) (fspath.LogicalPath, error) {
	p, err := fspath.Parse(relativePath)
	if err != nil {
		return "", err
	}
	return p.WithWorkingFolder()
}

// Add appends items and indexes their outputs. Output paths must be unique
// across the manifest.
func (m *Manifest) Add(items ...*ManifestItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index == nil {
		if err := m.reindexLocked(); err != nil {
			return err
		}
	}
	// every key is checked before anything is indexed; a rejected call leaves
	// the manifest untouched
	pending := make(map[fspath.LogicalPath]*OutputFileInfo)
	for _, item := range items {
		kinds := make([]string, 0, len(item.Output))
		for kind := range item.Output {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			out := item.Output[kind]
			key, err := Key(out.RelativePath)
			if err != nil {
				return fmt.Errorf("item %s: %w", item.SourceRelativePath, err)
			}
			_, indexed := m.index[key]
			_, staged := pending[key]
			if indexed || staged {
				return fmt.Errorf("item %s: duplicate output %s", item.SourceRelativePath, key)
			}
			pending[key] = out
		}
	}
	for key, out := range pending {
		m.index[key] = out
	}
	m.Files = append(m.Files, items...)
	return nil
}

// AddOutput is a shorthand for an item with a single output of the given kind.
func (m *Manifest) AddOutput(source, kind, relativePath string) error {
	return m.Add(&ManifestItem{
		SourceRelativePath: source,
		Output:             map[string]*OutputFileInfo{kind: {RelativePath: relativePath}},
	})
}

func (m *Manifest) reindexLocked() error {
	m.index = make(map[fspath.LogicalPath]*OutputFileInfo)
	for _, item := range m.Files {
		for _, out := range item.Output {
			key, err := Key(out.RelativePath)
			if err != nil {
				return fmt.Errorf("item %s: %w", item.SourceRelativePath, err)
			}
			m.index[key] = out
		}
	}
	return nil
}

func (m *Manifest) ensureIndex() {
	m.mu.RLock()
	ready := m.index != nil
	m.mu.RUnlock()
	if ready {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index == nil {
		// invalid entries are reported by Validate; they are simply not addressable
		_ = m.reindexLocked()
	}
}

// Lookup returns a copy of the entry for p.
func (m *Manifest) Lookup(p fspath.LogicalPath) (OutputFileInfo, bool) {
	m.ensureIndex()
	key, err := p.WithWorkingFolder()
	if err != nil {
		return OutputFileInfo{}, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out, ok := m.index[key]
	if !ok {
		return OutputFileInfo{}, false
	}
	return *out, true
}

// SetLink records link as the physical location of p's bytes. An empty link
// clears it. Entries are never created here.
func (m *Manifest) SetLink(p fspath.LogicalPath, link string) error {
	m.ensureIndex()
	key, err := p.WithWorkingFolder()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, p)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out, ok := m.index[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, key)
	}
	out.LinkToPath = link
	return nil
}

// ClearLink marks p as living under the manifest folder.
func (m *Manifest) ClearLink(p fspath.LogicalPath) error {
	return m.SetLink(p, "")
}

// Outputs returns a snapshot of every output, ordered by relative path.
func (m *Manifest) Outputs() []OutputFileInfo {
	m.ensureIndex()
	m.mu.RLock()
	out := make([]OutputFileInfo, 0, len(m.index))
	for _, o := range m.index {
		out = append(out, *o)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].RelativePath < out[j].RelativePath })
	return out
}

// Linked returns a snapshot of the outputs whose link is set.
func (m *Manifest) Linked() []OutputFileInfo {
	all := m.Outputs()
	linked := all[:0]
	for _, o := range all {
		if o.IsLinked() {
			linked = append(linked, o)
		}
	}
	return linked
}

// Len is the number of indexed outputs.
func (m *Manifest) Len() int {
	m.ensureIndex()
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.index)
}

// Validate checks that every output path normalizes and is unique.
func (m *Manifest) Validate() error {
	seen := make(map[fspath.LogicalPath]string)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, item := range m.Files {
		for _, out := range item.Output {
			key, err := Key(out.RelativePath)
			if err != nil {
				return fmt.Errorf("item %s: %w", item.SourceRelativePath, err)
			}
			if prev, dup := seen[key]; dup {
				return fmt.Errorf("output %s produced by both %s and %s", key, prev, item.SourceRelativePath)
			}
			seen[key] = item.SourceRelativePath
		}
	}
	return nil
}

// ToJSON serializes the manifest to JSON.
func (m *Manifest) ToJSON() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads a manifest file.
func Load(path string) (*Manifest, error) {
	// #nosec G304 - manifest path is supplied by the build driver
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return FromJSON(data)
}

// Save writes the manifest file, creating its folder.
func (m *Manifest) Save(path string) error {
	data, err := m.ToJSON()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create manifest folder: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
