package buildfs

import (
	"io"
	"log/slog"
	"path/filepath"

	mapset "github.com/deckarep/golang-set/v2"

	"git.home.luguber.info/inful/docfs/internal/fspath"
	"git.home.luguber.info/inful/docfs/internal/logfields"
	"git.home.luguber.info/inful/docfs/internal/manifest"
)

// ManifestFileReader resolves logical paths through manifest entries. A linked
// entry resolves to its link; any other entry to manifestFolder/relativePath.
type ManifestFileReader struct {
	manifest *manifest.Manifest
	folder   string
}

// NewManifestFileReader creates a reader over m whose unlinked outputs live under folder.
func NewManifestFileReader(m *manifest.Manifest, folder string) *ManifestFileReader {
	return &ManifestFileReader{manifest: m, folder: folder}
}

func (r *ManifestFileReader) FindFile(p fspath.LogicalPath) (fspath.PathMapping, bool) {
	p, ok := rooted(p)
	if !ok {
		return fspath.PathMapping{}, false
	}
	entry, ok := r.manifest.Lookup(p)
	if !ok {
		return fspath.PathMapping{}, false
	}
	if entry.IsLinked() {
		return fspath.NewPathMapping(p, entry.LinkToPath), true
	}
	return fspath.NewPathMapping(p, joinPhysical(r.folder, p)), true
}

func (r *ManifestFileReader) EnumerateFiles() mapset.Set[fspath.LogicalPath] {
	files := mapset.NewSet[fspath.LogicalPath]()
	for _, out := range r.manifest.Outputs() {
		if key, err := manifest.Key(out.RelativePath); err == nil {
			files.Add(key)
		}
	}
	return files
}

func (r *ManifestFileReader) ExpectedPhysicalPath(p fspath.LogicalPath) string {
	return joinPhysical(r.folder, p)
}

// ManifestFileWriter writes outputs declared in a manifest.
//
// In direct mode every Create and Copy materializes a real file under the
// manifest folder and clears the entry's link. In staged mode Copy only
// records the source's physical path as the link, and Create writes under the
// output folder and links to it.
//
// Writing a path the manifest does not declare is a configuration error. The
// manifest lock is only taken for the entry update, never across file I/O.
type ManifestFileWriter struct {
	manifest       *manifest.Manifest
	manifestFolder string
	outputFolder   string
}

// NewManifestFileWriter creates a writer. An empty outputFolder, or one equal
// to manifestFolder, selects direct mode.
func NewManifestFileWriter(m *manifest.Manifest, manifestFolder, outputFolder string) *ManifestFileWriter {
	if outputFolder != "" && filepath.Clean(outputFolder) == filepath.Clean(manifestFolder) {
		outputFolder = ""
	}
	return &ManifestFileWriter{manifest: m, manifestFolder: manifestFolder, outputFolder: outputFolder}
}

// Staged reports whether copies are recorded as links instead of performed.
func (w *ManifestFileWriter) Staged() bool { return w.outputFolder != "" }

func (w *ManifestFileWriter) mode() string {
	if w.Staged() {
		return "staged"
	}
	return "direct"
}

func (w *ManifestFileWriter) entry(p fspath.LogicalPath) (fspath.LogicalPath, error) {
	key, err := p.WithWorkingFolder()
	if err != nil {
		return p, missingEntry(p, err)
	}
	if _, ok := w.manifest.Lookup(key); !ok {
		return key, missingEntry(key, manifest.ErrEntryNotFound)
	}
	return key, nil
}

func (w *ManifestFileWriter) Create(p fspath.LogicalPath) (io.WriteCloser, error) {
	key, err := w.entry(p)
	if err != nil {
		return nil, err
	}

	folder, link := w.manifestFolder, ""
	if w.Staged() {
		folder = w.outputFolder
		link = joinPhysical(w.outputFolder, key)
	}
	f, err := createFile(joinPhysical(folder, key))
	if err != nil {
		return nil, err
	}
	if err := w.manifest.SetLink(key, link); err != nil {
		_ = f.Close()
		return nil, missingEntry(key, err)
	}
	return f, nil
}

func (w *ManifestFileWriter) Copy(source fspath.PathMapping, dest fspath.LogicalPath) error {
	key, err := w.entry(dest)
	if err != nil {
		return err
	}

	if w.Staged() {
		slog.Debug("Linking manifest output",
			logfields.Logical(key.String()),
			logfields.Link(source.Physical()))
		if err := w.manifest.SetLink(key, source.Physical()); err != nil {
			return missingEntry(key, err)
		}
		return nil
	}

	if err := copyPhysical(source.Physical(), joinPhysical(w.manifestFolder, key)); err != nil {
		return err
	}
	if err := w.manifest.ClearLink(key); err != nil {
		return missingEntry(key, err)
	}
	return nil
}

// CreateReader returns a reader over the same manifest; links written in
// staged mode resolve to wherever the bytes currently live.
func (w *ManifestFileWriter) CreateReader() Reader {
	return NewManifestFileReader(w.manifest, w.manifestFolder)
}
