package buildfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"git.home.luguber.info/inful/docfs/internal/fspath"
	"git.home.luguber.info/inful/docfs/internal/logfields"
)

// RealFileReader reads files under a root folder on disk. The root may embed
// environment variables; they are expanded on every access.
type RealFileReader struct {
	root       string
	properties map[string]string
}

// NewRealFileReader creates a reader rooted at folder. properties are attached
// to every mapping the reader returns.
func NewRealFileReader(folder string, properties map[string]string) *RealFileReader {
	return &RealFileReader{root: folder, properties: properties}
}

// Root returns the unexpanded root folder.
func (r *RealFileReader) Root() string { return r.root }

// FindFile reports a mapping only if a regular file exists at the moment of the call.
func (r *RealFileReader) FindFile(p fspath.LogicalPath) (fspath.PathMapping, bool) {
	p, ok := rooted(p)
	if !ok || p.IsFolder() {
		return fspath.PathMapping{}, false
	}
	physical := joinPhysical(r.root, p)
	info, err := os.Stat(fspath.ExpandEnv(physical))
	if err != nil || !info.Mode().IsRegular() {
		return fspath.PathMapping{}, false
	}
	return fspath.NewPathMapping(p, physical, fspath.WithProperties(r.properties)), true
}

// EnumerateFiles walks the root recursively. A missing root is an empty corpus.
func (r *RealFileReader) EnumerateFiles() mapset.Set[fspath.LogicalPath] {
	files := mapset.NewSet[fspath.LogicalPath]()
	root := fspath.ExpandEnv(r.root)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !regularFile(path, d) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		lp, err := fspath.Parse(filepath.ToSlash(rel))
		if err != nil {
			return nil
		}
		lp, ok := rooted(lp)
		if !ok {
			return nil
		}
		// names that do not survive normalization unchanged cannot be found again
		if joinPhysical(root, lp) != filepath.Clean(path) {
			slog.Debug("Skipping file with non-canonical name", logfields.Path(path))
			return nil
		}
		files.Add(lp)
		return nil
	})
	if err != nil {
		slog.Warn("Failed to enumerate folder", logfields.Folder(root), logfields.Error(err))
	}
	return files
}

// regularFile resolves symlinks; links to folders and dangling links are not files.
func regularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (r *RealFileReader) ExpectedPhysicalPath(p fspath.LogicalPath) string {
	return joinPhysical(r.root, p)
}

// RealFileWriter writes files under a root folder on disk.
type RealFileWriter struct {
	root string
}

// NewRealFileWriter creates a writer rooted at folder.
func NewRealFileWriter(folder string) *RealFileWriter {
	return &RealFileWriter{root: folder}
}

// Root returns the unexpanded root folder.
func (w *RealFileWriter) Root() string { return w.root }

// Create opens p for writing, creating missing parent folders.
func (w *RealFileWriter) Create(p fspath.LogicalPath) (io.WriteCloser, error) {
	return createFile(joinPhysical(w.root, p))
}

// Copy copies the bytes behind source to dest. Copying a file onto itself is a no-op.
func (w *RealFileWriter) Copy(source fspath.PathMapping, dest fspath.LogicalPath) error {
	return copyPhysical(source.Physical(), joinPhysical(w.root, dest))
}

func (w *RealFileWriter) CreateReader() Reader {
	return NewRealFileReader(w.root, nil)
}

func joinPhysical(root string, p fspath.LogicalPath) string {
	return filepath.Join(root, filepath.FromSlash(p.RemoveWorkingFolder().String()))
}

func createFile(physical string) (io.WriteCloser, error) {
	path := fspath.ExpandEnv(physical)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fsError("create folder", path, err)
	}
	// #nosec G304 - path is derived from a normalized logical path under the writer root
	f, err := os.Create(path)
	if err != nil {
		return nil, fsError("create", path, err)
	}
	return f, nil
}

// copyPhysical copies from to to, both possibly carrying environment
// variables. The destination loses any inherited read-only bit.
func copyPhysical(from, to string) error {
	src := fspath.ExpandEnv(from)
	dst := fspath.ExpandEnv(to)
	if samePath(src, dst) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fsError("create folder", dst, err)
	}

	// #nosec G304 - src comes from a resolved path mapping
	in, err := os.Open(src)
	if err != nil {
		return fsError("open source", src, err)
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return fsError("stat source", src, err)
	}

	// an existing read-only destination would refuse the overwrite
	if existing, err := os.Stat(dst); err == nil && existing.Mode().Perm()&0o200 == 0 {
		_ = os.Chmod(dst, existing.Mode().Perm()|0o200)
	}

	// #nosec G304 - dst is derived from a normalized logical path under the writer root
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fsError("create destination", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fsError("copy", dst, err)
	}
	if err := out.Close(); err != nil {
		return fsError("close destination", dst, err)
	}
	if err := os.Chmod(dst, info.Mode().Perm()|0o200); err != nil {
		return fsError("reset attributes", dst, fmt.Errorf("chmod: %w", err))
	}
	return nil
}

var caseInsensitiveFS = runtime.GOOS == "windows" || runtime.GOOS == "darwin"

// samePath compares platform-normalized physical paths, falling back to file
// identity when both exist.
func samePath(a, b string) bool {
	na, nb := normalizePhysical(a), normalizePhysical(b)
	if na == nb || (caseInsensitiveFS && strings.EqualFold(na, nb)) {
		return true
	}
	ia, err := os.Stat(na)
	if err != nil {
		return false
	}
	ib, err := os.Stat(nb)
	if err != nil {
		return false
	}
	return os.SameFile(ia, ib)
}

func normalizePhysical(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return filepath.Clean(p)
}
