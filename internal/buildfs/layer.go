package buildfs

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"sync/atomic"

	"git.home.luguber.info/inful/docfs/internal/fspath"
	"git.home.luguber.info/inful/docfs/internal/logfields"
	"git.home.luguber.info/inful/docfs/internal/metrics"
)

// Layer is the facade the build pipeline calls. It owns one reader and an
// optional writer for its lifetime. Layer holds no lock; backends synchronize
// where they mutate shared state.
//
// Logical paths may be given with or without the working-folder marker.
type Layer struct {
	reader   Reader
	writer   Writer
	recorder metrics.Recorder
	logger   *slog.Logger
	disposed atomic.Bool
}

func newLayer(reader Reader, writer Writer, recorder metrics.Recorder, logger *slog.Logger) *Layer {
	if reader == nil {
		reader = EmptyReader{}
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Layer{reader: reader, writer: writer, recorder: recorder, logger: logger}
}

// CanRead reports whether the layer is still usable for reads.
func (l *Layer) CanRead() bool { return !l.disposed.Load() }

// CanWrite reports whether a writer is configured and the layer is not disposed.
func (l *Layer) CanWrite() bool { return l.writer != nil && !l.disposed.Load() }

// Close disposes the layer. Every later call fails with the same disposed error.
// Close itself is idempotent.
func (l *Layer) Close() error {
	l.disposed.Store(true)
	return nil
}

func (l *Layer) checkDisposed() error {
	if l.disposed.Load() {
		return errDisposed
	}
	return nil
}

func (l *Layer) normalize(p fspath.LogicalPath) (fspath.LogicalPath, error) {
	parsed, err := fspath.Parse(p.String())
	if err != nil {
		return p, invalidPath(p, err)
	}
	r, err := parsed.WithWorkingFolder()
	if err != nil {
		return p, invalidPath(p, err)
	}
	return r, nil
}

// resolve is the single place a logical path is turned into a mapping. Paths
// that cannot be normalized are reported as not found.
func (l *Layer) resolve(p fspath.LogicalPath) (fspath.PathMapping, error) {
	r, err := l.normalize(p)
	if err != nil {
		return fspath.PathMapping{}, notFound(p)
	}
	m, ok := l.reader.FindFile(r)
	if !ok {
		return fspath.PathMapping{}, notFound(r)
	}
	return m, nil
}

// Files returns every file the reader can resolve, sorted.
func (l *Layer) Files() ([]fspath.LogicalPath, error) {
	if err := l.checkDisposed(); err != nil {
		return nil, err
	}
	files := l.reader.EnumerateFiles().ToSlice()
	slices.Sort(files)
	return files, nil
}

// Exists reports whether p resolves.
func (l *Layer) Exists(p fspath.LogicalPath) (bool, error) {
	if err := l.checkDisposed(); err != nil {
		return false, err
	}
	if _, err := l.resolve(p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// OpenRead opens the bytes behind p. A file deleted between resolution and
// open is reported as not found.
func (l *Layer) OpenRead(p fspath.LogicalPath) (io.ReadCloser, error) {
	if err := l.checkDisposed(); err != nil {
		return nil, err
	}
	m, err := l.resolve(p)
	if err != nil {
		return nil, err
	}
	physical := fspath.ExpandEnv(m.Physical())
	// #nosec G304 - physical comes from a reader mapping
	f, err := os.Open(physical)
	l.recorder.IncFileOp(metrics.OpRead, backendOf(l.reader), metrics.ResultOf(err))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(m.Logical())
		}
		return nil, fsError("open", physical, err)
	}
	return f, nil
}

// Create opens p for writing through the configured writer.
func (l *Layer) Create(p fspath.LogicalPath) (io.WriteCloser, error) {
	if err := l.checkDisposed(); err != nil {
		return nil, err
	}
	if l.writer == nil {
		return nil, unsupported("create")
	}
	r, err := l.normalize(p)
	if err != nil {
		return nil, err
	}
	w, err := l.writer.Create(r)
	l.recorder.IncFileOp(metrics.OpCreate, backendOf(l.writer), metrics.ResultOf(err))
	return w, err
}

// Copy makes the file resolved for source available at dest through the writer.
func (l *Layer) Copy(source, dest fspath.LogicalPath) error {
	if err := l.checkDisposed(); err != nil {
		return err
	}
	if l.writer == nil {
		return unsupported("copy")
	}
	m, err := l.resolve(source)
	if err != nil {
		return err
	}
	r, err := l.normalize(dest)
	if err != nil {
		return err
	}

	err = l.writer.Copy(m, r)
	op := metrics.OpCopy
	if mw, ok := l.writer.(*ManifestFileWriter); ok && mw.Staged() {
		op = metrics.OpLink
	}
	l.recorder.IncFileOp(op, backendOf(l.writer), metrics.ResultOf(err))
	if err != nil {
		return err
	}
	l.logger.Debug("Copied file",
		logfields.Logical(r.String()),
		logfields.Physical(m.Physical()),
		slog.String("op", string(op)))
	return nil
}

// GetPhysicalPath returns the unexpanded physical path behind p.
func (l *Layer) GetPhysicalPath(p fspath.LogicalPath) (string, error) {
	if err := l.checkDisposed(); err != nil {
		return "", err
	}
	m, err := l.resolve(p)
	if err != nil {
		return "", err
	}
	return m.Physical(), nil
}

// GetExpectedPhysicalPath returns where p would live once written, whether or not it exists.
func (l *Layer) GetExpectedPhysicalPath(p fspath.LogicalPath) (string, error) {
	if err := l.checkDisposed(); err != nil {
		return "", err
	}
	r, err := l.normalize(p)
	if err != nil {
		return "", err
	}
	return l.reader.ExpectedPhysicalPath(r), nil
}

// GetProperties returns the properties the reader attached to p.
func (l *Layer) GetProperties(p fspath.LogicalPath) (map[string]string, error) {
	if err := l.checkDisposed(); err != nil {
		return nil, err
	}
	m, err := l.resolve(p)
	if err != nil {
		return nil, err
	}
	return m.Properties(), nil
}

// outputReader is the read-your-writes view used to chain build phases.
func (l *Layer) outputReader() (Reader, error) {
	if err := l.checkDisposed(); err != nil {
		return nil, err
	}
	if l.writer == nil {
		return nil, unsupported("read from output")
	}
	return l.writer.CreateReader(), nil
}

func backendOf(v any) string {
	switch b := v.(type) {
	case *RealFileReader, *RealFileWriter:
		return "real"
	case *ManifestFileReader:
		return "manifest"
	case *ManifestFileWriter:
		return "manifest-" + b.mode()
	case *FallbackReader:
		return "fallback"
	case EmptyReader:
		return "empty"
	default:
		return "custom"
	}
}
