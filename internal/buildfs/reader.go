package buildfs

import (
	"io"

	mapset "github.com/deckarep/golang-set/v2"

	"git.home.luguber.info/inful/docfs/internal/fspath"
)

// Reader resolves logical paths to the physical location of their bytes.
// Paths passed in and returned are rooted at the working folder.
type Reader interface {
	// FindFile resolves p. A false result means the file is missing; there is
	// no sentinel mapping.
	FindFile(p fspath.LogicalPath) (fspath.PathMapping, bool)
	// EnumerateFiles returns every file the reader can resolve. The set is
	// stable for the duration of one build.
	EnumerateFiles() mapset.Set[fspath.LogicalPath]
	// ExpectedPhysicalPath is the path a writer would use for p, computable
	// before the file exists.
	ExpectedPhysicalPath(p fspath.LogicalPath) string
}

// Writer produces files for logical paths.
type Writer interface {
	Create(p fspath.LogicalPath) (io.WriteCloser, error)
	// Copy makes the bytes behind source available at dest. Implementations
	// may defer the actual byte move by recording a link.
	Copy(source fspath.PathMapping, dest fspath.LogicalPath) error
	// CreateReader returns a read-your-writes view over everything written so far.
	CreateReader() Reader
}

// EmptyReader is the reader of an empty corpus.
type EmptyReader struct{}

func (EmptyReader) FindFile(fspath.LogicalPath) (fspath.PathMapping, bool) {
	return fspath.PathMapping{}, false
}

func (EmptyReader) EnumerateFiles() mapset.Set[fspath.LogicalPath] {
	return mapset.NewSet[fspath.LogicalPath]()
}

func (EmptyReader) ExpectedPhysicalPath(p fspath.LogicalPath) string {
	return p.RemoveWorkingFolder().String()
}

// rooted coerces p to working-folder form; ok is false for paths that cannot be rooted.
func rooted(p fspath.LogicalPath) (fspath.LogicalPath, bool) {
	r, err := p.WithWorkingFolder()
	return r, err == nil
}
