package buildfs

import (
	mapset "github.com/deckarep/golang-set/v2"

	"git.home.luguber.info/inful/docfs/internal/fspath"
)

// FallbackReader consults readers in order; the first that finds a file wins.
// It is used to overlay template or theme trees beneath a content tree.
type FallbackReader struct {
	readers []Reader
}

// NewFallbackReader creates a reader over readers, highest priority first.
func NewFallbackReader(readers ...Reader) *FallbackReader {
	return &FallbackReader{readers: readers}
}

func (r *FallbackReader) FindFile(p fspath.LogicalPath) (fspath.PathMapping, bool) {
	for _, reader := range r.readers {
		if m, ok := reader.FindFile(p); ok {
			return m, true
		}
	}
	return fspath.PathMapping{}, false
}

// EnumerateFiles is the union of every reader's files.
func (r *FallbackReader) EnumerateFiles() mapset.Set[fspath.LogicalPath] {
	files := mapset.NewSet[fspath.LogicalPath]()
	for _, reader := range r.readers {
		files = files.Union(reader.EnumerateFiles())
	}
	return files
}

func (r *FallbackReader) ExpectedPhysicalPath(p fspath.LogicalPath) string {
	if len(r.readers) == 0 {
		return EmptyReader{}.ExpectedPhysicalPath(p)
	}
	return r.readers[0].ExpectedPhysicalPath(p)
}
