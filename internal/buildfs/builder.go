package buildfs

import (
	"log/slog"

	"git.home.luguber.info/inful/docfs/internal/manifest"
	"git.home.luguber.info/inful/docfs/internal/metrics"
)

// Builder is an immutable layer configuration. Every method returns a new
// Builder with one side replaced, so a partially configured builder can be
// reused as a template for several layers.
type Builder struct {
	reader   Reader
	writer   Writer
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Default reads an empty corpus and has no writer. It is the root of every chain.
var Default = Builder{reader: EmptyReader{}}

// ReadFromRealFileSystem reads files under folder, attaching properties to every mapping.
func (b Builder) ReadFromRealFileSystem(folder string, properties map[string]string) Builder {
	b.reader = NewRealFileReader(folder, properties)
	return b
}

// FallbackReadFromRealFileSystem reads from folders in priority order.
func (b Builder) FallbackReadFromRealFileSystem(folders ...string) Builder {
	readers := make([]Reader, 0, len(folders))
	for _, f := range folders {
		readers = append(readers, NewRealFileReader(f, nil))
	}
	b.reader = NewFallbackReader(readers...)
	return b
}

// ReadFromManifest resolves files through m, with unlinked outputs under folder.
func (b Builder) ReadFromManifest(m *manifest.Manifest, folder string) Builder {
	b.reader = NewManifestFileReader(m, folder)
	return b
}

// ReadFromOutput reads whatever layer has written so far. It bridges build
// phases: one phase's output becomes the next phase's input.
func (b Builder) ReadFromOutput(layer *Layer) (Builder, error) {
	reader, err := layer.outputReader()
	if err != nil {
		return b, err
	}
	b.reader = reader
	return b, nil
}

// WriteToManifest writes outputs declared in m. An empty outputFolder writes
// directly under manifestFolder; otherwise copies are staged as links.
func (b Builder) WriteToManifest(m *manifest.Manifest, manifestFolder, outputFolder string) Builder {
	b.writer = NewManifestFileWriter(m, manifestFolder, outputFolder)
	return b
}

// WriteToRealFileSystem writes files under folder.
func (b Builder) WriteToRealFileSystem(folder string) Builder {
	b.writer = NewRealFileWriter(folder)
	return b
}

// WithRecorder sets the metrics recorder of created layers.
func (b Builder) WithRecorder(r metrics.Recorder) Builder {
	b.recorder = r
	return b
}

// WithLogger sets the logger of created layers.
func (b Builder) WithLogger(l *slog.Logger) Builder {
	b.logger = l
	return b
}

// Create builds a layer from the current configuration.
func (b Builder) Create() *Layer {
	return newLayer(b.reader, b.writer, b.recorder, b.logger)
}
