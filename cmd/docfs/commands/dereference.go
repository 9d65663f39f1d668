package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/docfs/internal/buildfs"
	ferrors "git.home.luguber.info/inful/docfs/internal/foundation/errors"
	"git.home.luguber.info/inful/docfs/internal/manifest"
)

// DereferenceCmd implements the 'dereference' command.
type DereferenceCmd struct {
	Manifest    string `short:"m" required:"" help:"Manifest file to resolve" type:"existingfile"`
	Folder      string `short:"f" required:"" help:"Folder the manifest describes" type:"path"`
	Parallelism int    `short:"j" help:"Maximum concurrent copies (0 means one per CPU)"`
}

func (d *DereferenceCmd) Run(ctx context.Context, g *Global) error {
	n, err := RunDereference(ctx, g, d.Manifest, d.Folder, d.Parallelism)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "Dereferenced %d files into %s\n", n, d.Folder)
	return nil
}

// RunDereference resolves every link of the manifest at manifestPath into
// folder and saves the manifest back, also when the run stopped early so
// finished files are not copied twice.
func RunDereference(ctx context.Context, g *Global, manifestPath, folder string, parallelism int) (int, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return 0, ferrors.WrapError(err, ferrors.CategoryManifest, "failed to load manifest").
			WithContext("path", manifestPath).
			Build()
	}

	n, derefErr := buildfs.Default.
		WithRecorder(g.Recorder).
		WithLogger(g.logger()).
		Dereference(ctx, m, folder, parallelism)

	if n > 0 {
		if err := m.Save(manifestPath); err != nil {
			return n, ferrors.WrapError(err, ferrors.CategoryManifest, "failed to save manifest").
				WithContext("path", manifestPath).
				Build()
		}
	}
	return n, derefErr
}
