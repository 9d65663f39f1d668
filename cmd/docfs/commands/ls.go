package commands

import (
	"fmt"
	"io"

	"git.home.luguber.info/inful/docfs/internal/buildfs"
	ferrors "git.home.luguber.info/inful/docfs/internal/foundation/errors"
	"git.home.luguber.info/inful/docfs/internal/fspath"
	"git.home.luguber.info/inful/docfs/internal/manifest"
)

// LsCmd implements the 'ls' command.
type LsCmd struct {
	Input    string   `short:"i" help:"Folder to list" type:"path" xor:"source" required:""`
	Overlay  []string `sep:"none" help:"Folders consulted, in order, for files missing from --input"`
	Manifest string   `short:"m" help:"Manifest to list" type:"existingfile" xor:"source" required:""`
	Folder   string   `short:"f" help:"Folder the manifest describes" type:"path"`
	Glob     string   `short:"g" help:"Only list files matching this pattern"`
}

func (l *LsCmd) Run(g *Global) error {
	var b buildfs.Builder
	switch {
	case l.Manifest != "":
		if l.Folder == "" {
			return ferrors.ValidationError("--folder is required with --manifest").Build()
		}
		m, err := manifest.Load(l.Manifest)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryManifest, "failed to load manifest").
				WithContext("path", l.Manifest).
				Build()
		}
		b = buildfs.Default.ReadFromManifest(m, l.Folder)
	case len(l.Overlay) > 0:
		b = buildfs.Default.FallbackReadFromRealFileSystem(append([]string{l.Input}, l.Overlay...)...)
	default:
		b = buildfs.Default.ReadFromRealFileSystem(l.Input, nil)
	}

	layer := b.WithRecorder(g.Recorder).WithLogger(g.logger()).Create()
	defer func() { _ = layer.Close() }()
	return List(g.out(), layer, l.Glob)
}

// List prints "logical<TAB>physical" for every file of layer, optionally
// restricted to a glob.
func List(w io.Writer, layer *buildfs.Layer, glob string) error {
	var (
		files []fspath.LogicalPath
		err   error
	)
	if glob != "" {
		files, err = layer.Glob(glob)
	} else {
		files, err = layer.Files()
	}
	if err != nil {
		return err
	}
	for _, f := range files {
		physical, err := layer.GetPhysicalPath(f)
		if err != nil {
			// removed since enumeration
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", f.RemoveWorkingFolder(), physical); err != nil {
			return err
		}
	}
	return nil
}
