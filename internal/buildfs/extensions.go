package buildfs

import (
	"context"
	"fmt"
	"io"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	ferrors "git.home.luguber.info/inful/docfs/internal/foundation/errors"
	"git.home.luguber.info/inful/docfs/internal/fspath"
)

// ReadAllBytes reads the whole file behind p.
func (l *Layer) ReadAllBytes(p fspath.LogicalPath) ([]byte, error) {
	r, err := l.OpenRead(p)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}

// ReadAllText reads the whole file behind p as a string.
func (l *Layer) ReadAllText(p fspath.LogicalPath) (string, error) {
	b, err := l.ReadAllBytes(p)
	return string(b), err
}

// WriteAllBytes creates p and writes data to it.
func (l *Layer) WriteAllBytes(p fspath.LogicalPath, data []byte) error {
	w, err := l.Create(p)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write %s: %w", p, err)
	}
	return w.Close()
}

// WriteAllText creates p and writes s to it.
func (l *Layer) WriteAllText(p fspath.LogicalPath, s string) error {
	return l.WriteAllBytes(p, []byte(s))
}

// Glob returns the readable files whose root-stripped logical path matches a
// doublestar pattern such as "api/**/*.yml".
func (l *Layer) Glob(pattern string) ([]fspath.LogicalPath, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, ferrors.ValidationError(fmt.Sprintf("invalid glob pattern %q", pattern)).
			WithContext("pattern", pattern).
			Build()
	}
	files, err := l.Files()
	if err != nil {
		return nil, err
	}
	matched := files[:0]
	for _, f := range files {
		if ok, _ := doublestar.Match(pattern, f.RemoveWorkingFolder().String()); ok {
			matched = append(matched, f)
		}
	}
	return matched, nil
}

// CopyAll copies each file onto the same logical path through the writer,
// with at most parallelism copies in flight. Cancellation is checked between
// files.
func (l *Layer) CopyAll(ctx context.Context, files []fspath.LogicalPath, parallelism int) error {
	if err := l.checkDisposed(); err != nil {
		return err
	}
	if l.writer == nil {
		return unsupported("copy")
	}
	if parallelism < 1 {
		parallelism = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for _, f := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return l.Copy(f, f)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
