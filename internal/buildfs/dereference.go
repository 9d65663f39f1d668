package buildfs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docfs/internal/logfields"
	"git.home.luguber.info/inful/docfs/internal/manifest"
	"git.home.luguber.info/inful/docfs/internal/metrics"
)

// Dereference resolves every link in m into a real file at folder/relativePath
// and clears the link. See Builder.Dereference.
func Dereference(ctx context.Context, m *manifest.Manifest, folder string, parallelism int) (int, error) {
	return Default.Dereference(ctx, m, folder, parallelism)
}

// Dereference copies every linked manifest output to folder/relativePath with
// at most parallelism copies in flight, clearing each link once its copy
// succeeded. Cancellation is checked between files; a copy already started
// runs to completion. It returns the number of outputs dereferenced.
func (b Builder) Dereference(ctx context.Context, m *manifest.Manifest, folder string, parallelism int) (int, error) {
	layer := b.ReadFromManifest(m, folder).WriteToRealFileSystem(folder).Create()
	defer func() { _ = layer.Close() }()

	recorder := b.recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	if parallelism < 1 {
		parallelism = 1
	}
	linked := m.Linked()
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	var done atomic.Int64
	for _, out := range linked {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := manifest.Key(out.RelativePath)
			if err != nil {
				return fmt.Errorf("dereference %s: %w", out.RelativePath, err)
			}
			if err := layer.Copy(p, p); err != nil {
				return fmt.Errorf("dereference %s: %w", p, err)
			}
			if err := m.ClearLink(p); err != nil {
				return fmt.Errorf("dereference %s: %w", p, err)
			}
			done.Add(1)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	n := int(done.Load())
	recorder.ObserveDereference(time.Since(start), n)

	if err != nil {
		logger.Error("Dereference failed",
			logfields.Folder(folder),
			logfields.Count(n),
			logfields.Error(err))
		return n, err
	}
	logger.Info("Dereferenced manifest",
		logfields.Folder(folder),
		logfields.Count(n),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return n, nil
}
