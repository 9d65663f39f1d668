package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/docfs/internal/buildfs"
	ferrors "git.home.luguber.info/inful/docfs/internal/foundation/errors"
	"git.home.luguber.info/inful/docfs/internal/incremental"
	"git.home.luguber.info/inful/docfs/internal/logfields"
)

// CacheCmd groups the incremental cache subcommands.
type CacheCmd struct {
	Check  CacheCheckCmd  `cmd:"" help:"Report whether a recorded build of the inputs is still valid"`
	Record CacheRecordCmd `cmd:"" help:"Record a finished build of the inputs"`
	List   CacheListCmd   `cmd:"" help:"List recorded builds, newest first"`
}

// CacheTarget selects the cache store a subcommand works on.
type CacheTarget struct {
	Project string `short:"p" required:"" help:"Project file or folder the cache belongs to" type:"path"`
	Scope   string `short:"s" help:"Cache scope (project|application)" default:"application" enum:"project,application"`
}

func (t CacheTarget) open(ctx context.Context, g *Global, inputs []string) (*incremental.Cache, error) {
	cache, err := g.Stores.WithLogger(g.logger()).For(incremental.Scope(t.Scope), t.Project, inputs)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryCache, "failed to open cache").
			WithContext("project", t.Project).
			Build()
	}
	cache.Load(ctx)
	return cache, nil
}

// CacheCheckCmd implements 'cache check'.
type CacheCheckCmd struct {
	CacheTarget
	Inputs []string `arg:"" name:"input" help:"Input files of the build" type:"path"`
}

func (c *CacheCheckCmd) Run(ctx context.Context, g *Global) error {
	cache, err := c.open(ctx, g, c.Inputs)
	if err != nil {
		return err
	}
	info, ok := cache.GetValidConfig(ctx, c.Inputs)
	if !ok {
		return ferrors.NotFoundError("no valid recorded build for these inputs").
			WithContext("cache", cache.Path()).
			Build()
	}
	_, _ = fmt.Fprintf(g.out(), "valid\t%s\t%d files\t%s\n",
		info.OutputFolder, len(info.RelativeOutputFiles), info.CompletedAt.Format(time.RFC3339))
	return nil
}

// CacheRecordCmd implements 'cache record'.
type CacheRecordCmd struct {
	CacheTarget
	Output      string    `short:"o" required:"" help:"Output folder the build produced" type:"existingdir"`
	TriggeredAt time.Time `name:"triggered-at" help:"When the build started (RFC 3339); defaults to now"`
	Inputs      []string  `arg:"" name:"input" help:"Input files of the build" type:"path"`
}

func (c *CacheRecordCmd) Run(ctx context.Context, g *Global) error {
	cache, err := c.open(ctx, g, c.Inputs)
	if err != nil {
		return err
	}

	layer := buildfs.Default.ReadFromRealFileSystem(c.Output, nil).Create()
	defer func() { _ = layer.Close() }()
	files, err := layer.Files()
	if err != nil {
		return err
	}
	rel := make([]string, 0, len(files))
	for _, f := range files {
		rel = append(rel, f.RemoveWorkingFolder().String())
	}

	completed := time.Now()
	triggered := c.TriggeredAt
	if triggered.IsZero() {
		triggered = completed
	}
	info, err := cache.SaveToCache(ctx, c.Inputs, c.Output, rel, triggered, completed)
	if info == nil {
		return err
	}
	if err != nil {
		g.logger().Warn("Build recorded in memory only", logfields.Error(err))
	}
	_, _ = fmt.Fprintf(g.out(), "Recorded %d output files (checksum %s)\n", len(rel), info.Checksum)
	return nil
}

// CacheListCmd implements 'cache list'.
type CacheListCmd struct {
	CacheTarget
	Inputs []string `arg:"" optional:"" name:"input" help:"Input files selecting an application-scope store" type:"path"`
}

func (c *CacheListCmd) Run(ctx context.Context, g *Global) error {
	cache, err := c.open(ctx, g, c.Inputs)
	if err != nil {
		return err
	}
	for _, e := range cache.Entries(ctx) {
		_, _ = fmt.Fprintf(g.out(), "%s\t%s\t%d files\t%s\n",
			e.CompletedAt.Format(time.RFC3339), e.OutputFolder, len(e.RelativeOutputFiles), e.InputSetKey)
	}
	return nil
}
