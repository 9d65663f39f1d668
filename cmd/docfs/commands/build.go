package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/docfs/internal/buildfs"
	"git.home.luguber.info/inful/docfs/internal/config"
	ferrors "git.home.luguber.info/inful/docfs/internal/foundation/errors"
	"git.home.luguber.info/inful/docfs/internal/fspath"
	"git.home.luguber.info/inful/docfs/internal/incremental"
	"git.home.luguber.info/inful/docfs/internal/logfields"
	"git.home.luguber.info/inful/docfs/internal/manifest"
	"git.home.luguber.info/inful/docfs/internal/observability"
	"git.home.luguber.info/inful/docfs/internal/workspace"
)

// FileListName is the generated output listing every built file.
const FileListName = ".docfs/files.txt"

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Input       string   `short:"i" help:"Input folder (overrides the project file)" type:"path"`
	Output      string   `short:"o" help:"Output folder (overrides the project file)" type:"path"`
	Manifest    string   `short:"m" help:"Where to save the build manifest" type:"path"`
	Stage       bool     `help:"Link outputs in the manifest and dereference them at the end" xor:"mode"`
	Direct      bool     `help:"Copy outputs immediately, even if the project file enables staging" xor:"mode"`
	Include     []string `sep:"none" help:"Glob of input files to include (repeatable)"`
	Exclude     []string `sep:"none" help:"Glob of input files to exclude (repeatable)"`
	Parallelism int      `short:"j" help:"Maximum concurrent copies"`
	Force       bool     `short:"f" help:"Rebuild even if the cache says the output is current"`
	NoCache     bool     `name:"no-cache" help:"Neither consult nor update the incremental cache"`
}

// BuildResult summarizes one build.
type BuildResult struct {
	Files        int
	UpToDate     bool
	Staged       bool
	Dereferenced int
	Manifest     string
}

func (b *BuildCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	root.applyProjectLogging(cfg)
	b.apply(cfg)

	res, err := RunBuild(ctx, g, root.Config, cfg, b.Force)
	if err != nil {
		return err
	}
	if res.UpToDate {
		_, _ = fmt.Fprintf(g.out(), "Output is up to date (%d files)\n", res.Files)
		return nil
	}
	mode := "direct"
	if res.Staged {
		mode = "staged"
	}
	_, _ = fmt.Fprintf(g.out(), "Built %d files (%s) into %s\n", res.Files, mode, cfg.Output)
	return nil
}

// apply overrides the project file with explicit flags.
func (b *BuildCmd) apply(cfg *config.Config) {
	if b.Input != "" {
		cfg.Input = b.Input
	}
	if b.Output != "" {
		cfg.Output = b.Output
	}
	if b.Manifest != "" {
		cfg.Manifest = b.Manifest
	}
	if b.Stage {
		cfg.Stage.Enabled = true
	}
	if b.Direct {
		cfg.Stage.Enabled = false
	}
	if len(b.Include) > 0 {
		cfg.Include = b.Include
	}
	if len(b.Exclude) > 0 {
		cfg.Exclude = append(cfg.Exclude, b.Exclude...)
	}
	if b.Parallelism > 0 {
		cfg.Parallelism = b.Parallelism
	}
	if b.NoCache {
		disabled := false
		cfg.Cache.Enabled = &disabled
	}
}

// RunBuild copies the selected input files into cfg.Output through a fresh
// manifest. projectPath keys the incremental cache.
func RunBuild(ctx context.Context, g *Global, projectPath string, cfg *config.Config, force bool) (*BuildResult, error) {
	if strings.TrimSpace(cfg.Input) == "" {
		return nil, ferrors.ValidationError("no input folder configured (use --input or set input in the project file)").Build()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := g.logger()
	triggeredAt := time.Now()

	source := buildfs.Default.WithRecorder(g.Recorder).WithLogger(logger)
	if len(cfg.Overlays) > 0 {
		source = source.FallbackReadFromRealFileSystem(append([]string{cfg.Input}, cfg.Overlays...)...)
	} else {
		source = source.ReadFromRealFileSystem(cfg.Input, map[string]string{"origin": "input"})
	}

	input := source.Create()
	defer func() { _ = input.Close() }()
	files, err := selectFiles(input, cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, err
	}
	// an output folder nested in the input must not feed the next build
	outputRoot := absFolder(cfg.Output) + string(filepath.Separator)
	kept := files[:0]
	inputs := make([]string, 0, len(files))
	for _, f := range files {
		physical, err := input.GetPhysicalPath(f)
		if err != nil {
			return nil, err
		}
		physical = absFolder(physical)
		if strings.HasPrefix(physical, outputRoot) {
			continue
		}
		kept = append(kept, f)
		inputs = append(inputs, physical)
	}
	files = kept
	result := &BuildResult{Files: len(files), Staged: cfg.Stage.Enabled, Manifest: cfg.ManifestPath()}

	cache := openCache(ctx, g, projectPath, cfg, inputs)
	if cache != nil && !force {
		if info, ok := cache.GetValidConfig(ctx, inputs); ok &&
			sameFolder(info.OutputFolder, cfg.Output) && !changedSince(inputs, info.CompletedAt) {
			logger.Info("Output is up to date",
				logfields.Folder(cfg.Output),
				logfields.Count(len(files)),
				slog.Time("built_at", info.CompletedAt))
			result.UpToDate = true
			return result, nil
		}
	}

	m := manifest.New(uuid.NewString())
	ctx = observability.WithBuildID(ctx, m.ID)
	for _, f := range files {
		rel := f.RemoveWorkingFolder().String()
		if err := m.AddOutput(rel, path.Ext(rel), rel); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryManifest, "failed to declare output").Build()
		}
	}
	// the cache folder is never an input, so the listing cannot collide
	listing := fspath.MustParse(fspath.WorkingFolder + FileListName)
	if err := m.AddOutput("docfs:files", ".txt", FileListName); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryManifest, "failed to declare output").Build()
	}

	stageDir := ""
	if cfg.Stage.Enabled {
		ws, err := openStage(cfg, logger)
		if err != nil {
			return nil, err
		}
		if !cfg.Stage.Keep {
			defer func() {
				if err := ws.Cleanup(); err != nil {
					logger.WarnContext(ctx, "Failed to remove staging folder", logfields.Path(ws.Path()), logfields.Error(err))
				}
			}()
		}
		stageDir = ws.Path()
	}

	ctx = observability.WithStage(ctx, "copy")
	layer := source.WriteToManifest(m, cfg.Output, stageDir).Create()
	defer func() { _ = layer.Close() }()

	if err := layer.CopyAll(ctx, files, cfg.Parallelism); err != nil {
		return nil, err
	}
	if err := layer.WriteAllText(listing, fileList(files)); err != nil {
		return nil, err
	}

	if cfg.Stage.Enabled {
		ctx = observability.WithStage(ctx, "dereference")
		n, err := source.Dereference(ctx, m, cfg.Output, cfg.Parallelism)
		result.Dereferenced = n
		if err != nil {
			return nil, err
		}
	}

	if err := m.Save(cfg.ManifestPath()); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryManifest, "failed to save manifest").
			WithContext("path", cfg.ManifestPath()).
			Build()
	}

	if cache != nil {
		ctx = observability.WithStage(ctx, "record")
		outputs := make([]string, 0, m.Len())
		for _, o := range m.Outputs() {
			outputs = append(outputs, o.RelativePath)
		}
		if _, err := cache.SaveToCache(ctx, inputs, cfg.Output, outputs, triggeredAt, time.Now()); err != nil {
			logger.WarnContext(ctx, "Failed to record build", logfields.Error(err))
		}
	}

	logger.InfoContext(ctx, "Build complete",
		logfields.Folder(cfg.Output),
		logfields.Count(len(files)),
		slog.Bool("staged", cfg.Stage.Enabled),
		slog.Duration("duration", time.Since(triggeredAt)))
	return result, nil
}

// selectFiles returns the sorted union of include matches minus exclude
// matches. The cache folder is never an input.
func selectFiles(layer *buildfs.Layer, include, exclude []string) ([]fspath.LogicalPath, error) {
	if len(include) == 0 {
		include = []string{"**/*"}
	}
	seen := make(map[fspath.LogicalPath]struct{})
	var files []fspath.LogicalPath
	for _, pattern := range include {
		matched, err := layer.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, f := range matched {
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			if excluded(f, exclude) {
				continue
			}
			files = append(files, f)
		}
	}
	slices.Sort(files)
	return files, nil
}

func excluded(f fspath.LogicalPath, exclude []string) bool {
	rel := f.RemoveWorkingFolder().String()
	if strings.HasPrefix(rel, incremental.CacheDirName+"/") {
		return true
	}
	for _, pattern := range exclude {
		// patterns were validated with the project file; a bad flag pattern matches nothing
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func fileList(files []fspath.LogicalPath) string {
	var b strings.Builder
	for _, f := range files {
		b.WriteString(f.RemoveWorkingFolder().String())
		b.WriteByte('\n')
	}
	return b.String()
}

func openCache(ctx context.Context, g *Global, projectPath string, cfg *config.Config, inputs []string) *incremental.Cache {
	if !cfg.Cache.IsEnabled() {
		return nil
	}
	g.Stores.WithLogger(g.logger()).WithPolicy(incremental.Policy{
		MaxAge:    time.Duration(cfg.Cache.MaxAge),
		HighWater: cfg.Cache.HighWater,
		Retain:    cfg.Cache.Retain,
	})
	cache, err := g.Stores.For(incremental.Scope(cfg.Cache.Scope), projectPath, inputs)
	if err != nil {
		g.logger().Warn("Incremental cache unavailable", logfields.Error(err))
		return nil
	}
	cache.Load(ctx)
	return cache
}

func openStage(cfg *config.Config, logger *slog.Logger) (*workspace.Manager, error) {
	var ws *workspace.Manager
	if cfg.Stage.Dir != "" {
		ws = workspace.NewPersistentManager(cfg.Stage.Dir)
	} else {
		ws = workspace.NewManager("")
	}
	ws.WithLogger(logger)
	if err := ws.Create(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create staging folder").Build()
	}
	return ws, nil
}

// changedSince reports whether any input was modified after t. Unreadable
// inputs count as changed.
func changedSince(inputs []string, t time.Time) bool {
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil || info.ModTime().After(t) {
			return true
		}
	}
	return false
}

func sameFolder(a, b string) bool {
	return absFolder(a) == absFolder(b)
}

func absFolder(p string) string {
	p = fspath.ExpandEnv(p)
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return filepath.Clean(p)
}
