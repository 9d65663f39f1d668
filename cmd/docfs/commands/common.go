package commands

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docfs/internal/config"
	"git.home.luguber.info/inful/docfs/internal/incremental"
	"git.home.luguber.info/inful/docfs/internal/metrics"
	"git.home.luguber.info/inful/docfs/internal/observability"
)

// Global carries process-wide collaborators into every command.
type Global struct {
	Logger   *slog.Logger
	Out      io.Writer
	Registry *prometheus.Registry
	Recorder metrics.Recorder
	Stores   *incremental.Stores
}

// NewGlobal wires a Prometheus-backed recorder into a fresh cache registry.
func NewGlobal() *Global {
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	return &Global{
		Out:      os.Stdout,
		Registry: reg,
		Recorder: rec,
		Stores:   incremental.NewStores(64).WithRecorder(rec),
	}
}

// logger defers to slog.Default so the handler installed by AfterApply is used.
func (g *Global) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

func (g *Global) out() io.Writer {
	if g.Out != nil {
		return g.Out
	}
	return os.Stdout
}

// CLI definition & global flags.
type CLI struct {
	Config      string           `short:"c" help:"Project file path" default:"docfs.yaml" type:"path"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	LogFormat   string           `name:"log-format" help:"Log format (text|json)"`
	MetricsFile string           `name:"metrics-file" help:"Write Prometheus metrics to this file on exit" type:"path"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build       BuildCmd       `cmd:"" help:"Copy an input folder into a self-contained output folder through a build manifest"`
	Dereference DereferenceCmd `cmd:"" help:"Resolve every link of a saved manifest into real files"`
	Ls          LsCmd          `cmd:"" help:"List logical files and where their bytes live"`
	Cache       CacheCmd       `cmd:"" help:"Inspect or update the incremental build cache"`
	Init        InitCmd        `cmd:"" help:"Write an example project file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(NewLogHandler(os.Stderr, level, config.NormalizeLogFormat(c.LogFormat))))
	return nil
}

// NewLogHandler picks a JSON handler when asked to, colored output on a
// terminal, and plain text otherwise.
func NewLogHandler(w *os.File, level slog.Level, format config.LogFormat) slog.Handler {
	var h slog.Handler
	switch {
	case format == config.LogFormatJSON:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd()):
		h = tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.Kitchen})
	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return observability.NewContextHandler(h)
}

// loadConfig reads the project file, falling back to defaults when it does not exist.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		slog.Debug("No project file, using defaults", slog.String("path", path))
		return config.Default(), nil
	}
	return config.Load(path)
}

// applyProjectLogging lets the project file pick level and format where no flag did.
func (c *CLI) applyProjectLogging(cfg *config.Config) {
	level := cfg.Logging.Level.Slog()
	if c.Verbose {
		level = slog.LevelDebug
	}
	format := cfg.Logging.Format
	if c.LogFormat != "" {
		format = config.NormalizeLogFormat(c.LogFormat)
	}
	slog.SetDefault(slog.New(NewLogHandler(os.Stderr, level, format)))
}
