package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docfs/cmd/docfs/commands"
	ferrors "git.home.luguber.info/inful/docfs/internal/foundation/errors"
	"git.home.luguber.info/inful/docfs/internal/logfields"
	"git.home.luguber.info/inful/docfs/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := commands.NewGlobal()

	parser := kong.Parse(cli,
		kong.Name("docfs"),
		kong.Description("docfs: build-output file layer with manifests, staging and an incremental build cache."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
		kong.Bind(global, cli),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	parser.BindTo(ctx, (*context.Context)(nil))
	err := parser.Run()
	stop()

	if cli.MetricsFile != "" {
		if werr := prometheus.WriteToTextfile(cli.MetricsFile, global.Registry); werr != nil {
			slog.Warn("Failed to write metrics", logfields.Path(cli.MetricsFile), logfields.Error(werr))
		}
	}

	ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
