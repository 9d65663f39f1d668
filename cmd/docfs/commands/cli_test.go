package commands

import (
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docfs/internal/config"
)

func newParser(t *testing.T, cli *CLI) *kong.Kong {
	t.Helper()
	parser, err := kong.New(cli,
		kong.Name("docfs"),
		kong.Vars{"version": "test"},
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
	)
	require.NoError(t, err)
	return parser
}

func TestCLIParsesBuild(t *testing.T) {
	var cli CLI
	parser := newParser(t, &cli)

	ctx, err := parser.Parse([]string{"build", "-i", "docs", "--stage", "-j", "2", "--include", "**/*.md", "--include", "*.yml"})
	require.NoError(t, err)
	assert.Equal(t, "build", ctx.Command())
	assert.True(t, filepath.IsAbs(cli.Build.Input))
	assert.True(t, cli.Build.Stage)
	assert.Equal(t, 2, cli.Build.Parallelism)
	assert.Equal(t, []string{"**/*.md", "*.yml"}, cli.Build.Include)
	assert.Equal(t, "docfs.yaml", filepath.Base(cli.Config))
}

func TestCLIRejectsStageAndDirect(t *testing.T) {
	var cli CLI
	_, err := newParser(t, &cli).Parse([]string{"build", "--stage", "--direct"})
	require.Error(t, err)
}

func TestCLIParsesCacheCheck(t *testing.T) {
	var cli CLI
	ctx, err := newParser(t, &cli).Parse([]string{"cache", "check", "--project", "docfs.yaml", "a.md", "b.md"})
	require.NoError(t, err)
	assert.Equal(t, "cache check <input>", ctx.Command())
	assert.Equal(t, "application", cli.Cache.Check.Scope)
	assert.Len(t, cli.Cache.Check.Inputs, 2)
}

func TestInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docfs.yaml")
	g, out := newTestGlobal(t)
	root := &CLI{Config: path}

	require.NoError(t, (&InitCmd{}).Run(g, root))
	assert.Contains(t, out.String(), path)
	_, err := config.Load(path)
	require.NoError(t, err)

	require.Error(t, (&InitCmd{}).Run(g, root), "existing file needs --force")
	require.NoError(t, (&InitCmd{Force: true}).Run(g, root))
}
