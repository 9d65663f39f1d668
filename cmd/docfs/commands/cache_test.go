package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/docfs/internal/foundation/errors"
)

func TestCacheRecordCheckList(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "docs", "index.md")
	output := filepath.Join(dir, "site")
	writeFile(t, input, "# Home")
	writeFile(t, filepath.Join(output, "index.html"), "<h1>Home</h1>")
	writeFile(t, filepath.Join(dir, "shared", "logo.svg"), "<svg/>")
	require.NoError(t, os.Symlink(filepath.Join(dir, "shared"), filepath.Join(output, "shared")))

	ctx := context.Background()
	g, out := newTestGlobal(t)
	target := CacheTarget{Project: filepath.Join(dir, "docfs.yaml"), Scope: "application"}

	check := &CacheCheckCmd{CacheTarget: target, Inputs: []string{input}}
	err := check.Run(ctx, g)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))

	record := &CacheRecordCmd{CacheTarget: target, Output: output, Inputs: []string{input}}
	require.NoError(t, record.Run(ctx, g))
	assert.Contains(t, out.String(), "Recorded 1 output files")

	out.Reset()
	require.NoError(t, check.Run(ctx, g))
	assert.True(t, strings.HasPrefix(out.String(), "valid\t"+output+"\t1 files\t"))

	out.Reset()
	list := &CacheListCmd{CacheTarget: target, Inputs: []string{input}}
	require.NoError(t, list.Run(ctx, g))
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))

	writeFile(t, filepath.Join(output, "index.html"), "<h1>Changed</h1>")
	err = check.Run(ctx, g)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestCacheProjectScopeSharesStore(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "site")
	writeFile(t, filepath.Join(output, "a.html"), "a")
	a := filepath.Join(dir, "a.md")
	b := filepath.Join(dir, "b.md")

	ctx := context.Background()
	g, out := newTestGlobal(t)
	target := CacheTarget{Project: filepath.Join(dir, "docfs.yaml"), Scope: "project"}

	require.NoError(t, (&CacheRecordCmd{CacheTarget: target, Output: output, Inputs: []string{a}}).Run(ctx, g))
	require.NoError(t, (&CacheRecordCmd{CacheTarget: target, Output: output, Inputs: []string{b}}).Run(ctx, g))

	out.Reset()
	require.NoError(t, (&CacheListCmd{CacheTarget: target}).Run(ctx, g))
	assert.Equal(t, 2, strings.Count(out.String(), "\n"))
}
