package commands

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/docfs/internal/foundation/errors"
	"git.home.luguber.info/inful/docfs/internal/fspath"
	"git.home.luguber.info/inful/docfs/internal/manifest"
)

func TestRunDereference(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "a.md")
	writeFile(t, src, "alpha")

	m := manifest.New("deref")
	require.NoError(t, m.AddOutput("a.md", ".md", "a.md"))
	require.NoError(t, m.SetLink(fspath.MustParse("a.md"), src))
	manifestPath := filepath.Join(dir, "manifest.json")
	require.NoError(t, m.Save(manifestPath))

	g, _ := newTestGlobal(t)
	folder := filepath.Join(dir, "out")
	n, err := RunDereference(context.Background(), g, manifestPath, folder, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "alpha", readFile(t, filepath.Join(folder, "a.md")))

	saved, err := manifest.Load(manifestPath)
	require.NoError(t, err)
	assert.Empty(t, saved.Linked(), "links are cleared and persisted")

	n, err = RunDereference(context.Background(), g, manifestPath, folder, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunDereferenceMissingManifest(t *testing.T) {
	g, _ := newTestGlobal(t)
	_, err := RunDereference(context.Background(), g, filepath.Join(t.TempDir(), "missing.json"), t.TempDir(), 1)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryManifest))
}
