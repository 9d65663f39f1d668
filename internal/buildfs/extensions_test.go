package buildfs

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

func TestGlob(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "index.md"), "")
	writeFile(t, filepath.Join(src, "api", "a.yml"), "")
	writeFile(t, filepath.Join(src, "api", "v2", "b.yml"), "")
	writeFile(t, filepath.Join(src, "api", "v2", "c.json"), "")
	layer := Default.ReadFromRealFileSystem(src, nil).Create()

	got, err := layer.Glob("api/**/*.yml")
	require.NoError(t, err)
	assert.Equal(t, []fspath.LogicalPath{"~/api/a.yml", "~/api/v2/b.yml"}, got)

	got, err = layer.Glob("*.md")
	require.NoError(t, err)
	assert.Equal(t, []fspath.LogicalPath{"~/index.md"}, got)

	_, err = layer.Glob("api/[")
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryValidation, ferrors.GetCategory(err))
}

func TestCopyAllStagesEverything(t *testing.T) {
	src, manifestFolder, staging := t.TempDir(), t.TempDir(), t.TempDir()
	m := manifest.New("copyall")
	for _, rel := range []string{"a.md", "b/c.md", "b/d.md"} {
		writeFile(t, filepath.Join(src, filepath.FromSlash(rel)), rel)
		require.NoError(t, m.AddOutput(rel, ".md", rel))
	}

	layer := Default.ReadFromRealFileSystem(src, nil).WriteToManifest(m, manifestFolder, staging).Create()
	files, err := layer.Files()
	require.NoError(t, err)
	require.NoError(t, layer.CopyAll(context.Background(), files, 2))

	assert.Len(t, m.Linked(), 3)
	next, err := Default.ReadFromOutput(layer)
	require.NoError(t, err)
	text, err := next.Create().ReadAllText("b/c.md")
	require.NoError(t, err)
	assert.Equal(t, "b/c.md", text)
}

func TestCopyAllCancelled(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.md"), "a")
	out := t.TempDir()
	layer := Default.ReadFromRealFileSystem(src, nil).WriteToRealFileSystem(out).Create()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := layer.CopyAll(ctx, []fspath.LogicalPath{"~/a.md"}, 1)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(out, "a.md"))
}

func TestWriteAllBytesNeedsWriter(t *testing.T) {
	err := Default.Create().WriteAllBytes("a.bin", []byte{1})
	assert.ErrorIs(t, err, ErrUnsupported)
}
