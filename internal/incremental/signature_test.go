package incremental

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintIsOrderAndCaseIndependent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "Docs", "A.md")
	b := filepath.Join(dir, "docs", "b.md")

	base := Fingerprint([]string{a, b})
	assert.Equal(t, base, Fingerprint([]string{b, a}))
	assert.Equal(t, base, Fingerprint([]string{b, a, a}))
	assert.Equal(t, base, Fingerprint([]string{filepath.Join(dir, "docs", "a.md"), filepath.Join(dir, "DOCS", "B.MD")}))
	assert.Equal(t, base, Fingerprint([]string{filepath.Join(dir, "docs", ".", "x", "..", "a.md"), b}))
	assert.NotEqual(t, base, Fingerprint([]string{a}))
}

func TestFingerprintResolvesRelativePaths(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, Fingerprint([]string{filepath.Join(wd, "x.md")}), Fingerprint([]string{"x.md"}))
}

func TestComputeChecksum(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(out, "api"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("index"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(out, "api", "a.html"), []byte("a"), 0o600))
	files := []string{"index.html", "api/a.html"}

	first, err := ComputeChecksum(out, files)
	require.NoError(t, err)
	again, err := ComputeChecksum(out, files)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Len(t, first, 32)

	require.NoError(t, os.WriteFile(filepath.Join(out, "api", "a.html"), []byte("b"), 0o600))
	changed, err := ComputeChecksum(out, files)
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)

	// the folder is part of the hash
	other, err := ComputeChecksum(out+string(filepath.Separator), files)
	require.NoError(t, err)
	assert.NotEqual(t, changed, other)

	_, err = ComputeChecksum(out, []string{"missing.html"})
	assert.Error(t, err)
}

func TestBuildInfoVerify(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "a.html"), []byte("a"), 0o600))
	sum, err := ComputeChecksum(out, []string{"a.html"})
	require.NoError(t, err)

	info := &BuildInfo{OutputFolder: out, RelativeOutputFiles: []string{"a.html"}, Checksum: sum}
	assert.NoError(t, info.verify())

	noSum := info.clone()
	noSum.Checksum = ""
	assert.Error(t, noSum.verify())

	require.NoError(t, os.Remove(filepath.Join(out, "a.html")))
	assert.Error(t, info.verify())
}
