// Package incremental decides, across process invocations, whether the output
// of a previous build for the same set of input files is still valid.
package incremental

import (
	"crypto/md5" // #nosec G501 - change detection, not security
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"git.home.luguber.info/inful/docfs/internal/fspath"
)

// BuildInfo records one successful build of an input set.
//
// The record is usable only while Checksum still equals
// ComputeChecksum(OutputFolder, RelativeOutputFiles).
type BuildInfo struct {
	InputSetKey         string    `json:"input_set_key"`
	TriggeredAt         time.Time `json:"triggered_at"`
	CompletedAt         time.Time `json:"completed_at"`
	ToolVersion         string    `json:"tool_version"`
	OutputFolder        string    `json:"output_folder"`
	RelativeOutputFiles []string  `json:"relative_output_files"`
	Checksum            string    `json:"checksum,omitempty"`
}

func (b *BuildInfo) clone() *BuildInfo {
	c := *b
	c.RelativeOutputFiles = slices.Clone(b.RelativeOutputFiles)
	return &c
}

// Fingerprint normalizes a set of input files into a key that does not depend
// on order, duplicates, letter case or how each path was spelled.
func Fingerprint(inputs []string) string {
	fold := cases.Fold()
	keys := make([]string, 0, len(inputs))
	for _, in := range inputs {
		p := filepath.Clean(fspath.ExpandEnv(in))
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		keys = append(keys, fold.String(filepath.ToSlash(p)))
	}
	slices.Sort(keys)
	return strings.Join(slices.Compact(keys), "|")
}

// ComputeChecksum hashes the output folder and, in order, each file's
// relative path and contents. A missing or unreadable file is an error.
func ComputeChecksum(outputFolder string, files []string) (string, error) {
	h := md5.New() // #nosec G401 - change detection, not security
	_, _ = io.WriteString(h, outputFolder)

	root := fspath.ExpandEnv(outputFolder)
	for _, rel := range files {
		_, _ = io.WriteString(h, "\x00"+rel+"\x00")
		if err := hashFile(h, filepath.Join(root, filepath.FromSlash(rel))); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashFile(w io.Writer, path string) error {
	// #nosec G304 - path is a declared output of a recorded build
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open output %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("hash output %s: %w", path, err)
	}
	return nil
}

// verify recomputes the checksum of b's declared outputs.
func (b *BuildInfo) verify() error {
	if b.Checksum == "" {
		return fmt.Errorf("build info has no checksum")
	}
	sum, err := ComputeChecksum(b.OutputFolder, b.RelativeOutputFiles)
	if err != nil {
		return err
	}
	if sum != b.Checksum {
		return fmt.Errorf("checksum mismatch: stored %s, computed %s", b.Checksum, sum)
	}
	return nil
}
