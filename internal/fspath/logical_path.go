// Package fspath holds the path value types shared by every build-output backend:
// normalized logical paths and their logical-to-physical mappings.
package fspath

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// WorkingFolder is the marker prefix of a path rooted at the build's working folder.
const WorkingFolder = "~/"

// ErrInvalidPath is returned when a string cannot be normalized into a LogicalPath.
var ErrInvalidPath = errors.New("invalid logical path")

// LogicalPath is a normalized, forward-slash, root-relative file identifier.
// Two logical paths are equal iff their normalized strings are equal, so the
// type is safe to use as a map key.
//
// A path ending in "/" denotes a folder. Paths prefixed with WorkingFolder are
// rooted; other paths are relative and may start with "../" segments.
type LogicalPath string

// Parse normalizes s into a LogicalPath. Backslashes become slashes, "." segments
// and duplicate separators are dropped, ".." segments are folded, and the result
// is NFC-normalized.
func Parse(s string) (LogicalPath, error) {
	s = strings.ReplaceAll(norm.NFC.String(s), "\\", "/")
	if isAbsolute(s) {
		return "", fmt.Errorf("%w: %q is an absolute path", ErrInvalidPath, s)
	}

	rooted := s == "~" || strings.HasPrefix(s, WorkingFolder)
	if rooted {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "~"), "/")
	}

	raw := strings.Split(s, "/")
	last := raw[len(raw)-1]
	folder := last == "" || last == "." || last == ".."

	stack := make([]string, 0, len(raw))
	for _, seg := range raw {
		switch seg {
		case "", ".":
			continue
		case "..":
			if n := len(stack); n > 0 && stack[n-1] != ".." {
				stack = stack[:n-1]
				continue
			}
			if rooted {
				return "", fmt.Errorf("%w: %q escapes the working folder", ErrInvalidPath, s)
			}
			stack = append(stack, "..")
		default:
			stack = append(stack, seg)
		}
	}

	out := strings.Join(stack, "/")
	if folder && len(stack) > 0 {
		out += "/"
	}
	if rooted {
		out = WorkingFolder + out
	}
	return LogicalPath(out), nil
}

// MustParse is like Parse but panics on error. Intended for literals and tests.
func MustParse(s string) LogicalPath {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func isAbsolute(s string) bool {
	if strings.HasPrefix(s, "/") {
		return true
	}
	// drive letters, regardless of host OS
	return len(s) >= 2 && s[1] == ':' && ((s[0] >= 'a' && s[0] <= 'z') || (s[0] >= 'A' && s[0] <= 'Z'))
}

func (p LogicalPath) String() string { return string(p) }

// IsFromWorkingFolder reports whether p carries the working-folder marker.
func (p LogicalPath) IsFromWorkingFolder() bool {
	return strings.HasPrefix(string(p), WorkingFolder)
}

// WithWorkingFolder roots p at the working folder. Relative paths that climb
// above their base cannot be rooted.
func (p LogicalPath) WithWorkingFolder() (LogicalPath, error) {
	if p.IsFromWorkingFolder() {
		return p, nil
	}
	if p.ParentCount() > 0 {
		return "", fmt.Errorf("%w: %q climbs above the working folder", ErrInvalidPath, string(p))
	}
	return LogicalPath(WorkingFolder + string(p)), nil
}

// RemoveWorkingFolder strips the working-folder marker, if any.
func (p LogicalPath) RemoveWorkingFolder() LogicalPath {
	return LogicalPath(strings.TrimPrefix(string(p), WorkingFolder))
}

// IsFolder reports whether the final segment is empty.
func (p LogicalPath) IsFolder() bool {
	return p == "" || strings.HasSuffix(string(p), "/")
}

// ParentCount is the number of leading ".." segments.
func (p LogicalPath) ParentCount() int {
	n := 0
	for _, seg := range strings.Split(string(p), "/") {
		if seg != ".." {
			break
		}
		n++
	}
	return n
}

// FileName returns the final segment, empty for folders.
func (p LogicalPath) FileName() string {
	s := string(p)
	return s[strings.LastIndex(s, "/")+1:]
}

// Dir returns the folder containing p, including its trailing slash.
func (p LogicalPath) Dir() LogicalPath {
	s := string(p)
	return LogicalPath(s[:strings.LastIndex(s, "/")+1])
}

// Join resolves rel against the folder of p. A rooted rel replaces p entirely.
func (p LogicalPath) Join(rel string) (LogicalPath, error) {
	rel = strings.ReplaceAll(rel, "\\", "/")
	if rel == "~" || strings.HasPrefix(rel, WorkingFolder) {
		return Parse(rel)
	}
	return Parse(string(p.Dir()) + rel)
}

// MakeRelativeTo returns the relative path that leads from the folder of from
// to p. It is how an absolute link is turned back into a portable href.
func (p LogicalPath) MakeRelativeTo(from LogicalPath) (LogicalPath, error) {
	if p.IsFromWorkingFolder() != from.IsFromWorkingFolder() {
		return "", fmt.Errorf("%w: cannot relate %q to %q", ErrInvalidPath, string(p), string(from))
	}

	target := segments(p.RemoveWorkingFolder().Dir())
	base := segments(from.RemoveWorkingFolder().Dir())

	common := 0
	for common < len(target) && common < len(base) && target[common] == base[common] {
		common++
	}
	for _, seg := range base[common:] {
		if seg == ".." {
			return "", fmt.Errorf("%w: cannot relate %q to %q", ErrInvalidPath, string(p), string(from))
		}
	}

	var b strings.Builder
	for range base[common:] {
		b.WriteString("../")
	}
	for _, seg := range target[common:] {
		b.WriteString(seg)
		b.WriteByte('/')
	}
	b.WriteString(p.FileName())
	return Parse(b.String())
}

func segments(dir LogicalPath) []string {
	s := strings.TrimSuffix(string(dir), "/")
	if s == "" {
		return nil
	}
	return strings.Split(s, "/")
}
