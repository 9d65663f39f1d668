package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPath        = "path"
	KeyLogical     = "logical_path"
	KeyPhysical    = "physical_path"
	KeyLink        = "link"
	KeyManifest    = "manifest"
	KeyFolder      = "folder"
	KeyMode        = "mode"
	KeyFingerprint = "fingerprint"
	KeyCount       = "count"
	KeyStage       = "stage"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Logical(p string) slog.Attr      { return slog.String(KeyLogical, p) }
func Physical(p string) slog.Attr     { return slog.String(KeyPhysical, p) }
func Link(p string) slog.Attr         { return slog.String(KeyLink, p) }
func Manifest(p string) slog.Attr     { return slog.String(KeyManifest, p) }
func Folder(p string) slog.Attr       { return slog.String(KeyFolder, p) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Fingerprint(k string) slog.Attr  { return slog.String(KeyFingerprint, k) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
