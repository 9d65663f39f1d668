package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Logical", KeyLogical, "~/a.md", Logical("~/a.md")},
		{"Physical", KeyPhysical, "/src/a.md", Physical("/src/a.md")},
		{"Link", KeyLink, "/stage/a.md", Link("/stage/a.md")},
		{"Manifest", KeyManifest, "manifest.json", Manifest("manifest.json")},
		{"Folder", KeyFolder, "/out", Folder("/out")},
		{"Mode", KeyMode, "staged", Mode("staged")},
		{"Fingerprint", KeyFingerprint, "a|b", Fingerprint("a|b")},
		{"Stage", KeyStage, "dereference", Stage("dereference")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.attrVal, got)
		}
	}
}

func TestNumericAndErrorHelpers(t *testing.T) {
	if a := Count(3); a.Key != KeyCount || a.Value.Int64() != 3 {
		t.Fatalf("unexpected count attr %v", a)
	}
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("nil error should log empty string, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Fatalf("unexpected error attr %v", a)
	}
}
