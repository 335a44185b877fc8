package logger

import (
	"strings"
	"testing"
)

func TestTextPreviewShort(t *testing.T) {
	f := TextPreview("text", "നന്ദി")
	if f.String != "നന്ദി" {
		t.Errorf("got %q", f.String)
	}
}

func TestTextPreviewTruncates(t *testing.T) {
	long := strings.Repeat("ക", 40)
	f := TextPreview("text", long)
	if !strings.HasSuffix(f.String, "(40 runes)") {
		t.Errorf("got %q", f.String)
	}
	if !strings.HasPrefix(f.String, strings.Repeat("ക", previewRunes)) {
		t.Errorf("prefix lost: %q", f.String)
	}
}

func TestMaskEmail(t *testing.T) {
	tests := map[string]string{
		"admin@fairgo.in": "a••••@fairgo.in",
		"x@y.z":           "x@y.z",
		"nodomain":        "••••••••",
	}
	for in, want := range tests {
		if got := MaskEmail("email", in).String; got != want {
			t.Errorf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNamedWithoutInit(t *testing.T) {
	Log = nil
	if Named("x") == nil {
		t.Fatal("Named returned nil")
	}
}
