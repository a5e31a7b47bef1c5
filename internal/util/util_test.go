// internal/util/util_test.go
package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "results.json")

	if err := WriteFileAtomic(path, []byte("first")); err != nil {
		t.Fatalf("WriteFileAtomic returned error: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second")); err != nil {
		t.Fatalf("WriteFileAtomic overwrite returned error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("unexpected file contents: got %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "no truncation", in: "hello", max: 10, want: "hello"},
		{name: "ascii truncation", in: "helloworld", max: 5, want: "hello…"},
		{name: "multibyte truncation", in: "こんにちは世界", max: 4, want: "こんにち…"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateRunes(tt.in, tt.max); got != tt.want {
				t.Fatalf("TruncateRunes(%q,%d)=%q want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestWrapToWidth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{
			name:  "wrap words",
			text:  "one two three four",
			width: 10,
			want:  "one two\nthree four",
		},
		{
			name:  "long word split",
			text:  "supercalifragilisticexpialidocious",
			width: 5,
			want: strings.Join([]string{
				"super",
				"calif",
				"ragil",
				"istic",
				"expia",
				"lidoc",
				"ious",
			}, "\n"),
		},
		{
			name:  "preserve blank lines",
			text:  "para one\n\npara two",
			width: 20,
			want:  "para one\n\npara two",
		},
		{
			name:  "non-positive width no-op",
			text:  "no wrap",
			width: 0,
			want:  "no wrap",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := WrapToWidth(tt.text, tt.width); got != tt.want {
				t.Fatalf("WrapToWidth(%q,%d)=%q want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

