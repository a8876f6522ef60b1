package sync

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHasComments(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		maxLines int
		want     bool
	}{
		{name: "hash comment", content: "a: 1\n#ENC[AES256_GCM,data:x]\n", maxLines: 100, want: true},
		{name: "semicolon comment", content: "; shell: date\nx = 1\n", maxLines: 100, want: true},
		{name: "indented comment", content: "db:\n    # note\n", maxLines: 100, want: true},
		{name: "no comments", content: "a: 1\nb: 2\n", maxLines: 100, want: false},
		{name: "empty file", content: "", maxLines: 100, want: false},
		{name: "comment on last line without newline", content: "a: 1\n# tail", maxLines: 100, want: true},
		{name: "comment beyond window", content: "a: 1\nb: 2\n# late\n", maxLines: 2, want: false},
		{name: "comment at window edge", content: "a: 1\n# edge\n", maxLines: 2, want: true},
		{name: "hash inside value", content: "url: http://x/#frag\n", maxLines: 100, want: false},
		{name: "long line", content: strings.Repeat("x", 200000) + "\n# after\n", maxLines: 100, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "secrets.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}

			got, err := hasComments(path, tt.maxLines)
			if err != nil {
				t.Fatalf("hasComments: %v", err)
			}
			if got != tt.want {
				t.Errorf("hasComments() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasComments_MissingFile(t *testing.T) {
	if _, err := hasComments(filepath.Join(t.TempDir(), "missing.yaml"), 100); err == nil {
		t.Fatal("expected error for missing file")
	}
}
