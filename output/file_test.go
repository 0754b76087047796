package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileWriter(t *testing.T) {
	// Setup
	dir := t.TempDir()
	path := filepath.Join(dir, "body.json")
	for _, existing := range []string{path, path + ".1"} {
		if err := os.WriteFile(existing, []byte("old"), 0o600); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}

	testCases := []struct {
		title        string
		overwrite    bool
		expectedPath string
	}{
		{title: "Existing files are kept", overwrite: false, expectedPath: path + ".2"},
		{title: "Overwrite", overwrite: true, expectedPath: path},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			// Exercise
			writer := NewFileWriter(path, tt.overwrite)
			n, err := writer.Write(strings.NewReader("new body"))
			if err != nil {
				t.Fatalf("unexpected error: err=%+v", err)
			}

			// Verify
			if writer.Path() != tt.expectedPath {
				t.Errorf("unexpected path: expected=%s, actual=%s", tt.expectedPath, writer.Path())
			}
			if n != int64(len("new body")) {
				t.Errorf("unexpected size: %d", n)
			}
			b, err := os.ReadFile(tt.expectedPath)
			if err != nil {
				t.Fatalf("failed to read file: %v", err)
			}
			if string(b) != "new body" {
				t.Errorf("unexpected content: %s", b)
			}
		})
	}
}
