package utils

import (
	"os"
	"path"
	"testing"
)

// CreateTestFile creates a temporary test file with the given contents and
// returns it open for reading.
func CreateTestFile(t *testing.T, contents string) *os.File {
	t.Helper()

	filepath := path.Join(t.TempDir(), "test.csv")
	if err := os.WriteFile(filepath, []byte(contents), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	f, err := os.Open(filepath)
	if err != nil {
		t.Fatalf("Failed to open temp file: %v", err)
	}

	// The file may already be closed by whoever consumed it, which is fine.
	t.Cleanup(func() { f.Close() })

	return f
}

// AppendToTestFile appends contents to a file created by CreateTestFile
// without moving the read position of the original handle.
func AppendToTestFile(t *testing.T, f *os.File, contents string) {
	t.Helper()

	w, err := os.OpenFile(f.Name(), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("Failed to open temp file for appending: %v", err)
	}
	defer w.Close()

	if _, err := w.WriteString(contents); err != nil {
		t.Fatalf("Failed to append to temp file: %v", err)
	}
}
