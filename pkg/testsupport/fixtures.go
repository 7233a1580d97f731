// Package testsupport holds helpers shared by package tests: golden files
// and a scripted prompter that fills form instances without a terminal.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CompareJSON decodes both documents and returns a diff, ignoring layout.
func CompareJSON(t *testing.T, want, got []byte) string {
	t.Helper()
	var wantValue, gotValue any
	if err := json.Unmarshal(want, &wantValue); err != nil {
		t.Fatalf("decode want: %v", err)
	}
	if err := json.Unmarshal(got, &gotValue); err != nil {
		t.Fatalf("decode got: %v\n%s", err, got)
	}
	return cmp.Diff(wantValue, gotValue)
}

// CompareGoldenJSON compares got with the golden file at path, rewriting the
// file instead when UPDATE_GOLDENS is set.
func CompareGoldenJSON(t *testing.T, path string, got []byte) string {
	t.Helper()
	if WriteMaybeGolden(t, path, got) {
		return ""
	}
	return CompareJSON(t, MustReadGolden(t, path), got)
}
