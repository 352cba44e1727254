package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAssertNoError(t *testing.T) {
	AssertNoError(t, nil)
}

func TestAssertError(t *testing.T) {
	AssertError(t, errors.New("boom"))
}

func TestFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "present")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !fileExists(path) {
		t.Error("fileExists should report an existing file")
	}
	if fileExists(filepath.Join(t.TempDir(), "absent")) {
		t.Error("fileExists should report a missing file")
	}
}
