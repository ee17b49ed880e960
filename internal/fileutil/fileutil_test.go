package fileutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"photoshuttle/internal/fileutil"
)

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1.dat")
	written, err := fileutil.WriteFileAtomic(path, strings.NewReader("photo bytes"))
	if err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	if written != int64(len("photo bytes")) {
		t.Fatalf("written = %d", written)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "photo bytes" {
		t.Fatalf("content = %q", data)
	}
}

func TestWriteFileAtomicLeavesNothingOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1.dat")

	reader := iotest.ErrReader(errors.New("stream interrupted"))
	if _, err := fileutil.WriteFileAtomic(path, reader); err == nil {
		t.Fatal("expected error from failing reader")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, found %d entries", len(entries))
	}
}

func TestRemoveIfExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.dat")
	if err := fileutil.RemoveIfExists(path); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fileutil.RemoveIfExists(path); err != nil {
		t.Fatalf("RemoveIfExists: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("file still present")
	}
}
