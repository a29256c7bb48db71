package fingerprint_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"imgsauce/internal/fingerprint"
)

func TestBytesKnownDigest(t *testing.T) {
	if got := fingerprint.Bytes([]byte("")); got != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Fatalf("unexpected empty digest: %s", got)
	}
	if got := fingerprint.Bytes([]byte("abc")); got != "900150983cd24fb0d6963f7d28e17f72" {
		t.Fatalf("unexpected abc digest: %s", got)
	}
}

func TestFileMatchesBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	data := []byte("not really a png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := fingerprint.File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if got != fingerprint.Bytes(data) {
		t.Fatalf("file digest %s != bytes digest %s", got, fingerprint.Bytes(data))
	}

	copyPath := filepath.Join(dir, "nested", "copy.png")
	if err := os.MkdirAll(filepath.Dir(copyPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(copyPath, data, 0o644); err != nil {
		t.Fatalf("write copy: %v", err)
	}
	again, err := fingerprint.File(copyPath)
	if err != nil {
		t.Fatalf("File copy: %v", err)
	}
	if again != got {
		t.Fatal("identical bytes must yield identical fingerprints regardless of path")
	}
}

func TestFileMissing(t *testing.T) {
	_, err := fingerprint.File(filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
