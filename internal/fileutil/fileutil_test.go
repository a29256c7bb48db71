package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRemoveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	writeFile(t, path, "hello")

	n, err := RemoveFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("released %d bytes, want 5", n)
	}
	if IsRegularFile(path) {
		t.Fatal("expected file removed")
	}

	n, err = RemoveFile(path)
	if err != nil || n != 0 {
		t.Fatalf("second remove = %d, %v; want 0, nil", n, err)
	}
}

func TestRemoveFileRejectsDirectory(t *testing.T) {
	if _, err := RemoveFile(t.TempDir()); err == nil {
		t.Fatal("expected error removing a directory")
	}
}

func TestListFilesFlatIsSorted(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.png"), "b")
	writeFile(t, filepath.Join(dir, "a.png"), "a")
	writeFile(t, filepath.Join(dir, "sub", "c.png"), "c")

	got, err := ListFiles(dir, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestListFilesRecursiveWalkOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.png"), "b")
	writeFile(t, filepath.Join(dir, "a", "z.png"), "z")
	writeFile(t, filepath.Join(dir, "c.png"), "c")

	got, err := ListFiles(dir, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "a", "z.png"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "c.png"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestListFilesMissingDir(t *testing.T) {
	if _, err := ListFiles(filepath.Join(t.TempDir(), "missing"), true, nil); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestAcquireRunLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "imgsauce.lock")

	first, err := AcquireRunLock(path)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := AcquireRunLock(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	second, err := AcquireRunLock(path)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	_ = second.Release()
}
