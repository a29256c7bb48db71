package saucenao_test

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"imgsauce/internal/services"
	"imgsauce/internal/services/saucenao"
	"imgsauce/internal/testsupport"
)

func TestPrepareFileScalesToBox(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.png")
	testsupport.WriteImage(t, path, 1000, 500, 10)

	upload, err := saucenao.PrepareFile(path, 250)
	if err != nil {
		t.Fatalf("PrepareFile: %v", err)
	}
	if upload.Width != 1000 || upload.Height != 500 {
		t.Fatalf("source dimensions = %dx%d", upload.Width, upload.Height)
	}
	thumb, err := png.Decode(bytes.NewReader(upload.Thumbnail))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if b := thumb.Bounds(); b.Dx() != 250 || b.Dy() != 125 {
		t.Fatalf("thumbnail = %dx%d, want 250x125", b.Dx(), b.Dy())
	}
}

func TestPrepareKeepsSmallImages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.png")
	testsupport.WriteImage(t, path, 40, 30, 1)

	upload, err := saucenao.PrepareFile(path, 250)
	if err != nil {
		t.Fatalf("PrepareFile: %v", err)
	}
	thumb, err := png.Decode(bytes.NewReader(upload.Thumbnail))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if b := thumb.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Fatalf("thumbnail = %dx%d, want 40x30", b.Dx(), b.Dy())
	}
}

func TestPrepareRejectsUndecodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := saucenao.PrepareFile(path, 250); !errors.Is(err, services.ErrSkipFile) {
		t.Fatalf("expected skip error, got %v", err)
	}
	if _, _, err := saucenao.Dimensions(path); !errors.Is(err, services.ErrSkipFile) {
		t.Fatalf("expected skip error from Dimensions, got %v", err)
	}
}

func TestPrepareFileMissing(t *testing.T) {
	_, err := saucenao.PrepareFile(filepath.Join(t.TempDir(), "gone.png"), 250)
	if !errors.Is(err, services.ErrSkipFile) {
		t.Fatalf("expected skip error for vanished file, got %v", err)
	}
}

func TestDimensionsReadsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dims.png")
	testsupport.WriteImage(t, path, 64, 48, 3)
	w, h, err := saucenao.Dimensions(path)
	if err != nil {
		t.Fatalf("Dimensions: %v", err)
	}
	if w != 64 || h != 48 {
		t.Fatalf("dimensions = %dx%d", w, h)
	}
}
