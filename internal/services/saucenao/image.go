package saucenao

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io/fs"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"imgsauce/internal/services"
)

// DefaultThumbnailSize bounds the longest edge of uploaded thumbnails.
const DefaultThumbnailSize = 250

// Upload is a prepared search payload plus the source image's dimensions.
type Upload struct {
	Width     int
	Height    int
	Thumbnail []byte
}

// PrepareFile reads path and builds its search upload. Missing or
// undecodable files are reported as ErrSkipFile.
func PrepareFile(path string, size int) (Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Upload{}, services.Wrap(services.ErrSkipFile, stageName, "prepare", "file vanished", err)
		}
		return Upload{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Prepare(data, size)
}

// Prepare decodes data, converts it to RGB and scales it to fit within a
// size x size box, preserving aspect ratio. Images already inside the box
// are re-encoded without scaling.
func Prepare(data []byte, size int) (Upload, error) {
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Upload{}, services.Wrap(services.ErrSkipFile, stageName, "prepare", "decode image", err)
	}
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return Upload{}, services.Wrap(services.ErrSkipFile, stageName, "prepare", "image has no pixels", nil)
	}

	tw, th := fitWithin(w, h, size)
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	if tw == w && th == h {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	}
	flattenAlpha(dst)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return Upload{}, fmt.Errorf("encode thumbnail: %w", err)
	}
	return Upload{Width: w, Height: h, Thumbnail: buf.Bytes()}, nil
}

// Dimensions reads only the image header of path.
func Dimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, 0, services.Wrap(services.ErrSkipFile, stageName, "dimensions", "file vanished", err)
		}
		return 0, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, services.Wrap(services.ErrSkipFile, stageName, "dimensions", "decode image header", err)
	}
	return cfg.Width, cfg.Height, nil
}

func fitWithin(w, h, size int) (int, int) {
	if w <= size && h <= size {
		return w, h
	}
	if w >= h {
		th := h * size / w
		if th < 1 {
			th = 1
		}
		return size, th
	}
	tw := w * size / h
	if tw < 1 {
		tw = 1
	}
	return tw, size
}

// flattenAlpha drops transparency so the upload is plain RGB.
func flattenAlpha(img *image.RGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
}
