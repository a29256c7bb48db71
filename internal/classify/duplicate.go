package classify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"imgsauce/internal/catalog"
	"imgsauce/internal/fingerprint"
)

// DuplicateKind labels the outcome of a fingerprint lookup.
type DuplicateKind int

const (
	// Unclassified means the fingerprint is unknown (or already at this path).
	Unclassified DuplicateKind = iota
	// Duplicate means the cataloged original still exists elsewhere.
	Duplicate
	// Moved means the cataloged original is gone and this path replaces it.
	Moved
)

func (k DuplicateKind) String() string {
	switch k {
	case Duplicate:
		return "duplicate"
	case Moved:
		return "moved"
	default:
		return "unclassified"
	}
}

// DuplicateResult carries the kind and, for Duplicate and Moved, the existing record.
type DuplicateResult struct {
	Kind     DuplicateKind
	Existing catalog.Image
}

// ImageFinder is the catalog query used for duplicate detection.
type ImageFinder interface {
	FindImages(ctx context.Context, filter catalog.Filter) ([]catalog.Image, error)
}

// DetectDuplicate looks the fingerprint up in the catalog and compares the
// recorded path with path.
func DetectDuplicate(ctx context.Context, finder ImageFinder, path string, fp fingerprint.Hash) (DuplicateResult, error) {
	images, err := finder.FindImages(ctx, catalog.Filter{catalog.Eq(catalog.ColumnFingerprint, fp.String())})
	if err != nil {
		return DuplicateResult{}, fmt.Errorf("lookup fingerprint: %w", err)
	}
	if len(images) == 0 {
		return DuplicateResult{Kind: Unclassified}, nil
	}
	existing := images[0]
	if existing.Path == path {
		return DuplicateResult{Kind: Unclassified, Existing: existing}, nil
	}
	present, err := exists(existing.Path)
	if err != nil {
		return DuplicateResult{}, err
	}
	if present {
		return DuplicateResult{Kind: Duplicate, Existing: existing}, nil
	}
	return DuplicateResult{Kind: Moved, Existing: existing}, nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}
