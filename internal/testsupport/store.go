package testsupport

import (
	"context"
	"testing"

	"imgsauce/internal/catalog"
	"imgsauce/internal/config"
)

// MustOpenCatalog opens a catalog.Store for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustUpsertImage catalogs an image and returns its id.
func MustUpsertImage(t testing.TB, store *catalog.Store, path, fingerprint string, status catalog.ImageStatus) int64 {
	t.Helper()

	id, err := store.UpsertImage(context.Background(), path, fingerprint, status)
	if err != nil {
		t.Fatalf("store.UpsertImage: %v", err)
	}
	return id
}
