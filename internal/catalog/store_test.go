package catalog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"imgsauce/internal/catalog"
	"imgsauce/internal/services"
	"imgsauce/internal/testsupport"
)

func TestOpenCreatesSchemaAndReopens(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)

	ctx := context.Background()
	id := testsupport.MustUpsertImage(t, store, "/pics/a.png", "aaa", catalog.ImageStatusFullScan)
	if id == 0 {
		t.Fatal("expected image id")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	img, err := reopened.GetImage(ctx, id)
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if img.Path != "/pics/a.png" || img.Name != "a" || img.Ext != ".png" || img.Fingerprint != "aaa" {
		t.Fatalf("unexpected image: %+v", img)
	}
	if img.Status != catalog.ImageStatusFullScan {
		t.Fatalf("unexpected status: %v", img.Status)
	}
	if img.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be parsed")
	}
}

func TestUpsertImageIsIdempotentByFingerprint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	first := testsupport.MustUpsertImage(t, store, "/pics/a.png", "aaa", catalog.ImageStatusMD5Only)
	second := testsupport.MustUpsertImage(t, store, "/pics/a.png", "aaa", catalog.ImageStatusFullScan)
	if first != second {
		t.Fatalf("expected same id, got %d and %d", first, second)
	}
	images, err := store.FindImages(ctx, nil)
	if err != nil {
		t.Fatalf("FindImages: %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("expected one image, got %d", len(images))
	}
	if images[0].Status != catalog.ImageStatusFullScan {
		t.Fatalf("expected status update, got %v", images[0].Status)
	}
}

func TestUpsertImageReplacesFingerprintAtSamePath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	first := testsupport.MustUpsertImage(t, store, "/pics/a.png", "aaa", catalog.ImageStatusMD5Only)
	second := testsupport.MustUpsertImage(t, store, "/pics/a.png", "bbb", catalog.ImageStatusFullScan)
	if first != second {
		t.Fatalf("expected edited file to keep its row, got %d and %d", first, second)
	}
	img, err := store.GetImage(ctx, first)
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if img.Fingerprint != "bbb" || img.Status != catalog.ImageStatusFullScan {
		t.Fatalf("unexpected image: %+v", img)
	}
}

func TestUpsertImageRejectsInvalidInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	if _, err := store.UpsertImage(ctx, "", "aaa", catalog.ImageStatusFullScan); !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected storage error for empty path, got %v", err)
	}
	if _, err := store.UpsertImage(ctx, "/x.png", "aaa", catalog.ImageStatus(9)); !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected storage error for bad status, got %v", err)
	}
}

func TestFindImagesFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	a := testsupport.MustUpsertImage(t, store, "/pics/a.png", "aaa", catalog.ImageStatusFullScan)
	b := testsupport.MustUpsertImage(t, store, "/pics/b.jpg", "bbb", catalog.ImageStatusMD5Only)
	c := testsupport.MustUpsertImage(t, store, "/pics/c.jpg", "ccc", catalog.ImageStatusBannedArtist)

	cases := []struct {
		name   string
		filter catalog.Filter
		want   []int64
	}{
		{"empty", nil, []int64{a, b, c}},
		{"path", catalog.Filter{catalog.Eq(catalog.ColumnPath, "/pics/b.jpg")}, []int64{b}},
		{"not eq", catalog.Filter{catalog.NotEq(catalog.ColumnStatus, catalog.ImageStatusFullScan)}, []int64{b, c}},
		{"gt", catalog.Filter{catalog.Gt(catalog.ColumnID, a)}, []int64{b, c}},
		{"gte", catalog.Filter{catalog.Gte(catalog.ColumnID, b)}, []int64{b, c}},
		{"lt", catalog.Filter{catalog.Lt(catalog.ColumnID, b)}, []int64{a}},
		{"lte", catalog.Filter{catalog.Lte(catalog.ColumnID, b)}, []int64{a, b}},
		{"in", catalog.Filter{catalog.StatusIn(catalog.ImageStatusFullScan, catalog.ImageStatusBannedArtist)}, []int64{a, c}},
		{"empty in", catalog.Filter{catalog.In(catalog.ColumnID)}, nil},
		{"conjunction", catalog.Filter{
			catalog.Eq(catalog.ColumnExt, ".jpg"),
			catalog.Eq(catalog.ColumnFingerprint, "ccc"),
		}, []int64{c}},
		{"no match", catalog.Filter{catalog.Eq(catalog.ColumnName, "zzz")}, nil},
	}
	for _, tc := range cases {
		images, err := store.FindImages(ctx, tc.filter)
		if err != nil {
			t.Fatalf("%s: FindImages: %v", tc.name, err)
		}
		if images == nil {
			t.Fatalf("%s: expected empty slice, got nil", tc.name)
		}
		if len(images) != len(tc.want) {
			t.Fatalf("%s: expected %d images, got %d", tc.name, len(tc.want), len(images))
		}
		for i, img := range images {
			if img.ID != tc.want[i] {
				t.Fatalf("%s: expected id %d at %d, got %d", tc.name, tc.want[i], i, img.ID)
			}
		}
	}
}

func TestFindImagesRejectsUnknownColumn(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)

	filter := catalog.Filter{catalog.Eq(catalog.Column("path; DROP TABLE images"), "x")}
	if _, err := store.FindImages(context.Background(), filter); !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected storage error for unknown column, got %v", err)
	}
	bad := catalog.Filter{{Column: catalog.ColumnID, Op: catalog.Op("LIKE"), Value: 1}}
	if _, err := store.FindImages(context.Background(), bad); err == nil {
		t.Fatal("expected error for unknown operator")
	}
}

func TestFindImagesBindsValues(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	tricky := "/pics/it's \"odd\"; --.png"
	id := testsupport.MustUpsertImage(t, store, tricky, "aaa", catalog.ImageStatusFullScan)
	images, err := store.FindImages(ctx, catalog.Filter{catalog.Eq(catalog.ColumnPath, tricky)})
	if err != nil {
		t.Fatalf("FindImages: %v", err)
	}
	if len(images) != 1 || images[0].ID != id {
		t.Fatalf("expected tricky path to round trip, got %+v", images)
	}
}

func TestUpdateImageFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	id := testsupport.MustUpsertImage(t, store, "/pics/a.png", "aaa", catalog.ImageStatusMD5Only)
	newPath := "/pics/moved/renamed.jpeg"
	if err := store.UpdateImageFields(ctx, id, catalog.ImageFields{Path: &newPath}); err != nil {
		t.Fatalf("UpdateImageFields: %v", err)
	}
	img, err := store.GetImage(ctx, id)
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if img.Path != newPath || img.Name != "renamed" || img.Ext != ".jpeg" {
		t.Fatalf("expected derived name/ext, got %+v", img)
	}
	if img.Status != catalog.ImageStatusMD5Only {
		t.Fatalf("status should be untouched, got %v", img.Status)
	}

	status := catalog.ImageStatusBannedArtist
	if err := store.UpdateImageFields(ctx, id, catalog.ImageFields{Status: &status}); err != nil {
		t.Fatalf("UpdateImageFields status: %v", err)
	}
	img, _ = store.GetImage(ctx, id)
	if img.Status != status || img.Path != newPath {
		t.Fatalf("unexpected image after status update: %+v", img)
	}

	if err := store.UpdateImageFields(ctx, 9999, catalog.ImageFields{Status: &status}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.UpdateImageFields(ctx, 9999, catalog.ImageFields{}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty update, got %v", err)
	}
}

func TestDeleteImageCascadesAndIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	id := testsupport.MustUpsertImage(t, store, "/pics/a.png", "aaa", catalog.ImageStatusFullScan)
	other := testsupport.MustUpsertImage(t, store, "/pics/b.png", "bbb", catalog.ImageStatusFullScan)
	for _, sim := range []float64{70, 80} {
		if _, err := store.InsertMatch(ctx, id, 512, 100, sim); err != nil {
			t.Fatalf("InsertMatch: %v", err)
		}
	}
	if _, err := store.InsertMatch(ctx, other, 512, 200, 75); err != nil {
		t.Fatalf("InsertMatch: %v", err)
	}

	if err := store.DeleteImage(ctx, id); err != nil {
		t.Fatalf("DeleteImage: %v", err)
	}
	if err := store.DeleteImage(ctx, id); err != nil {
		t.Fatalf("second DeleteImage should succeed: %v", err)
	}
	matches, err := store.FindMatches(ctx, catalog.MatchFilter{ImageID: id})
	if err != nil {
		t.Fatalf("FindMatches: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected cascade delete, got %d matches", len(matches))
	}
	remaining, err := store.FindMatches(ctx, catalog.MatchFilter{})
	if err != nil {
		t.Fatalf("FindMatches: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ImageID != other {
		t.Fatalf("expected other image's match to remain, got %+v", remaining)
	}
	if _, err := store.GetImage(ctx, id); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestInsertMatchRequiresImage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)

	if _, err := store.InsertMatch(context.Background(), 42, 512, 1, 70); !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected foreign key failure, got %v", err)
	}
}

func TestMatchLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	a := testsupport.MustUpsertImage(t, store, "/pics/a.png", "aaa", catalog.ImageStatusFullScan)
	b := testsupport.MustUpsertImage(t, store, "/pics/b.png", "bbb", catalog.ImageStatusFullScan)
	low, _ := store.InsertMatch(ctx, a, 512, 1, 66)
	high, _ := store.InsertMatch(ctx, a, 512, 2, 88.5)
	if _, err := store.InsertMatch(ctx, b, 512, 3, 70); err != nil {
		t.Fatalf("InsertMatch: %v", err)
	}

	matches, err := store.FindMatches(ctx, catalog.MatchFilter{ImageID: a, Statuses: []catalog.MatchStatus{catalog.MatchPending}})
	if err != nil {
		t.Fatalf("FindMatches: %v", err)
	}
	if len(matches) != 2 || matches[0].ID != high || matches[1].ID != low {
		t.Fatalf("expected descending similarity order, got %+v", matches)
	}
	if matches[0].Source != 512 || matches[0].RemoteID != 2 || matches[0].Similarity != 88.5 {
		t.Fatalf("unexpected match fields: %+v", matches[0])
	}

	pending, err := store.ImagesWithPending(ctx, 80)
	if err != nil {
		t.Fatalf("ImagesWithPending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != a {
		t.Fatalf("expected only image a above 80, got %+v", pending)
	}

	changed, err := store.UpdateMatchStatus(ctx, []int64{low, high, 9999}, catalog.MatchRejected)
	if err != nil {
		t.Fatalf("UpdateMatchStatus: %v", err)
	}
	if changed != 2 {
		t.Fatalf("expected 2 rows changed, got %d", changed)
	}
	if changed, err := store.UpdateMatchStatus(ctx, nil, catalog.MatchRejected); err != nil || changed != 0 {
		t.Fatalf("expected no-op for empty ids, got %d %v", changed, err)
	}

	pending, err = store.ImagesWithPending(ctx, 0)
	if err != nil {
		t.Fatalf("ImagesWithPending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != b {
		t.Fatalf("expected only image b pending, got %+v", pending)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Images != 2 || stats.Matches != 3 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.MatchesByStatus[catalog.MatchRejected] != 2 || stats.MatchesByStatus[catalog.MatchPending] != 1 {
		t.Fatalf("unexpected match stats: %+v", stats.MatchesByStatus)
	}
	if stats.ImagesByStatus[catalog.ImageStatusFullScan] != 2 || stats.PendingImages != 1 {
		t.Fatalf("unexpected image stats: %+v", stats)
	}
}

func TestCheckHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	testsupport.MustUpsertImage(t, store, "/pics/a.png", "aaa", catalog.ImageStatusFullScan)

	health, err := store.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.IntegrityCheck {
		t.Fatalf("unexpected health: %+v", health)
	}
	if len(health.MissingTables) != 0 {
		t.Fatalf("unexpected missing tables: %v", health.MissingTables)
	}
	if health.TotalImages != 1 || health.SchemaVersion != 1 {
		t.Fatalf("unexpected counts: %+v", health)
	}
	if health.DBPath != filepath.Join(cfg.Paths.DataDir, "catalog.db") {
		t.Fatalf("unexpected path: %q", health.DBPath)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	if _, err := store.CheckHealth(context.Background()); err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	store.Close()

	if err := catalog.BumpSchemaVersion(cfg.CatalogPath()); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if _, err := catalog.OpenPath(cfg.CatalogPath()); !errors.Is(err, catalog.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
	if _, err := os.Stat(cfg.CatalogPath()); err != nil {
		t.Fatalf("catalog should remain on disk: %v", err)
	}
}
