package scan

import (
	"context"

	"imgsauce/internal/catalog"
	"imgsauce/internal/classify"
	"imgsauce/internal/services/danbooru"
	"imgsauce/internal/services/saucenao"
)

// Catalog is the persistence surface the scanner writes through.
type Catalog interface {
	FindImages(ctx context.Context, filter catalog.Filter) ([]catalog.Image, error)
	UpsertImage(ctx context.Context, path, fingerprint string, status catalog.ImageStatus) (int64, error)
	UpdateImageFields(ctx context.Context, id int64, fields catalog.ImageFields) error
	DeleteImage(ctx context.Context, id int64) error
	InsertMatch(ctx context.Context, imageID, source, remoteID int64, similarity float64) (int64, error)
	ImagesWithPending(ctx context.Context, minSimilarity float64) ([]catalog.Image, error)
}

// Searcher runs reverse image searches.
type Searcher interface {
	Search(ctx context.Context, image []byte) (*saucenao.Response, error)
	DBMask() int64
}

// Board is the image board: MD5 lookups, asset metadata and favorites.
type Board interface {
	classify.AssetLookup
	FindByMD5(ctx context.Context, md5 string) (*danbooru.Post, error)
	AddFavorite(ctx context.Context, id int64) error
}

var (
	_ Catalog  = (*catalog.Store)(nil)
	_ Searcher = (*saucenao.Client)(nil)
	_ Board    = (*danbooru.Client)(nil)
)
