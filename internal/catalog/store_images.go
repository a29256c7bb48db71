package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"imgsauce/internal/services"
)

// FindImages returns images matching every predicate in the filter, ordered
// by id. The result is empty, never nil, when nothing matches.
func (s *Store) FindImages(ctx context.Context, filter Filter) ([]Image, error) {
	ctx = ensureContext(ctx)
	where, args, err := filter.whereClause()
	if err != nil {
		return nil, storageErr("find images", err)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+imageColumns+` FROM images`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, storageErr("find images", err)
	}
	defer rows.Close()

	images := make([]Image, 0)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, storageErr("scan image", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate images", err)
	}
	return images, nil
}

// GetImage fetches a single image. It returns services.ErrNotFound when the
// id is unknown.
func (s *Store) GetImage(ctx context.Context, id int64) (Image, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images WHERE id = ?`, id)
	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Image{}, services.Wrap(services.ErrNotFound, "catalog", "get image", fmt.Sprintf("image %d", id), nil)
	}
	if err != nil {
		return Image{}, storageErr("get image", err)
	}
	return img, nil
}

// UpsertImage records a scanned file. When the fingerprint is already
// cataloged only its status changes. A new fingerprint at an already
// cataloged path replaces that row's fingerprint, since the file was edited
// in place. Otherwise a new row is inserted. The image id is returned.
func (s *Store) UpsertImage(ctx context.Context, path, fingerprint string, status ImageStatus) (int64, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(path) == "" || strings.TrimSpace(fingerprint) == "" {
		return 0, storageErr("upsert image", errors.New("path and fingerprint are required"))
	}
	if !status.Valid() {
		return 0, storageErr("upsert image", fmt.Errorf("invalid image status %d", status))
	}
	now := s.timestamp()

	var existingID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM images WHERE fingerprint = ?`, fingerprint).Scan(&existingID)
	switch {
	case err == nil:
		if _, err := s.execWithRetry(ctx,
			`UPDATE images SET status = ?, updated_at = ? WHERE id = ?`,
			int(status), now, existingID,
		); err != nil {
			return 0, storageErr("update image status", err)
		}
		return existingID, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, storageErr("lookup fingerprint", err)
	}

	name, ext := SplitName(path)
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO images (name, ext, path, fingerprint, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET
             fingerprint = excluded.fingerprint,
             status = excluded.status,
             updated_at = excluded.updated_at`,
		name, ext, path, fingerprint, int(status), now, now,
	); err != nil {
		return 0, storageErr("insert image", err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM images WHERE path = ?`, path).Scan(&id); err != nil {
		return 0, storageErr("read image id", err)
	}
	return id, nil
}

// UpdateImageFields applies a partial update. It returns services.ErrNotFound
// when the image does not exist.
func (s *Store) UpdateImageFields(ctx context.Context, id int64, fields ImageFields) error {
	ctx = ensureContext(ctx)
	if fields.Path != nil {
		name, ext := SplitName(*fields.Path)
		if fields.Name == nil {
			fields.Name = &name
		}
		if fields.Ext == nil {
			fields.Ext = &ext
		}
	}

	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if fields.Path != nil {
		sets = append(sets, "path = ?")
		args = append(args, *fields.Path)
	}
	if fields.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *fields.Name)
	}
	if fields.Ext != nil {
		sets = append(sets, "ext = ?")
		args = append(args, *fields.Ext)
	}
	if fields.Status != nil {
		if !fields.Status.Valid() {
			return storageErr("update image", fmt.Errorf("invalid image status %d", *fields.Status))
		}
		sets = append(sets, "status = ?")
		args = append(args, int(*fields.Status))
	}
	if len(sets) == 0 {
		_, err := s.GetImage(ctx, id)
		return err
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.timestamp(), id)

	res, err := s.execWithRetry(ctx, `UPDATE images SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return storageErr("update image", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr("update image rows", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "catalog", "update image", fmt.Sprintf("image %d", id), nil)
	}
	return nil
}

// DeleteImage removes an image and, through the foreign key cascade, its
// candidates. Deleting an absent id is not an error.
func (s *Store) DeleteImage(ctx context.Context, id int64) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM images WHERE id = ?`, id); err != nil {
		return storageErr("delete image", err)
	}
	return nil
}

// ImagesWithPending returns images that have at least one pending candidate
// at or above minSimilarity, ordered by id.
func (s *Store) ImagesWithPending(ctx context.Context, minSimilarity float64) ([]Image, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+imageColumns+` FROM images
         WHERE id IN (SELECT image_id FROM matches WHERE status = ? AND similarity >= ?)
         ORDER BY id`,
		int(MatchPending), minSimilarity,
	)
	if err != nil {
		return nil, storageErr("images with pending", err)
	}
	defer rows.Close()

	images := make([]Image, 0)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, storageErr("scan image", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate images", err)
	}
	return images, nil
}
