package catalog

import (
	"database/sql"
	"errors"
	"time"
)

const imageColumns = "id, name, ext, path, fingerprint, status, created_at, updated_at"

const matchColumns = "id, image_id, source, remote_id, similarity, status, created_at"

type rowScanner interface{ Scan(dest ...any) error }

func scanImage(scanner rowScanner) (Image, error) {
	var (
		img        Image
		status     int
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(
		&img.ID,
		&img.Name,
		&img.Ext,
		&img.Path,
		&img.Fingerprint,
		&status,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return Image{}, err
	}
	img.Status = ImageStatus(status)
	if created, err := parseTimeString(createdRaw.String); err == nil {
		img.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		img.UpdatedAt = updated
	}
	return img, nil
}

func scanMatch(scanner rowScanner) (Match, error) {
	var (
		m          Match
		status     int
		createdRaw sql.NullString
	)
	if err := scanner.Scan(
		&m.ID,
		&m.ImageID,
		&m.Source,
		&m.RemoteID,
		&m.Similarity,
		&status,
		&createdRaw,
	); err != nil {
		return Match{}, err
	}
	m.Status = MatchStatus(status)
	if created, err := parseTimeString(createdRaw.String); err == nil {
		m.CreatedAt = created
	}
	return m, nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
