package catalog

import (
	"context"
	"fmt"
	"strings"
)

// InsertMatch records a new pending candidate for an image.
func (s *Store) InsertMatch(ctx context.Context, imageID, source, remoteID int64, similarity float64) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`INSERT INTO matches (image_id, source, remote_id, similarity, status, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		imageID, source, remoteID, similarity, int(MatchPending), s.timestamp(),
	)
	if err != nil {
		return 0, storageErr("insert match", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("last insert id", err)
	}
	return id, nil
}

// UpdateMatchStatus sets the status of every listed candidate and returns the
// number of rows changed. Unknown ids are ignored.
func (s *Store) UpdateMatchStatus(ctx context.Context, ids []int64, status MatchStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if !status.Valid() {
		return 0, storageErr("update match status", fmt.Errorf("invalid match status %d", status))
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, int(status))
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE matches SET status = ? WHERE id IN (`+makePlaceholders(len(ids))+`)`,
		args...,
	)
	if err != nil {
		return 0, storageErr("update match status", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("update match rows", err)
	}
	return affected, nil
}

// FindMatches lists candidates ordered by descending similarity.
func (s *Store) FindMatches(ctx context.Context, filter MatchFilter) ([]Match, error) {
	ctx = ensureContext(ctx)
	clauses := []string{"similarity >= ?"}
	args := []any{filter.MinSimilarity}
	if filter.ImageID != 0 {
		clauses = append(clauses, "image_id = ?")
		args = append(args, filter.ImageID)
	}
	if len(filter.Statuses) > 0 {
		clauses = append(clauses, "status IN ("+makePlaceholders(len(filter.Statuses))+")")
		for _, status := range filter.Statuses {
			args = append(args, int(status))
		}
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE `+strings.Join(clauses, " AND ")+
			` ORDER BY similarity DESC, id`,
		args...,
	)
	if err != nil {
		return nil, storageErr("find matches", err)
	}
	defer rows.Close()

	matches := make([]Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, storageErr("scan match", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate matches", err)
	}
	return matches, nil
}
