package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Stats counts images and candidates grouped by status.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{
		ImagesByStatus:  make(map[ImageStatus]int),
		MatchesByStatus: make(map[MatchStatus]int),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM images GROUP BY status`)
	if err != nil {
		return Stats{}, storageErr("image stats", err)
	}
	for rows.Next() {
		var status, count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return Stats{}, storageErr("scan image stats", err)
		}
		stats.ImagesByStatus[ImageStatus(status)] = count
		stats.Images += count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Stats{}, storageErr("iterate image stats", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM matches GROUP BY status`)
	if err != nil {
		return Stats{}, storageErr("match stats", err)
	}
	for rows.Next() {
		var status, count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return Stats{}, storageErr("scan match stats", err)
		}
		stats.MatchesByStatus[MatchStatus(status)] = count
		stats.Matches += count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Stats{}, storageErr("iterate match stats", err)
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT image_id) FROM matches WHERE status = ?`, int(MatchPending),
	).Scan(&stats.PendingImages); err != nil {
		return Stats{}, storageErr("pending image count", err)
	}
	return stats, nil
}

var expectedTables = []string{"schema_version", "image_statuses", "match_statuses", "images", "matches"}

// CheckHealth returns diagnostic information about the catalog database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	ctx = ensureContext(ctx)
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("catalog database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat catalog database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("catalog database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("catalog database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping catalog database: %w", err)
	}
	health.DatabaseReadable = true

	for _, table := range expectedTables {
		var name string
		err := s.db.QueryRowContext(connCtx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			health.MissingTables = append(health.MissingTables, table)
		case err != nil:
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		default:
			health.TablesPresent = append(health.TablesPresent, name)
		}
	}

	if len(health.MissingTables) == 0 {
		if err := s.db.QueryRowContext(connCtx, "SELECT version FROM schema_version LIMIT 1").Scan(&health.SchemaVersion); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("read schema version: %w", err)
		}
		if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM images").Scan(&health.TotalImages); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count images: %w", err)
		}
		if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM matches").Scan(&health.TotalMatches); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count matches: %w", err)
		}
	}

	var integrityResult string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}
