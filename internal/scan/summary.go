package scan

import (
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"imgsauce/internal/logging"
)

// Summary tallies one scan run.
type Summary struct {
	RunID     string
	Directory string
	HashOnly  bool
	DryRun    bool

	Listed          int
	Filtered        int
	Scanned         int
	Skipped         int
	Duplicates      int
	Moved           int
	BoardMatches    int
	Confirmed       int
	Banned          int
	Review          int
	Candidates      int
	LowerResolution int
	NoMatch         int
	Searches        int
	Cooldowns       int
	ReclaimedBytes  int64

	QuotaReached bool
	Duration     time.Duration
}

// Matched counts files resolved against the board, by hash or by search.
func (s Summary) Matched() int {
	return s.BoardMatches + s.Confirmed
}

// Reclaimed renders ReclaimedBytes for people.
func (s Summary) Reclaimed() string {
	if s.ReclaimedBytes <= 0 {
		return "0 B"
	}
	return humanize.Bytes(uint64(s.ReclaimedBytes))
}

// Attrs returns the summary as structured log fields.
func (s Summary) Attrs() []slog.Attr {
	return []slog.Attr{
		logging.String(logging.FieldEventType, "scan_summary"),
		logging.String("directory", s.Directory),
		logging.Int("files_listed", s.Listed),
		logging.Int("files_scanned", s.Scanned),
		logging.Int("files_filtered", s.Filtered),
		logging.Int("files_skipped", s.Skipped),
		logging.Int("duplicates", s.Duplicates),
		logging.Int("moved", s.Moved),
		logging.Int("confirmed", s.Matched()),
		logging.Int("banned", s.Banned),
		logging.Int("pending", s.Review),
		logging.Int("candidates", s.Candidates),
		logging.Int("lower_resolution", s.LowerResolution),
		logging.Int("no_match", s.NoMatch),
		logging.Int("searches", s.Searches),
		logging.Int("cooldowns", s.Cooldowns),
		logging.Int64("reclaimed_bytes", s.ReclaimedBytes),
		logging.Bool("quota_reached", s.QuotaReached),
		logging.Bool("dry_run", s.DryRun),
		logging.Duration("run_duration", s.Duration),
	}
}
