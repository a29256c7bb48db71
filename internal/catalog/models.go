package catalog

import (
	"path/filepath"
	"strings"
	"time"
)

// ImageStatus records how far an image has been scanned.
type ImageStatus int

const (
	// ImageStatusFullScan marks an image that went through a reverse search.
	ImageStatusFullScan ImageStatus = 1
	// ImageStatusMD5Only marks an image only checked against the board by hash.
	ImageStatusMD5Only ImageStatus = 2
	// ImageStatusBannedArtist marks an image whose board post is banned; the
	// local copy is kept.
	ImageStatusBannedArtist ImageStatus = 3
)

// ImageStatuses lists every known image status code.
func ImageStatuses() []ImageStatus {
	return []ImageStatus{ImageStatusFullScan, ImageStatusMD5Only, ImageStatusBannedArtist}
}

func (s ImageStatus) String() string {
	switch s {
	case ImageStatusFullScan:
		return "full-scan"
	case ImageStatusMD5Only:
		return "md5-only-scan"
	case ImageStatusBannedArtist:
		return "banned-artist"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a known code.
func (s ImageStatus) Valid() bool {
	return s >= ImageStatusFullScan && s <= ImageStatusBannedArtist
}

// MatchStatus tracks the review state of a candidate.
type MatchStatus int

const (
	MatchPending  MatchStatus = 0
	MatchRejected MatchStatus = 1
)

func (s MatchStatus) String() string {
	switch s {
	case MatchPending:
		return "pending"
	case MatchRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a known code.
func (s MatchStatus) Valid() bool {
	return s == MatchPending || s == MatchRejected
}

// Image is a cataloged local file.
type Image struct {
	ID          int64
	Name        string
	Ext         string
	Path        string
	Fingerprint string
	Status      ImageStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Match is a reverse-search candidate awaiting or past review.
type Match struct {
	ID         int64
	ImageID    int64
	Source     int64
	RemoteID   int64
	Similarity float64
	Status     MatchStatus
	CreatedAt  time.Time
}

// ImageFields selects columns for a partial update. Nil fields are left
// untouched. Setting Path without Name or Ext derives them from the new path.
type ImageFields struct {
	Path   *string
	Name   *string
	Ext    *string
	Status *ImageStatus
}

// MatchFilter narrows FindMatches. Zero values mean "any".
type MatchFilter struct {
	ImageID       int64
	Statuses      []MatchStatus
	MinSimilarity float64
}

// Stats summarizes catalog contents.
type Stats struct {
	Images          int
	Matches         int
	ImagesByStatus  map[ImageStatus]int
	MatchesByStatus map[MatchStatus]int
	PendingImages   int
}

// DatabaseHealth reports diagnostic information about the catalog database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	TablesPresent    []string
	MissingTables    []string
	IntegrityCheck   bool
	TotalImages      int
	TotalMatches     int
	Error            string
}

// SplitName returns the base name without extension and the extension
// (with its leading dot) for a file path.
func SplitName(path string) (name, ext string) {
	base := filepath.Base(path)
	ext = filepath.Ext(base)
	name = strings.TrimSuffix(base, ext)
	return name, ext
}
