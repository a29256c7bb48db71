package classify

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"imgsauce/internal/services"
)

// Dimensions is a pixel size.
type Dimensions struct {
	Width  int
	Height int
}

// Sum returns width plus height, the measure used by the resolution guard.
func (d Dimensions) Sum() int { return d.Width + d.Height }

// Result is one reverse-search hit.
type Result struct {
	Similarity float64
	Source     int64
	RemoteID   int64
}

// Asset is the remote metadata fetched for high-similarity hits.
type Asset struct {
	RemoteID int64
	Width    int
	Height   int
	Banned   bool
}

// AssetLookup fetches remote asset metadata.
type AssetLookup interface {
	GetAsset(ctx context.Context, remoteID int64) (Asset, error)
}

// Thresholds bound the ambiguous band. A result is considered when its
// similarity exceeds Low and accepted outright when it exceeds High.
type Thresholds struct {
	Low  float64
	High float64
}

// Disposition is the overall verdict for one file's results.
type Disposition int

const (
	NoMatch Disposition = iota
	Review
	LowerResolution
	Confirmed
	Banned
)

func (d Disposition) String() string {
	switch d {
	case Review:
		return "review"
	case LowerResolution:
		return "lower_resolution"
	case Confirmed:
		return "confirmed"
	case Banned:
		return "banned"
	default:
		return "no_match"
	}
}

// Outcome is the classification of a result list.
type Outcome struct {
	Disposition Disposition
	// Match and Asset are set for Confirmed and Banned.
	Match Result
	Asset Asset
	// Pending lists candidates to record for review, highest first.
	Pending []Result
	// LowerResolution lists high candidates rejected by the resolution guard.
	LowerResolution []Result
	// Unavailable lists high candidates whose remote post no longer exists.
	Unavailable []Result
}

// resolutionMargin scales the local size before comparing it with the remote.
const resolutionMargin = 0.95

// ClassifyResults sorts results by descending similarity (stable, so ties keep
// response order) and walks them. High candidates are checked against the
// remote asset and stop the walk when banned or accepted; candidates whose
// remote copy is smaller than the local file are skipped, as are candidates
// whose remote post is gone. Candidates in the ambiguous band become pending.
//
// Any other lookup failure ends the walk: the failing candidate and every
// candidate not yet reached are appended to Pending and returned together
// with the error so the caller can record them before aborting.
func ClassifyResults(ctx context.Context, lookup AssetLookup, local Dimensions, results []Result, th Thresholds) (Outcome, error) {
	considered := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Similarity > th.Low {
			considered = append(considered, r)
		}
	}
	if len(considered) == 0 {
		return Outcome{Disposition: NoMatch}, nil
	}
	sort.SliceStable(considered, func(i, j int) bool {
		return considered[i].Similarity > considered[j].Similarity
	})

	var out Outcome
	for i, r := range considered {
		if r.Similarity <= th.High {
			out.Pending = append(out.Pending, r)
			continue
		}
		asset, err := lookup.GetAsset(ctx, r.RemoteID)
		if errors.Is(err, services.ErrSkipFile) {
			out.Unavailable = append(out.Unavailable, r)
			continue
		}
		if err != nil {
			out.Pending = append(out.Pending, considered[i:]...)
			out.Disposition = Review
			return out, fmt.Errorf("lookup remote asset %d: %w", r.RemoteID, err)
		}
		if asset.Banned {
			out.Disposition = Banned
			out.Match = r
			out.Asset = asset
			return out, nil
		}
		if float64(local.Sum())*resolutionMargin > float64(asset.Width+asset.Height) {
			out.LowerResolution = append(out.LowerResolution, r)
			continue
		}
		out.Disposition = Confirmed
		out.Match = r
		out.Asset = asset
		return out, nil
	}

	switch {
	case len(out.Pending) > 0:
		out.Disposition = Review
	case len(out.LowerResolution) > 0:
		out.Disposition = LowerResolution
	default:
		out.Disposition = NoMatch
	}
	return out, nil
}
