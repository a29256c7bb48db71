package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"imgsauce/internal/catalog"
	"imgsauce/internal/fileutil"
	"imgsauce/internal/logging"
	"imgsauce/internal/services"
)

const stageName = "review"

// Catalog is the persistence surface the reviewer needs.
type Catalog interface {
	ImagesWithPending(ctx context.Context, minSimilarity float64) ([]catalog.Image, error)
	FindMatches(ctx context.Context, filter catalog.MatchFilter) ([]catalog.Match, error)
	UpdateMatchStatus(ctx context.Context, ids []int64, status catalog.MatchStatus) (int64, error)
	DeleteImage(ctx context.Context, id int64) error
}

// Favoriter adds posts to the account's favorites.
type Favoriter interface {
	AddFavorite(ctx context.Context, id int64) error
}

// Item is one image presented for review.
type Item struct {
	Image      catalog.Image
	Candidates []catalog.Match
	Position   int
	Total      int
}

// Presenter shows an item to the reviewer and returns a valid decision.
type Presenter interface {
	Present(ctx context.Context, item Item) (Decision, error)
}

var _ Catalog = (*catalog.Store)(nil)

// Request configures one review session.
type Request struct {
	Threshold float64
	DryRun    bool
	RunID     string
}

// Summary counts what a session did.
type Summary struct {
	Images         int
	Accepted       int
	Rejected       int
	Vanished       int
	Favorited      int
	ReclaimedBytes int64
	Quit           bool
	Duration       time.Duration
}

// Reclaimed renders ReclaimedBytes for people.
func (s Summary) Reclaimed() string {
	return humanize.Bytes(uint64(max(s.ReclaimedBytes, 0)))
}

// Reviewer applies reviewer decisions to the catalog and the board.
type Reviewer struct {
	store     Catalog
	board     Favoriter
	presenter Presenter
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes a Reviewer.
type Option func(*Reviewer)

// WithLogger sets the reviewer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reviewer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New builds a Reviewer.
func New(store Catalog, board Favoriter, presenter Presenter, opts ...Option) *Reviewer {
	r := &Reviewer{
		store:     store,
		board:     board,
		presenter: presenter,
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run presents every image with pending candidates at or above
// req.Threshold. It stops early when the reviewer quits.
func (r *Reviewer) Run(ctx context.Context, req Request) (Summary, error) {
	started := r.now()
	var summary Summary

	ctx = services.WithStage(ctx, stageName)
	if req.RunID != "" {
		ctx = services.WithRunID(ctx, req.RunID)
	}
	logger := logging.WithContext(ctx, r.logger)

	images, err := r.store.ImagesWithPending(ctx, req.Threshold)
	if err != nil {
		return summary, err
	}
	logger.Info("review started",
		logging.String(logging.FieldEventType, "review_start"),
		logging.Int("images", len(images)),
		logging.Float64("threshold", req.Threshold),
		logging.Bool("dry_run", req.DryRun),
	)

	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return r.finish(logger, summary, started, err)
		}
		imgCtx := services.WithImageID(ctx, img.ID)
		imgLogger := logger.With(
			logging.Int64(logging.FieldImageID, img.ID),
			logging.String(logging.FieldPath, img.Path),
		)

		if !fileutil.IsRegularFile(img.Path) {
			if err := r.store.DeleteImage(imgCtx, img.ID); err != nil {
				return r.finish(logger, summary, started, err)
			}
			summary.Vanished++
			imgLogger.Info("file already deleted; record removed",
				logging.String(logging.FieldEventType, "review_vanished"),
			)
			continue
		}

		candidates, err := r.store.FindMatches(imgCtx, catalog.MatchFilter{
			ImageID:       img.ID,
			Statuses:      []catalog.MatchStatus{catalog.MatchPending},
			MinSimilarity: req.Threshold,
		})
		if err != nil {
			return r.finish(logger, summary, started, err)
		}
		if len(candidates) == 0 {
			continue
		}

		decision, err := r.presenter.Present(imgCtx, Item{
			Image:      img,
			Candidates: candidates,
			Position:   i + 1,
			Total:      len(images),
		})
		if err != nil {
			return r.finish(logger, summary, started, err)
		}
		if decision.Action == ActionQuit {
			summary.Quit = true
			imgLogger.Info("review stopped by reviewer",
				logging.String(logging.FieldDecisionType, decision.Action.String()),
			)
			break
		}
		summary.Images++
		if err := r.apply(imgCtx, imgLogger, req, img, candidates, decision, &summary); err != nil {
			return r.finish(logger, summary, started, err)
		}
	}
	return r.finish(logger, summary, started, nil)
}

func (r *Reviewer) apply(ctx context.Context, logger *slog.Logger, req Request, img catalog.Image, candidates []catalog.Match, decision Decision, summary *Summary) error {
	switch decision.Action {
	case ActionNone:
		ids := make([]int64, 0, len(candidates))
		for _, c := range candidates {
			ids = append(ids, c.ID)
		}
		summary.Rejected++
		if req.DryRun {
			logger.Info("dry run: candidates left pending",
				logging.String(logging.FieldDecisionType, decision.Action.String()),
				logging.Int("candidates", len(ids)),
			)
			return nil
		}
		if _, err := r.store.UpdateMatchStatus(ctx, ids, catalog.MatchRejected); err != nil {
			return err
		}
		logger.Info("candidates rejected",
			logging.String(logging.FieldDecisionType, decision.Action.String()),
			logging.Int("candidates", len(ids)),
		)
		return nil

	case ActionAll, ActionSubset:
		selected, err := selectCandidates(candidates, decision)
		if err != nil {
			return err
		}
		summary.Accepted++
		if req.DryRun {
			logger.Info("dry run: favorite and removal skipped",
				logging.String(logging.FieldDecisionType, decision.Action.String()),
				logging.Int("selected", len(selected)),
			)
			return nil
		}
		for _, c := range selected {
			if err := r.board.AddFavorite(ctx, c.RemoteID); err != nil {
				return err
			}
			summary.Favorited++
			logger.Info("added to favorites",
				logging.Int64("remote_id", c.RemoteID),
				logging.Float64("similarity", c.Similarity),
			)
		}
		released, err := fileutil.RemoveFile(img.Path)
		if err != nil {
			return services.Wrap(services.ErrExternal, stageName, "remove file", img.Path, err)
		}
		summary.ReclaimedBytes += released
		if err := r.store.DeleteImage(ctx, img.ID); err != nil {
			return err
		}
		logger.Info("image accepted and removed",
			logging.String(logging.FieldDecisionType, decision.Action.String()),
			logging.Int("selected", len(selected)),
			logging.Int64("reclaimed_bytes", released),
		)
		return nil
	}
	return services.Wrap(services.ErrConfiguration, stageName, "apply", fmt.Sprintf("unsupported action %d", decision.Action), nil)
}

func selectCandidates(candidates []catalog.Match, decision Decision) ([]catalog.Match, error) {
	if decision.Action == ActionAll {
		return candidates, nil
	}
	selected := make([]catalog.Match, 0, len(decision.Indices))
	for _, idx := range decision.Indices {
		if idx < 0 || idx >= len(candidates) {
			return nil, fmt.Errorf("%w: candidate %d out of range", ErrInvalidInput, idx)
		}
		selected = append(selected, candidates[idx])
	}
	return selected, nil
}

func (r *Reviewer) finish(logger *slog.Logger, summary Summary, started time.Time, err error) (Summary, error) {
	summary.Duration = r.now().Sub(started)
	attrs := []slog.Attr{
		logging.Int("images", summary.Images),
		logging.Int("accepted", summary.Accepted),
		logging.Int("rejected", summary.Rejected),
		logging.Int("vanished", summary.Vanished),
		logging.Int("favorited", summary.Favorited),
		logging.Int64("reclaimed_bytes", summary.ReclaimedBytes),
		logging.Duration("run_duration", summary.Duration),
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.ErrorWithContext(logger, "review failed", "review_failed", append(attrs,
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "decisions made so far are saved; rerun review to continue"),
		)...)
		return summary, err
	}
	logger.Info("review finished", logging.Args(attrs...)...)
	return summary, err
}
