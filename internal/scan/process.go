package scan

import (
	"context"
	"errors"
	"log/slog"

	"imgsauce/internal/budget"
	"imgsauce/internal/catalog"
	"imgsauce/internal/classify"
	"imgsauce/internal/fileutil"
	"imgsauce/internal/fingerprint"
	"imgsauce/internal/logging"
	"imgsauce/internal/services"
	"imgsauce/internal/services/saucenao"
)

// processFile runs one file through the pipeline. stop is true when the
// search budget says the run should end.
func (s *Scanner) processFile(ctx context.Context, r *run, path string) (stop bool, err error) {
	logger := r.logger.With(logging.String(logging.FieldPath, path))

	fp, err := fingerprint.File(path)
	if err != nil {
		if !fileutil.IsRegularFile(path) {
			return false, services.Wrap(services.ErrSkipFile, stageName, "fingerprint", "file vanished", err)
		}
		return false, services.Wrap(services.ErrExternal, stageName, "fingerprint", path, err)
	}

	dup, err := classify.DetectDuplicate(ctx, s.store, path, fp)
	if err != nil {
		return false, err
	}
	switch dup.Kind {
	case classify.Duplicate:
		return false, s.removeDuplicate(r, logger, path, dup.Existing)
	case classify.Moved:
		return false, s.recordMove(ctx, r, logger, path, dup.Existing)
	}

	existing := dup.Existing
	if existing.ID != 0 {
		ctx = services.WithImageID(ctx, existing.ID)
		logger = logger.With(logging.Int64(logging.FieldImageID, existing.ID))
	}

	// Images already hash-checked skip the board lookup.
	if existing.ID == 0 || existing.Status != catalog.ImageStatusMD5Only {
		handled, err := s.checkBoard(ctx, r, logger, path, fp, existing)
		if err != nil || handled {
			return false, err
		}
	}

	if r.req.HashOnly {
		id, err := s.store.UpsertImage(ctx, path, fp.String(), catalog.ImageStatusMD5Only)
		if err != nil {
			return false, err
		}
		r.summary.NoMatch++
		logger.Info("no board match",
			logging.String(logging.FieldEventType, "md5_no_match"),
			logging.Int64(logging.FieldImageID, id),
		)
		return false, nil
	}

	return s.searchAndClassify(ctx, r, logger, path, fp)
}

func (s *Scanner) removeDuplicate(r *run, logger *slog.Logger, path string, existing catalog.Image) error {
	r.summary.Duplicates++
	attrs := []slog.Attr{
		logging.String(logging.FieldEventType, "duplicate"),
		logging.Int64(logging.FieldImageID, existing.ID),
		logging.String("original", existing.Path),
	}
	if r.req.DryRun {
		logger.Info("duplicate found (dry run, kept)", logging.Args(attrs...)...)
		return nil
	}
	released, err := fileutil.RemoveFile(path)
	if err != nil {
		return services.Wrap(services.ErrExternal, stageName, "remove duplicate", path, err)
	}
	r.summary.ReclaimedBytes += released
	logger.Info("duplicate removed", logging.Args(append(attrs, logging.Int64("reclaimed_bytes", released))...)...)
	return nil
}

func (s *Scanner) recordMove(ctx context.Context, r *run, logger *slog.Logger, path string, existing catalog.Image) error {
	// A row left at the target path describes content that is no longer there.
	stale, err := s.store.FindImages(ctx, catalog.Filter{catalog.Eq(catalog.ColumnPath, path)})
	if err != nil {
		return err
	}
	for _, img := range stale {
		if img.ID == existing.ID {
			continue
		}
		if err := s.store.DeleteImage(ctx, img.ID); err != nil {
			return err
		}
		logger.Debug("stale record at move target dropped",
			logging.Int64(logging.FieldImageID, img.ID),
			logging.String("status", img.Status.String()),
		)
	}
	if err := s.store.UpdateImageFields(ctx, existing.ID, catalog.ImageFields{Path: &path}); err != nil {
		return err
	}
	r.summary.Moved++
	logger.Info("image moved",
		logging.String(logging.FieldEventType, "moved"),
		logging.Int64(logging.FieldImageID, existing.ID),
		logging.String("previous_path", existing.Path),
	)
	return nil
}

// checkBoard looks the fingerprint up on the board. handled is true when the
// file needs no reverse search.
func (s *Scanner) checkBoard(ctx context.Context, r *run, logger *slog.Logger, path string, fp fingerprint.Hash, existing catalog.Image) (bool, error) {
	post, err := s.board.FindByMD5(ctx, fp.String())
	if err != nil {
		return false, err
	}
	if post == nil {
		return false, nil
	}
	if post.IsBanned {
		id, err := s.store.UpsertImage(ctx, path, fp.String(), catalog.ImageStatusBannedArtist)
		if err != nil {
			return false, err
		}
		r.summary.Banned++
		logger.Info("board lists a banned artist; keeping file",
			logging.String(logging.FieldEventType, "banned_artist"),
			logging.Int64(logging.FieldImageID, id),
			logging.Int64("remote_id", post.ID),
		)
		return true, nil
	}
	if err := s.accept(ctx, r, logger, path, existing.ID, post.ID); err != nil {
		return false, err
	}
	r.summary.BoardMatches++
	logger.Info("board match by md5",
		logging.String(logging.FieldEventType, "md5_match"),
		logging.Int64("remote_id", post.ID),
	)
	return true, nil
}

// accept favorites the post, removes the local copy and drops its record.
func (s *Scanner) accept(ctx context.Context, r *run, logger *slog.Logger, path string, imageID, remoteID int64) error {
	if r.req.DryRun {
		logger.Info("dry run: favorite and removal skipped",
			logging.String(logging.FieldDecisionType, "accept"),
			logging.Int64("remote_id", remoteID),
		)
		// Dropping the record lets a later real run search the file again.
		if imageID != 0 {
			return s.store.DeleteImage(ctx, imageID)
		}
		return nil
	}
	if err := s.board.AddFavorite(ctx, remoteID); err != nil {
		return err
	}
	released, err := fileutil.RemoveFile(path)
	if err != nil {
		return services.Wrap(services.ErrExternal, stageName, "remove matched file", path, err)
	}
	r.summary.ReclaimedBytes += released
	if imageID != 0 {
		if err := s.store.DeleteImage(ctx, imageID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) searchAndClassify(ctx context.Context, r *run, logger *slog.Logger, path string, fp fingerprint.Hash) (bool, error) {
	upload, err := saucenao.PrepareFile(path, s.thumbnailSize)
	if err != nil {
		return false, err
	}

	resp, err := s.searchWithRetry(ctx, logger, upload.Thumbnail)
	if err != nil {
		return false, err
	}

	imageID, err := s.store.UpsertImage(ctx, path, fp.String(), catalog.ImageStatusFullScan)
	if err != nil {
		return false, err
	}
	ctx = services.WithImageID(ctx, imageID)
	logger = logger.With(logging.Int64(logging.FieldImageID, imageID))

	results := make([]classify.Result, 0, len(resp.Results))
	for _, hit := range resp.Hits() {
		results = append(results, classify.Result{
			Similarity: hit.Similarity,
			Source:     s.search.DBMask(),
			RemoteID:   hit.PostID,
		})
	}

	local := classify.Dimensions{Width: upload.Width, Height: upload.Height}
	outcome, classifyErr := classify.ClassifyResults(ctx, s.board, local, results, r.req.Thresholds)
	if err := s.applyOutcome(ctx, r, logger, path, imageID, outcome); err != nil {
		return false, err
	}
	if classifyErr != nil {
		return false, classifyErr
	}

	decision, err := r.tracker.Observe(ctx, resp.ShortRemaining(), resp.LongRemaining())
	if err != nil {
		return false, err
	}
	logger.Debug("search budget",
		logging.Int("short_remaining", resp.ShortRemaining()),
		logging.Int("long_remaining", resp.LongRemaining()),
		logging.String(logging.FieldDecisionType, decision.String()),
	)
	stop := decision == budget.Stop
	if stop {
		r.summary.QuotaReached = true
	}
	return stop, nil
}

// searchWithRetry retries once after the configured delay when the provider
// reports a transient failure.
func (s *Scanner) searchWithRetry(ctx context.Context, logger *slog.Logger, thumbnail []byte) (*saucenao.Response, error) {
	resp, err := s.search.Search(ctx, thumbnail)
	if err == nil || !services.IsRetryable(err) {
		return resp, err
	}
	logging.WarnWithContext(logger, "search failed; retrying once", "search_retry",
		logging.Error(err),
		logging.Duration("backoff", s.retryDelay),
		logging.String(logging.FieldErrorHint, "the search service is overloaded"),
		logging.String(logging.FieldImpact, "scan paused before retrying"),
	)
	if err := s.sleep(ctx, s.retryDelay); err != nil {
		return nil, err
	}
	resp, err = s.search.Search(ctx, thumbnail)
	if err != nil && services.IsRetryable(err) {
		return nil, services.Wrap(services.ErrExternal, stageName, "search", "retry failed", err)
	}
	return resp, err
}

func (s *Scanner) applyOutcome(ctx context.Context, r *run, logger *slog.Logger, path string, imageID int64, outcome classify.Outcome) error {
	if outcome.Disposition != classify.Confirmed {
		for _, cand := range outcome.Pending {
			if _, err := s.store.InsertMatch(ctx, imageID, cand.Source, cand.RemoteID, cand.Similarity); err != nil {
				return err
			}
		}
		r.summary.Candidates += len(outcome.Pending)
	}
	for _, gone := range outcome.Unavailable {
		logger.Info("matched post no longer exists; candidate ignored",
			logging.String(logging.FieldDecisionType, "post_unavailable"),
			logging.Int64("remote_id", gone.RemoteID),
			logging.Float64("similarity", gone.Similarity),
		)
	}
	for _, rejected := range outcome.LowerResolution {
		logger.Info("remote copy has lower resolution; keeping file",
			logging.String(logging.FieldDecisionType, "resolution_guard"),
			logging.Int64("remote_id", rejected.RemoteID),
			logging.Float64("similarity", rejected.Similarity),
		)
	}

	switch outcome.Disposition {
	case classify.Confirmed:
		if err := s.accept(ctx, r, logger, path, imageID, outcome.Match.RemoteID); err != nil {
			return s.keepForReview(ctx, r, logger, imageID, outcome.Match, err)
		}
		r.summary.Confirmed++
		logger.Info("match confirmed",
			logging.String(logging.FieldEventType, "match_confirmed"),
			logging.String("disposition", outcome.Disposition.String()),
			logging.Int64("remote_id", outcome.Match.RemoteID),
			logging.Float64("similarity", outcome.Match.Similarity),
		)
	case classify.Banned:
		status := catalog.ImageStatusBannedArtist
		if err := s.store.UpdateImageFields(ctx, imageID, catalog.ImageFields{Status: &status}); err != nil {
			return err
		}
		r.summary.Banned++
		logger.Info("board lists a banned artist; keeping file",
			logging.String(logging.FieldEventType, "banned_artist"),
			logging.Int64("remote_id", outcome.Match.RemoteID),
			logging.Float64("similarity", outcome.Match.Similarity),
		)
	case classify.Review:
		r.summary.Review++
		logger.Info("candidates recorded for review",
			logging.String(logging.FieldEventType, "review_pending"),
			logging.String("disposition", outcome.Disposition.String()),
			logging.Int("candidates", len(outcome.Pending)),
			logging.Float64("similarity", outcome.Pending[0].Similarity),
		)
	case classify.LowerResolution:
		r.summary.LowerResolution++
	default:
		r.summary.NoMatch++
		logger.Info("no match",
			logging.String(logging.FieldEventType, "no_match"),
		)
	}
	return nil
}

// keepForReview records a confirmed match that could not be applied as a
// pending candidate, so review can finish the job, and returns cause.
func (s *Scanner) keepForReview(ctx context.Context, r *run, logger *slog.Logger, imageID int64, match classify.Result, cause error) error {
	if _, err := s.store.InsertMatch(ctx, imageID, match.Source, match.RemoteID, match.Similarity); err != nil {
		return errors.Join(cause, err)
	}
	r.summary.Candidates++
	logging.WarnWithContext(logger, "confirmed match not applied; kept for review", "accept_failed",
		logging.Int64("remote_id", match.RemoteID),
		logging.Float64("similarity", match.Similarity),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "run imgsauce review to favorite it"),
		logging.String(logging.FieldImpact, "file kept; match waits for review"),
	)
	return cause
}
