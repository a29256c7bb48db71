package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"imgsauce/internal/budget"
	"imgsauce/internal/catalog"
	"imgsauce/internal/classify"
	"imgsauce/internal/config"
	"imgsauce/internal/fileutil"
	"imgsauce/internal/logging"
	"imgsauce/internal/notifications"
	"imgsauce/internal/services"
)

const stageName = "scan"

// Request describes one scan invocation.
type Request struct {
	Dir        string
	Recursive  bool
	HashOnly   bool
	DryRun     bool
	Thresholds classify.Thresholds
	RunID      string
}

// Scanner runs scans against a catalog, a search provider and the board.
type Scanner struct {
	store    Catalog
	search   Searcher
	board    Board
	notifier notifications.Service
	logger   *slog.Logger

	extensions    []string
	blacklist     []string
	thumbnailSize int
	retryDelay    time.Duration
	cooldown      time.Duration
	reviewMinimum float64
	sleep         budget.Sleeper
	now           func() time.Time
}

// Option customizes a Scanner.
type Option func(*Scanner)

// WithLogger attaches the run logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNotifier attaches a notification service.
func WithNotifier(n notifications.Service) Option {
	return func(s *Scanner) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithSleeper overrides cooldown and retry waits (useful for tests).
func WithSleeper(sleep budget.Sleeper) Option {
	return func(s *Scanner) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// New builds a scanner from configuration and its collaborators.
func New(cfg *config.Config, store Catalog, search Searcher, board Board, opts ...Option) *Scanner {
	s := &Scanner{
		store:         store,
		search:        search,
		board:         board,
		notifier:      notifications.NewService(nil),
		logger:        logging.NewNop(),
		extensions:    cfg.Scan.Extensions,
		blacklist:     cfg.Scan.BlacklistedTerms,
		thumbnailSize: cfg.SauceNAO.ThumbnailSize,
		retryDelay:    time.Duration(cfg.SauceNAO.RetryDelaySeconds) * time.Second,
		cooldown:      time.Duration(cfg.SauceNAO.CooldownSeconds) * time.Second,
		reviewMinimum: cfg.Review.Threshold,
		sleep:         budget.Sleep,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run holds the per-invocation state.
type run struct {
	req     Request
	filter  *pathFilter
	tracker *budget.Tracker
	summary *Summary
	logger  *slog.Logger
}

// Run scans req.Dir. The returned summary is valid even when err is non-nil.
// An exhausted search quota is not an error: Summary.QuotaReached is set.
func (s *Scanner) Run(ctx context.Context, req Request) (Summary, error) {
	started := s.now()
	summary := Summary{
		RunID:     req.RunID,
		Directory: req.Dir,
		HashOnly:  req.HashOnly,
		DryRun:    req.DryRun,
	}

	ctx = services.WithStage(ctx, stageName)
	if req.RunID != "" {
		ctx = services.WithRunID(ctx, req.RunID)
	}
	logger := logging.WithContext(ctx, s.logger)

	if err := config.ValidateThresholds(req.Thresholds.Low, req.Thresholds.High); err != nil {
		return summary, services.Wrap(services.ErrConfiguration, stageName, "validate", "thresholds", err)
	}

	logger.Info("scan started",
		logging.String(logging.FieldEventType, "scan_start"),
		logging.String("directory", req.Dir),
		logging.Bool("recursive", req.Recursive),
		logging.Bool("hash_only", req.HashOnly),
		logging.Bool("dry_run", req.DryRun),
		logging.Float64("low_threshold", req.Thresholds.Low),
		logging.Float64("high_threshold", req.Thresholds.High),
	)

	files, err := fileutil.ListFiles(req.Dir, req.Recursive, func(path string, err error) {
		logging.WarnWithContext(logger, "directory unreadable; skipping", "walk_skip",
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check directory permissions"),
			logging.String(logging.FieldImpact, "files inside were not scanned"),
		)
	})
	if err != nil {
		err = services.Wrap(services.ErrConfiguration, stageName, "list files", req.Dir, err)
		s.finish(ctx, logger, &summary, started, err)
		return summary, err
	}
	summary.Listed = len(files)

	r := &run{
		req:    req,
		filter: newPathFilter(s.extensions, s.blacklist),
		tracker: budget.NewTracker(s.cooldown,
			budget.WithSleeper(s.sleep),
			budget.WithLogger(logger),
		),
		summary: &summary,
		logger:  logger,
	}

	err = s.scanFiles(ctx, r, files)
	summary.Searches = r.tracker.Searches()
	summary.Cooldowns = r.tracker.Cooldowns()
	s.finish(ctx, logger, &summary, started, err)
	return summary, err
}

func (s *Scanner) scanFiles(ctx context.Context, r *run, files []string) error {
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if reason := r.filter.reason(path); reason != "" {
			r.summary.Filtered++
			continue
		}
		done, err := s.alreadyScanned(ctx, path, r.req.HashOnly)
		if err != nil {
			return err
		}
		if done {
			r.summary.Filtered++
			continue
		}

		r.summary.Scanned++
		stop, err := s.processFile(ctx, r, path)
		if err != nil {
			switch services.Classify(err) {
			case services.KindSkip:
				r.summary.Skipped++
				logging.WarnWithContext(r.logger, "file skipped", "file_skipped",
					logging.String(logging.FieldPath, path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the file is a readable image"),
					logging.String(logging.FieldImpact, "file left untouched"),
				)
			case services.KindQuota:
				r.summary.QuotaReached = true
				r.logger.Info("search quota exhausted; stopping scan",
					logging.String(logging.FieldEventType, "quota_stop"),
					logging.String(logging.FieldPath, path),
				)
				return nil
			default:
				return err
			}
		}
		if stop {
			return nil
		}
	}
	return nil
}

// alreadyScanned reports whether path carries a terminal status for the mode.
func (s *Scanner) alreadyScanned(ctx context.Context, path string, hashOnly bool) (bool, error) {
	statuses := []catalog.ImageStatus{catalog.ImageStatusFullScan, catalog.ImageStatusBannedArtist}
	if hashOnly {
		statuses = catalog.ImageStatuses()
	}
	images, err := s.store.FindImages(ctx, catalog.Filter{
		catalog.Eq(catalog.ColumnPath, path),
		catalog.StatusIn(statuses...),
	})
	if err != nil {
		return false, err
	}
	return len(images) > 0, nil
}

func (s *Scanner) finish(ctx context.Context, logger *slog.Logger, summary *Summary, started time.Time, err error) {
	summary.Duration = s.now().Sub(started)
	attrs := summary.Attrs()
	if err != nil {
		attrs = append(attrs, logging.Error(err))
		logging.ErrorWithContext(logger, "scan failed", "scan_failed", append(attrs,
			logging.String(logging.FieldErrorHint, hintFor(err)),
		)...)
	} else {
		logger.Info("scan finished", logging.Args(attrs...)...)
	}

	// Notifications are best effort and must not outlive a cancelled run.
	notifyCtx := context.WithoutCancel(ctx)
	switch {
	case err != nil && !errors.Is(err, context.Canceled):
		s.publish(notifyCtx, logger, notifications.EventError, notifications.Payload{
			"context": stageName,
			"error":   err,
		})
	case summary.QuotaReached:
		s.publish(notifyCtx, logger, notifications.EventQuotaStop, notifications.Payload{
			"directory": summary.Directory,
			"scanned":   summary.Scanned,
		})
	case err == nil:
		s.publish(notifyCtx, logger, notifications.EventRunCompleted, notifications.Payload{
			"directory":      summary.Directory,
			"scanned":        summary.Scanned,
			"matched":        summary.Matched(),
			"pending":        summary.Review,
			"duplicates":     summary.Duplicates,
			"reclaimedBytes": summary.ReclaimedBytes,
		})
	}
	if err == nil || summary.QuotaReached {
		if pending, perr := s.store.ImagesWithPending(notifyCtx, s.reviewMinimum); perr == nil {
			s.publish(notifyCtx, logger, notifications.EventReviewPending, notifications.Payload{"count": len(pending)})
		}
	}
}

func (s *Scanner) publish(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if err := s.notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "run result was not pushed"),
		)
	}
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrCredential):
		return "check saucenao.api_key and the danbooru login/api_key"
	case errors.Is(err, services.ErrStorage):
		return "check the catalog with 'imgsauce status'"
	case errors.Is(err, services.ErrTransient):
		return "the service is struggling; rerun later"
	case errors.Is(err, services.ErrConfiguration):
		return "check the scan directory and config values"
	default:
		return fmt.Sprintf("see run log for details (%s)", services.Classify(err))
	}
}
