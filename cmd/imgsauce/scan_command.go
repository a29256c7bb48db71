package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"imgsauce/internal/catalog"
	"imgsauce/internal/classify"
	"imgsauce/internal/config"
	"imgsauce/internal/notifications"
	"imgsauce/internal/preflight"
	"imgsauce/internal/scan"
	"imgsauce/internal/schedule"
	"imgsauce/internal/services/danbooru"
	"imgsauce/internal/services/saucenao"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var (
		recursive    bool
		hashOnly     bool
		scheduleNext bool
		dryRun       bool
		high         float64
		low          float64
	)

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Scan a directory and match its images against Danbooru",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir, err := resolveDirectory(args[0])
			if err != nil {
				return err
			}

			thresholds := classify.Thresholds{Low: cfg.Scan.LowThreshold, High: cfg.Scan.HighThreshold}
			if cmd.Flags().Changed("low-threshold") {
				thresholds.Low = low
			}
			if cmd.Flags().Changed("high-threshold") {
				thresholds.High = high
			}
			if err := config.ValidateThresholds(thresholds.Low, thresholds.High); err != nil {
				return err
			}
			if err := cfg.RequireSearchCredentials(hashOnly); err != nil {
				return err
			}

			sess, err := ctx.openSession("scan")
			if err != nil {
				return err
			}
			defer sess.Close()

			if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg, preflight.Options{HashOnly: hashOnly})); len(failed) > 0 {
				return preflightError(failed)
			}

			store, err := catalog.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			searcher := saucenao.NewFromConfig(cfg, thresholds.Low, saucenao.WithLogger(sess.componentLogger("saucenao")))
			board := danbooru.NewFromConfig(cfg, danbooru.WithLogger(sess.componentLogger("danbooru")))
			scanner := scan.New(cfg, store, searcher, board,
				scan.WithLogger(sess.logger),
				scan.WithNotifier(notifications.NewService(cfg)),
			)

			summary, err := scanner.Run(cmd.Context(), scan.Request{
				Dir:        dir,
				Recursive:  recursive || cfg.Scan.Recursive,
				HashOnly:   hashOnly,
				DryRun:     dryRun || cfg.Scan.DryRun,
				Thresholds: thresholds,
				RunID:      sess.runID,
			})
			out := cmd.OutOrStdout()
			printScanSummary(out, summary, sess.runLog.Path)

			// The next run is booked even when this one failed or was interrupted.
			if scheduleNext {
				entry, schedErr := schedule.New(cfg).Reschedule(context.WithoutCancel(cmd.Context()), dir)
				if schedErr != nil {
					return errors.Join(err, schedErr)
				}
				printScheduled(out, entry)
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subdirectories")
	cmd.Flags().Float64Var(&high, "high-threshold", 0, "Similarity at or above which a match is accepted (default from config)")
	cmd.Flags().Float64Var(&low, "low-threshold", 0, "Similarity below which results are ignored (default from config)")
	cmd.Flags().BoolVar(&hashOnly, "hash-only", false, "Only check MD5 hashes against Danbooru; no reverse search")
	cmd.Flags().BoolVarP(&scheduleNext, "schedule", "s", false, "Move the crontab entry to run this scan again")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Never delete files or add favorites")
	return cmd
}

func resolveDirectory(arg string) (string, error) {
	expanded, err := config.ExpandPath(arg)
	if err != nil {
		return "", err
	}
	dir, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", arg, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("scan directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("scan directory: %s is not a directory", dir)
	}
	return dir, nil
}

func preflightError(failed []preflight.Result) error {
	errs := make([]error, 0, len(failed))
	for _, r := range failed {
		errs = append(errs, fmt.Errorf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed: %w", errors.Join(errs...))
}

func printScanSummary(out io.Writer, s scan.Summary, logPath string) {
	pairs := [][2]string{
		{"Files listed", strconv.Itoa(s.Listed)},
		{"Already cataloged / filtered", strconv.Itoa(s.Filtered)},
		{"Scanned", strconv.Itoa(s.Scanned)},
		{"Skipped", strconv.Itoa(s.Skipped)},
		{"Duplicates removed", strconv.Itoa(s.Duplicates)},
		{"Moved", strconv.Itoa(s.Moved)},
		{"MD5 matches", strconv.Itoa(s.BoardMatches)},
		{"Search matches", strconv.Itoa(s.Confirmed)},
		{"Banned artists", strconv.Itoa(s.Banned)},
		{"Pending review", fmt.Sprintf("%d (%d candidates)", s.Review, s.Candidates)},
		{"Lower resolution", strconv.Itoa(s.LowerResolution)},
		{"No match", strconv.Itoa(s.NoMatch)},
		{"Searches", strconv.Itoa(s.Searches)},
		{"Reclaimed", s.Reclaimed()},
		{"Duration", s.Duration.Round(time.Second).String()},
	}
	if s.DryRun {
		pairs = append(pairs, [2]string{"Dry run", yesNo(true)})
	}
	fmt.Fprintln(out, renderKeyValues(pairs))
	if s.QuotaReached {
		fmt.Fprintln(out, "Daily search limit reached; rerun after it resets.")
	}
	if logPath != "" {
		fmt.Fprintf(out, "Run log: %s\n", logPath)
	}
}

func printScheduled(out io.Writer, entry schedule.Entry) {
	verb := "updated"
	if entry.Added {
		verb = "added"
	}
	fmt.Fprintf(out, "Crontab job %s. Next job runs at: %02d:%02d\n", verb, entry.Hour, entry.Minute)
}
