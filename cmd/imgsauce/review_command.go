package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"imgsauce/internal/catalog"
	"imgsauce/internal/review"
	"imgsauce/internal/services/danbooru"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	var (
		threshold float64
		dryRun    bool
		noBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Walk images with pending candidates and confirm or reject them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = cfg.Review.Threshold
			}
			if threshold < 0 || threshold > 100 {
				return fmt.Errorf("threshold must be between 0 and 100, got %g", threshold)
			}

			sess, err := ctx.openSession("review")
			if err != nil {
				return err
			}
			defer sess.Close()

			store, err := catalog.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			board := danbooru.NewFromConfig(cfg, danbooru.WithLogger(sess.componentLogger("danbooru")))
			var launcher review.Launcher
			if !noBrowser {
				launcher = review.CommandLauncher{Command: cfg.Review.BrowserCommand}
			}
			out := cmd.OutOrStdout()
			presenter := review.NewTerminal(cmd.InOrStdin(), out, launcher, board.PostURL,
				review.WithColor(shouldColorize(out)),
			)

			summary, err := review.New(store, board, presenter, review.WithLogger(sess.logger)).Run(cmd.Context(), review.Request{
				Threshold: threshold,
				DryRun:    dryRun || cfg.Scan.DryRun,
				RunID:     sess.runID,
			})
			printReviewSummary(out, summary)
			return err
		},
	}

	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 0, "Only show candidates at or above this similarity (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Never delete files, favorite posts or reject candidates")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Do not open the image and candidate pages")
	return cmd
}

func printReviewSummary(out io.Writer, s review.Summary) {
	if s.Images == 0 && s.Vanished == 0 && !s.Quit {
		fmt.Fprintln(out, "Nothing to review.")
		return
	}
	fmt.Fprintln(out, renderKeyValues([][2]string{
		{"Reviewed", strconv.Itoa(s.Images)},
		{"Accepted", strconv.Itoa(s.Accepted)},
		{"Rejected", strconv.Itoa(s.Rejected)},
		{"Favorited", strconv.Itoa(s.Favorited)},
		{"Records of deleted files", strconv.Itoa(s.Vanished)},
		{"Reclaimed", s.Reclaimed()},
	}))
	if s.Quit {
		fmt.Fprintln(out, "Exited.")
	}
}
