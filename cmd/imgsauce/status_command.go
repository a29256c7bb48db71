package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"imgsauce/internal/catalog"
	"imgsauce/internal/config"
	"imgsauce/internal/deps"
	"imgsauce/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show catalog contents and environment checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, renderSectionHeader("Configuration", colorize))
			source := ctx.configSource
			if !ctx.configExists {
				source += " (not found, defaults in use)"
			}
			fmt.Fprintln(out, renderStatusLine("Config file", statusInfo, source, colorize))
			fmt.Fprintln(out, renderStatusLine("Notifications", notificationKind(cfg), notificationDetail(cfg), colorize))
			fmt.Fprintln(out)

			fmt.Fprintln(out, renderSectionHeader("Catalog", colorize))
			if err := printCatalogStats(cmd, out, cfg); err != nil {
				return err
			}
			fmt.Fprintln(out)

			fmt.Fprintln(out, renderSectionHeader("Checks", colorize))
			for _, r := range preflight.RunAll(cmd.Context(), cfg, preflight.Options{Remote: remote}) {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			fmt.Fprintln(out)

			fmt.Fprintln(out, renderSectionHeader("Dependencies", colorize))
			for _, dep := range preflight.CheckSystemDeps(cfg) {
				fmt.Fprintln(out, renderStatusLine(dep.Name, dependencyKind(dep), dependencyDetail(dep), colorize))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Also verify Danbooru credentials against the live API")
	return cmd
}

func printCatalogStats(cmd *cobra.Command, out io.Writer, cfg *config.Config) error {
	path := cfg.CatalogPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(out, "%sNo catalog yet at %s; run a scan first.\n", statusIndent, path)
		return nil
	}
	store, err := catalog.OpenPath(path)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	rows := make([][]string, 0, 8)
	for _, status := range catalog.ImageStatuses() {
		rows = append(rows, []string{"Images", status.String(), strconv.Itoa(stats.ImagesByStatus[status])})
	}
	for _, status := range []catalog.MatchStatus{catalog.MatchPending, catalog.MatchRejected} {
		rows = append(rows, []string{"Candidates", status.String(), strconv.Itoa(stats.MatchesByStatus[status])})
	}
	rows = append(rows,
		[]string{"Images", "awaiting review", strconv.Itoa(stats.PendingImages)},
		[]string{"Total", "images / candidates", fmt.Sprintf("%d / %d", stats.Images, stats.Matches)},
	)
	fmt.Fprintln(out, renderTable([]string{"Kind", "Status", "Count"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
	return nil
}

func notificationKind(cfg *config.Config) statusKind {
	if cfg.Notifications.NtfyTopic == "" {
		return statusWarn
	}
	return statusOK
}

func notificationDetail(cfg *config.Config) string {
	if cfg.Notifications.NtfyTopic == "" {
		return "Disabled (set notifications.ntfy_topic)"
	}
	return cfg.Notifications.NtfyTopic
}

func dependencyKind(dep deps.Status) statusKind {
	switch {
	case dep.Available:
		return statusOK
	case dep.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func dependencyDetail(dep deps.Status) string {
	if dep.Available {
		return dep.Command
	}
	detail := dep.Detail
	if dep.Description != "" {
		detail += " (" + dep.Description + ")"
	}
	return detail
}
