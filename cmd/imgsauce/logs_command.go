package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"imgsauce/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines int
		raw   bool
		list  bool
	)

	cmd := &cobra.Command{
		Use:   "logs [run-id]",
		Short: "Show the log of the latest (or a given) scan or review run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if list {
				runs, err := logs.ListRuns(cfg.Paths.LogDir)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, []string{r.ID, r.ModTime.Format("2006-01-02 15:04"), fmt.Sprintf("%d", r.Size)})
				}
				fmt.Fprintln(out, renderTable([]string{"Run", "Modified", "Bytes"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
				return nil
			}

			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			run, err := logs.FindRun(cfg.Paths.LogDir, prefix)
			if err != nil {
				return err
			}
			entries, err := logs.Tail(run.Path, lines)
			if err != nil {
				return err
			}
			for _, line := range entries {
				if raw {
					fmt.Fprintln(out, line)
					continue
				}
				fmt.Fprintln(out, logs.Format(line))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing records to show (0 for all)")
	cmd.Flags().BoolVar(&raw, "json", false, "Print the raw JSON records")
	cmd.Flags().BoolVar(&list, "list", false, "List run logs instead of printing one")
	return cmd
}
