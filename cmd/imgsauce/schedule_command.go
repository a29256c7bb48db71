package main

import (
	"github.com/spf13/cobra"

	"imgsauce/internal/schedule"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <dir>",
		Short: "Point the crontab scan job at a directory, starting now",
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
			entry, err := schedule.New(cfg).Reschedule(cmd.Context(), dir)
			if err != nil {
				return err
			}
			printScheduled(cmd.OutOrStdout(), entry)
			return nil
		},
	}
}
