package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"enrichd/internal/config"
	"enrichd/internal/workflow"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var channelFlag string
	var csvFlag string
	var updateFlag string
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Walk the catalog and submit videos for enrichment",
		Long: `Walk the platform catalog starting at a channel (or a CSV of channel
oids) and submit each video for enrichment. Already-tracked videos are skipped
unless an update mode is given: "all" force-resubmits, "stuck" polls and
recovers stalled jobs, and "quiz" requests quiz generation for finished jobs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := workflow.ParseMode(updateFlag)
			if err != nil {
				return err
			}

			if channelFlag != "" && csvFlag != "" {
				return errors.New("--channel and --csv are mutually exclusive")
			}
			var channels []string
			if csvFlag != "" {
				path, err := config.ExpandPath(csvFlag)
				if err != nil {
					return err
				}
				channels, err = workflow.LoadChannelList(path)
				if err != nil {
					return err
				}
				if len(channels) == 0 {
					return fmt.Errorf("%s lists no channels", path)
				}
			} else if channelFlag != "" {
				channels = []string{channelFlag}
			}

			rt, cleanup, err := ctx.buildRuntime()
			if err != nil {
				return err
			}
			defer cleanup()

			driver := workflow.New(rt.cfg, rt.store, rt.aristote, rt.media, rt.reconciler, rt.logger)
			result, err := driver.Run(cmd.Context(), workflow.Options{
				Channels: channels,
				Mode:     mode,
				Limit:    limitFlag,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
			return nil
		},
	}

	cmd.Flags().StringVar(&channelFlag, "channel", "", "Root channel oid to walk (empty walks the platform root)")
	cmd.Flags().StringVar(&csvFlag, "csv", "", "CSV file listing root channel oids to walk in order")
	cmd.Flags().StringVar(&updateFlag, "update", "", "Update mode for tracked videos: all, stuck, or quiz")
	cmd.Flags().IntVar(&limitFlag, "limit", 0, "Maximum number of submissions to issue (0 = unlimited)")

	return cmd
}
