package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"scribe/internal/api"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate queue statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				stats, err := client.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, stats)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Total jobs: %d\n", stats.Total)

				if len(stats.ByStatus) > 0 {
					fmt.Fprintln(out, "\nBy status:")
					for _, key := range sortedKeys(stats.ByStatus) {
						fmt.Fprintf(out, "  %-16s %d\n", formatStatusLabel(key), stats.ByStatus[key])
					}
				}
				if len(stats.ByLanguage) > 0 {
					fmt.Fprintln(out, "\nBy language:")
					for _, key := range sortedKeys(stats.ByLanguage) {
						fmt.Fprintf(out, "  %-16s %d\n", key, stats.ByLanguage[key])
					}
				}
				if stats.MeanConfidence > 0 {
					fmt.Fprintf(out, "\nMean confidence:  %.0f%%\n", stats.MeanConfidence*100)
				}
				if stats.TotalDurationSeconds > 0 {
					fmt.Fprintf(out, "Audio processed:  %s\n", formatDuration(stats.TotalDurationSeconds))
				}
				if stats.TotalProcessingSeconds > 0 {
					fmt.Fprintf(out, "Time spent:       %s\n", formatDuration(stats.TotalProcessingSeconds))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of formatted output")
	return cmd
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "preview <url>",
		Short: "Fetch video metadata without queueing a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				preview, err := client.Preview(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, preview)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Video:    %s\n", preview.VideoID)
				fmt.Fprintf(out, "Title:    %s\n", preview.Title)
				if preview.Channel != "" {
					fmt.Fprintf(out, "Channel:  %s\n", preview.Channel)
				}
				if preview.DurationSeconds > 0 {
					fmt.Fprintf(out, "Duration: %s\n", formatDuration(preview.DurationSeconds))
				}
				if preview.UploadDate != "" {
					fmt.Fprintf(out, "Uploaded: %s\n", preview.UploadDate)
				}
				if preview.ViewCount > 0 {
					fmt.Fprintf(out, "Views:    %d\n", preview.ViewCount)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of formatted output")
	return cmd
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check daemon and queue health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				health, err := client.Health(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, health)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Daemon:     %s\n", health.Status)
				if health.Database != "" {
					fmt.Fprintf(out, "Database:   %s\n", health.Database)
				}
				fmt.Fprintf(out, "Total:      %d\n", health.Total)
				fmt.Fprintf(out, "Pending:    %d\n", health.Pending)
				fmt.Fprintf(out, "Processing: %d\n", health.Processing)
				fmt.Fprintf(out, "Completed:  %d\n", health.Completed)
				fmt.Fprintf(out, "Failed:     %d\n", health.Failed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of formatted output")
	return cmd
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
