package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/api"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Queue a video URL for transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				job, err := client.CreateJob(cmd.Context(), args[0], language)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %d queued for %s (language %s)\n",
					job.ID, job.VideoID, job.LanguageRequested)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "Language hint (ISO 639-1 code or name, default auto-detect)")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var status string
	var language string
	var page int
	var pageSize int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transcription jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				list, err := client.ListJobs(cmd.Context(), status, language, page, pageSize)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, list)
				}

				out := cmd.OutOrStdout()
				if len(list.Jobs) == 0 {
					fmt.Fprintln(out, "No jobs found")
					return nil
				}

				rows := make([][]string, 0, len(list.Jobs))
				for _, job := range list.Jobs {
					rows = append(rows, []string{
						strconv.FormatInt(job.ID, 10),
						truncate(job.Title, 40),
						formatStatusLabel(job.Status),
						fmt.Sprintf("%d%%", job.Progress),
						jobLanguage(job),
						formatDuration(job.DurationSeconds),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Title", "Status", "Progress", "Lang", "Duration"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignRight},
				))
				fmt.Fprintf(out, "%d of %d jobs\n", len(list.Jobs), list.Total)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, downloading, ... completed, failed)")
	cmd.Flags().StringVar(&language, "language", "", "Filter by requested language")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Jobs per page")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var showRaw bool
	var textOnly bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job in detail, including its transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *api.Client) error {
				job, err := client.GetJob(cmd.Context(), id)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, job)
				}

				out := cmd.OutOrStdout()
				if textOnly {
					text := job.RefinedText
					if showRaw || text == "" {
						text = job.RawText
					}
					fmt.Fprintln(out, text)
					return nil
				}

				printJobDetail(out, job, showRaw)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of formatted output")
	cmd.Flags().BoolVar(&showRaw, "raw", false, "Show the raw transcript instead of the refined one")
	cmd.Flags().BoolVar(&textOnly, "text", false, "Print only the transcript text")
	return cmd
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Reset failed jobs back to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseJobIDs(args)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *api.Client) error {
				out := cmd.OutOrStdout()
				if len(ids) == 0 {
					retried, err := client.RetryAllFailed(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%d failed jobs reset for retry\n", retried)
					return nil
				}
				for _, id := range ids {
					if _, err := client.RetryJob(cmd.Context(), id); err != nil {
						return err
					}
					fmt.Fprintf(out, "Job %d reset for retry\n", id)
				}
				return nil
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id...>",
		Aliases: []string{"rm", "delete"},
		Short:   "Remove jobs from the queue",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseJobIDs(args)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *api.Client) error {
				for _, id := range ids {
					if err := client.DeleteJob(cmd.Context(), id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Job %d removed\n", id)
				}
				return nil
			})
		},
	}
}

func parseJobID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", arg)
	}
	return id, nil
}

func parseJobIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseJobID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
