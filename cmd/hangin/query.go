package main

import (
	"encoding/json"
	"fmt"

	"hang-in-there/internal/cms"
	"hang-in-there/internal/story"

	"github.com/spf13/cobra"
)

func newStoriesCmd(a *app) *cobra.Command {
	var (
		f      story.Filters
		theme  string
		status string
	)

	cmd := &cobra.Command{
		Use:   "stories",
		Short: "List stories from the CMS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.Theme = story.Theme(theme)
			if theme != "" && !f.Theme.Valid() {
				return fmt.Errorf("unknown theme %q", theme)
			}
			f.Status = story.Status(status)
			if status != "" && !f.Status.Valid() {
				return fmt.Errorf("unknown status %q", status)
			}
			if f.Sort != "" && !story.ValidSort(f.Sort) {
				return fmt.Errorf("unknown sort %q", f.Sort)
			}

			client := a.cmsClient()
			defer client.Close()

			return printResult(cmd, client.ListStories(cmd.Context(), f))
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&f.Page, "page", 0, "1-based page number")
	flags.IntVar(&f.PageSize, "page-size", 0, "stories per page")
	flags.StringVar(&theme, "theme", "", "theme filter")
	flags.StringVar(&status, "status", "", "status filter (draft, scheduled, published)")
	flags.StringVar(&f.Search, "search", "", "case-insensitive search over headline and narrative")
	flags.StringVar(&f.DateFrom, "date-from", "", "earliest publish date")
	flags.StringVar(&f.DateTo, "date-to", "", "latest publish date")
	flags.StringVar(&f.Sort, "sort", "", "sort key, e.g. publishDate:desc")

	return cmd
}

func newDailyCmd(a *app) *cobra.Command {
	var timezone string

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Show today's published story",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := a.cmsClient()
			defer client.Close()

			return printResult(cmd, client.GetDailyStory(cmd.Context(), timezone))
		},
	}
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA zone used to decide today (default UTC)")

	return cmd
}

func newStoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "story <id>",
		Short: "Show a single story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := a.cmsClient()
			defer client.Close()

			return printResult(cmd, client.GetStoryByID(cmd.Context(), args[0]))
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check whether the CMS is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := a.cmsClient()
			defer client.Close()

			res := client.CheckHealth(cmd.Context())
			if err := printResult(cmd, res); err != nil {
				return err
			}
			if !res.Data.Available {
				return fmt.Errorf("cms not available")
			}
			return nil
		},
	}
}

// printResult writes the tagged result as JSON and turns a failure into the
// command's error so the process exits non-zero.
func printResult[T any](cmd *cobra.Command, res cms.Result[T]) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}

	_, err := res.Unwrap()
	return err
}
