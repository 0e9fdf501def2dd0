package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aros2100/neuro-news/internal/openalex"
	"github.com/Aros2100/neuro-news/internal/pipeline"
)

var impactCmd = &cobra.Command{
	Use:   "impact",
	Short: "Fetch missing journal impact factors from OpenAlex",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		refresher := pipeline.NewImpactRefresher(st, openalex.NewClient(
			openalex.WithBaseURL(cfg.OpenAlex.BaseURL),
			openalex.WithUserAgent(cfg.OpenAlex.UserAgent),
		))

		report, err := refresher.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Updated impact factor for %d of %d journals (%d not found); denormalized to %d articles.\n",
			report.Updated, report.Journals, report.NotFound, report.ArticlesTouched)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(impactCmd)
}
