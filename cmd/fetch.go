package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aros2100/neuro-news/internal/europepmc"
	"github.com/Aros2100/neuro-news/internal/pipeline"
)

var (
	fetchQuery      string
	fetchDays       int
	fetchMaxResults int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch recent articles from PubMed into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		query := fetchQuery
		if query == "" {
			query = cfg.PubMed.Query
		}
		days := fetchDays
		if days == 0 {
			days = cfg.PubMed.WindowDays
		}
		maxResults := fetchMaxResults
		if maxResults == 0 {
			maxResults = cfg.PubMed.MaxResults
		}

		fetcher := pipeline.NewFetcher(
			st,
			initPubMed(),
			europepmc.NewClient(europepmc.WithBaseURL(cfg.EuropePMC.BaseURL)),
		)

		run, err := fetcher.Run(ctx, pipeline.FetchOptions{
			Query:      query,
			WindowDays: days,
			MaxResults: maxResults,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Found %d articles, fetched %d, inserted %d new (%d duplicates skipped).\n",
			run.Found, run.Fetched, run.Inserted, run.Duplicates)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchQuery, "query", "", "PubMed search query (default from config)")
	fetchCmd.Flags().IntVar(&fetchDays, "days", 0, "trailing window in days (default from config)")
	fetchCmd.Flags().IntVar(&fetchMaxResults, "max-results", 0, "maximum search results (default from config)")
	rootCmd.AddCommand(fetchCmd)
}
