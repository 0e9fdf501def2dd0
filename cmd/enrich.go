package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Aros2100/neuro-news/internal/enrich"
	"github.com/Aros2100/neuro-news/internal/pipeline"
	"github.com/Aros2100/neuro-news/pkg/anthropic"
)

var (
	enrichForce       bool
	enrichLimit       int
	enrichConcurrency int
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Generate AI editorial fields for unenriched articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Anthropic.Key == "" {
			return eris.New("anthropic API key is required (NEURONEWS_ANTHROPIC_KEY)")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		limit := enrichLimit
		if limit == 0 {
			limit = cfg.Enrich.Limit
		}
		concurrency := enrichConcurrency
		if concurrency == 0 {
			concurrency = cfg.Enrich.Concurrency
		}

		runner := pipeline.NewEnrichRunner(st, enrich.New(
			anthropic.NewClient(cfg.Anthropic.Key),
			cfg.Anthropic.Model,
			cfg.Anthropic.MaxTokens,
		))

		done := 0
		report, err := runner.Run(ctx, pipeline.EnrichOptions{
			Force:       enrichForce,
			Limit:       limit,
			Concurrency: concurrency,
			OnOutcome: func(o pipeline.Outcome) {
				done++
				title := o.Title
				if len(title) > 70 {
					title = title[:70] + "..."
				}
				fmt.Printf("[%d] %s: %s\n", done, o.Status, title)
			},
		})
		if err != nil {
			return err
		}

		fmt.Printf("\nEnriched %d of %d candidates (%d decode failures, %d contract violations, %d transient failures).\n",
			report.Enriched, report.Candidates,
			report.DecodeFailures, report.ContractViolations, report.TransientFailures)
		return nil
	},
}

func init() {
	enrichCmd.Flags().BoolVar(&enrichForce, "force", false, "reset all enrichment fields and redo every article")
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 0, "maximum articles to enrich this run (0 = no limit)")
	enrichCmd.Flags().IntVar(&enrichConcurrency, "concurrency", 0, "concurrent enrichment workers (default from config)")
	rootCmd.AddCommand(enrichCmd)
}
