package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aros2100/neuro-news/internal/pipeline"
)

var backfillISSNCmd = &cobra.Command{
	Use:   "backfill-issn",
	Short: "Fill in missing ISSNs for already-stored articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		backfiller := pipeline.NewISSNBackfiller(st, initPubMed())

		report, err := backfiller.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Updated ISSN for %d of %d articles.\n", report.Updated, report.Missing)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backfillISSNCmd)
}
