package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Aros2100/neuro-news/internal/store"
)

var (
	migrateFrom string
	migrateTo   string
)

var migrateStoreCmd = &cobra.Command{
	Use:   "migrate-store",
	Short: "Copy articles and journals from a SQLite store into Postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if migrateFrom == "" {
			return eris.New("--from sqlite path is required")
		}
		databaseURL := migrateTo
		if databaseURL == "" {
			databaseURL = cfg.Store.DatabaseURL
		}
		if databaseURL == "" {
			return eris.New("--to database URL is required")
		}

		src, err := store.NewSQLite(migrateFrom)
		if err != nil {
			return err
		}
		defer src.Close()

		dst, err := store.NewPostgresURL(ctx, databaseURL)
		if err != nil {
			return err
		}
		defer dst.Close()
		if err := dst.Migrate(ctx); err != nil {
			return err
		}

		report, err := store.Transfer(ctx, src, dst)
		if err != nil {
			return err
		}

		fmt.Printf("Articles: %d inserted out of %d (%d skipped as duplicates).\n",
			report.ArticlesInserted, report.Articles, report.Articles-report.ArticlesInserted)
		fmt.Printf("Journals: %d inserted out of %d.\n", report.JournalsInserted, report.Journals)
		return nil
	},
}

func init() {
	migrateStoreCmd.Flags().StringVar(&migrateFrom, "from", "", "path to the source SQLite database")
	migrateStoreCmd.Flags().StringVar(&migrateTo, "to", "", "destination Postgres URL (default from config)")
	rootCmd.AddCommand(migrateStoreCmd)
}
