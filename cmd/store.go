package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/Aros2100/neuro-news/internal/pubmed"
	"github.com/Aros2100/neuro-news/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "articles.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgresURL(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func initPubMed() *pubmed.Client {
	return pubmed.NewClient(pubmed.WithBaseURL(cfg.PubMed.BaseURL))
}
