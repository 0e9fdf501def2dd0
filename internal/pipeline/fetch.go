// Package pipeline composes the stores and external clients into the
// fetch, enrichment, impact-factor and backfill workflows the commands
// run.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Aros2100/neuro-news/internal/model"
	"github.com/Aros2100/neuro-news/internal/pubmed"
	"github.com/Aros2100/neuro-news/internal/store"
)

// SearchFetcher is the PubMed surface the fetch workflow needs.
type SearchFetcher interface {
	Search(ctx context.Context, query string, days, maxResults int) ([]string, error)
	FetchDocuments(ctx context.Context, pmids []string) ([]pubmed.Document, error)
}

// CitationCounter looks up citation counts; a partial or empty map is a
// valid answer.
type CitationCounter interface {
	CitationCounts(ctx context.Context, pmids []string) map[string]int
}

// FetchOptions parameterizes one fetch run.
type FetchOptions struct {
	Query      string
	WindowDays int
	MaxResults int
}

// Fetcher runs the ingestion workflow: search, fetch, flatten, count
// citations, insert, refresh journal linkage.
type Fetcher struct {
	store     store.Store
	pubmed    SearchFetcher
	citations CitationCounter
}

// NewFetcher wires a fetch workflow.
func NewFetcher(st store.Store, pm SearchFetcher, cc CitationCounter) *Fetcher {
	return &Fetcher{store: st, pubmed: pm, citations: cc}
}

// Run executes one fetch and records its provenance. A failed document
// batch is logged and skipped; only the search call and the store are
// fatal.
func (f *Fetcher) Run(ctx context.Context, opts FetchOptions) (*model.FetchRun, error) {
	startedAt := time.Now().UTC()

	pmids, err := f.pubmed.Search(ctx, opts.Query, opts.WindowDays, opts.MaxResults)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: search")
	}
	zap.L().Info("search complete",
		zap.String("query", opts.Query),
		zap.Int("window_days", opts.WindowDays),
		zap.Int("found", len(pmids)),
	)

	var articles []model.Article
	for start := 0; start < len(pmids); start += pubmed.FetchBatchSize {
		end := min(start+pubmed.FetchBatchSize, len(pmids))
		batch := pmids[start:end]

		docs, err := f.pubmed.FetchDocuments(ctx, batch)
		if err != nil {
			zap.L().Warn("document batch failed",
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			continue
		}
		articles = append(articles, pubmed.ExtractBatch(docs)...)
	}

	if len(articles) > 0 {
		fetched := make([]string, len(articles))
		for i, a := range articles {
			fetched[i] = a.PMID
		}
		counts := f.citations.CitationCounts(ctx, fetched)
		for i := range articles {
			articles[i].CitationCount = counts[articles[i].PMID]
		}
	}

	inserted, err := f.store.InsertArticles(ctx, articles)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: insert articles")
	}

	// New articles may belong to journals whose impact factor is
	// already known; pick those up without waiting for a refresh.
	if err := f.store.SyncJournals(ctx); err != nil {
		return nil, eris.Wrap(err, "pipeline: sync journals")
	}
	if _, err := f.store.SyncImpactFactors(ctx); err != nil {
		return nil, eris.Wrap(err, "pipeline: sync impact factors")
	}

	run := model.FetchRun{
		ID:         uuid.New().String(),
		Query:      opts.Query,
		WindowDays: opts.WindowDays,
		Found:      len(pmids),
		Fetched:    len(articles),
		Inserted:   inserted,
		Duplicates: len(articles) - inserted,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
	}
	if err := f.store.RecordFetchRun(ctx, run); err != nil {
		return nil, eris.Wrap(err, "pipeline: record fetch run")
	}

	zap.L().Info("fetch complete",
		zap.String("run_id", run.ID),
		zap.Int("found", run.Found),
		zap.Int("fetched", run.Fetched),
		zap.Int("inserted", run.Inserted),
		zap.Int("duplicates", run.Duplicates),
	)
	return &run, nil
}
