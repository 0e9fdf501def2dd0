package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Aros2100/neuro-news/internal/pubmed"
	"github.com/Aros2100/neuro-news/internal/store"
)

// DocumentFetcher is the PubMed surface the ISSN backfill needs.
type DocumentFetcher interface {
	FetchDocuments(ctx context.Context, pmids []string) ([]pubmed.Document, error)
}

// BackfillReport tallies an ISSN backfill run.
type BackfillReport struct {
	Missing int
	Updated int
}

// ISSNBackfiller re-fetches documents for articles stored without an
// ISSN and fills the column in. Useful after extraction gains a field
// older rows never had.
type ISSNBackfiller struct {
	store  store.Store
	pubmed DocumentFetcher
}

// NewISSNBackfiller wires an ISSN backfill workflow.
func NewISSNBackfiller(st store.Store, pm DocumentFetcher) *ISSNBackfiller {
	return &ISSNBackfiller{store: st, pubmed: pm}
}

// Run backfills ISSNs batch by batch; a failed batch is logged and
// skipped.
func (b *ISSNBackfiller) Run(ctx context.Context) (*BackfillReport, error) {
	pmids, err := b.store.ListPMIDsWithoutISSN(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list pmids without issn")
	}

	report := &BackfillReport{Missing: len(pmids)}
	if len(pmids) == 0 {
		return report, nil
	}

	for start := 0; start < len(pmids); start += pubmed.FetchBatchSize {
		end := min(start+pubmed.FetchBatchSize, len(pmids))
		batch := pmids[start:end]

		docs, err := b.pubmed.FetchDocuments(ctx, batch)
		if err != nil {
			zap.L().Warn("backfill batch failed",
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			continue
		}

		for pmid, issn := range pubmed.ExtractISSNs(docs) {
			if err := b.store.UpdateArticleISSN(ctx, pmid, issn); err != nil {
				return report, eris.Wrapf(err, "pipeline: update issn %s", pmid)
			}
			report.Updated++
		}
	}

	zap.L().Info("issn backfill complete",
		zap.Int("missing", report.Missing),
		zap.Int("updated", report.Updated),
	)
	return report, nil
}
