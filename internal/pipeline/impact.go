package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Aros2100/neuro-news/internal/openalex"
	"github.com/Aros2100/neuro-news/internal/store"
)

// SourceFinder resolves a journal to its OpenAlex source record.
type SourceFinder interface {
	FindSource(ctx context.Context, issn, name string) (*openalex.Source, error)
}

// ImpactReport tallies an impact-factor refresh.
type ImpactReport struct {
	Journals        int
	Updated         int
	NotFound        int
	ArticlesTouched int64
}

// ImpactRefresher fills in missing journal impact factors from OpenAlex
// and denormalizes them onto articles.
type ImpactRefresher struct {
	store  store.Store
	finder SourceFinder
}

// NewImpactRefresher wires an impact-factor refresh workflow.
func NewImpactRefresher(st store.Store, finder SourceFinder) *ImpactRefresher {
	return &ImpactRefresher{store: st, finder: finder}
}

// Run refreshes journals that have no impact factor yet. Journals with
// a stored value are never re-resolved, so a found value sticks. Lookup
// failures skip the journal; it stays a candidate for the next run.
func (r *ImpactRefresher) Run(ctx context.Context) (*ImpactReport, error) {
	if err := r.store.SyncJournals(ctx); err != nil {
		return nil, eris.Wrap(err, "pipeline: sync journals")
	}

	journals, err := r.store.ListJournalsWithoutImpactFactor(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list journals")
	}

	report := &ImpactReport{Journals: len(journals)}
	for _, j := range journals {
		src, err := r.finder.FindSource(ctx, j.ISSN, j.Name)
		if err != nil {
			zap.L().Warn("journal lookup failed",
				zap.String("journal", j.Name),
				zap.Error(err),
			)
			continue
		}
		if src == nil {
			report.NotFound++
			zap.L().Info("journal not found in openalex", zap.String("journal", j.Name))
			continue
		}

		impactFactor := src.ImpactFactor()
		if err := r.store.SetJournalImpactFactor(ctx, j.ID, impactFactor, src.ID); err != nil {
			return report, eris.Wrapf(err, "pipeline: set impact factor for %s", j.Name)
		}
		if impactFactor != nil {
			report.Updated++
			zap.L().Info("impact factor updated",
				zap.String("journal", j.Name),
				zap.Float64("impact_factor", *impactFactor),
			)
		}
	}

	report.ArticlesTouched, err = r.store.SyncImpactFactors(ctx)
	if err != nil {
		return report, eris.Wrap(err, "pipeline: sync impact factors")
	}

	zap.L().Info("impact refresh complete",
		zap.Int("journals", report.Journals),
		zap.Int("updated", report.Updated),
		zap.Int("not_found", report.NotFound),
		zap.Int64("articles_touched", report.ArticlesTouched),
	)
	return report, nil
}
