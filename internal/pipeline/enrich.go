package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Aros2100/neuro-news/internal/enrich"
	"github.com/Aros2100/neuro-news/internal/model"
	"github.com/Aros2100/neuro-news/internal/resilience"
	"github.com/Aros2100/neuro-news/internal/store"
	"github.com/Aros2100/neuro-news/pkg/anthropic"
)

// Generator produces enrichment results for single articles.
type Generator interface {
	Enrich(ctx context.Context, art model.Article) (model.Enrichment, anthropic.TokenUsage, error)
	Model() string
}

// OutcomeStatus classifies what happened to one enrichment candidate.
type OutcomeStatus string

const (
	StatusEnriched          OutcomeStatus = "enriched"
	StatusDecodeFailed      OutcomeStatus = "decode_failed"
	StatusContractViolation OutcomeStatus = "contract_violation"
	StatusTransientFailure  OutcomeStatus = "transient_failure"
)

// Outcome is the per-article result stream entry.
type Outcome struct {
	PMID   string
	Title  string
	Status OutcomeStatus
	Err    error
}

// EnrichOptions parameterizes one enrichment run. Force resets every
// record first so the whole corpus becomes a candidate again. OnOutcome,
// when set, receives each article's outcome as it lands.
type EnrichOptions struct {
	Force       bool
	Limit       int
	Concurrency int
	OnOutcome   func(Outcome)
}

// EnrichReport tallies an enrichment run.
type EnrichReport struct {
	Candidates         int
	Enriched           int
	DecodeFailures     int
	ContractViolations int
	TransientFailures  int
	Usage              anthropic.TokenUsage
}

// EnrichRunner drives enrichment over the unenriched backlog.
type EnrichRunner struct {
	store store.Store
	gen   Generator
}

// NewEnrichRunner wires an enrichment workflow.
func NewEnrichRunner(st store.Store, gen Generator) *EnrichRunner {
	return &EnrichRunner{store: st, gen: gen}
}

// Run enriches candidates with bounded concurrency. Failures are
// isolated per article: a bad response or API hiccup never stops the
// run, and the failed record stays unenriched for the next pass.
func (r *EnrichRunner) Run(ctx context.Context, opts EnrichOptions) (*EnrichReport, error) {
	if opts.Force {
		if err := r.store.ResetEnrichment(ctx); err != nil {
			return nil, eris.Wrap(err, "pipeline: reset enrichment")
		}
	}

	articles, err := r.store.ListUnenriched(ctx, opts.Limit)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list unenriched")
	}

	report := &EnrichReport{Candidates: len(articles)}
	if len(articles) == 0 {
		return report, nil
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, art := range articles {
		g.Go(func() error {
			outcome, usage := r.enrichOne(gctx, art)

			mu.Lock()
			report.Usage.Add(usage)
			switch outcome.Status {
			case StatusEnriched:
				report.Enriched++
			case StatusDecodeFailed:
				report.DecodeFailures++
			case StatusContractViolation:
				report.ContractViolations++
			case StatusTransientFailure:
				report.TransientFailures++
			}
			if opts.OnOutcome != nil {
				opts.OnOutcome(outcome)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, eris.Wrap(err, "pipeline: enrich")
	}

	report.Usage.LogCost(r.gen.Model(), "enrich")
	return report, nil
}

func (r *EnrichRunner) enrichOne(ctx context.Context, art model.Article) (Outcome, anthropic.TokenUsage) {
	outcome := Outcome{PMID: art.PMID, Title: art.Title}

	result, usage, err := r.gen.Enrich(ctx, art)
	if err != nil {
		outcome.Status = classifyFailure(err)
		outcome.Err = err
		zap.L().Warn("enrichment failed",
			zap.String("pmid", art.PMID),
			zap.String("status", string(outcome.Status)),
			zap.Error(err),
		)
		return outcome, usage
	}

	if err := r.store.ApplyEnrichment(ctx, art.ID, result); err != nil {
		outcome.Status = StatusTransientFailure
		outcome.Err = err
		zap.L().Warn("enrichment write failed",
			zap.String("pmid", art.PMID),
			zap.Error(err),
		)
		return outcome, usage
	}

	outcome.Status = StatusEnriched
	zap.L().Info("article enriched",
		zap.String("pmid", art.PMID),
		zap.String("subspecialty", result.Subspecialty),
		zap.String("article_type", result.ArticleType),
		zap.Int("news_value", result.NewsValue),
	)
	return outcome, usage
}

func classifyFailure(err error) OutcomeStatus {
	var decodeErr *enrich.DecodeError
	var contractErr *enrich.ContractError
	switch {
	case errors.As(err, &decodeErr):
		return StatusDecodeFailed
	case errors.As(err, &contractErr):
		return StatusContractViolation
	case resilience.IsTransient(err):
		return StatusTransientFailure
	default:
		return StatusTransientFailure
	}
}
