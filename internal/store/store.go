// Package store persists articles, journals and fetch runs. Postgres is
// the primary backend; SQLite serves local single-file deployments and
// is the source side of the one-time migration.
package store

import (
	"context"
	"strings"

	"github.com/Aros2100/neuro-news/internal/model"
)

// ArticleFilter narrows ListArticles. Zero values mean "no constraint".
type ArticleFilter struct {
	Subspecialty string
	MinNewsValue int
	EnrichedOnly bool
	Limit        int
	Offset       int
}

// Store is the persistence surface shared by both backends.
type Store interface {
	Migrate(ctx context.Context) error
	Close() error

	// InsertArticles inserts a batch, skipping rows whose canonical URL
	// already exists, and returns the number actually inserted.
	InsertArticles(ctx context.Context, articles []model.Article) (int, error)
	ListArticles(ctx context.Context, filter ArticleFilter) ([]model.Article, error)
	GetArticleByPMID(ctx context.Context, pmid string) (*model.Article, error)

	// ListUnenriched returns enrichment candidates in insertion order:
	// articles with the unenriched summary sentinel and a non-empty
	// abstract. limit <= 0 means no limit.
	ListUnenriched(ctx context.Context, limit int) ([]model.Article, error)
	// ApplyEnrichment writes all six enrichment fields in one statement.
	ApplyEnrichment(ctx context.Context, articleID int64, e model.Enrichment) error
	// ResetEnrichment clears the enrichment fields of every article.
	ResetEnrichment(ctx context.Context) error

	// SyncJournals upserts the distinct journals seen in articles and
	// backfills journal ISSNs from articles that carry one.
	SyncJournals(ctx context.Context) error
	ListJournals(ctx context.Context) ([]model.Journal, error)
	ListJournalsWithoutImpactFactor(ctx context.Context) ([]model.Journal, error)
	// SetJournalImpactFactor records a lookup result, nil meaning the
	// source had no usable value, and stamps the lookup time.
	SetJournalImpactFactor(ctx context.Context, journalID int64, impactFactor *float64, openalexID string) error
	// SyncImpactFactors denormalizes journal impact factors onto the
	// articles table and returns the number of articles touched.
	SyncImpactFactors(ctx context.Context) (int64, error)
	InsertJournals(ctx context.Context, journals []model.Journal) (int, error)

	ListPMIDsWithoutISSN(ctx context.Context) ([]string, error)
	UpdateArticleISSN(ctx context.Context, pmid, issn string) error

	RecordFetchRun(ctx context.Context, run model.FetchRun) error
}

// articleColumns is the column list shared by both backends, id last so
// inserts can reuse the prefix.
const articleColumns = `pmid, url, title, authors, authors_full, journal, pub_date, abstract,
	doi, issn, pub_types, mesh_terms, affiliation, citation_count, grants,
	coi_statement, is_open_access, pmc_id, impact_factor,
	summary, importance, news_value, subspecialty, article_type, clinical_relevance, id`

// rowScanner is satisfied by pgx.Row(s) and database/sql rows alike.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (model.Article, error) {
	var (
		a         model.Article
		pubTypes  string
		meshTerms string
		grants    string
	)
	err := row.Scan(
		&a.PMID, &a.URL, &a.Title, &a.Authors, &a.AuthorsFull, &a.Journal, &a.PubDate, &a.Abstract,
		&a.DOI, &a.ISSN, &pubTypes, &meshTerms, &a.Affiliation, &a.CitationCount, &grants,
		&a.CoiStatement, &a.IsOpenAccess, &a.PMCID, &a.ImpactFactor,
		&a.Enrichment.Summary, &a.Enrichment.Importance, &a.Enrichment.NewsValue,
		&a.Enrichment.Subspecialty, &a.Enrichment.ArticleType, &a.Enrichment.ClinicalRelevance, &a.ID,
	)
	if err != nil {
		return model.Article{}, err
	}
	a.PubTypes = splitList(pubTypes)
	a.MeshTerms = splitList(meshTerms)
	if grants != model.UnknownText {
		a.Grants = splitList(grants)
	}
	return a, nil
}

// articleValues lines up with the insert column order (everything but id).
func articleValues(a model.Article) []any {
	return []any{
		a.PMID, a.URL, a.Title, a.Authors, a.AuthorsFull, a.Journal, a.PubDate, a.Abstract,
		a.DOI, a.ISSN, a.PubTypesText(), a.MeshTermsText(), a.Affiliation, a.CitationCount, a.GrantsText(),
		a.CoiStatement, a.IsOpenAccess, a.PMCID, a.ImpactFactor,
		a.Enrichment.Summary, a.Enrichment.Importance, a.Enrichment.NewsValue,
		a.Enrichment.Subspecialty, a.Enrichment.ArticleType, a.Enrichment.ClinicalRelevance,
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ", ")
}
