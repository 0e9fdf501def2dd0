package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/Aros2100/neuro-news/internal/db"
	"github.com/Aros2100/neuro-news/internal/model"
)

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool db.Pool
	// ownPool is set when we created the pool and must close it.
	ownPool *pgxpool.Pool
}

// NewPostgres wraps an existing pool; its lifecycle stays with the caller.
func NewPostgres(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// NewPostgresURL connects a new pool to the given database URL.
func NewPostgresURL(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, ownPool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS articles (
	id                 BIGSERIAL PRIMARY KEY,
	pmid               TEXT NOT NULL,
	url                TEXT NOT NULL UNIQUE,
	title              TEXT NOT NULL DEFAULT '',
	authors            TEXT NOT NULL DEFAULT '',
	authors_full       TEXT NOT NULL DEFAULT '',
	journal            TEXT NOT NULL DEFAULT '',
	pub_date           TEXT NOT NULL DEFAULT '',
	abstract           TEXT NOT NULL DEFAULT '',
	doi                TEXT NOT NULL DEFAULT '',
	issn               TEXT NOT NULL DEFAULT '',
	pub_types          TEXT NOT NULL DEFAULT '',
	mesh_terms         TEXT NOT NULL DEFAULT '',
	affiliation        TEXT NOT NULL DEFAULT '',
	citation_count     INTEGER NOT NULL DEFAULT 0,
	grants             TEXT NOT NULL DEFAULT '',
	coi_statement      TEXT NOT NULL DEFAULT '',
	is_open_access     BOOLEAN NOT NULL DEFAULT FALSE,
	pmc_id             TEXT NOT NULL DEFAULT '',
	impact_factor      DOUBLE PRECISION,
	summary            TEXT NOT NULL DEFAULT '',
	importance         TEXT NOT NULL DEFAULT '',
	news_value         INTEGER NOT NULL DEFAULT 0,
	subspecialty       TEXT NOT NULL DEFAULT '',
	article_type       TEXT NOT NULL DEFAULT '',
	clinical_relevance TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_articles_pmid ON articles(pmid);
CREATE INDEX IF NOT EXISTS idx_articles_summary ON articles(summary) WHERE summary = '';

CREATE TABLE IF NOT EXISTS journals (
	id            BIGSERIAL PRIMARY KEY,
	journal_name  TEXT NOT NULL UNIQUE,
	issn          TEXT NOT NULL DEFAULT '',
	impact_factor DOUBLE PRECISION,
	openalex_id   TEXT NOT NULL DEFAULT '',
	if_updated_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS fetch_runs (
	id          TEXT PRIMARY KEY,
	query       TEXT NOT NULL,
	window_days INTEGER NOT NULL,
	found       INTEGER NOT NULL,
	fetched     INTEGER NOT NULL,
	inserted    INTEGER NOT NULL,
	duplicates  INTEGER NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool if this store created it.
func (s *PostgresStore) Close() error {
	if s.ownPool != nil {
		s.ownPool.Close()
	}
	return nil
}

const pgInsertArticle = `INSERT INTO articles
	(pmid, url, title, authors, authors_full, journal, pub_date, abstract,
	 doi, issn, pub_types, mesh_terms, affiliation, citation_count, grants,
	 coi_statement, is_open_access, pmc_id, impact_factor,
	 summary, importance, news_value, subspecialty, article_type, clinical_relevance)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
	        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	ON CONFLICT (url) DO NOTHING`

func (s *PostgresStore) InsertArticles(ctx context.Context, articles []model.Article) (int, error) {
	inserted := 0
	for _, a := range articles {
		tag, err := s.pool.Exec(ctx, pgInsertArticle, articleValues(a)...)
		if err != nil {
			return inserted, eris.Wrapf(err, "postgres: insert article %s", a.PMID)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (s *PostgresStore) ListArticles(ctx context.Context, filter ArticleFilter) ([]model.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE 1=1`
	var args []any
	if filter.Subspecialty != "" {
		args = append(args, filter.Subspecialty)
		query += fmt.Sprintf(" AND subspecialty = $%d", len(args))
	}
	if filter.MinNewsValue > 0 {
		args = append(args, filter.MinNewsValue)
		query += fmt.Sprintf(" AND news_value >= $%d", len(args))
	}
	if filter.EnrichedOnly {
		query += " AND summary != ''"
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list articles")
	}
	defer rows.Close()

	var out []model.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan article")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list articles")
}

func (s *PostgresStore) GetArticleByPMID(ctx context.Context, pmid string) (*model.Article, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE pmid = $1`, pmid)
	a, err := scanArticle(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get article %s", pmid)
	}
	return &a, nil
}

func (s *PostgresStore) ListUnenriched(ctx context.Context, limit int) ([]model.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles
		WHERE summary = '' AND abstract != '' ORDER BY id`
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list unenriched")
	}
	defer rows.Close()

	var out []model.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan article")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list unenriched")
}

func (s *PostgresStore) ApplyEnrichment(ctx context.Context, articleID int64, e model.Enrichment) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE articles SET summary=$1, importance=$2, news_value=$3,
			subspecialty=$4, article_type=$5, clinical_relevance=$6 WHERE id=$7`,
		e.Summary, e.Importance, e.NewsValue,
		e.Subspecialty, e.ArticleType, e.ClinicalRelevance, articleID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: apply enrichment %d", articleID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: article %d not found", articleID)
	}
	return nil
}

func (s *PostgresStore) ResetEnrichment(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE articles SET summary='', importance='', news_value=0,
			subspecialty='', article_type='', clinical_relevance=''`)
	return eris.Wrap(err, "postgres: reset enrichment")
}

func (s *PostgresStore) SyncJournals(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO journals (journal_name, issn)
		SELECT DISTINCT journal, issn FROM articles WHERE journal != ''
		ON CONFLICT (journal_name) DO NOTHING`)
	if err != nil {
		return eris.Wrap(err, "postgres: upsert journals")
	}

	_, err = s.pool.Exec(ctx, `UPDATE journals SET issn = (
			SELECT a.issn FROM articles a
			WHERE a.journal = journals.journal_name AND a.issn != ''
			LIMIT 1
		)
		WHERE issn = '' AND journal_name IN (
			SELECT journal FROM articles WHERE issn != ''
		)`)
	return eris.Wrap(err, "postgres: backfill journal issn")
}

func (s *PostgresStore) ListJournals(ctx context.Context) ([]model.Journal, error) {
	return s.listJournals(ctx,
		`SELECT id, journal_name, issn, impact_factor, openalex_id, if_updated_at
			FROM journals ORDER BY journal_name`)
}

func (s *PostgresStore) ListJournalsWithoutImpactFactor(ctx context.Context) ([]model.Journal, error) {
	return s.listJournals(ctx,
		`SELECT id, journal_name, issn, impact_factor, openalex_id, if_updated_at
			FROM journals WHERE impact_factor IS NULL ORDER BY id`)
}

func (s *PostgresStore) listJournals(ctx context.Context, query string) ([]model.Journal, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list journals")
	}
	defer rows.Close()

	var out []model.Journal
	for rows.Next() {
		var j model.Journal
		if err := rows.Scan(&j.ID, &j.Name, &j.ISSN, &j.ImpactFactor, &j.OpenAlexID, &j.IFUpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan journal")
		}
		out = append(out, j)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list journals")
}

func (s *PostgresStore) SetJournalImpactFactor(ctx context.Context, journalID int64, impactFactor *float64, openalexID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE journals SET impact_factor=$1, openalex_id=$2, if_updated_at=NOW() WHERE id=$3`,
		impactFactor, openalexID, journalID)
	return eris.Wrapf(err, "postgres: set impact factor %d", journalID)
}

func (s *PostgresStore) SyncImpactFactors(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE articles SET impact_factor = (
			SELECT j.impact_factor FROM journals j
			WHERE j.journal_name = articles.journal AND j.impact_factor IS NOT NULL
		)
		WHERE journal IN (SELECT journal_name FROM journals WHERE impact_factor IS NOT NULL)`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: sync impact factors")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) InsertJournals(ctx context.Context, journals []model.Journal) (int, error) {
	inserted := 0
	for _, j := range journals {
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO journals (journal_name, issn, impact_factor, openalex_id, if_updated_at)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (journal_name) DO NOTHING`,
			j.Name, j.ISSN, j.ImpactFactor, j.OpenAlexID, j.IFUpdatedAt)
		if err != nil {
			return inserted, eris.Wrapf(err, "postgres: insert journal %s", j.Name)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (s *PostgresStore) ListPMIDsWithoutISSN(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT pmid FROM articles WHERE (issn IS NULL OR issn = '') AND pmid != '' ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list pmids without issn")
	}
	defer rows.Close()

	var pmids []string
	for rows.Next() {
		var pmid string
		if err := rows.Scan(&pmid); err != nil {
			return nil, eris.Wrap(err, "postgres: scan pmid")
		}
		pmids = append(pmids, pmid)
	}
	return pmids, eris.Wrap(rows.Err(), "postgres: list pmids without issn")
}

func (s *PostgresStore) UpdateArticleISSN(ctx context.Context, pmid, issn string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE articles SET issn = $1 WHERE pmid = $2`, issn, pmid)
	return eris.Wrapf(err, "postgres: update issn %s", pmid)
}

func (s *PostgresStore) RecordFetchRun(ctx context.Context, run model.FetchRun) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO fetch_runs
			(id, query, window_days, found, fetched, inserted, duplicates, started_at, finished_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, run.Query, run.WindowDays, run.Found, run.Fetched,
		run.Inserted, run.Duplicates, run.StartedAt, run.FinishedAt)
	return eris.Wrap(err, "postgres: record fetch run")
}
