package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/Aros2100/neuro-news/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := database.Exec(pragma); err != nil {
			database.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: database}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS articles (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
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
	is_open_access     INTEGER NOT NULL DEFAULT 0,
	pmc_id             TEXT NOT NULL DEFAULT '',
	impact_factor      REAL,
	summary            TEXT NOT NULL DEFAULT '',
	importance         TEXT NOT NULL DEFAULT '',
	news_value         INTEGER NOT NULL DEFAULT 0,
	subspecialty       TEXT NOT NULL DEFAULT '',
	article_type       TEXT NOT NULL DEFAULT '',
	clinical_relevance TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_articles_pmid ON articles(pmid);

CREATE TABLE IF NOT EXISTS journals (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	journal_name  TEXT NOT NULL UNIQUE,
	issn          TEXT NOT NULL DEFAULT '',
	impact_factor REAL,
	openalex_id   TEXT NOT NULL DEFAULT '',
	if_updated_at DATETIME
);

CREATE TABLE IF NOT EXISTS fetch_runs (
	id          TEXT PRIMARY KEY,
	query       TEXT NOT NULL,
	window_days INTEGER NOT NULL,
	found       INTEGER NOT NULL,
	fetched     INTEGER NOT NULL,
	inserted    INTEGER NOT NULL,
	duplicates  INTEGER NOT NULL,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteInsertArticle = `INSERT INTO articles
	(pmid, url, title, authors, authors_full, journal, pub_date, abstract,
	 doi, issn, pub_types, mesh_terms, affiliation, citation_count, grants,
	 coi_statement, is_open_access, pmc_id, impact_factor,
	 summary, importance, news_value, subspecialty, article_type, clinical_relevance)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (url) DO NOTHING`

func (s *SQLiteStore) InsertArticles(ctx context.Context, articles []model.Article) (int, error) {
	inserted := 0
	for _, a := range articles {
		res, err := s.db.ExecContext(ctx, sqliteInsertArticle, articleValues(a)...)
		if err != nil {
			return inserted, eris.Wrapf(err, "sqlite: insert article %s", a.PMID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, eris.Wrap(err, "sqlite: rows affected")
		}
		inserted += int(n)
	}
	return inserted, nil
}

func (s *SQLiteStore) ListArticles(ctx context.Context, filter ArticleFilter) ([]model.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE 1=1`
	var args []any
	if filter.Subspecialty != "" {
		query += " AND subspecialty = ?"
		args = append(args, filter.Subspecialty)
	}
	if filter.MinNewsValue > 0 {
		query += " AND news_value >= ?"
		args = append(args, filter.MinNewsValue)
	}
	if filter.EnrichedOnly {
		query += " AND summary != ''"
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		// SQLite needs a LIMIT clause before OFFSET; -1 means unlimited.
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}
	return s.queryArticles(ctx, query, args...)
}

func (s *SQLiteStore) GetArticleByPMID(ctx context.Context, pmid string) (*model.Article, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE pmid = ?`, pmid)
	a, err := scanArticle(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get article %s", pmid)
	}
	return &a, nil
}

func (s *SQLiteStore) ListUnenriched(ctx context.Context, limit int) ([]model.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles
		WHERE summary = '' AND abstract != '' ORDER BY id`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.queryArticles(ctx, query, args...)
}

func (s *SQLiteStore) queryArticles(ctx context.Context, query string, args ...any) ([]model.Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query articles")
	}
	defer rows.Close()

	var out []model.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan article")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: query articles")
}

func (s *SQLiteStore) ApplyEnrichment(ctx context.Context, articleID int64, e model.Enrichment) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE articles SET summary=?, importance=?, news_value=?,
			subspecialty=?, article_type=?, clinical_relevance=? WHERE id=?`,
		e.Summary, e.Importance, e.NewsValue,
		e.Subspecialty, e.ArticleType, e.ClinicalRelevance, articleID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: apply enrichment %d", articleID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: article %d not found", articleID)
	}
	return nil
}

func (s *SQLiteStore) ResetEnrichment(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE articles SET summary='', importance='', news_value=0,
			subspecialty='', article_type='', clinical_relevance=''`)
	return eris.Wrap(err, "sqlite: reset enrichment")
}

func (s *SQLiteStore) SyncJournals(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO journals (journal_name, issn)
		SELECT DISTINCT journal, issn FROM articles WHERE journal != ''
		ON CONFLICT (journal_name) DO NOTHING`)
	if err != nil {
		return eris.Wrap(err, "sqlite: upsert journals")
	}

	_, err = s.db.ExecContext(ctx, `UPDATE journals SET issn = (
			SELECT a.issn FROM articles a
			WHERE a.journal = journals.journal_name AND a.issn != ''
			LIMIT 1
		)
		WHERE issn = '' AND journal_name IN (
			SELECT journal FROM articles WHERE issn != ''
		)`)
	return eris.Wrap(err, "sqlite: backfill journal issn")
}

func (s *SQLiteStore) ListJournals(ctx context.Context) ([]model.Journal, error) {
	return s.listJournals(ctx,
		`SELECT id, journal_name, issn, impact_factor, openalex_id, if_updated_at
			FROM journals ORDER BY journal_name`)
}

func (s *SQLiteStore) ListJournalsWithoutImpactFactor(ctx context.Context) ([]model.Journal, error) {
	return s.listJournals(ctx,
		`SELECT id, journal_name, issn, impact_factor, openalex_id, if_updated_at
			FROM journals WHERE impact_factor IS NULL ORDER BY id`)
}

func (s *SQLiteStore) listJournals(ctx context.Context, query string) ([]model.Journal, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list journals")
	}
	defer rows.Close()

	var out []model.Journal
	for rows.Next() {
		var (
			j         model.Journal
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&j.ID, &j.Name, &j.ISSN, &j.ImpactFactor, &j.OpenAlexID, &updatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan journal")
		}
		if updatedAt.Valid {
			t := updatedAt.Time
			j.IFUpdatedAt = &t
		}
		out = append(out, j)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list journals")
}

func (s *SQLiteStore) SetJournalImpactFactor(ctx context.Context, journalID int64, impactFactor *float64, openalexID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE journals SET impact_factor=?, openalex_id=?, if_updated_at=? WHERE id=?`,
		impactFactor, openalexID, time.Now().UTC(), journalID)
	return eris.Wrapf(err, "sqlite: set impact factor %d", journalID)
}

func (s *SQLiteStore) SyncImpactFactors(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE articles SET impact_factor = (
			SELECT j.impact_factor FROM journals j
			WHERE j.journal_name = articles.journal AND j.impact_factor IS NOT NULL
		)
		WHERE journal IN (SELECT journal_name FROM journals WHERE impact_factor IS NOT NULL)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: sync impact factors")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) InsertJournals(ctx context.Context, journals []model.Journal) (int, error) {
	inserted := 0
	for _, j := range journals {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO journals (journal_name, issn, impact_factor, openalex_id, if_updated_at)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (journal_name) DO NOTHING`,
			j.Name, j.ISSN, j.ImpactFactor, j.OpenAlexID, j.IFUpdatedAt)
		if err != nil {
			return inserted, eris.Wrapf(err, "sqlite: insert journal %s", j.Name)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, eris.Wrap(err, "sqlite: rows affected")
		}
		inserted += int(n)
	}
	return inserted, nil
}

func (s *SQLiteStore) ListPMIDsWithoutISSN(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pmid FROM articles WHERE (issn IS NULL OR issn = '') AND pmid != '' ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list pmids without issn")
	}
	defer rows.Close()

	var pmids []string
	for rows.Next() {
		var pmid string
		if err := rows.Scan(&pmid); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pmid")
		}
		pmids = append(pmids, pmid)
	}
	return pmids, eris.Wrap(rows.Err(), "sqlite: list pmids without issn")
}

func (s *SQLiteStore) UpdateArticleISSN(ctx context.Context, pmid, issn string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE articles SET issn = ? WHERE pmid = ?`, issn, pmid)
	return eris.Wrapf(err, "sqlite: update issn %s", pmid)
}

func (s *SQLiteStore) RecordFetchRun(ctx context.Context, run model.FetchRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fetch_runs
			(id, query, window_days, found, fetched, inserted, duplicates, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Query, run.WindowDays, run.Found, run.Fetched,
		run.Inserted, run.Duplicates, run.StartedAt, run.FinishedAt)
	return eris.Wrap(err, "sqlite: record fetch run")
}
