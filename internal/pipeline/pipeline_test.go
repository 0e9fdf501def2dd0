package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Aros2100/neuro-news/internal/model"
	"github.com/Aros2100/neuro-news/internal/openalex"
	"github.com/Aros2100/neuro-news/internal/pubmed"
	"github.com/Aros2100/neuro-news/internal/store"
	"github.com/Aros2100/neuro-news/pkg/anthropic"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// stubPubMed serves canned search results and documents keyed by PMID.
type stubPubMed struct {
	pmids   []string
	docs    map[string]pubmed.Document
	fail    map[int]bool // fail the nth FetchDocuments call
	calls   int
	batches [][]string

	searchErr error
}

func (s *stubPubMed) Search(ctx context.Context, query string, days, maxResults int) ([]string, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.pmids, nil
}

func (s *stubPubMed) FetchDocuments(ctx context.Context, pmids []string) ([]pubmed.Document, error) {
	s.calls++
	s.batches = append(s.batches, pmids)
	if s.fail[s.calls] {
		return nil, errors.New("efetch blew up")
	}
	var docs []pubmed.Document
	for _, pmid := range pmids {
		if doc, ok := s.docs[pmid]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

type stubCitations struct {
	counts map[string]int
}

func (s *stubCitations) CitationCounts(ctx context.Context, pmids []string) map[string]int {
	return s.counts
}

func docFor(pmid string) pubmed.Document {
	return pubmed.Document{Citation: pubmed.MedlineCitation{
		PMID: pmid,
		Article: pubmed.ArticleNode{
			Title:   pubmed.FlatText{Value: "Title " + pmid},
			Journal: pubmed.JournalNode{Title: "Journal of Neurosurgery"},
			Abstract: []pubmed.AbstractText{
				{Text: "An abstract."},
			},
		},
	}}
}

type stubGenerator struct {
	results map[string]model.Enrichment
	errs    map[string]error
	usage   anthropic.TokenUsage
}

func (g *stubGenerator) Enrich(ctx context.Context, art model.Article) (model.Enrichment, anthropic.TokenUsage, error) {
	if err, ok := g.errs[art.PMID]; ok {
		return model.Enrichment{}, g.usage, err
	}
	return g.results[art.PMID], g.usage, nil
}

func (g *stubGenerator) Model() string { return "stub-model" }

type stubFinder struct {
	sources map[string]*openalex.Source // by ISSN
	errs    map[string]error
}

func (f *stubFinder) FindSource(ctx context.Context, issn, name string) (*openalex.Source, error) {
	if err, ok := f.errs[issn]; ok {
		return nil, err
	}
	return f.sources[issn], nil
}
