package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Aros2100/neuro-news/internal/model"
	"github.com/Aros2100/neuro-news/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	srv := httptest.NewServer(NewRouter(st))
	t.Cleanup(srv.Close)
	return srv, st
}

func seed(t *testing.T, st store.Store, articles ...model.Article) {
	t.Helper()
	_, err := st.InsertArticles(context.Background(), articles)
	require.NoError(t, err)
}

func getJSON(t *testing.T, url string, dst any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if dst != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]string
	status := getJSON(t, srv.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestListArticles(t *testing.T) {
	srv, st := newTestServer(t)
	seed(t, st,
		model.Article{PMID: "1", URL: model.ArticleURL("1"), Title: "First"},
		model.Article{PMID: "2", URL: model.ArticleURL("2"), Title: "Second"},
	)

	var body struct {
		Articles []model.Article `json:"articles"`
		Count    int             `json:"count"`
	}
	status := getJSON(t, srv.URL+"/api/articles", &body)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Articles, 2)
	// Newest first.
	assert.Equal(t, "2", body.Articles[0].PMID)
}

func TestListArticlesFilters(t *testing.T) {
	srv, st := newTestServer(t)
	seed(t, st,
		model.Article{PMID: "1", URL: model.ArticleURL("1"), Abstract: "x"},
		model.Article{PMID: "2", URL: model.ArticleURL("2"), Abstract: "x"},
	)

	ctx := context.Background()
	candidates, err := st.ListUnenriched(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, st.ApplyEnrichment(ctx, candidates[0].ID, model.Enrichment{
		Summary: "s", Importance: "i", NewsValue: 8,
		Subspecialty: "Vascular", ArticleType: "Clinical trial", ClinicalRelevance: "Important update",
	}))

	var body struct {
		Articles []model.Article `json:"articles"`
	}
	status := getJSON(t, srv.URL+"/api/articles?subspecialty=Vascular&min_news_value=7&enriched=true", &body)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body.Articles, 1)
	assert.Equal(t, "1", body.Articles[0].PMID)

	status = getJSON(t, srv.URL+"/api/articles?min_news_value=9", &body)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body.Articles)
}

func TestListArticlesBadParams(t *testing.T) {
	srv, _ := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/articles?min_news_value=high", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/articles?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/articles?offset=-1", nil))
}

func TestGetArticle(t *testing.T) {
	srv, st := newTestServer(t)
	seed(t, st, model.Article{PMID: "42", URL: model.ArticleURL("42"), Title: "The answer"})

	var got model.Article
	status := getJSON(t, srv.URL+"/api/articles/42", &got)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "The answer", got.Title)

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/articles/999", nil))
}

func TestListJournals(t *testing.T) {
	srv, st := newTestServer(t)
	seed(t, st, model.Article{PMID: "1", URL: model.ArticleURL("1"), Journal: "Journal of Neurosurgery", ISSN: "1933-0693"})
	require.NoError(t, st.SyncJournals(context.Background()))

	var body struct {
		Journals []model.Journal `json:"journals"`
		Count    int             `json:"count"`
	}
	status := getJSON(t, srv.URL+"/api/journals", &body)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Journals, 1)
	assert.Equal(t, "Journal of Neurosurgery", body.Journals[0].Name)
}
