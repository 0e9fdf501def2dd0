package pubmed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/esearch.fcgi", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "pubmed", q.Get("db"))
		assert.Equal(t, "test query", q.Get("term"))
		assert.Equal(t, "50", q.Get("retmax"))
		assert.Equal(t, "edat", q.Get("datetype"))
		assert.NotEmpty(t, q.Get("mindate"))
		assert.NotEmpty(t, q.Get("maxdate"))

		w.Write([]byte(`{"esearchresult":{"idlist":["111","222","333"]}}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	pmids, err := c.Search(context.Background(), "test query", 30, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"111", "222", "333"}, pmids)
}

func TestClientSearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "q", 30, 50)
	assert.Error(t, err)
}

func TestClientFetchDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/efetch.fcgi", r.URL.Path)
		assert.Equal(t, "111,222", r.URL.Query().Get("id"))
		assert.Equal(t, "xml", r.URL.Query().Get("retmode"))

		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	docs, err := c.FetchDocuments(context.Background(), []string{"111", "222"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "40000001", docs[0].Citation.PMID)
}

func TestClientFetchDocumentsEmptyBatch(t *testing.T) {
	c := NewClient()
	docs, err := c.FetchDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestClientFetchDocumentsRejectsOversizedBatch(t *testing.T) {
	c := NewClient()

	pmids := make([]string, FetchBatchSize+1)
	for i := range pmids {
		pmids[i] = "1"
	}

	_, err := c.FetchDocuments(context.Background(), pmids)
	assert.ErrorContains(t, err, "exceeds limit")
}
