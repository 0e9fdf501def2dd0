package pubmed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// FetchBatchSize is the maximum number of ids per efetch request; NCBI
// rejects larger id lists.
const FetchBatchSize = 100

// Client talks to the NCBI E-utilities (esearch + efetch).
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the E-utilities base URL (tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates an E-utilities client. NCBI asks unauthenticated
// clients to stay under 3 requests per second.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(3), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// esearchResponse is the JSON envelope of an esearch call.
type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// Search runs the topic query over a trailing window of days and
// returns up to maxResults PMIDs ordered as PubMed returns them.
func (c *Client) Search(ctx context.Context, query string, days, maxResults int) ([]string, error) {
	now := time.Now()
	params := url.Values{
		"db":       {"pubmed"},
		"term":     {query},
		"retmax":   {fmt.Sprintf("%d", maxResults)},
		"datetype": {"edat"},
		"mindate":  {now.AddDate(0, 0, -days).Format("2006/01/02")},
		"maxdate":  {now.Format("2006/01/02")},
		"retmode":  {"json"},
	}

	body, err := c.get(ctx, c.baseURL+"/esearch.fcgi?"+params.Encode())
	if err != nil {
		return nil, eris.Wrap(err, "pubmed: esearch")
	}

	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "pubmed: esearch unmarshal")
	}
	return resp.ESearchResult.IDList, nil
}

// FetchDocuments efetches full documents for a batch of PMIDs. The
// batch must not exceed FetchBatchSize; callers own the batching.
func (c *Client) FetchDocuments(ctx context.Context, pmids []string) ([]Document, error) {
	if len(pmids) == 0 {
		return nil, nil
	}
	if len(pmids) > FetchBatchSize {
		return nil, eris.Errorf("pubmed: efetch batch of %d exceeds limit %d", len(pmids), FetchBatchSize)
	}

	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"retmode": {"xml"},
	}

	body, err := c.get(ctx, c.baseURL+"/efetch.fcgi?"+params.Encode())
	if err != nil {
		return nil, eris.Wrap(err, "pubmed: efetch")
	}

	return ParseDocuments(bytes.NewReader(body))
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "pubmed: rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "pubmed: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "pubmed: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("pubmed: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "pubmed: read body")
	}
	return body, nil
}
