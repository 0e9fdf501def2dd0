// Package europepmc looks up citation counts for PMIDs via the Europe
// PMC REST search API. It is a best-effort side channel: failures
// degrade to missing counts, never abort the caller.
package europepmc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// BatchSize is the maximum number of PMIDs per search request; larger
// OR queries get rejected by the service.
const BatchSize = 50

// Client queries the Europe PMC search endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the REST base URL (tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// NewClient creates a Europe PMC client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    "https://www.ebi.ac.uk/europepmc/webservices/rest",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	ResultList struct {
		Result []struct {
			PMID         string `json:"pmid"`
			CitedByCount int    `json:"citedByCount"`
		} `json:"result"`
	} `json:"resultList"`
}

// CitationCounts returns cited-by counts keyed by PMID, querying in
// batches of BatchSize. A failed batch is logged as a warning and
// contributes nothing; the returned map holds whatever succeeded.
func (c *Client) CitationCounts(ctx context.Context, pmids []string) map[string]int {
	counts := make(map[string]int, len(pmids))

	for start := 0; start < len(pmids); start += BatchSize {
		end := min(start+BatchSize, len(pmids))
		batch := pmids[start:end]

		if err := c.countBatch(ctx, batch, counts); err != nil {
			zap.L().Warn("europepmc: citation batch failed",
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
		}
	}
	return counts
}

func (c *Client) countBatch(ctx context.Context, pmids []string, counts map[string]int) error {
	terms := make([]string, len(pmids))
	for i, pmid := range pmids {
		terms[i] = "EXT_ID:" + pmid
	}

	params := url.Values{
		"query":      {strings.Join(terms, " OR ")},
		"format":     {"json"},
		"resultType": {"core"},
		"pageSize":   {fmt.Sprintf("%d", len(pmids))},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "europepmc: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "europepmc: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("europepmc: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "europepmc: read body")
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return eris.Wrap(err, "europepmc: unmarshal")
	}

	for _, r := range sr.ResultList.Result {
		if r.PMID != "" {
			counts[r.PMID] = r.CitedByCount
		}
	}
	return nil
}
