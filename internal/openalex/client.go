// Package openalex resolves journals to OpenAlex sources and reads
// their two-year mean citedness, which the pipeline stores as the
// journal's impact factor.
package openalex

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "neuro-news/1.0 (mailto:noreply@example.com)"

// Source is the subset of an OpenAlex source record the pipeline reads.
type Source struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	SummaryStats struct {
		TwoYearMeanCitedness *float64 `json:"2yr_mean_citedness"`
	} `json:"summary_stats"`
}

// ImpactFactor returns the two-year mean citedness rounded to two
// decimals, or nil when the value is absent or non-positive.
func (s *Source) ImpactFactor() *float64 {
	v := s.SummaryStats.TwoYearMeanCitedness
	if v == nil || *v <= 0 {
		return nil
	}
	rounded := math.Round(*v*100) / 100
	return &rounded
}

// Client talks to the OpenAlex REST API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithUserAgent sets the polite-pool User-Agent. OpenAlex uses the
// mailto to contact heavy users instead of blocking them.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates an OpenAlex client. The limiter keeps us in the
// polite pool; OpenAlex asks for no more than 10 requests per second.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    "https://api.openalex.org",
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(10), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LookupByISSN resolves a source by ISSN. A 404 means the ISSN is
// unknown to OpenAlex and returns (nil, nil).
func (c *Client) LookupByISSN(ctx context.Context, issn string) (*Source, error) {
	body, found, err := c.get(ctx, c.baseURL+"/sources/issn:"+url.PathEscape(issn))
	if err != nil || !found {
		return nil, err
	}

	var src Source
	if err := json.Unmarshal(body, &src); err != nil {
		return nil, eris.Wrap(err, "openalex: unmarshal source")
	}
	return &src, nil
}

// SearchByName searches sources by journal name and returns the top
// hit, or (nil, nil) when nothing matches.
func (c *Client) SearchByName(ctx context.Context, name string) (*Source, error) {
	params := url.Values{"search": {name}}
	body, found, err := c.get(ctx, c.baseURL+"/sources?"+params.Encode())
	if err != nil || !found {
		return nil, err
	}

	var resp struct {
		Results []Source `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "openalex: unmarshal search")
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

// FindSource resolves a journal, trying the ISSN lookup first and
// falling back to a name search. (nil, nil) means not found.
func (c *Client) FindSource(ctx context.Context, issn, name string) (*Source, error) {
	if issn != "" {
		src, err := c.LookupByISSN(ctx, issn)
		if err != nil {
			return nil, err
		}
		if src != nil {
			return src, nil
		}
	}
	return c.SearchByName(ctx, name)
}

func (c *Client) get(ctx context.Context, reqURL string) (body []byte, found bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, eris.Wrap(err, "openalex: rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, eris.Wrap(err, "openalex: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, eris.Wrap(err, "openalex: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, eris.Errorf("openalex: unexpected status %d", resp.StatusCode)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, eris.Wrap(err, "openalex: read body")
	}
	return body, true, nil
}
