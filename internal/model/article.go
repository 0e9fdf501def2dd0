// Package model defines the flat record types shared by the fetch and
// enrichment pipelines.
package model

import (
	"fmt"
	"strings"
)

// Sentinel values used across the pipeline. UnenrichedSummary marks a
// record that has not been through AI enrichment yet; the enrichment
// selector keys on it rather than on a separate flag.
const (
	UnenrichedSummary = ""
	UnknownText       = "Unknown"
	NotAvailable      = "N/A"
)

// PubMedArticleURL is the canonical article URL pattern. The URL derived
// from it is the natural key for deduplication.
const pubmedArticleURL = "https://pubmed.ncbi.nlm.nih.gov/%s/"

// ArticleURL derives the canonical URL for a PMID.
func ArticleURL(pmid string) string {
	return fmt.Sprintf(pubmedArticleURL, pmid)
}

// Article is one flattened literature record as extracted from a PubMed
// efetch document, plus the enrichment fields filled in later.
type Article struct {
	ID            int64    `json:"id,omitempty"`
	PMID          string   `json:"pmid"`
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	Authors       string   `json:"authors"` // first 3 + " et al."
	AuthorsFull   string   `json:"authors_full"`
	Journal       string   `json:"journal"`
	PubDate       string   `json:"pub_date"`
	Abstract      string   `json:"abstract"`
	DOI           string   `json:"doi"`
	ISSN          string   `json:"issn"`
	PubTypes      []string `json:"pub_types"`
	MeshTerms     []string `json:"mesh_terms"`
	Affiliation   string   `json:"affiliation"`
	CitationCount int      `json:"citation_count"`
	Grants        []string `json:"grants"`
	CoiStatement  string   `json:"coi_statement"`
	IsOpenAccess  bool     `json:"is_open_access"`
	PMCID         string   `json:"pmc_id"`
	ImpactFactor  *float64 `json:"impact_factor,omitempty"`

	Enrichment Enrichment `json:"enrichment"`
}

// Enriched reports whether the record has been through AI enrichment.
// The six enrichment fields are written atomically, so checking the
// summary sentinel is sufficient.
func (a *Article) Enriched() bool {
	return a.Enrichment.Summary != UnenrichedSummary
}

// PubTypesText renders the publication types for storage/display.
func (a *Article) PubTypesText() string {
	return strings.Join(a.PubTypes, ", ")
}

// MeshTermsText renders the ordered MeSH terms for storage/display.
func (a *Article) MeshTermsText() string {
	return strings.Join(a.MeshTerms, ", ")
}

// GrantsText renders the grant agencies for storage/display, falling
// back to the Unknown sentinel when no grant information was present.
func (a *Article) GrantsText() string {
	if len(a.Grants) == 0 {
		return UnknownText
	}
	return strings.Join(a.Grants, ", ")
}

// Enrichment holds the six AI-classified fields. A record either has all
// of them or none; there is no partial state.
type Enrichment struct {
	Summary           string `json:"summary"`
	Importance        string `json:"importance"`
	NewsValue         int    `json:"news_value"`
	Subspecialty      string `json:"subspecialty"`
	ArticleType       string `json:"article_type"`
	ClinicalRelevance string `json:"clinical_relevance"`
}
