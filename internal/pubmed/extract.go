package pubmed

import (
	"sort"
	"strings"

	"github.com/Aros2100/neuro-news/internal/model"
)

// maxMeshTerms caps the ordered MeSH list after sorting.
const maxMeshTerms = 10

// maxShortAuthors is the author count shown before " et al." kicks in.
const maxShortAuthors = 3

// ExtractBatch flattens a batch of documents. Documents without a PMID
// produce no record and are skipped silently.
func ExtractBatch(docs []Document) []model.Article {
	articles := make([]model.Article, 0, len(docs))
	for _, doc := range docs {
		if a, ok := Extract(doc); ok {
			articles = append(articles, a)
		}
	}
	return articles
}

// Extract flattens one document into an Article. It returns false when
// the document carries no PMID; every other field falls back to a
// documented default rather than failing.
func Extract(doc Document) (model.Article, bool) {
	pmid := strings.TrimSpace(doc.Citation.PMID)
	if pmid == "" {
		return model.Article{}, false
	}

	art := doc.Citation.Article
	short, full, affiliation := formatAuthors(art.Authors)
	pmcID := pmcIdentifier(doc.Data)

	return model.Article{
		PMID:         pmid,
		URL:          model.ArticleURL(pmid),
		Title:        titleOrDefault(art.Title.Value),
		Authors:      short,
		AuthorsFull:  full,
		Journal:      journalOrDefault(art.Journal.Title),
		PubDate:      publicationDate(art.Journal.PubDate),
		Abstract:     abstractText(art.Abstract),
		DOI:          resolveDOI(art.ELocationIDs, doc.Data),
		ISSN:         preferredISSN(art.Journal.ISSNs),
		PubTypes:     publicationTypes(art.PubTypes),
		MeshTerms:    orderedMeshTerms(doc.Citation.MeshHeadings),
		Affiliation:  affiliation,
		Grants:       grantAgencies(art.Grants),
		CoiStatement: coiOrDefault(doc.Citation.CoiStatement),
		IsOpenAccess: pmcID != "",
		PMCID:        pmcID,
	}, true
}

// ExtractISSNs maps PMIDs to their preferred ISSN. Documents without a
// PMID or without any ISSN contribute nothing.
func ExtractISSNs(docs []Document) map[string]string {
	out := make(map[string]string, len(docs))
	for _, doc := range docs {
		pmid := strings.TrimSpace(doc.Citation.PMID)
		if pmid == "" {
			continue
		}
		if issn := preferredISSN(doc.Citation.Article.Journal.ISSNs); issn != "" {
			out[pmid] = issn
		}
	}
	return out
}

func titleOrDefault(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.NotAvailable
	}
	return title
}

func journalOrDefault(name string) string {
	if name == "" {
		return model.NotAvailable
	}
	return name
}

func coiOrDefault(stmt string) string {
	if stmt == "" {
		return model.UnknownText
	}
	return stmt
}

// preferredISSN scans the journal's ISSN entries, preferring the
// Electronic-tagged one and falling back to Print. First match wins
// within each tag group; absence yields an empty string.
func preferredISSN(issns []ISSNNode) string {
	for _, issnType := range []string{"Electronic", "Print"} {
		for _, n := range issns {
			if n.Type == issnType && n.Value != "" {
				return n.Value
			}
		}
	}
	return ""
}

// resolveDOI looks first among the ELocationID entries, then falls back
// to the PubmedData article id list. First match in each list wins.
func resolveDOI(locations []TypedValue, data PubmedData) string {
	for _, loc := range locations {
		if loc.Type == "doi" && loc.Value != "" {
			return loc.Value
		}
	}
	for _, aid := range data.ArticleIDs {
		if aid.Type == "doi" && aid.Value != "" {
			return aid.Value
		}
	}
	return ""
}

// formatAuthors renders authors as "<Last> <Initials>". Entries without
// a last name are dropped entirely. The short form is the first three
// names plus " et al." when more follow. The affiliation comes from the
// first kept author (in document order) with a non-empty affiliation.
func formatAuthors(authors []AuthorNode) (short, full, affiliation string) {
	var names []string
	for _, a := range authors {
		if a.LastName == "" {
			continue
		}
		names = append(names, strings.TrimSpace(a.LastName+" "+a.Initials))
		if affiliation == "" {
			for _, aff := range a.Affiliations {
				if aff != "" {
					affiliation = aff
					break
				}
			}
		}
	}

	full = strings.Join(names, ", ")
	if len(names) > maxShortAuthors {
		short = strings.Join(names[:maxShortAuthors], ", ") + " et al."
	} else {
		short = full
	}
	return short, full, affiliation
}

// publicationDate joins the structured Year/Month/Day fields with single
// spaces, omitting absent components. When none are present it falls
// back to the free-text MedlineDate, then to the "N/A" sentinel.
func publicationDate(pd *PubDate) string {
	if pd == nil {
		return model.NotAvailable
	}
	var parts []string
	for _, p := range []string{pd.Year, pd.Month, pd.Day} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if pd.MedlineDate != "" {
		return pd.MedlineDate
	}
	return model.NotAvailable
}

// publicationTypes drops the default "Journal Article" type and keeps
// the rest in document order.
func publicationTypes(types []string) []string {
	var out []string
	for _, t := range types {
		if t != "" && t != "Journal Article" {
			out = append(out, t)
		}
	}
	return out
}

// orderedMeshTerms marks major-topic terms with a "*" prefix, sorts
// major terms before minor ones and alphabetically within each tier,
// and truncates to the first ten. The tier partition comes from the
// MajorTopicYN flag, not from the display marker.
func orderedMeshTerms(headings []MeshHeading) []string {
	type term struct {
		display string
		major   bool
	}
	var terms []term
	for _, h := range headings {
		name := h.Descriptor.Name
		if name == "" {
			continue
		}
		major := h.Descriptor.MajorTopicYN == "Y"
		display := name
		if major {
			display = "*" + name
		}
		terms = append(terms, term{display: display, major: major})
	}

	sort.SliceStable(terms, func(i, j int) bool {
		if terms[i].major != terms[j].major {
			return terms[i].major
		}
		return terms[i].display < terms[j].display
	})

	if len(terms) > maxMeshTerms {
		terms = terms[:maxMeshTerms]
	}
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.display
	}
	return out
}

// grantAgencies deduplicates agency names preserving the order of first
// appearance.
func grantAgencies(grants []GrantNode) []string {
	var out []string
	seen := make(map[string]bool, len(grants))
	for _, g := range grants {
		if g.Agency == "" || seen[g.Agency] {
			continue
		}
		seen[g.Agency] = true
		out = append(out, g.Agency)
	}
	return out
}

// pmcIdentifier returns the PubMed Central id from the secondary
// identifier list, or "" when the article is not in PMC. Presence of
// the id is what marks a record open access; the value itself is kept
// on the record.
func pmcIdentifier(data PubmedData) string {
	for _, aid := range data.ArticleIDs {
		if aid.Type == "pmc" && aid.Value != "" {
			return aid.Value
		}
	}
	return ""
}

// abstractText concatenates abstract sections, prefixing labeled
// sections with "Label: " and joining with blank lines.
func abstractText(sections []AbstractText) string {
	var parts []string
	for _, s := range sections {
		if s.Label != "" {
			parts = append(parts, s.Label+": "+s.Text)
		} else if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}
