package pubmed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aros2100/neuro-news/internal/model"
)

func TestExtractSkipsDocumentsWithoutPMID(t *testing.T) {
	docs := []Document{
		{Citation: MedlineCitation{PMID: ""}},
		{Citation: MedlineCitation{PMID: "  "}},
		{Citation: MedlineCitation{PMID: "12345"}},
	}

	articles := ExtractBatch(docs)
	require.Len(t, articles, 1)
	assert.Equal(t, "12345", articles[0].PMID)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/12345/", articles[0].URL)
}

func TestExtractDefaults(t *testing.T) {
	a, ok := Extract(Document{Citation: MedlineCitation{PMID: "1"}})
	require.True(t, ok)

	assert.Equal(t, model.NotAvailable, a.Title)
	assert.Equal(t, model.NotAvailable, a.Journal)
	assert.Equal(t, model.NotAvailable, a.PubDate)
	assert.Equal(t, model.UnknownText, a.CoiStatement)
	assert.Empty(t, a.Abstract)
	assert.Empty(t, a.DOI)
	assert.Empty(t, a.ISSN)
	assert.False(t, a.IsOpenAccess)
	assert.False(t, a.Enriched())
}

func TestFormatAuthors(t *testing.T) {
	tests := []struct {
		name      string
		authors   []AuthorNode
		wantShort string
		wantFull  string
		wantAff   string
	}{
		{
			name:      "none",
			wantShort: "",
			wantFull:  "",
		},
		{
			name: "drops entries without last name",
			authors: []AuthorNode{
				{LastName: "Smith", Initials: "J"},
				{Initials: "X"},
				{LastName: "Jones", Initials: "A"},
			},
			wantShort: "Smith J, Jones A",
			wantFull:  "Smith J, Jones A",
		},
		{
			name: "et al after three",
			authors: []AuthorNode{
				{LastName: "Alpha", Initials: "A"},
				{LastName: "Beta", Initials: "B"},
				{LastName: "Gamma", Initials: "C"},
				{LastName: "Delta", Initials: "D"},
			},
			wantShort: "Alpha A, Beta B, Gamma C et al.",
			wantFull:  "Alpha A, Beta B, Gamma C, Delta D",
		},
		{
			name: "exactly three has no et al",
			authors: []AuthorNode{
				{LastName: "Alpha", Initials: "A"},
				{LastName: "Beta", Initials: "B"},
				{LastName: "Gamma", Initials: "C"},
			},
			wantShort: "Alpha A, Beta B, Gamma C",
			wantFull:  "Alpha A, Beta B, Gamma C",
		},
		{
			name: "affiliation from first author that has one",
			authors: []AuthorNode{
				{LastName: "Alpha", Initials: "A"},
				{LastName: "Beta", Initials: "B", Affiliations: []string{"Dept of Neurosurgery"}},
				{LastName: "Gamma", Initials: "C", Affiliations: []string{"Somewhere Else"}},
			},
			wantShort: "Alpha A, Beta B, Gamma C",
			wantFull:  "Alpha A, Beta B, Gamma C",
			wantAff:   "Dept of Neurosurgery",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			short, full, aff := formatAuthors(tt.authors)
			assert.Equal(t, tt.wantShort, short)
			assert.Equal(t, tt.wantFull, full)
			assert.Equal(t, tt.wantAff, aff)
		})
	}
}

func TestPreferredISSN(t *testing.T) {
	tests := []struct {
		name  string
		issns []ISSNNode
		want  string
	}{
		{name: "empty", want: ""},
		{
			name:  "print only",
			issns: []ISSNNode{{Type: "Print", Value: "0001-0001"}},
			want:  "0001-0001",
		},
		{
			name: "electronic preferred over print",
			issns: []ISSNNode{
				{Type: "Print", Value: "0001-0001"},
				{Type: "Electronic", Value: "0002-0002"},
			},
			want: "0002-0002",
		},
		{
			name:  "unknown type ignored",
			issns: []ISSNNode{{Type: "Linking", Value: "0003-0003"}},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, preferredISSN(tt.issns))
		})
	}
}

func TestResolveDOI(t *testing.T) {
	t.Run("elocation wins", func(t *testing.T) {
		got := resolveDOI(
			[]TypedValue{{Type: "pii", Value: "S123"}, {Type: "doi", Value: "10.1/primary"}},
			PubmedData{ArticleIDs: []ArticleID{{Type: "doi", Value: "10.1/fallback"}}},
		)
		assert.Equal(t, "10.1/primary", got)
	})

	t.Run("falls back to article id list", func(t *testing.T) {
		got := resolveDOI(nil, PubmedData{ArticleIDs: []ArticleID{
			{Type: "pubmed", Value: "1"},
			{Type: "doi", Value: "10.1/fallback"},
		}})
		assert.Equal(t, "10.1/fallback", got)
	})

	t.Run("absent everywhere", func(t *testing.T) {
		assert.Empty(t, resolveDOI(nil, PubmedData{}))
	})
}

func TestPublicationDate(t *testing.T) {
	tests := []struct {
		name string
		pd   *PubDate
		want string
	}{
		{name: "nil", pd: nil, want: model.NotAvailable},
		{name: "full", pd: &PubDate{Year: "2026", Month: "Aug", Day: "15"}, want: "2026 Aug 15"},
		{name: "year and month", pd: &PubDate{Year: "2026", Month: "Aug"}, want: "2026 Aug"},
		{name: "medline fallback", pd: &PubDate{MedlineDate: "2025 Nov-Dec"}, want: "2025 Nov-Dec"},
		{name: "structured wins over medline", pd: &PubDate{Year: "2026", MedlineDate: "2025 Nov-Dec"}, want: "2026"},
		{name: "all empty", pd: &PubDate{}, want: model.NotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicationDate(tt.pd))
		})
	}
}

func TestPublicationTypesDropsJournalArticle(t *testing.T) {
	got := publicationTypes([]string{"Journal Article", "Review", "", "Case Reports"})
	assert.Equal(t, []string{"Review", "Case Reports"}, got)
}

func TestOrderedMeshTerms(t *testing.T) {
	headings := []MeshHeading{
		{Descriptor: MeshDescriptor{Name: "Zebra", MajorTopicYN: "N"}},
		{Descriptor: MeshDescriptor{Name: "Glioma", MajorTopicYN: "Y"}},
		{Descriptor: MeshDescriptor{Name: "Apple", MajorTopicYN: "N"}},
		{Descriptor: MeshDescriptor{Name: "Brain Neoplasms", MajorTopicYN: "Y"}},
		{Descriptor: MeshDescriptor{Name: ""}},
	}

	got := orderedMeshTerms(headings)
	assert.Equal(t, []string{"*Brain Neoplasms", "*Glioma", "Apple", "Zebra"}, got)
}

func TestOrderedMeshTermsTruncatesToTen(t *testing.T) {
	var headings []MeshHeading
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		headings = append(headings, MeshHeading{Descriptor: MeshDescriptor{Name: name}})
	}

	got := orderedMeshTerms(headings)
	require.Len(t, got, 10)
	assert.Equal(t, "a", got[0])
	assert.Equal(t, "j", got[9])
}

func TestGrantAgenciesDeduplicates(t *testing.T) {
	grants := []GrantNode{
		{Agency: "NIH", GrantID: "1"},
		{Agency: "NSF", GrantID: "2"},
		{Agency: "NIH", GrantID: "3"},
		{Agency: ""},
	}

	assert.Equal(t, []string{"NIH", "NSF"}, grantAgencies(grants))
}

func TestPMCIdentifierMarksOpenAccess(t *testing.T) {
	doc := Document{
		Citation: MedlineCitation{PMID: "42"},
		Data: PubmedData{ArticleIDs: []ArticleID{
			{Type: "doi", Value: "10.1/x"},
			{Type: "pmc", Value: "PMC123456"},
		}},
	}

	a, ok := Extract(doc)
	require.True(t, ok)
	assert.True(t, a.IsOpenAccess)
	assert.Equal(t, "PMC123456", a.PMCID)
}

func TestAbstractText(t *testing.T) {
	sections := []AbstractText{
		{Label: "BACKGROUND", Text: "Something."},
		{Text: "Unlabeled part."},
		{Label: "", Text: ""},
		{Label: "CONCLUSIONS", Text: "It works."},
	}

	want := "BACKGROUND: Something.\n\nUnlabeled part.\n\nCONCLUSIONS: It works."
	assert.Equal(t, want, abstractText(sections))
}

func TestExtractISSNs(t *testing.T) {
	docs := []Document{
		{Citation: MedlineCitation{PMID: "1", Article: ArticleNode{Journal: JournalNode{
			ISSNs: []ISSNNode{{Type: "Electronic", Value: "1111-1111"}},
		}}}},
		{Citation: MedlineCitation{PMID: "2"}},
		{Citation: MedlineCitation{PMID: "", Article: ArticleNode{Journal: JournalNode{
			ISSNs: []ISSNNode{{Type: "Print", Value: "2222-2222"}},
		}}}},
	}

	got := ExtractISSNs(docs)
	assert.Equal(t, map[string]string{"1": "1111-1111"}, got)
}
