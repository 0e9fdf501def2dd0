package pubmed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `<?xml version="1.0" ?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">40000001</PMID>
      <Article>
        <Journal>
          <ISSN IssnType="Print">0022-3085</ISSN>
          <ISSN IssnType="Electronic">1933-0693</ISSN>
          <JournalIssue>
            <PubDate><Year>2026</Year><Month>Aug</Month><Day>12</Day></PubDate>
          </JournalIssue>
          <Title>Journal of Neurosurgery</Title>
        </Journal>
        <ArticleTitle>Outcomes after resection of <i>IDH</i>-mutant gliomas.</ArticleTitle>
        <ELocationID EIdType="doi" ValidYN="Y">10.3171/2026.1.JNS2601</ELocationID>
        <Abstract>
          <AbstractText Label="OBJECTIVE">To assess outcomes.</AbstractText>
          <AbstractText Label="RESULTS">Survival improved with <sup>18</sup>F imaging.</AbstractText>
        </Abstract>
        <AuthorList>
          <Author>
            <LastName>Carter</LastName><ForeName>Anne</ForeName><Initials>A</Initials>
            <AffiliationInfo><Affiliation>Department of Neurosurgery, Somewhere University</Affiliation></AffiliationInfo>
          </Author>
          <Author><LastName>Diaz</LastName><Initials>M</Initials></Author>
        </AuthorList>
        <PublicationTypeList>
          <PublicationType>Journal Article</PublicationType>
          <PublicationType>Comparative Study</PublicationType>
        </PublicationTypeList>
        <GrantList>
          <Grant><GrantID>R01-1</GrantID><Agency>NINDS NIH HHS</Agency></Grant>
        </GrantList>
      </Article>
      <MeshHeadingList>
        <MeshHeading><DescriptorName MajorTopicYN="Y">Glioma</DescriptorName></MeshHeading>
        <MeshHeading><DescriptorName MajorTopicYN="N">Humans</DescriptorName></MeshHeading>
      </MeshHeadingList>
      <CoiStatement>The authors report no conflict of interest.</CoiStatement>
    </MedlineCitation>
    <PubmedData>
      <ArticleIdList>
        <ArticleId IdType="pubmed">40000001</ArticleId>
        <ArticleId IdType="pmc">PMC9900001</ArticleId>
      </ArticleIdList>
    </PubmedData>
  </PubmedArticle>
</PubmedArticleSet>`

func TestParseDocuments(t *testing.T) {
	docs, err := ParseDocuments(strings.NewReader(samplePayload))
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "40000001", doc.Citation.PMID)
	assert.Equal(t, "Journal of Neurosurgery", doc.Citation.Article.Journal.Title)
	assert.Equal(t, "The authors report no conflict of interest.", doc.Citation.CoiStatement)

	// Inline markup is flattened into plain text.
	assert.Equal(t, "Outcomes after resection of IDH-mutant gliomas.", doc.Citation.Article.Title.Value)

	require.Len(t, doc.Citation.Article.Abstract, 2)
	assert.Equal(t, "OBJECTIVE", doc.Citation.Article.Abstract[0].Label)
	assert.Equal(t, "To assess outcomes.", doc.Citation.Article.Abstract[0].Text)
	assert.Equal(t, "Survival improved with 18F imaging.", doc.Citation.Article.Abstract[1].Text)

	require.Len(t, doc.Citation.Article.Authors, 2)
	assert.Equal(t, "Carter", doc.Citation.Article.Authors[0].LastName)
	assert.Equal(t, []string{"Department of Neurosurgery, Somewhere University"}, doc.Citation.Article.Authors[0].Affiliations)
}

func TestParseDocumentsEndToEndExtraction(t *testing.T) {
	docs, err := ParseDocuments(strings.NewReader(samplePayload))
	require.NoError(t, err)

	articles := ExtractBatch(docs)
	require.Len(t, articles, 1)
	a := articles[0]

	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/40000001/", a.URL)
	assert.Equal(t, "Carter A, Diaz M", a.Authors)
	assert.Equal(t, "2026 Aug 12", a.PubDate)
	assert.Equal(t, "1933-0693", a.ISSN)
	assert.Equal(t, "10.3171/2026.1.JNS2601", a.DOI)
	assert.Equal(t, []string{"Comparative Study"}, a.PubTypes)
	assert.Equal(t, []string{"*Glioma", "Humans"}, a.MeshTerms)
	assert.Equal(t, []string{"NINDS NIH HHS"}, a.Grants)
	assert.Equal(t, "Department of Neurosurgery, Somewhere University", a.Affiliation)
	assert.True(t, a.IsOpenAccess)
	assert.Equal(t, "PMC9900001", a.PMCID)
	assert.Equal(t, "OBJECTIVE: To assess outcomes.\n\nRESULTS: Survival improved with 18F imaging.", a.Abstract)
}

func TestParseDocumentsMalformed(t *testing.T) {
	_, err := ParseDocuments(strings.NewReader("<PubmedArticleSet><broken"))
	assert.Error(t, err)
}

func TestParseDocumentsEmptySet(t *testing.T) {
	docs, err := ParseDocuments(strings.NewReader("<PubmedArticleSet></PubmedArticleSet>"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}
