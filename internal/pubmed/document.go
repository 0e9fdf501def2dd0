// Package pubmed talks to the NCBI E-utilities and flattens efetch XML
// documents into Article records.
package pubmed

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// Document is one PubmedArticle element from an efetch response. Every
// field below is optional in the source; extraction must tolerate any
// of them being absent.
type Document struct {
	Citation MedlineCitation `xml:"MedlineCitation"`
	Data     PubmedData      `xml:"PubmedData"`
}

// MedlineCitation holds the citation subtree.
type MedlineCitation struct {
	PMID         string        `xml:"PMID"`
	CoiStatement string        `xml:"CoiStatement"`
	Article      ArticleNode   `xml:"Article"`
	MeshHeadings []MeshHeading `xml:"MeshHeadingList>MeshHeading"`
}

// ArticleNode holds the Article subtree.
type ArticleNode struct {
	Title        FlatText       `xml:"ArticleTitle"`
	Journal      JournalNode    `xml:"Journal"`
	Abstract     []AbstractText `xml:"Abstract>AbstractText"`
	Authors      []AuthorNode   `xml:"AuthorList>Author"`
	ELocationIDs []TypedValue   `xml:"ELocationID"`
	PubTypes     []string       `xml:"PublicationTypeList>PublicationType"`
	Grants       []GrantNode    `xml:"GrantList>Grant"`
}

// JournalNode holds journal metadata. A journal may carry several ISSN
// entries distinguished by the IssnType attribute.
type JournalNode struct {
	Title   string     `xml:"Title"`
	ISSNs   []ISSNNode `xml:"ISSN"`
	PubDate *PubDate   `xml:"JournalIssue>PubDate"`
}

// ISSNNode is one ISSN entry with its type tag.
type ISSNNode struct {
	Type  string `xml:"IssnType,attr"`
	Value string `xml:",chardata"`
}

// PubDate holds the structured publication date, or the free-text
// MedlineDate fallback when no structured fields are present.
type PubDate struct {
	Year        string `xml:"Year"`
	Month       string `xml:"Month"`
	Day         string `xml:"Day"`
	MedlineDate string `xml:"MedlineDate"`
}

// AuthorNode is one author entry. Entries without a LastName are
// dropped by extraction.
type AuthorNode struct {
	LastName     string   `xml:"LastName"`
	ForeName     string   `xml:"ForeName"`
	Initials     string   `xml:"Initials"`
	Affiliations []string `xml:"AffiliationInfo>Affiliation"`
}

// TypedValue is an identifier element with a type attribute
// (ELocationID EIdType="doi" and similar).
type TypedValue struct {
	Type  string `xml:"EIdType,attr"`
	Value string `xml:",chardata"`
}

// MeshHeading is one MeSH descriptor with its major-topic flag.
type MeshHeading struct {
	Descriptor MeshDescriptor `xml:"DescriptorName"`
}

// MeshDescriptor carries the term text and the MajorTopicYN flag.
type MeshDescriptor struct {
	MajorTopicYN string `xml:"MajorTopicYN,attr"`
	Name         string `xml:",chardata"`
}

// GrantNode is one grant entry; only the agency feeds the record.
type GrantNode struct {
	Agency  string `xml:"Agency"`
	GrantID string `xml:"GrantID"`
}

// PubmedData holds the secondary identifier list (DOI fallback, PMC id).
type PubmedData struct {
	ArticleIDs []ArticleID `xml:"ArticleIdList>ArticleId"`
}

// ArticleID is one secondary identifier with its IdType attribute.
type ArticleID struct {
	Type  string `xml:"IdType,attr"`
	Value string `xml:",chardata"`
}

// AbstractText is one abstract section. The Label attribute names the
// section (BACKGROUND, METHODS, ...); the text may contain inline
// markup which is flattened away.
type AbstractText struct {
	Label string
	Text  string
}

// UnmarshalXML collects the section label and all character data,
// including text nested inside inline markup elements.
func (a *AbstractText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "Label" {
			a.Label = attr.Value
		}
	}
	var ft FlatText
	if err := ft.UnmarshalXML(d, start); err != nil {
		return err
	}
	a.Text = ft.Value
	return nil
}

// FlatText decodes an element's full text content, flattening any
// inline markup (italics, sub/superscripts) the source embeds.
type FlatText struct {
	Value string
}

// UnmarshalXML walks tokens until the element closes, concatenating all
// character data along the way.
func (t *FlatText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case xml.CharData:
			b.Write(v)
		case xml.EndElement:
			if v.Name == start.Name {
				t.Value = b.String()
				return nil
			}
		}
	}
}

// articleSet is the efetch response envelope.
type articleSet struct {
	XMLName  xml.Name   `xml:"PubmedArticleSet"`
	Articles []Document `xml:"PubmedArticle"`
}

// ParseDocuments decodes an efetch XML payload. A payload that is not
// well-formed XML fails the whole batch; missing fields inside a
// well-formed document never do.
func ParseDocuments(r io.Reader) ([]Document, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "pubmed: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var set articleSet
	if err := decoder.Decode(&set); err != nil {
		return nil, eris.Wrap(err, "pubmed: parse efetch payload")
	}
	return set.Articles, nil
}
