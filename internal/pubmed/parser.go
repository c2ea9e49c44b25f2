package pubmed

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/docuchat/medreview/internal/domain"
)

// articleSet mirrors the subset of the EFetch XML we consume.
type articleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	PMID    string `xml:"MedlineCitation>PMID"`
	Article struct {
		Title    flatText `xml:"ArticleTitle"`
		Journal  string   `xml:"Journal>Title"`
		Year     string   `xml:"Journal>JournalIssue>PubDate>Year"`
		Abstract struct {
			Sections []flatText `xml:"AbstractText"`
		} `xml:"Abstract"`
	} `xml:"MedlineCitation>Article"`
}

// flatText collects the character data of an element including nested markup
// (<i>, <sub>, section labels carry their text through).
type flatText string

func (t *flatText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var sb strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case xml.CharData:
			sb.Write(v)
		case xml.EndElement:
			if v.Name == start.Name {
				*t = flatText(sb.String())
				return nil
			}
		}
	}
}

// ParseArticles converts raw EFetch XML into Documents.
//
// Records without any abstract text are skipped: an abstract-less citation is
// not a usable document, not a failure. Multiple AbstractText sections are
// joined in document order with newlines. Malformed XML aborts the whole
// batch with ErrParse.
func ParseArticles(raw []byte) ([]domain.Document, error) {
	var set articleSet
	if err := xml.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("efetch XML: %v: %w", err, domain.ErrParse)
	}

	var docs []domain.Document
	for _, art := range set.Articles {
		abstract := joinSections(art.Article.Abstract.Sections)
		if abstract == "" {
			continue
		}

		pmid := strings.TrimSpace(art.PMID)
		title := strings.TrimSpace(string(art.Article.Title))
		journal := strings.TrimSpace(art.Article.Journal)
		year := strings.TrimSpace(art.Article.Year)

		docs = append(docs, domain.Document{
			PMID:    pmid,
			Title:   title,
			Journal: journal,
			Year:    year,
			Content: domain.FormatPage(pmid, title, journal, year, abstract),
		})
	}

	return docs, nil
}

func joinSections(sections []flatText) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		if trimmed := strings.TrimSpace(string(s)); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, "\n")
}
