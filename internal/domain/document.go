package domain

import "fmt"

// Document is one parsed PubMed record with non-empty abstract text.
// Immutable once created by the parser.
type Document struct {
	PMID    string
	Title   string
	Journal string
	Year    string
	Content string // formatted page text, see FormatPage
}

// Source returns the canonical citation tag for the document.
func (d Document) Source() string {
	return "PMID:" + d.PMID
}

// FormatPage renders the retrievable page text for an abstract. The PMID header
// keeps the identifier inside every chunk even after splitting.
func FormatPage(pmid, title, journal, year, abstract string) string {
	return fmt.Sprintf("PMID:%s\nTitle: %s\nJournal: %s (%s)\n\nAbstract:\n%s",
		pmid, title, journal, year, abstract)
}

// Chunk is a bounded sub-span of a Document's content, the atomic unit of
// embedding and retrieval. It inherits the parent document's metadata unchanged.
type Chunk struct {
	PMID    string
	Title   string
	Journal string
	Year    string
	Ordinal int // position within the parent document
	Content string
}

// Source returns the citation tag inherited from the parent document.
func (c Chunk) Source() string {
	return "PMID:" + c.PMID
}
