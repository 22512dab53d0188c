// Package domain provides the core models and error taxonomy for the article explorer.
package domain

// NotAvailable is the display sentinel used for absent journal and DOI values.
const NotAvailable = "N/A"

// Article is a normalized search result. It is never mutated after normalization.
type Article struct {
	ID            string   `json:"id" yaml:"id"`
	Title         string   `json:"title" yaml:"title"`
	Authors       []string `json:"authors" yaml:"authors"`
	PublishedDate string   `json:"published_date" yaml:"published_date"`
	CitationCount int      `json:"citation_count" yaml:"citation_count"`
	Abstract      string   `json:"abstract" yaml:"abstract"`
	Journal       string   `json:"journal" yaml:"journal"`
	DOI           string   `json:"doi" yaml:"doi"`
	Subjects      []string `json:"subjects" yaml:"subjects"`
	DownloadURL   string   `json:"download_url" yaml:"download_url"`
}

// HasFullText reports whether the article links to a downloadable full text.
func (a Article) HasFullText() bool {
	return a.DownloadURL != ""
}

// HasJournal reports whether the journal is known.
func (a Article) HasJournal() bool {
	return a.Journal != "" && a.Journal != NotAvailable
}

// HasDOI reports whether the DOI is known.
func (a Article) HasDOI() bool {
	return a.DOI != "" && a.DOI != NotAvailable
}
