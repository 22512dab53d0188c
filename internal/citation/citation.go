// Package citation renders articles as citation strings.
package citation

import (
	"fmt"
	"strings"

	"github.com/helixir/article-explorer/internal/domain"
)

// Style identifies a citation format.
type Style string

// Supported citation styles.
const (
	StyleAPA     Style = "apa"
	StyleMLA     Style = "mla"
	StyleChicago Style = "chicago"
	StyleHarvard Style = "harvard"
	StyleIEEE    Style = "ieee"
	StyleBibTeX  Style = "bibtex"
)

// ErrUnsupportedStyle is returned for style names outside Styles().
var ErrUnsupportedStyle = fmt.Errorf("unsupported citation style: %w", domain.ErrInvalidInput)

var allStyles = []Style{StyleAPA, StyleMLA, StyleChicago, StyleHarvard, StyleIEEE, StyleBibTeX}

var styleLabels = map[Style]string{
	StyleAPA:     "APA",
	StyleMLA:     "MLA",
	StyleChicago: "Chicago",
	StyleHarvard: "Harvard",
	StyleIEEE:    "IEEE",
	StyleBibTeX:  "BibTeX",
}

// Styles returns the supported styles in display order.
func Styles() []Style {
	out := make([]Style, len(allStyles))
	copy(out, allStyles)
	return out
}

// Label returns the display name of the style.
func (s Style) Label() string {
	if l, ok := styleLabels[s]; ok {
		return l
	}
	return string(s)
}

// Valid reports whether s is a supported style.
func (s Style) Valid() bool {
	_, ok := styleLabels[s]
	return ok
}

// ParseStyle resolves a case-insensitive style name. An empty name means APA.
func ParseStyle(name string) (Style, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return StyleAPA, nil
	}
	s := Style(name)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedStyle, name)
	}
	return s, nil
}

// Format renders the article in the given style. It never fails for a
// supported style, including articles without authors or journal.
func Format(article domain.Article, style Style) (string, error) {
	authors := strings.Join(article.Authors, ", ")

	switch style {
	case StyleAPA:
		return fmt.Sprintf("APA: %s (%s). %s. %s.",
			authors, article.PublishedDate, article.Title, article.Journal), nil
	case StyleMLA:
		return withDOI(fmt.Sprintf("MLA: %s. \"%s.\" %s, %s.",
			authors, article.Title, article.Journal, article.PublishedDate), article), nil
	case StyleChicago:
		return withDOI(fmt.Sprintf("Chicago: %s. \"%s.\" %s (%s).",
			authors, article.Title, article.Journal, article.PublishedDate), article), nil
	case StyleHarvard:
		return withDOI(fmt.Sprintf("Harvard: %s (%s) '%s', %s.",
			authors, article.PublishedDate, article.Title, article.Journal), article), nil
	case StyleIEEE:
		return withDOI(fmt.Sprintf("IEEE: %s, \"%s,\" %s, %s.",
			authors, article.Title, article.Journal, article.PublishedDate), article), nil
	case StyleBibTeX:
		return bibtex(article), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedStyle, string(style))
	}
}

func withDOI(s string, article domain.Article) string {
	if !article.HasDOI() {
		return s
	}
	return s + " https://doi.org/" + article.DOI
}

func bibtex(article domain.Article) string {
	var sb strings.Builder
	sb.WriteString("@article{")
	sb.WriteString(bibtexKey(article.ID))
	sb.WriteString(",\n")
	writeBibField(&sb, "title", escapeLatex(article.Title))
	writeBibField(&sb, "author", escapeLatex(strings.Join(article.Authors, " and ")))
	if article.HasJournal() {
		writeBibField(&sb, "journal", escapeLatex(article.Journal))
	}
	writeBibField(&sb, "year", bibtexYear(article.PublishedDate))
	if article.HasDOI() {
		writeBibField(&sb, "doi", article.DOI)
	}
	if article.HasFullText() {
		writeBibField(&sb, "url", article.DownloadURL)
	}
	sb.WriteString("}")
	return sb.String()
}

func writeBibField(sb *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "  %s = {%s},\n", name, value)
}

// bibtexYear returns the leading four-digit year of a published date, or ""
// when the date does not start with one.
func bibtexYear(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return ""
	}
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return date[:4]
}

var latexReplacer = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"_", `\_`,
	"{", `\{`,
	"}", `\}`,
	"~", `\textasciitilde{}`,
	"^", `\textasciicircum{}`,
)

// escapeLatex escapes characters that are special inside a BibTeX field.
func escapeLatex(s string) string {
	return latexReplacer.Replace(s)
}

func bibtexKey(id string) string {
	var sb strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "article"
	}
	return "article" + sb.String()
}
