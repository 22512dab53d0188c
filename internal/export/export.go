// Package export renders a session's notes as downloadable artifacts.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/helixir/article-explorer/internal/domain"
)

// Format identifies an export format.
type Format string

// Supported export formats.
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ErrUnsupportedFormat is returned for format names outside Formats().
var ErrUnsupportedFormat = fmt.Errorf("unsupported export format: %w", domain.ErrInvalidInput)

// Artifact is a named, typed blob ready for download.
type Artifact struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Exporter renders notes for an article.
type Exporter interface {
	Export(article domain.Article, notes []domain.Note) (Artifact, error)
}

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{FormatText, FormatMarkdown, FormatJSON, FormatYAML}
}

// NewExporter returns the exporter for a case-insensitive format name.
// An empty name selects plain text.
func NewExporter(format string) (Exporter, error) {
	switch Format(strings.ToLower(strings.TrimSpace(format))) {
	case "", FormatText, "txt":
		return TextExporter{}, nil
	case FormatMarkdown, "md":
		return MarkdownExporter{}, nil
	case FormatJSON:
		return JSONExporter{}, nil
	case FormatYAML, "yml":
		return YAMLExporter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ExportNotes renders notes as the plain-text artifact.
func ExportNotes(article domain.Article, notes []domain.Note) Artifact {
	a, _ := TextExporter{}.Export(article, notes)
	return a
}

// Filename derives the download name from the article title by replacing
// every space with an underscore.
func Filename(title, ext string) string {
	return strings.ReplaceAll(title, " ", "_") + "_notes." + ext
}

// TextExporter renders the plain-text note export.
type TextExporter struct{}

// Export implements Exporter.
func (TextExporter) Export(article domain.Article, notes []domain.Note) (Artifact, error) {
	blocks := make([]string, 0, len(notes))
	for _, n := range sortedNotes(notes) {
		blocks = append(blocks, fmt.Sprintf("Note: %s\nContext: \"%s\"\nTimestamp: %s",
			n.Text, n.ContextSelection, timestamp(n.CreatedAt)))
	}
	return Artifact{
		Filename:    Filename(article.Title, "txt"),
		ContentType: "text/plain",
		Body:        []byte(strings.Join(blocks, "\n\n")),
	}, nil
}

// MarkdownExporter renders notes as a markdown document.
type MarkdownExporter struct{}

// Export implements Exporter.
func (MarkdownExporter) Export(article domain.Article, notes []domain.Note) (Artifact, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", article.Title)
	if len(article.Authors) > 0 {
		fmt.Fprintf(&buf, "\n_%s_\n", strings.Join(article.Authors, ", "))
	}
	for _, n := range sortedNotes(notes) {
		fmt.Fprintf(&buf, "\n## Note %d\n\n%s\n", n.ID, n.Text)
		if n.HasContext() {
			fmt.Fprintf(&buf, "\n> %s\n", n.ContextSelection)
		}
		if len(n.Tags) > 0 {
			fmt.Fprintf(&buf, "\nTags: %s\n", strings.Join(n.Tags, ", "))
		}
		fmt.Fprintf(&buf, "\n_%s_\n", timestamp(n.CreatedAt))
	}
	return Artifact{
		Filename:    Filename(article.Title, "md"),
		ContentType: "text/markdown",
		Body:        buf.Bytes(),
	}, nil
}

// document is the structured export shape shared by JSON and YAML.
type document struct {
	Article domain.Article `json:"article" yaml:"article"`
	Notes   []domain.Note  `json:"notes" yaml:"notes"`
}

// JSONExporter renders notes as indented JSON.
type JSONExporter struct{}

// Export implements Exporter.
func (JSONExporter) Export(article domain.Article, notes []domain.Note) (Artifact, error) {
	body, err := json.MarshalIndent(document{Article: article, Notes: sortedNotes(notes)}, "", "  ")
	if err != nil {
		return Artifact{}, fmt.Errorf("marshal notes: %w", err)
	}
	return Artifact{
		Filename:    Filename(article.Title, "json"),
		ContentType: "application/json",
		Body:        body,
	}, nil
}

// YAMLExporter renders notes as YAML.
type YAMLExporter struct{}

// Export implements Exporter.
func (YAMLExporter) Export(article domain.Article, notes []domain.Note) (Artifact, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(document{Article: article, Notes: sortedNotes(notes)}); err != nil {
		return Artifact{}, fmt.Errorf("marshal notes: %w", err)
	}
	if err := enc.Close(); err != nil {
		return Artifact{}, fmt.Errorf("marshal notes: %w", err)
	}
	return Artifact{
		Filename:    Filename(article.Title, "yaml"),
		ContentType: "application/yaml",
		Body:        buf.Bytes(),
	}, nil
}

func sortedNotes(notes []domain.Note) []domain.Note {
	out := make([]domain.Note, len(notes))
	copy(out, notes)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func timestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}
