package export

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/helixir/article-explorer/internal/annotation"
	"github.com/helixir/article-explorer/internal/domain"
)

var noteTime = time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC)

func paperWithNotes(t *testing.T) (domain.Article, []domain.Note) {
	t.Helper()
	store := annotation.NewStore(annotation.WithClock(func() time.Time { return noteTime }))
	_, err := store.AddHighlight("as shown")
	require.NoError(t, err)
	store.AddNote("Important")
	store.AddNote("Second thought", "method")
	return domain.Article{Title: "My Paper", Authors: []string{"Smith, J."}}, store.Notes()
}

func TestExportNotes(t *testing.T) {
	t.Run("highlight then note scenario", func(t *testing.T) {
		article, notes := paperWithNotes(t)

		a := ExportNotes(article, notes)
		assert.Equal(t, "My_Paper_notes.txt", a.Filename)
		assert.Equal(t, "text/plain", a.ContentType)

		body := string(a.Body)
		assert.Contains(t, body, "Note: Important")
		assert.Contains(t, body, "as shown")
		assert.Contains(t, body, "2024-05-02T10:30:00Z")
		assert.Equal(t,
			"Note: Important\nContext: \"as shown\"\nTimestamp: 2024-05-02T10:30:00Z\n\n"+
				"Note: Second thought\nContext: \"\"\nTimestamp: 2024-05-02T10:30:00Z",
			body)
	})

	t.Run("no notes yields empty body", func(t *testing.T) {
		a := ExportNotes(domain.Article{Title: "X"}, nil)
		assert.Empty(t, a.Body)
		assert.Equal(t, "X_notes.txt", a.Filename)
	})

	t.Run("ordered by note id", func(t *testing.T) {
		notes := []domain.Note{{ID: 2, Text: "b"}, {ID: 1, Text: "a"}}
		body := string(ExportNotes(domain.Article{}, notes).Body)
		assert.Less(t, strings.Index(body, "Note: a"), strings.Index(body, "Note: b"))
	})
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "_notes.txt", Filename("", "txt"))
	assert.Equal(t, "a__b_notes.md", Filename("a  b", "md"))
	assert.Equal(t, "Tab\there_notes.txt", Filename("Tab\there", "txt"))
}

func TestNewExporter(t *testing.T) {
	article, notes := paperWithNotes(t)

	t.Run("markdown", func(t *testing.T) {
		e, err := NewExporter("Markdown")
		require.NoError(t, err)
		a, err := e.Export(article, notes)
		require.NoError(t, err)
		assert.Equal(t, "My_Paper_notes.md", a.Filename)
		assert.Contains(t, string(a.Body), "# My Paper")
		assert.Contains(t, string(a.Body), "> as shown")
		assert.Contains(t, string(a.Body), "Tags: method")
	})

	t.Run("json", func(t *testing.T) {
		e, err := NewExporter("json")
		require.NoError(t, err)
		a, err := e.Export(article, notes)
		require.NoError(t, err)
		assert.Equal(t, "application/json", a.ContentType)

		var doc document
		require.NoError(t, json.Unmarshal(a.Body, &doc))
		assert.Equal(t, "My Paper", doc.Article.Title)
		require.Len(t, doc.Notes, 2)
		assert.Equal(t, "as shown", doc.Notes[0].ContextSelection)
	})

	t.Run("yaml", func(t *testing.T) {
		e, err := NewExporter("yml")
		require.NoError(t, err)
		a, err := e.Export(article, notes)
		require.NoError(t, err)
		assert.Equal(t, "My_Paper_notes.yaml", a.Filename)

		var doc document
		require.NoError(t, yaml.Unmarshal(a.Body, &doc))
		require.Len(t, doc.Notes, 2)
		assert.Equal(t, []string{"method"}, doc.Notes[1].Tags)
	})

	t.Run("default is text", func(t *testing.T) {
		e, err := NewExporter("")
		require.NoError(t, err)
		assert.IsType(t, TextExporter{}, e)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := NewExporter("pdf")
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}
