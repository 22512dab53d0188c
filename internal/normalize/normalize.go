// Package normalize converts loosely-typed provider search records into
// domain.Article values.
//
// Normalization is total: any record, including an empty one or one whose
// fields carry the wrong types, yields a well-formed Article. JSON null and
// wrong-typed values are treated as absent.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/helixir/article-explorer/internal/domain"
)

// Record is a single raw search result as decoded from the provider.
type Record map[string]any

// Normalize maps every record to an Article, preserving order.
func Normalize(records []Record) []domain.Article {
	articles := make([]domain.Article, 0, len(records))
	for i, r := range records {
		articles = append(articles, Article(r, i+1))
	}
	return articles
}

// Article normalizes one record. position is the 1-based index of the record
// in its result set and is used only to derive an id when the record has none.
func Article(r Record, position int) domain.Article {
	id := idString(r["id"])
	if id == "" {
		id = fmt.Sprintf("unidentified-%d", position)
	}

	return domain.Article{
		ID:            id,
		Title:         stringField(r, "title"),
		Authors:       authorNames(r["authors"]),
		PublishedDate: stringField(r, "publishedDate"),
		CitationCount: citationCount(r["citations"]),
		Abstract:      stringField(r, "abstract"),
		Journal:       orNotAvailable(journalTitle(r)),
		DOI:           orNotAvailable(stringField(r, "doi")),
		Subjects:      subjects(r),
		DownloadURL:   stringField(r, "downloadUrl"),
	}
}

// DecodeResults decodes a provider response of the form {"results": [...]}.
// Entries that are not JSON objects become empty records. An error is returned
// only when the body is not a JSON object.
func DecodeResults(body []byte) ([]Record, error) {
	var envelope struct {
		Results json.RawMessage `json:"results"`
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	var entries []json.RawMessage
	if len(envelope.Results) > 0 {
		// A non-array results field is an empty result set.
		_ = json.Unmarshal(envelope.Results, &entries)
	}

	records := make([]Record, 0, len(entries))
	for _, raw := range entries {
		var rec Record
		d := json.NewDecoder(bytes.NewReader(raw))
		d.UseNumber()
		if err := d.Decode(&rec); err != nil || rec == nil {
			rec = Record{}
		}
		records = append(records, rec)
	}
	return records, nil
}

func stringField(r Record, key string) string {
	s, _ := r[key].(string)
	return s
}

func orNotAvailable(s string) string {
	if s == "" {
		return domain.NotAvailable
	}
	return s
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	case float64:
		if math.IsNaN(id) || math.IsInf(id, 0) {
			return ""
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	default:
		return ""
	}
}

func authorNames(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	names := make([]string, 0, len(list))
	for _, entry := range list {
		author, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if name, ok := author["name"].(string); ok {
			names = append(names, name)
		}
	}
	return names
}

func citationCount(v any) int {
	list, ok := v.([]any)
	if !ok {
		return 0
	}
	return len(list)
}

func journalTitle(r Record) string {
	if j, ok := r["journal"].(map[string]any); ok {
		if title, ok := j["title"].(string); ok && title != "" {
			return title
		}
	}
	if list, ok := r["journals"].([]any); ok && len(list) > 0 {
		if j, ok := list[0].(map[string]any); ok {
			if title, ok := j["title"].(string); ok {
				return title
			}
		}
	}
	return ""
}

func subjects(r Record) []string {
	out := []string{}
	seen := make(map[string]struct{})
	if list, ok := r["subjects"].([]any); ok {
		for _, entry := range list {
			s, ok := entry.(string)
			if !ok {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		if field := strings.TrimSpace(stringField(r, "fieldOfStudy")); field != "" {
			out = append(out, field)
		}
	}
	return out
}
