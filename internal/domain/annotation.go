package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Highlight is a span of article text the reader marked.
type Highlight struct {
	Text string `json:"text" yaml:"text"`
}

// Note is a free-text annotation, optionally linked to the selection that was
// pending when it was written.
type Note struct {
	ID               int       `json:"id" yaml:"id"`
	Text             string    `json:"text" yaml:"text"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
	ContextSelection string    `json:"context_selection" yaml:"context_selection"`
	Tags             []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// HasContext reports whether the note was linked to a highlight.
func (n Note) HasContext() bool {
	return n.ContextSelection != ""
}

// AnnotationSnapshot is the unit handed to durable storage.
type AnnotationSnapshot struct {
	ID              uuid.UUID   `json:"id"`
	SessionID       uuid.UUID   `json:"session_id"`
	Article         Article     `json:"article"`
	Highlights      []Highlight `json:"highlights"`
	Notes           []Note      `json:"notes"`
	ProgressPercent float64     `json:"progress_percent"`
	SavedAt         time.Time   `json:"saved_at"`
}

// NextNoteID returns the id the next note must receive after the snapshot's notes.
func (s AnnotationSnapshot) NextNoteID() int {
	maxID := 0
	for _, n := range s.Notes {
		if n.ID > maxID {
			maxID = n.ID
		}
	}
	return maxID + 1
}

// NormalizeTags trims tags and drops blanks and duplicates, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
