// Package annotation holds the per-session highlight and note store.
//
// A Store is owned by exactly one reading session and is not safe for
// concurrent use; callers serialize access.
package annotation

import (
	"time"

	"github.com/helixir/article-explorer/internal/domain"
)

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for note timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store keeps highlights and notes in insertion order.
type Store struct {
	highlights []domain.Highlight
	notes      []domain.Note
	pending    string
	lastNoteID int
	now        func() time.Time
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddHighlight records a highlight and makes it the pending selection for the
// next note. Empty text is rejected and leaves the store unchanged.
func (s *Store) AddHighlight(selectedText string) (domain.Highlight, error) {
	if selectedText == "" {
		return domain.Highlight{}, domain.NewValidationError("text", "highlight text must not be empty")
	}

	h := domain.Highlight{Text: selectedText}
	s.highlights = append(s.highlights, h)
	s.pending = selectedText
	return h, nil
}

// AddNote appends a note linked to the pending selection, then clears the
// selection. Note ids start at 1 and are never reused.
func (s *Store) AddNote(text string, tags ...string) domain.Note {
	s.lastNoteID++
	n := domain.Note{
		ID:               s.lastNoteID,
		Text:             text,
		CreatedAt:        s.now(),
		ContextSelection: s.pending,
		Tags:             domain.NormalizeTags(tags),
	}
	s.notes = append(s.notes, n)
	s.pending = ""
	return n
}

// Highlights returns a copy of the highlights in insertion order.
func (s *Store) Highlights() []domain.Highlight {
	out := make([]domain.Highlight, len(s.highlights))
	copy(out, s.highlights)
	return out
}

// Notes returns a copy of the notes in insertion order.
func (s *Store) Notes() []domain.Note {
	out := make([]domain.Note, len(s.notes))
	for i, n := range s.notes {
		out[i] = n
		if n.Tags != nil {
			out[i].Tags = append([]string(nil), n.Tags...)
		}
	}
	return out
}

// PendingSelection returns the selection the next note will be linked to.
func (s *Store) PendingSelection() string {
	return s.pending
}

// Snapshot fills the annotation fields of a snapshot.
func (s *Store) Snapshot() domain.AnnotationSnapshot {
	return domain.AnnotationSnapshot{
		Highlights: s.Highlights(),
		Notes:      s.Notes(),
	}
}

// Restore replaces the store contents with a saved snapshot. The pending
// selection is cleared and the next note id follows the highest restored id.
func (s *Store) Restore(snap domain.AnnotationSnapshot) {
	s.highlights = append([]domain.Highlight(nil), snap.Highlights...)
	s.notes = make([]domain.Note, len(snap.Notes))
	copy(s.notes, snap.Notes)
	s.pending = ""
	s.lastNoteID = snap.NextNoteID() - 1
}
