package reading

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/helixir/article-explorer/internal/annotation"
	"github.com/helixir/article-explorer/internal/domain"
)

// Session is one reader's view of one article. All access to the annotation
// store goes through the session lock.
type Session struct {
	id       uuid.UUID
	article  domain.Article
	openedAt time.Time
	estimate time.Duration
	now      func() time.Time

	mu         sync.Mutex
	store      *annotation.Store
	progress   float64
	lastAccess time.Time
}

func newSession(article domain.Article, estimate time.Duration, now func() time.Time) *Session {
	opened := now()
	return &Session{
		id:         uuid.New(),
		article:    article,
		openedAt:   opened,
		estimate:   estimate,
		now:        now,
		store:      annotation.NewStore(annotation.WithClock(now)),
		lastAccess: opened,
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Article returns the article being read.
func (s *Session) Article() domain.Article { return s.article }

// OpenedAt returns when the session was opened.
func (s *Session) OpenedAt() time.Time { return s.openedAt }

// UpdateProgress records the scroll position and returns the new progress.
func (s *Session) UpdateProgress(scrollTop, scrollableHeight float64) float64 {
	p := Progress(scrollTop, scrollableHeight)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = p
	s.touch()
	return p
}

// ProgressPercent returns the last recorded progress.
func (s *Session) ProgressPercent() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Elapsed returns the time since the session was opened.
func (s *Session) Elapsed() time.Duration {
	return s.now().Sub(s.openedAt)
}

// EstimatedReadingTime returns the total reading time estimate.
func (s *Session) EstimatedReadingTime() time.Duration { return s.estimate }

// EstimatedRemaining returns the reading time left at the current progress.
func (s *Session) EstimatedRemaining() time.Duration {
	return Remaining(s.estimate, s.ProgressPercent())
}

// AddHighlight records a highlight in the session's store.
func (s *Session) AddHighlight(text string) (domain.Highlight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.store.AddHighlight(text)
}

// AddNote records a note in the session's store.
func (s *Session) AddNote(text string, tags ...string) domain.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.store.AddNote(text, tags...)
}

// Highlights returns the session's highlights in insertion order.
func (s *Session) Highlights() []domain.Highlight {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Highlights()
}

// Notes returns the session's notes in insertion order.
func (s *Session) Notes() []domain.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Notes()
}

// PendingSelection returns the selection the next note will be linked to.
func (s *Session) PendingSelection() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.PendingSelection()
}

// Snapshot captures the session state for durable storage.
func (s *Session) Snapshot() domain.AnnotationSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.store.Snapshot()
	snap.ID = uuid.New()
	snap.SessionID = s.id
	snap.Article = s.article
	snap.ProgressPercent = s.progress
	snap.SavedAt = s.now()
	return snap
}

// Restore loads saved annotations into the session. Progress is restored too.
func (s *Session) Restore(snap domain.AnnotationSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Restore(snap)
	s.progress = snap.ProgressPercent
	s.touch()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastAccess)
}

// touch must be called with mu held.
func (s *Session) touch() {
	s.lastAccess = s.now()
}
