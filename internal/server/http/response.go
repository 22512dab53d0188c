package httpserver

import (
	"time"

	"github.com/helixir/article-explorer/internal/citation"
	"github.com/helixir/article-explorer/internal/domain"
	"github.com/helixir/article-explorer/internal/reading"
)

// Request types. Field rules are enforced with validator tags.

type searchArticlesRequest struct {
	Query string `json:"q" validate:"required,max=1000"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

type articleRequest struct {
	ID            string   `json:"id" validate:"required,max=256"`
	Title         string   `json:"title" validate:"max=2000"`
	Authors       []string `json:"authors" validate:"max=200,dive,max=512"`
	PublishedDate string   `json:"published_date" validate:"max=64"`
	CitationCount int      `json:"citation_count" validate:"min=0"`
	Abstract      string   `json:"abstract" validate:"max=100000"`
	Journal       string   `json:"journal" validate:"max=1000"`
	DOI           string   `json:"doi" validate:"max=256"`
	Subjects      []string `json:"subjects" validate:"max=100,dive,max=256"`
	DownloadURL   string   `json:"download_url" validate:"max=2048"`
}

type openSessionRequest struct {
	Article articleRequest `json:"article" validate:"required"`
	// Restore loads the latest saved annotations for the article.
	Restore bool `json:"restore"`
}

type highlightRequest struct {
	Text string `json:"text" validate:"required,max=10000"`
}

type noteRequest struct {
	Text string   `json:"text" validate:"required,max=20000"`
	Tags []string `json:"tags" validate:"max=20,dive,max=64"`
}

type progressRequest struct {
	ScrollTop        *float64 `json:"scroll_top" validate:"required"`
	ScrollableHeight *float64 `json:"scrollable_height" validate:"required"`
}

// Response types.

type searchArticlesResponse struct {
	Articles []domain.Article `json:"articles"`
	Count    int              `json:"count"`
}

type sessionResponse struct {
	SessionID               string         `json:"session_id"`
	Article                 domain.Article `json:"article"`
	OpenedAt                time.Time      `json:"opened_at"`
	ProgressPercent         float64        `json:"progress_percent"`
	EstimatedReadingMinutes int            `json:"estimated_reading_minutes"`
	RemainingMinutes        int            `json:"remaining_minutes"`
	ElapsedSeconds          int64          `json:"elapsed_seconds"`
	HighlightCount          int            `json:"highlight_count"`
	NoteCount               int            `json:"note_count"`
	PendingSelection        string         `json:"pending_selection,omitempty"`
	Restored                bool           `json:"restored,omitempty"`
}

type highlightsResponse struct {
	Highlights []domain.Highlight `json:"highlights"`
}

type notesResponse struct {
	Notes []domain.Note `json:"notes"`
}

type progressResponse struct {
	ProgressPercent  float64 `json:"progress_percent"`
	RemainingMinutes int     `json:"remaining_minutes"`
}

type citationResponse struct {
	Style    string `json:"style"`
	Label    string `json:"label"`
	Citation string `json:"citation"`
}

type styleResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type stylesResponse struct {
	Styles []styleResponse `json:"styles"`
}

type formatsResponse struct {
	Formats []string `json:"formats"`
}

type snapshotsResponse struct {
	Snapshots []*domain.AnnotationSnapshot `json:"snapshots"`
	Count     int                          `json:"count"`
}

// Converter functions

func (a articleRequest) toDomain() domain.Article {
	article := domain.Article{
		ID:            a.ID,
		Title:         a.Title,
		Authors:       a.Authors,
		PublishedDate: a.PublishedDate,
		CitationCount: a.CitationCount,
		Abstract:      a.Abstract,
		Journal:       a.Journal,
		DOI:           a.DOI,
		Subjects:      a.Subjects,
		DownloadURL:   a.DownloadURL,
	}
	if article.Authors == nil {
		article.Authors = []string{}
	}
	if article.Journal == "" {
		article.Journal = domain.NotAvailable
	}
	if article.DOI == "" {
		article.DOI = domain.NotAvailable
	}
	return article
}

func sessionToResponse(s *reading.Session) sessionResponse {
	highlights := s.Highlights()
	notes := s.Notes()
	return sessionResponse{
		SessionID:               s.ID().String(),
		Article:                 s.Article(),
		OpenedAt:                s.OpenedAt(),
		ProgressPercent:         s.ProgressPercent(),
		EstimatedReadingMinutes: int(s.EstimatedReadingTime().Minutes()),
		RemainingMinutes:        int(s.EstimatedRemaining().Minutes()),
		ElapsedSeconds:          int64(s.Elapsed().Seconds()),
		HighlightCount:          len(highlights),
		NoteCount:               len(notes),
		PendingSelection:        s.PendingSelection(),
	}
}

func stylesToResponse() stylesResponse {
	styles := citation.Styles()
	resp := stylesResponse{Styles: make([]styleResponse, len(styles))}
	for i, st := range styles {
		resp.Styles[i] = styleResponse{ID: string(st), Label: st.Label()}
	}
	return resp
}
