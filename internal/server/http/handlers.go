package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/helixir/article-explorer/internal/citation"
	"github.com/helixir/article-explorer/internal/domain"
	"github.com/helixir/article-explorer/internal/export"
	"github.com/helixir/article-explorer/internal/observability"
	"github.com/helixir/article-explorer/internal/reading"
	"github.com/helixir/article-explorer/internal/search"
)

const maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies

// searchArticles handles POST /articles/search.
func (s *Server) searchArticles(w http.ResponseWriter, r *http.Request) {
	var req searchArticlesRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	limit := req.Limit
	if limit == 0 {
		limit = s.cfg.DefaultLimit
	}

	articles, err := s.searcher.Search(r.Context(), req.Query, limit)
	if err != nil {
		if errors.Is(err, domain.ErrCancelled) {
			return
		}
		s.logUpstream(r, err)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchArticlesResponse{Articles: articles, Count: len(articles)})
}

// listCitationStyles handles GET /citation-styles.
func (s *Server) listCitationStyles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, stylesToResponse())
}

// listExportFormats handles GET /export-formats.
func (s *Server) listExportFormats(w http.ResponseWriter, _ *http.Request) {
	formats := export.Formats()
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	writeJSON(w, http.StatusOK, formatsResponse{Formats: names})
}

// openSession handles POST /sessions. Every open starts with empty
// annotations unless restore is requested.
func (s *Server) openSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	sess, err := s.sessions.Open(req.Article.toDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordSessionOpened()
		s.metrics.SetActiveSessions(s.sessions.Len())
	}

	logger := observability.WithSessionContext(
		observability.LoggerFromContext(r.Context(), s.logger), sess.ID().String(), req.Article.ID)

	restored := false
	if req.Restore && s.snapshots != nil {
		snap, err := s.snapshots.LoadLatest(r.Context(), req.Article.ID)
		switch {
		case err == nil:
			sess.Restore(*snap)
			restored = true
		case errors.Is(err, domain.ErrNotFound):
		default:
			if s.metrics != nil {
				s.metrics.RecordSnapshotFailed("load")
			}
			logger.Warn().Err(err).Msg("failed to restore annotations")
		}
	}

	logger.Info().Bool("restored", restored).Msg("reading session opened")
	resp := sessionToResponse(sess)
	resp.Restored = restored
	writeJSON(w, http.StatusCreated, resp)
}

// getSession handles GET /sessions/{sessionID}.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(sess))
}

// closeSession handles DELETE /sessions/{sessionID}. Unsaved annotations are
// discarded.
func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "sessionID"), "session_id")
	if !ok {
		return
	}
	if err := s.sessions.Close(id); err != nil {
		writeDomainError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordSessionClosed()
		s.metrics.SetActiveSessions(s.sessions.Len())
	}
	w.WriteHeader(http.StatusNoContent)
}

// addHighlight handles POST /sessions/{sessionID}/highlights.
func (s *Server) addHighlight(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req highlightRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	h, err := sess.AddHighlight(req.Text)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordHighlightAdded()
	}
	writeJSON(w, http.StatusCreated, h)
}

// listHighlights handles GET /sessions/{sessionID}/highlights.
func (s *Server) listHighlights(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	highlights := sess.Highlights()
	if highlights == nil {
		highlights = []domain.Highlight{}
	}
	writeJSON(w, http.StatusOK, highlightsResponse{Highlights: highlights})
}

// addNote handles POST /sessions/{sessionID}/notes. The note is linked to the
// pending highlight, if any.
func (s *Server) addNote(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req noteRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	note := sess.AddNote(req.Text, req.Tags...)
	if s.metrics != nil {
		s.metrics.RecordNoteAdded(note.HasContext())
	}
	writeJSON(w, http.StatusCreated, note)
}

// listNotes handles GET /sessions/{sessionID}/notes.
func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	notes := sess.Notes()
	if notes == nil {
		notes = []domain.Note{}
	}
	writeJSON(w, http.StatusOK, notesResponse{Notes: notes})
}

// updateProgress handles PUT /sessions/{sessionID}/progress.
func (s *Server) updateProgress(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req progressRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	pct := sess.UpdateProgress(*req.ScrollTop, *req.ScrollableHeight)
	writeJSON(w, http.StatusOK, progressResponse{
		ProgressPercent:  pct,
		RemainingMinutes: int(sess.EstimatedRemaining().Minutes()),
	})
}

// getCitation handles GET /sessions/{sessionID}/citation?style=apa.
func (s *Server) getCitation(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	style, err := citation.ParseStyle(r.URL.Query().Get("style"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	text, err := citation.Format(sess.Article(), style)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordCitationFormatted(string(style))
	}
	writeJSON(w, http.StatusOK, citationResponse{Style: string(style), Label: style.Label(), Citation: text})
}

// exportNotes handles GET /sessions/{sessionID}/export?format=text and serves
// the notes as a file download.
func (s *Server) exportNotes(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	exporter, err := export.NewExporter(r.URL.Query().Get("format"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	artifact, err := exporter.Export(sess.Article(), sess.Notes())
	if err != nil {
		logger := observability.LoggerFromContext(r.Context(), s.logger)
		logger.Error().Err(err).Msg("failed to export notes")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordExportGenerated(strings.TrimPrefix(path.Ext(artifact.Filename), "."))
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Body)
}

// saveSnapshot handles POST /sessions/{sessionID}/snapshot.
func (s *Server) saveSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}

	snap := sess.Snapshot()
	if err := s.snapshots.Save(r.Context(), &snap); err != nil {
		if s.metrics != nil {
			s.metrics.RecordSnapshotFailed("save")
		}
		logger := observability.LoggerFromContext(r.Context(), s.logger)
		logger.Error().Err(err).
			Str("session_id", sess.ID().String()).Msg("failed to save annotation snapshot")
		writeDomainError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordSnapshotSaved()
	}
	writeJSON(w, http.StatusCreated, snap)
}

// getLatestAnnotations handles GET /articles/{articleID}/annotations.
func (s *Server) getLatestAnnotations(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.LoadLatest(r.Context(), chi.URLParam(r, "articleID"))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrInvalidInput) && s.metrics != nil {
			s.metrics.RecordSnapshotFailed("load")
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// listAnnotationHistory handles GET /articles/{articleID}/annotations/history.
func (s *Server) listAnnotationHistory(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePaginationParams(r)
	snaps, err := s.snapshots.ListByArticle(r.Context(), chi.URLParam(r, "articleID"), limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if snaps == nil {
		snaps = []*domain.AnnotationSnapshot{}
	}
	writeJSON(w, http.StatusOK, snapshotsResponse{Snapshots: snaps, Count: len(snaps)})
}

// sessionFromRequest resolves the {sessionID} path parameter, writing an error
// response when it is malformed or unknown.
func (s *Server) sessionFromRequest(w http.ResponseWriter, r *http.Request) (*reading.Session, bool) {
	id, ok := parseUUID(w, chi.URLParam(r, "sessionID"), "session_id")
	if !ok {
		return nil, false
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return sess, true
}

// decodeAndValidate reads a JSON body into dst and validates it, writing a 400
// response on failure.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			writeError(w, http.StatusBadRequest, validationMessage(fieldErrs[0]))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}

// logUpstream logs provider failures, which are reported to clients without detail.
func (s *Server) logUpstream(r *http.Request, err error) {
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, search.ErrInFlight) {
		return
	}
	logger := observability.LoggerFromContext(r.Context(), s.logger)
	logger.Error().Err(err).Msg("article search failed")
}

func validationMessage(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), strings.SplitN(fe.Namespace(), ".", 2)[0]+".")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// writeDomainError maps domain errors to HTTP status codes and writes a JSON
// error response. Internal error details are not leaked to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, search.ErrInFlight):
		writeError(w, http.StatusConflict, msgSearchInFlight)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrMissingCredential):
		writeError(w, http.StatusInternalServerError, msgAPIKeyMissing)
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	case errors.Is(err, domain.ErrCancelled):
		writeError(w, http.StatusConflict, "operation cancelled")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseUUID parses a UUID, writing a 400 error response if invalid. The parse
// error is not echoed back.
func parseUUID(w http.ResponseWriter, s, fieldName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a valid UUID", fieldName))
		return uuid.Nil, false
	}
	return id, true
}

// parsePaginationParams extracts limit and offset query parameters. Bounds are
// applied by the repository.
func parsePaginationParams(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		offset = v
	}
	return limit, offset
}
