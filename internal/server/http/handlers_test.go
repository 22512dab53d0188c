package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/article-explorer/internal/citation"
	"github.com/helixir/article-explorer/internal/domain"
	"github.com/helixir/article-explorer/internal/normalize"
	"github.com/helixir/article-explorer/internal/observability"
	"github.com/helixir/article-explorer/internal/repository"
	"github.com/helixir/article-explorer/internal/search"
)

const testArticleJSON = `{"id":"core-42","title":"My Paper","authors":["Alice Smith","Bob Jones"],` +
	`"published_date":"2021-03-04","journal":"Nature","doi":"10.1/xyz"}`

// openTestSession opens a session over the test article and returns its id.
func openTestSession(t *testing.T, srv *Server, extra string) sessionResponse {
	t.Helper()
	rr := doJSON(srv, http.MethodPost, "/api/v1/sessions", `{"article":`+testArticleJSON+extra+`}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp sessionResponse
	decodeJSON(t, rr, &resp)
	require.NotEmpty(t, resp.SessionID)
	return resp
}

func sessionPath(id, suffix string) string {
	return "/api/v1/sessions/" + id + suffix
}

// ---------------------------------------------------------------------------
// Tests: search
// ---------------------------------------------------------------------------

func TestSearchArticles_Success(t *testing.T) {
	var gotLimit int
	searcher := &mockSearcher{searchFn: func(_ context.Context, q string, limit int) ([]domain.Article, error) {
		gotLimit = limit
		return []domain.Article{{ID: "1", Title: "Graphene", Authors: []string{}, Journal: domain.NotAvailable, DOI: domain.NotAvailable}}, nil
	}}
	srv := newTestHTTPServer(testDeps{searcher: searcher})

	rr := doJSON(srv, http.MethodPost, "/api/v1/articles/search", `{"q":"graphene"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp searchArticlesResponse
	decodeJSON(t, rr, &resp)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "Graphene", resp.Articles[0].Title)
	assert.Equal(t, 10, gotLimit, "default limit applies when none given")
}

func TestSearchArticles_Validation(t *testing.T) {
	srv := newTestHTTPServer(testDeps{})

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing query", `{}`, "q is required"},
		{"limit too large", `{"q":"x","limit":1000}`, "limit must be at most 100"},
		{"invalid json", `{"q":`, "invalid JSON request body"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(srv, http.MethodPost, "/api/v1/articles/search", tc.body)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tc.message, errorMessage(t, rr))
		})
	}
}

func TestSearchArticles_InFlight(t *testing.T) {
	searcher := &mockSearcher{searchFn: func(context.Context, string, int) ([]domain.Article, error) {
		return nil, search.ErrInFlight
	}}
	srv := newTestHTTPServer(testDeps{searcher: searcher})

	rr := doJSON(srv, http.MethodPost, "/api/v1/articles/search", `{"q":"graphene"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "Search already in progress", errorMessage(t, rr))
}

func TestSearchArticles_LogsUpstreamFailures(t *testing.T) {
	var logs bytes.Buffer
	searcher := &mockSearcher{searchFn: func(context.Context, string, int) ([]domain.Article, error) {
		return nil, fmt.Errorf("core search: %w", domain.ErrServiceUnavailable)
	}}
	srv := newTestHTTPServer(testDeps{searcher: searcher, logOutput: &logs})

	rr := doJSON(srv, http.MethodPost, "/api/v1/articles/search", `{"q":"graphene"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, logs.String(), `"message":"article search failed"`)
	assert.Contains(t, logs.String(), "core search: service unavailable")

	logs.Reset()
	searcher.searchFn = func(context.Context, string, int) ([]domain.Article, error) {
		return nil, search.ErrInFlight
	}
	rr = doJSON(srv, http.MethodPost, "/api/v1/articles/search", `{"q":"graphene"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.NotContains(t, logs.String(), "article search failed")
}

// ---------------------------------------------------------------------------
// Tests: catalogues
// ---------------------------------------------------------------------------

func TestListCitationStyles(t *testing.T) {
	srv := newTestHTTPServer(testDeps{})
	rr := doJSON(srv, http.MethodGet, "/api/v1/citation-styles", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp stylesResponse
	decodeJSON(t, rr, &resp)
	require.Len(t, resp.Styles, len(citation.Styles()))
	for i, st := range citation.Styles() {
		assert.Equal(t, string(st), resp.Styles[i].ID)
		assert.Equal(t, st.Label(), resp.Styles[i].Label)
	}
}

func TestListExportFormats(t *testing.T) {
	srv := newTestHTTPServer(testDeps{})
	rr := doJSON(srv, http.MethodGet, "/api/v1/export-formats", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp formatsResponse
	decodeJSON(t, rr, &resp)
	assert.Equal(t, []string{"text", "markdown", "json", "yaml"}, resp.Formats)
}

// ---------------------------------------------------------------------------
// Tests: sessions
// ---------------------------------------------------------------------------

func TestOpenSession_FillsDefaults(t *testing.T) {
	metrics := observability.NewMetrics("test_http_open_session")
	srv := newTestHTTPServer(testDeps{metrics: metrics})

	rr := doJSON(srv, http.MethodPost, "/api/v1/sessions", `{"article":{"id":"a1","title":"Untitled"}}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp sessionResponse
	decodeJSON(t, rr, &resp)
	assert.Equal(t, domain.NotAvailable, resp.Article.Journal)
	assert.Equal(t, domain.NotAvailable, resp.Article.DOI)
	assert.Equal(t, []string{}, resp.Article.Authors)
	assert.Equal(t, 15, resp.EstimatedReadingMinutes)
	assert.Equal(t, 15, resp.RemainingMinutes)
	assert.Zero(t, resp.HighlightCount)
	assert.False(t, resp.Restored)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SessionsOpened))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SessionsActive))
}

func TestOpenSession_Validation(t *testing.T) {
	srv := newTestHTTPServer(testDeps{})

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"title too long", `{"article":{"id":"a1","title":"` + strings.Repeat("t", 2001) + `"}}`, "article.title must be at most 2000"},
		{"missing id", `{"article":{"title":"T"}}`, "article.id is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(srv, http.MethodPost, "/api/v1/sessions", tc.body)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tc.message, errorMessage(t, rr))
		})
	}
}

func TestOpenSession_AcceptsNormalizedArticle(t *testing.T) {
	srv := newTestHTTPServer(testDeps{})

	article, err := json.Marshal(normalize.Article(normalize.Record{"id": "7"}, 1))
	require.NoError(t, err)
	rr := doJSON(srv, http.MethodPost, "/api/v1/sessions", `{"article":`+string(article)+`}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var sess sessionResponse
	decodeJSON(t, rr, &sess)
	assert.Equal(t, "", sess.Article.Title)

	doJSON(srv, http.MethodPost, sessionPath(sess.SessionID, "/notes"), `{"text":"untitled"}`)
	rr = doJSON(srv, http.MethodGet, sessionPath(sess.SessionID, "/export"), "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, `attachment; filename=_notes.txt`, rr.Header().Get("Content-Disposition"))
}

func TestOpenSession_AcceptsSchemelessDownloadURL(t *testing.T) {
	srv := newTestHTTPServer(testDeps{})
	rr := doJSON(srv, http.MethodPost, "/api/v1/sessions",
		`{"article":{"id":"a8","title":"T","download_url":"core.ac.uk/download/8.pdf"}}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var sess sessionResponse
	decodeJSON(t, rr, &sess)
	assert.Equal(t, "core.ac.uk/download/8.pdf", sess.Article.DownloadURL)
}

func TestOpenSession_MissingArticle(t *testing.T) {
	srv := newTestHTTPServer(testDeps{})
	rr := doJSON(srv, http.MethodPost, "/api/v1/sessions", `{}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	msg := errorMessage(t, rr)
	assert.True(t, strings.HasPrefix(msg, "article") && strings.HasSuffix(msg, "is required"), msg)
}

func TestSession_NotFoundAndInvalidID(t *testing.T) {
	srv := newTestHTTPServer(testDeps{})

	rr := doJSON(srv, http.MethodGet, sessionPath("not-a-uuid", "/notes"), "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "session_id must be a valid UUID", errorMessage(t, rr))

	rr = doJSON(srv, http.MethodGet, sessionPath("7b0c3f0e-5b8a-4a43-9c55-0d1c1b2f9a11", "/notes"), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "resource not found", errorMessage(t, rr))
}

func TestSession_AnnotationFlow(t *testing.T) {
	metrics := observability.NewMetrics("test_http_annotation_flow")
	srv := newTestHTTPServer(testDeps{metrics: metrics})
	sess := openTestSession(t, srv, "")

	rr := doJSON(srv, http.MethodPost, sessionPath(sess.SessionID, "/notes"), `{"text":"standalone"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var first domain.Note
	decodeJSON(t, rr, &first)
	assert.Equal(t, 1, first.ID)
	assert.Empty(t, first.ContextSelection)

	rr = doJSON(srv, http.MethodPost, sessionPath(sess.SessionID, "/highlights"), `{"text":"key finding"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(srv, http.MethodPost, sessionPath(sess.SessionID, "/notes"), `{"text":"why it matters","tags":["method"," method ",""]}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var second domain.Note
	decodeJSON(t, rr, &second)
	assert.Equal(t, 2, second.ID)
	assert.Equal(t, "key finding", second.ContextSelection)
	assert.Equal(t, []string{"method"}, second.Tags)

	rr = doJSON(srv, http.MethodGet, sessionPath(sess.SessionID, "/highlights"), "")
	var highlights highlightsResponse
	decodeJSON(t, rr, &highlights)
	assert.Equal(t, []domain.Highlight{{Text: "key finding"}}, highlights.Highlights)

	rr = doJSON(srv, http.MethodGet, sessionPath(sess.SessionID, "/notes"), "")
	var notes notesResponse
	decodeJSON(t, rr, &notes)
	require.Len(t, notes.Notes, 2)

	rr = doJSON(srv, http.MethodGet, sessionPath(sess.SessionID, "/"), "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got sessionResponse
	decodeJSON(t, rr, &got)
	assert.Equal(t, 1, got.HighlightCount)
	assert.Equal(t, 2, got.NoteCount)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HighlightsAdded))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.NotesAdded.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.NotesAdded.WithLabelValues("false")))
}

func TestSession_EmptyAnnotationsRejected(t *testing.T) {
	srv := newTestHTTPServer(testDeps{})
	sess := openTestSession(t, srv, "")

	rr := doJSON(srv, http.MethodPost, sessionPath(sess.SessionID, "/highlights"), `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(srv, http.MethodPost, sessionPath(sess.SessionID, "/notes"), `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "text is required", errorMessage(t, rr))

	rr = doJSON(srv, http.MethodGet, sessionPath(sess.SessionID, "/notes"), "")
	var notes notesResponse
	decodeJSON(t, rr, &notes)
	assert.Empty(t, notes.Notes)
	assert.NotNil(t, notes.Notes, "empty list encodes as []")
}

func TestSession_EachOpenStartsEmpty(t *testing.T) {
	srv := newTestHTTPServer(testDeps{})
	first := openTestSession(t, srv, "")
	doJSON(srv, http.MethodPost, sessionPath(first.SessionID, "/notes"), `{"text":"n"}`)

	second := openTestSession(t, srv, "")
	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Zero(t, second.NoteCount)
}

func TestSession_UpdateProgress(t *testing.T) {
	srv := newTestHTTPServer(testDeps{})
	sess := openTestSession(t, srv, "")

	tests := []struct {
		body      string
		percent   float64
		remaining int
	}{
		{`{"scroll_top":500,"scrollable_height":1000}`, 50, 8},
		{`{"scroll_top":1500,"scrollable_height":1000}`, 100, 0},
		{`{"scroll_top":100,"scrollable_height":0}`, 100, 0},
		{`{"scroll_top":-50,"scrollable_height":1000}`, 0, 15},
	}
	for _, tc := range tests {
		rr := doJSON(srv, http.MethodPut, sessionPath(sess.SessionID, "/progress"), tc.body)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var resp progressResponse
		decodeJSON(t, rr, &resp)
		assert.Equal(t, tc.percent, resp.ProgressPercent, tc.body)
		assert.Equal(t, tc.remaining, resp.RemainingMinutes, tc.body)
	}

	rr := doJSON(srv, http.MethodPut, sessionPath(sess.SessionID, "/progress"), `{"scroll_top":1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "scrollable_height is required", errorMessage(t, rr))
}

func TestCloseSession(t *testing.T) {
	metrics := observability.NewMetrics("test_http_close_session")
	srv := newTestHTTPServer(testDeps{metrics: metrics})
	sess := openTestSession(t, srv, "")

	rr := doJSON(srv, http.MethodDelete, sessionPath(sess.SessionID, "/"), "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SessionsClosed))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.SessionsActive))

	rr = doJSON(srv, http.MethodDelete, sessionPath(sess.SessionID, "/"), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// ---------------------------------------------------------------------------
// Tests: citation and export
// ---------------------------------------------------------------------------

func TestGetCitation(t *testing.T) {
	srv := newTestHTTPServer(testDeps{})
	sess := openTestSession(t, srv, "")

	rr := doJSON(srv, http.MethodGet, sessionPath(sess.SessionID, "/citation?style=apa"), "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp citationResponse
	decodeJSON(t, rr, &resp)
	assert.Equal(t, "apa", resp.Style)
	assert.Contains(t, resp.Citation, "My Paper")
	assert.Contains(t, resp.Citation, "Nature")

	rr = doJSON(srv, http.MethodGet, sessionPath(sess.SessionID, "/citation?style=vancouver"), "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExportNotes_TextDownload(t *testing.T) {
	metrics := observability.NewMetrics("test_http_export")
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	srv := newTestHTTPServer(testDeps{metrics: metrics, now: func() time.Time { return now }})
	sess := openTestSession(t, srv, "")

	doJSON(srv, http.MethodPost, sessionPath(sess.SessionID, "/highlights"), `{"text":"key finding"}`)
	doJSON(srv, http.MethodPost, sessionPath(sess.SessionID, "/notes"), `{"text":"important"}`)

	rr := doJSON(srv, http.MethodGet, sessionPath(sess.SessionID, "/export"), "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=My_Paper_notes.txt`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "Note: important\nContext: \"key finding\"\nTimestamp: 2024-05-06T07:08:09Z", rr.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ExportsGenerated.WithLabelValues("txt")))
}

func TestExportNotes_Formats(t *testing.T) {
	srv := newTestHTTPServer(testDeps{})
	sess := openTestSession(t, srv, "")

	tests := []struct {
		format   string
		filename string
	}{
		{"markdown", "My_Paper_notes.md"},
		{"json", "My_Paper_notes.json"},
		{"yaml", "My_Paper_notes.yaml"},
	}
	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			rr := doJSON(srv, http.MethodGet, sessionPath(sess.SessionID, "/export?format="+tc.format), "")
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Contains(t, rr.Header().Get("Content-Disposition"), tc.filename)
		})
	}

	rr := doJSON(srv, http.MethodGet, sessionPath(sess.SessionID, "/export?format=docx"), "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// ---------------------------------------------------------------------------
// Tests: snapshots
// ---------------------------------------------------------------------------

func TestSnapshot_SaveLoadAndRestore(t *testing.T) {
	metrics := observability.NewMetrics("test_http_snapshot")
	repo := repository.NewMemoryAnnotationRepository()
	srv := newTestHTTPServer(testDeps{snapshots: repo, metrics: metrics})
	sess := openTestSession(t, srv, "")

	doJSON(srv, http.MethodPost, sessionPath(sess.SessionID, "/highlights"), `{"text":"key finding"}`)
	doJSON(srv, http.MethodPost, sessionPath(sess.SessionID, "/notes"), `{"text":"important"}`)
	doJSON(srv, http.MethodPut, sessionPath(sess.SessionID, "/progress"), `{"scroll_top":250,"scrollable_height":1000}`)

	rr := doJSON(srv, http.MethodPost, sessionPath(sess.SessionID, "/snapshot"), "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SnapshotsSaved))

	rr = doJSON(srv, http.MethodGet, "/api/v1/articles/core-42/annotations", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var latest domain.AnnotationSnapshot
	decodeJSON(t, rr, &latest)
	assert.Equal(t, sess.SessionID, latest.SessionID.String())
	assert.Len(t, latest.Notes, 1)
	assert.Equal(t, 25.0, latest.ProgressPercent)

	rr = doJSON(srv, http.MethodGet, "/api/v1/articles/core-42/annotations/history?limit=5", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var history snapshotsResponse
	decodeJSON(t, rr, &history)
	assert.Equal(t, 1, history.Count)

	restored := openTestSession(t, srv, `,"restore":true`)
	assert.True(t, restored.Restored)
	assert.Equal(t, 1, restored.HighlightCount)
	assert.Equal(t, 1, restored.NoteCount)
	assert.Equal(t, 25.0, restored.ProgressPercent)

	rr = doJSON(srv, http.MethodPost, sessionPath(restored.SessionID, "/notes"), `{"text":"next"}`)
	var next domain.Note
	decodeJSON(t, rr, &next)
	assert.Equal(t, 2, next.ID, "note ids continue after restored notes")
}

func TestSnapshot_RestoreWithoutSavedAnnotations(t *testing.T) {
	srv := newTestHTTPServer(testDeps{})
	sess := openTestSession(t, srv, `,"restore":true`)
	assert.False(t, sess.Restored)
	assert.Zero(t, sess.NoteCount)
}

func TestSnapshot_LatestNotFound(t *testing.T) {
	srv := newTestHTTPServer(testDeps{})
	rr := doJSON(srv, http.MethodGet, "/api/v1/articles/unknown/annotations", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(srv, http.MethodGet, "/api/v1/articles/unknown/annotations/history", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var history snapshotsResponse
	decodeJSON(t, rr, &history)
	assert.Zero(t, history.Count)
	assert.NotNil(t, history.Snapshots)
}

func TestSnapshot_StorageFailure(t *testing.T) {
	metrics := observability.NewMetrics("test_http_snapshot_failure")
	repo := &failingRepo{err: errors.New("connection reset by peer")}
	var logs bytes.Buffer
	srv := newTestHTTPServer(testDeps{snapshots: repo, metrics: metrics, logOutput: &logs})
	sess := openTestSession(t, srv, `,"restore":true`)

	assert.False(t, sess.Restored, "restore failure still opens a fresh session")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SnapshotsFailed.WithLabelValues("load")))

	rr := doJSON(srv, http.MethodPost, sessionPath(sess.SessionID, "/snapshot"), "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal server error", errorMessage(t, rr))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SnapshotsFailed.WithLabelValues("save")))

	assert.Contains(t, logs.String(), `"message":"failed to save annotation snapshot"`)
	assert.Contains(t, logs.String(), `"session_id":"`+sess.SessionID+`"`)
	assert.Contains(t, logs.String(), "connection reset by peer")
}

// ---------------------------------------------------------------------------
// Tests: helper functions
// ---------------------------------------------------------------------------

func TestWriteDomainError_Mappings(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"not found wrapped", domain.NewNotFoundError("session", "123"), http.StatusNotFound},
		{"invalid input", domain.ErrInvalidInput, http.StatusBadRequest},
		{"validation error", domain.NewValidationError("text", "must not be empty"), http.StatusBadRequest},
		{"rate limited", domain.NewRateLimitError("reading sessions", time.Hour), http.StatusTooManyRequests},
		{"missing credential", domain.ErrMissingCredential, http.StatusInternalServerError},
		{"service unavailable", domain.ErrServiceUnavailable, http.StatusServiceUnavailable},
		{"cancelled", domain.ErrCancelled, http.StatusConflict},
		{"in flight", search.ErrInFlight, http.StatusConflict},
		{"unclassified", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeDomainError(rr, tc.err)
			if rr.Code != tc.expectedStatus {
				t.Errorf("expected status %d, got %d", tc.expectedStatus, rr.Code)
			}
		})
	}
}

func TestWriteDomainError_DoesNotLeakInternals(t *testing.T) {
	rr := httptest.NewRecorder()
	writeDomainError(rr, fmt.Errorf("query annotation_snapshots: %w", errors.New("password authentication failed")))

	body := rr.Body.String()
	if strings.Contains(body, "password") || strings.Contains(body, "annotation_snapshots") {
		t.Errorf("error body leaks internals: %s", body)
	}
}

func TestParsePaginationParams(t *testing.T) {
	tests := []struct {
		query          string
		expectedLimit  int
		expectedOffset int
	}{
		{"", 0, 0},
		{"?limit=5&offset=10", 5, 10},
		{"?limit=abc&offset=-", 0, 0},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/test"+tc.query, nil)
		limit, offset := parsePaginationParams(req)
		if limit != tc.expectedLimit || offset != tc.expectedOffset {
			t.Errorf("%q: got limit=%d offset=%d", tc.query, limit, offset)
		}
	}
}
