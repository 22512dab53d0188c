package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/helixir/article-explorer/internal/domain"
	"github.com/helixir/article-explorer/internal/observability"
	"github.com/helixir/article-explorer/internal/search"
)

// Search proxy error messages. The browser client matches on these.
const (
	msgMethodNotAllowed = "Method not allowed"
	msgQueryRequired    = "Query parameter is required"
	msgAPIKeyMissing    = "API key not configured"
	msgSearchFailed     = "Failed to fetch search results"
	msgSearchInFlight   = "Search already in progress"
)

// proxySearchRequest is the search proxy request body. Limit may be sent as a
// number or a numeric string.
type proxySearchRequest struct {
	Q     string          `json:"q"`
	Limit json.RawMessage `json:"limit,omitempty"`
}

// searchProxy handles /api/search. It forwards the query to the provider with
// the server-held credential and relays the provider response untouched.
func (s *Server) searchProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := observability.LoggerFromContext(ctx, s.logger)

	var req proxySearchRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err == nil {
		// An unparseable body has no query; it is reported as such.
		_ = json.Unmarshal(body, &req)
	}
	if strings.TrimSpace(req.Q) == "" {
		writeError(w, http.StatusBadRequest, msgQueryRequired)
		return
	}

	res, err := s.searcher.Raw(ctx, req.Q, s.parseLimit(req.Limit))
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, msgQueryRequired)
		return
	case errors.Is(err, domain.ErrMissingCredential):
		logger.Error().Msg("search API key not configured")
		writeError(w, http.StatusInternalServerError, msgAPIKeyMissing)
		return
	case errors.Is(err, search.ErrInFlight):
		writeError(w, http.StatusConflict, msgSearchInFlight)
		return
	case errors.Is(err, domain.ErrCancelled):
		// The client is gone; nobody reads this response.
		logger.Debug().Msg("search proxy request cancelled")
		return
	default:
		logger.Error().Err(err).Msg("search proxy request failed")
		writeError(w, http.StatusInternalServerError, msgSearchFailed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, bytes.NewReader(res.Body)); err != nil {
		logger.Debug().Err(err).Msg("failed to write search proxy response")
	}
}

// parseLimit accepts a positive JSON number or numeric string. Anything else
// yields the configured default.
func (s *Server) parseLimit(raw json.RawMessage) int {
	if len(raw) == 0 {
		return s.cfg.DefaultLimit
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
		return n
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(str)); err == nil && n > 0 {
			return n
		}
	}
	return s.cfg.DefaultLimit
}
