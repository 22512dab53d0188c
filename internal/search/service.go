// Package search orchestrates provider searches: it rejects blank and
// duplicate in-flight submissions and drops results nobody is waiting for.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/article-explorer/internal/domain"
	"github.com/helixir/article-explorer/internal/normalize"
	"github.com/helixir/article-explorer/internal/observability"
	"github.com/helixir/article-explorer/internal/papersources"
)

// ErrInFlight is returned when the same query is already being searched.
var ErrInFlight = errors.New("search already in flight")

// Rejection reasons used for metrics.
const (
	reasonBlank        = "blank"
	reasonInFlight     = "in_flight"
	reasonUnconfigured = "unconfigured"
)

// Service runs searches against one provider.
type Service struct {
	source  papersources.SearchSource
	metrics *observability.Metrics
	logger  zerolog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService creates a search service. metrics may be nil.
func NewService(source papersources.SearchSource, metrics *observability.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		source:   source,
		metrics:  metrics,
		logger:   logger.With().Str("component", "search").Logger(),
		inFlight: make(map[string]struct{}),
	}
}

// SourceName returns the provider name.
func (s *Service) SourceName() string {
	return s.source.Name()
}

// Raw runs the query and returns the provider response untouched.
//
// Blank queries fail with domain.ErrInvalidInput, an unconfigured provider with
// domain.ErrMissingCredential, and a query already in flight with ErrInFlight.
// When ctx is cancelled before the provider answers, the result is discarded
// and domain.ErrCancelled is returned.
func (s *Service) Raw(ctx context.Context, query string, limit int) (*papersources.RawResult, error) {
	key := normalizeQuery(query)
	if key == "" {
		s.recordRejected(reasonBlank)
		return nil, domain.NewValidationError("q", "query is required")
	}
	if !s.source.IsConfigured() {
		s.recordRejected(reasonUnconfigured)
		return nil, fmt.Errorf("%s: %w", s.source.Name(), domain.ErrMissingCredential)
	}

	if !s.acquire(key) {
		s.recordRejected(reasonInFlight)
		return nil, fmt.Errorf("%w: %q", ErrInFlight, query)
	}
	defer s.release(key)

	source := s.source.Name()
	logger := observability.WithSearchContext(observability.LoggerFromContext(ctx, s.logger), query, source)
	if s.metrics != nil {
		s.metrics.RecordSearchStarted(source)
	}

	start := time.Now()
	res, err := s.source.SearchRaw(ctx, papersources.SearchParams{Query: query, Limit: limit})
	elapsed := time.Since(start).Seconds()

	if ctxErr := ctx.Err(); ctxErr != nil {
		if s.metrics != nil {
			s.metrics.RecordSearchDiscarded(source)
		}
		logger.Debug().Msg("search result discarded after cancellation")
		return nil, fmt.Errorf("%w: %w", domain.ErrCancelled, ctxErr)
	}

	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordSearchFailed(source, elapsed)
			if errors.Is(err, domain.ErrRateLimited) {
				s.metrics.RecordSourceRateLimited(source)
			}
		}
		return nil, fmt.Errorf("search %s: %w", source, err)
	}

	if s.metrics != nil {
		s.metrics.RecordSearchCompleted(source, elapsed)
	}
	logger.Debug().Float64("duration_seconds", elapsed).Msg("search completed")
	return res, nil
}

// Search runs the query and normalizes the provider response into articles.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]domain.Article, error) {
	res, err := s.Raw(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	records, err := normalize.DecodeResults(res.Body)
	if err != nil {
		return nil, domain.NewExternalAPIError(res.Source, 0, "malformed search response", fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err))
	}

	articles := normalize.Normalize(records)
	if s.metrics != nil {
		s.metrics.RecordArticlesNormalized(res.Source, len(articles))
	}
	return articles, nil
}

// InFlight reports whether the query is currently being searched.
func (s *Service) InFlight(query string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[normalizeQuery(query)]
	return ok
}

func (s *Service) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *Service) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, key)
}

func (s *Service) recordRejected(reason string) {
	if s.metrics != nil {
		s.metrics.RecordSearchRejected(reason)
	}
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}
