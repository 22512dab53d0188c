package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the article explorer.
// Metrics are organized by subsystem: searches, provider requests, reading
// sessions, annotations, artifacts, snapshots and HTTP. All collectors are
// registered via promauto with the default Prometheus registry.
type Metrics struct {
	// SearchesStarted counts searches submitted to a provider, labeled by source.
	SearchesStarted *prometheus.CounterVec

	// SearchesCompleted counts searches that returned a response, labeled by source.
	SearchesCompleted *prometheus.CounterVec

	// SearchesFailed counts searches that failed upstream, labeled by source.
	SearchesFailed *prometheus.CounterVec

	// SearchesRejected counts submissions refused before reaching a provider,
	// labeled by reason (blank, in_flight, unconfigured).
	SearchesRejected *prometheus.CounterVec

	// SearchesDiscarded counts results dropped because the caller went away.
	SearchesDiscarded *prometheus.CounterVec

	// SearchDuration observes provider search duration in seconds, labeled by source.
	SearchDuration *prometheus.HistogramVec

	// ArticlesPerSearch observes the number of normalized articles per search.
	ArticlesPerSearch *prometheus.HistogramVec

	// SourceRateLimited counts 429 responses from providers, labeled by source.
	SourceRateLimited *prometheus.CounterVec

	// SessionsOpened counts reading sessions opened.
	SessionsOpened prometheus.Counter

	// SessionsClosed counts reading sessions closed explicitly.
	SessionsClosed prometheus.Counter

	// SessionsActive tracks the number of registered reading sessions.
	SessionsActive prometheus.Gauge

	// HighlightsAdded counts highlights recorded.
	HighlightsAdded prometheus.Counter

	// NotesAdded counts notes recorded, labeled by whether they carry a selection.
	NotesAdded *prometheus.CounterVec

	// CitationsFormatted counts citations rendered, labeled by style.
	CitationsFormatted *prometheus.CounterVec

	// ExportsGenerated counts note exports, labeled by format.
	ExportsGenerated *prometheus.CounterVec

	// SnapshotsSaved counts annotation snapshots persisted.
	SnapshotsSaved prometheus.Counter

	// SnapshotsFailed counts snapshot save or load failures, labeled by operation.
	SnapshotsFailed *prometheus.CounterVec

	// HTTPRequests counts HTTP requests, labeled by method, route and status.
	HTTPRequests *prometheus.CounterVec

	// HTTPRequestDuration observes HTTP request duration in seconds, labeled by method and route.
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Searches
		SearchesStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_started_total",
			Help:      "Total number of provider searches started by source",
		}, []string{"source"}),
		SearchesCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Total number of provider searches completed by source",
		}, []string{"source"}),
		SearchesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of provider searches failed by source",
		}, []string{"source"}),
		SearchesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_rejected_total",
			Help:      "Total number of search submissions rejected before dispatch",
		}, []string{"reason"}),
		SearchesDiscarded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_discarded_total",
			Help:      "Total number of search results discarded after the caller cancelled",
		}, []string{"source"}),
		SearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of provider searches in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"source"}),
		ArticlesPerSearch: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "articles_per_search",
			Help:      "Number of normalized articles returned per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}, []string{"source"}),
		SourceRateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rate_limited_total",
			Help:      "Total number of rate limit responses from search providers",
		}, []string{"source"}),

		// Reading sessions
		SessionsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_opened_total",
			Help:      "Total number of reading sessions opened",
		}),
		SessionsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_closed_total",
			Help:      "Total number of reading sessions closed",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of registered reading sessions",
		}),

		// Annotations
		HighlightsAdded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "highlights_added_total",
			Help:      "Total number of highlights recorded",
		}),
		NotesAdded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notes_added_total",
			Help:      "Total number of notes recorded",
		}, []string{"linked"}),

		// Artifacts
		CitationsFormatted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "citations_formatted_total",
			Help:      "Total number of citations formatted by style",
		}, []string{"style"}),
		ExportsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_generated_total",
			Help:      "Total number of note exports generated by format",
		}, []string{"format"}),

		// Snapshots
		SnapshotsSaved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_saved_total",
			Help:      "Total number of annotation snapshots saved",
		}),
		SnapshotsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_failed_total",
			Help:      "Total number of failed snapshot operations",
		}, []string{"operation"}),

		// HTTP
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// RecordSearchStarted records that a search has been dispatched.
func (m *Metrics) RecordSearchStarted(source string) {
	m.SearchesStarted.WithLabelValues(source).Inc()
}

// RecordSearchCompleted records that a search has completed.
func (m *Metrics) RecordSearchCompleted(source string, durationSeconds float64) {
	m.SearchesCompleted.WithLabelValues(source).Inc()
	m.SearchDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordSearchFailed records that a search has failed.
func (m *Metrics) RecordSearchFailed(source string, durationSeconds float64) {
	m.SearchesFailed.WithLabelValues(source).Inc()
	m.SearchDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordSearchRejected records a submission refused before dispatch.
func (m *Metrics) RecordSearchRejected(reason string) {
	m.SearchesRejected.WithLabelValues(reason).Inc()
}

// RecordSearchDiscarded records a result dropped after cancellation.
func (m *Metrics) RecordSearchDiscarded(source string) {
	m.SearchesDiscarded.WithLabelValues(source).Inc()
}

// RecordArticlesNormalized records how many articles a search produced.
func (m *Metrics) RecordArticlesNormalized(source string, count int) {
	m.ArticlesPerSearch.WithLabelValues(source).Observe(float64(count))
}

// RecordSourceRateLimited records a rate limit response from a source.
func (m *Metrics) RecordSourceRateLimited(source string) {
	m.SourceRateLimited.WithLabelValues(source).Inc()
}

// RecordSessionOpened records a new reading session.
func (m *Metrics) RecordSessionOpened() {
	m.SessionsOpened.Inc()
}

// RecordSessionClosed records an explicitly closed reading session.
func (m *Metrics) RecordSessionClosed() {
	m.SessionsClosed.Inc()
}

// SetActiveSessions sets the registered session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.SessionsActive.Set(float64(n))
}

// RecordHighlightAdded records a new highlight.
func (m *Metrics) RecordHighlightAdded() {
	m.HighlightsAdded.Inc()
}

// RecordNoteAdded records a new note.
func (m *Metrics) RecordNoteAdded(linked bool) {
	label := "false"
	if linked {
		label = "true"
	}
	m.NotesAdded.WithLabelValues(label).Inc()
}

// RecordCitationFormatted records a rendered citation.
func (m *Metrics) RecordCitationFormatted(style string) {
	m.CitationsFormatted.WithLabelValues(style).Inc()
}

// RecordExportGenerated records a generated note export.
func (m *Metrics) RecordExportGenerated(format string) {
	m.ExportsGenerated.WithLabelValues(format).Inc()
}

// RecordSnapshotSaved records a persisted snapshot.
func (m *Metrics) RecordSnapshotSaved() {
	m.SnapshotsSaved.Inc()
}

// RecordSnapshotFailed records a failed snapshot operation (save or load).
func (m *Metrics) RecordSnapshotFailed(operation string) {
	m.SnapshotsFailed.WithLabelValues(operation).Inc()
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}
