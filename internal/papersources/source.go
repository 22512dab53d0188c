// Package papersources provides clients for scholarly search providers.
//
// A provider is a black box that turns a query into a raw JSON response. The
// response is handed back untouched so the search proxy can forward it and the
// normalizer can decode it.
//
//	src := core.New(core.Config{APIKey: key})
//	raw, err := src.SearchRaw(ctx, papersources.SearchParams{Query: "crispr", Limit: 10})
package papersources

import (
	"context"
	"encoding/json"
	"time"
)

// DefaultLimit is the number of results requested when the caller gives none.
const DefaultLimit = 10

// SearchParams defines the parameters for a provider search.
type SearchParams struct {
	// Query is the search query string (required).
	Query string

	// Limit is the maximum number of results. A value of 0 uses DefaultLimit.
	Limit int

	// Offset is the starting position for paginated results.
	Offset int
}

// EffectiveLimit returns Limit or DefaultLimit when unset.
func (p SearchParams) EffectiveLimit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}
	return p.Limit
}

// RawResult is an unmodified provider response.
type RawResult struct {
	// Body is the provider's JSON response body.
	Body json.RawMessage

	// Source names the provider that answered.
	Source string

	// Duration is the time taken by the provider call.
	Duration time.Duration
}

// SearchSource is implemented by every provider client.
type SearchSource interface {
	// SearchRaw runs the query and returns the provider response body.
	// It returns domain.ErrMissingCredential when the client has no API key.
	SearchRaw(ctx context.Context, params SearchParams) (*RawResult, error)

	// Name returns a human-readable provider name for logs and metrics.
	Name() string

	// IsConfigured reports whether the client holds the credential it needs.
	IsConfigured() bool
}
