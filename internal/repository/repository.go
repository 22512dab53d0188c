// Package repository persists annotation snapshots.
//
// Two implementations of AnnotationRepository are provided: PgAnnotationRepository
// backed by PostgreSQL through the DBTX interface, and MemoryAnnotationRepository
// for single-process deployments and tests. Both are safe for concurrent use.
//
// Methods return errors from the domain package:
//
//   - domain.ErrNotFound: no snapshot exists for the article
//   - domain.ErrInvalidInput: a snapshot is missing its identifiers
//
// Usage:
//
//	db, _ := database.New(ctx, &cfg.Database, logger)
//	repo := repository.NewPgAnnotationRepository(db)
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/helixir/article-explorer/internal/database"
	"github.com/helixir/article-explorer/internal/domain"
)

// DBTX is the database interface supporting both pool and transaction contexts.
type DBTX = database.DBTX

// AnnotationRepository stores and retrieves annotation snapshots.
type AnnotationRepository interface {
	// Save stores the snapshot. A second save for the same session replaces
	// the earlier one.
	Save(ctx context.Context, snap *domain.AnnotationSnapshot) error

	// LoadLatest returns the most recently saved snapshot for an article.
	LoadLatest(ctx context.Context, articleID string) (*domain.AnnotationSnapshot, error)

	// ListByArticle returns snapshots for an article, newest first.
	ListByArticle(ctx context.Context, articleID string, limit, offset int) ([]*domain.AnnotationSnapshot, error)
}

// Pagination defaults and limits.
const (
	defaultFilterLimit = 20
	maxFilterLimit     = 100
)

// applyPaginationDefaults clamps limit to [1, maxFilterLimit] and offset to >= 0.
func applyPaginationDefaults(limit, offset *int) {
	if *limit <= 0 {
		*limit = defaultFilterLimit
	}
	if *limit > maxFilterLimit {
		*limit = maxFilterLimit
	}
	if *offset < 0 {
		*offset = 0
	}
}

func validateSnapshot(snap *domain.AnnotationSnapshot) error {
	if snap == nil {
		return domain.NewValidationError("snapshot", "snapshot cannot be nil")
	}
	if snap.ID == uuid.Nil {
		return domain.NewValidationError("id", "snapshot ID is required")
	}
	if snap.SessionID == uuid.Nil {
		return domain.NewValidationError("session_id", "session ID is required")
	}
	if snap.Article.ID == "" {
		return domain.NewValidationError("article_id", "article ID is required")
	}
	return nil
}

// cloneSnapshot deep-copies the slices so callers cannot alias stored state.
func cloneSnapshot(snap *domain.AnnotationSnapshot) *domain.AnnotationSnapshot {
	out := *snap
	out.Article.Authors = cloneStrings(snap.Article.Authors)
	out.Article.Subjects = cloneStrings(snap.Article.Subjects)
	if snap.Highlights != nil {
		out.Highlights = append(make([]domain.Highlight, 0, len(snap.Highlights)), snap.Highlights...)
	}
	if snap.Notes != nil {
		out.Notes = make([]domain.Note, len(snap.Notes))
		for i, n := range snap.Notes {
			n.Tags = cloneStrings(n.Tags)
			out.Notes[i] = n
		}
	}
	return &out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
