package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/helixir/article-explorer/internal/domain"
)

var _ AnnotationRepository = (*MemoryAnnotationRepository)(nil)

// MemoryAnnotationRepository keeps snapshots in process memory. Contents are
// lost on restart.
type MemoryAnnotationRepository struct {
	mu        sync.RWMutex
	bySession map[uuid.UUID]*domain.AnnotationSnapshot
}

// NewMemoryAnnotationRepository creates an empty in-memory repository.
func NewMemoryAnnotationRepository() *MemoryAnnotationRepository {
	return &MemoryAnnotationRepository{bySession: make(map[uuid.UUID]*domain.AnnotationSnapshot)}
}

// Save stores a copy of the snapshot, replacing any earlier one for the same
// session while keeping the earlier id.
func (r *MemoryAnnotationRepository) Save(ctx context.Context, snap *domain.AnnotationSnapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.bySession[snap.SessionID]; ok {
		snap.ID = existing.ID
	}
	r.bySession[snap.SessionID] = cloneSnapshot(snap)
	return nil
}

// LoadLatest returns a copy of the most recently saved snapshot for an article.
func (r *MemoryAnnotationRepository) LoadLatest(ctx context.Context, articleID string) (*domain.AnnotationSnapshot, error) {
	snaps, err := r.ListByArticle(ctx, articleID, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, domain.NewNotFoundError("annotation snapshot", articleID)
	}
	return snaps[0], nil
}

// ListByArticle returns copies of the snapshots for an article, newest first.
func (r *MemoryAnnotationRepository) ListByArticle(ctx context.Context, articleID string, limit, offset int) ([]*domain.AnnotationSnapshot, error) {
	if articleID == "" {
		return nil, domain.NewValidationError("article_id", "article ID is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	applyPaginationDefaults(&limit, &offset)

	r.mu.RLock()
	var matches []*domain.AnnotationSnapshot
	for _, snap := range r.bySession {
		if snap.Article.ID == articleID {
			matches = append(matches, snap)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].SavedAt.After(matches[j].SavedAt)
	})

	if offset >= len(matches) {
		return nil, nil
	}
	matches = matches[offset:]
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]*domain.AnnotationSnapshot, len(matches))
	for i, snap := range matches {
		out[i] = cloneSnapshot(snap)
	}
	return out, nil
}
