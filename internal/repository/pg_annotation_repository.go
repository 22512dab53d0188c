package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/helixir/article-explorer/internal/domain"
)

var _ AnnotationRepository = (*PgAnnotationRepository)(nil)

const snapshotColumns = `id, session_id, article, highlights, notes, progress_percent, saved_at`

// PgAnnotationRepository is a PostgreSQL implementation of AnnotationRepository.
type PgAnnotationRepository struct {
	db DBTX
}

// NewPgAnnotationRepository creates a new PostgreSQL annotation repository.
func NewPgAnnotationRepository(db DBTX) *PgAnnotationRepository {
	return &PgAnnotationRepository{db: db}
}

// Save upserts the snapshot keyed by session. On conflict the stored row keeps
// its original id, which is written back to snap.ID.
func (r *PgAnnotationRepository) Save(ctx context.Context, snap *domain.AnnotationSnapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}

	articleJSON, err := json.Marshal(snap.Article)
	if err != nil {
		return fmt.Errorf("failed to marshal article: %w", err)
	}
	highlights := snap.Highlights
	if highlights == nil {
		highlights = []domain.Highlight{}
	}
	highlightsJSON, err := json.Marshal(highlights)
	if err != nil {
		return fmt.Errorf("failed to marshal highlights: %w", err)
	}
	notes := snap.Notes
	if notes == nil {
		notes = []domain.Note{}
	}
	notesJSON, err := json.Marshal(notes)
	if err != nil {
		return fmt.Errorf("failed to marshal notes: %w", err)
	}

	query := `
		INSERT INTO annotation_snapshots (
			id, session_id, article_id, article, highlights, notes, progress_percent, saved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id) DO UPDATE SET
			article = EXCLUDED.article,
			highlights = EXCLUDED.highlights,
			notes = EXCLUDED.notes,
			progress_percent = EXCLUDED.progress_percent,
			saved_at = EXCLUDED.saved_at
		RETURNING id`

	err = r.db.QueryRow(ctx, query,
		snap.ID, snap.SessionID, snap.Article.ID, articleJSON, highlightsJSON, notesJSON,
		snap.ProgressPercent, snap.SavedAt,
	).Scan(&snap.ID)
	if err != nil {
		return fmt.Errorf("failed to save annotation snapshot: %w", err)
	}
	return nil
}

// LoadLatest returns the most recently saved snapshot for an article.
func (r *PgAnnotationRepository) LoadLatest(ctx context.Context, articleID string) (*domain.AnnotationSnapshot, error) {
	if articleID == "" {
		return nil, domain.NewValidationError("article_id", "article ID is required")
	}

	query := `SELECT ` + snapshotColumns + ` FROM annotation_snapshots
		WHERE article_id = $1
		ORDER BY saved_at DESC
		LIMIT 1`

	snap, err := scanSnapshot(r.db.QueryRow(ctx, query, articleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("annotation snapshot", articleID)
		}
		return nil, fmt.Errorf("failed to load annotation snapshot: %w", err)
	}
	return snap, nil
}

// ListByArticle returns snapshots for an article, newest first.
func (r *PgAnnotationRepository) ListByArticle(ctx context.Context, articleID string, limit, offset int) ([]*domain.AnnotationSnapshot, error) {
	if articleID == "" {
		return nil, domain.NewValidationError("article_id", "article ID is required")
	}
	applyPaginationDefaults(&limit, &offset)

	query := `SELECT ` + snapshotColumns + ` FROM annotation_snapshots
		WHERE article_id = $1
		ORDER BY saved_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, articleID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list annotation snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.AnnotationSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan annotation snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate annotation snapshots: %w", err)
	}
	return snaps, nil
}

// scanSnapshot scans one row of snapshotColumns. pgx.Rows satisfies pgx.Row.
func scanSnapshot(row pgx.Row) (*domain.AnnotationSnapshot, error) {
	var snap domain.AnnotationSnapshot
	var articleJSON, highlightsJSON, notesJSON []byte
	if err := row.Scan(
		&snap.ID, &snap.SessionID, &articleJSON, &highlightsJSON, &notesJSON,
		&snap.ProgressPercent, &snap.SavedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(articleJSON, &snap.Article); err != nil {
		return nil, fmt.Errorf("failed to unmarshal article: %w", err)
	}
	if err := json.Unmarshal(highlightsJSON, &snap.Highlights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal highlights: %w", err)
	}
	if err := json.Unmarshal(notesJSON, &snap.Notes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notes: %w", err)
	}
	return &snap, nil
}
