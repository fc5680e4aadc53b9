package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/camillebr/photosite/internal/content"
)

// TextStore persists SectionText rows.
//
// Expected schema:
//
//	CREATE TABLE sections_texts (
//		id      BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//		section TEXT NOT NULL UNIQUE,
//		page    TEXT NOT NULL DEFAULT '',
//		content TEXT NOT NULL DEFAULT ''
//	);
type TextStore struct {
	pool pool
}

// NewTextStore wraps a pool in a TextStore.
func NewTextStore(p pool) (*TextStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &TextStore{pool: p}, nil
}

const getTextQuery = `
SELECT id, section, page, content
FROM sections_texts
WHERE section = $1`

// GetBySection loads the row for section, or (nil, nil) when absent.
func (s *TextStore) GetBySection(ctx context.Context, section string) (*content.SectionText, error) {
	var row content.SectionText
	err := s.pool.QueryRow(ctx, getTextQuery, section).Scan(&row.ID, &row.Section, &row.Page, &row.Content)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get text %s: %s", content.ErrStore, section, err)
	}
	return &row, nil
}

const listTextsQuery = `
SELECT id, section, page, content
FROM sections_texts
WHERE $1 = '' OR page = $1
ORDER BY section`

// ListByPage returns all rows for a page tag; an empty page lists all rows.
func (s *TextStore) ListByPage(ctx context.Context, page string) ([]content.SectionText, error) {
	rows, err := s.pool.Query(ctx, listTextsQuery, page)
	if err != nil {
		return nil, fmt.Errorf("%w: list texts for page %q: %s", content.ErrStore, page, err)
	}
	defer rows.Close()

	var texts []content.SectionText
	for rows.Next() {
		var row content.SectionText
		if err := rows.Scan(&row.ID, &row.Section, &row.Page, &row.Content); err != nil {
			return nil, fmt.Errorf("%w: scan text row: %s", content.ErrStore, err)
		}
		texts = append(texts, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate text rows: %s", content.ErrStore, err)
	}
	return texts, nil
}

const upsertTextQuery = `
INSERT INTO sections_texts (section, page, content)
VALUES ($1, $2, $3)
ON CONFLICT (section) DO UPDATE SET
	page = EXCLUDED.page,
	content = EXCLUDED.content`

// Upsert inserts or updates the single row for section. Content may be empty.
func (s *TextStore) Upsert(ctx context.Context, section, page, contentText string) error {
	_, err := s.pool.Exec(ctx, upsertTextQuery, section, page, contentText)
	if err != nil {
		return fmt.Errorf("%w: upsert text %s: %s", content.ErrStore, section, err)
	}
	return nil
}

// DeleteBySection removes the row for section; absent rows are a no-op.
func (s *TextStore) DeleteBySection(ctx context.Context, section string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sections_texts WHERE section = $1`, section)
	if err != nil {
		return fmt.Errorf("%w: delete text %s: %s", content.ErrStore, section, err)
	}
	return nil
}
