// Package postgres provides Postgres-backed metadata stores for site content.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/camillebr/photosite/internal/content"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pool is the narrow surface the stores need; pgxpool.Pool and pgxmock both
// satisfy it.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// NewPool builds a pgx pool from the config and verifies connectivity.
func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return p, nil
}

// ImageStore persists SiteImage rows.
//
// Expected schema:
//
//	CREATE TABLE site_images (
//		id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//		section    TEXT NOT NULL UNIQUE,
//		image_url  TEXT NOT NULL,
//		alt_text   TEXT NOT NULL DEFAULT '',
//		width      INT,
//		height     INT,
//		blur_hash  TEXT NOT NULL DEFAULT '',
//		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
//		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type ImageStore struct {
	pool pool
}

// NewImageStore wraps a pool in an ImageStore.
func NewImageStore(p pool) (*ImageStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &ImageStore{pool: p}, nil
}

// Ping verifies the backing connection, used by the readiness probe.
func (s *ImageStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping: %s", content.ErrStore, err)
	}
	return nil
}

// Close releases the pool.
func (s *ImageStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const findImageQuery = `
SELECT id, section, image_url, alt_text, width, height, blur_hash, created_at, updated_at
FROM site_images
WHERE section = $1`

// FindBySection loads the row for section, or (nil, nil) when absent.
func (s *ImageStore) FindBySection(ctx context.Context, section string) (*content.SiteImage, error) {
	var (
		row    content.SiteImage
		width  *int
		height *int
	)
	err := s.pool.QueryRow(ctx, findImageQuery, section).Scan(
		&row.ID,
		&row.Section,
		&row.ImageURL,
		&row.AltText,
		&width,
		&height,
		&row.BlurHash,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find section %s: %s", content.ErrStore, section, err)
	}
	if width != nil {
		row.Width = *width
	}
	if height != nil {
		row.Height = *height
	}
	return &row, nil
}

const upsertImageQuery = `
INSERT INTO site_images (section, image_url, alt_text, width, height, blur_hash)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (section) DO UPDATE SET
	image_url = EXCLUDED.image_url,
	alt_text = EXCLUDED.alt_text,
	width = EXCLUDED.width,
	height = EXCLUDED.height,
	blur_hash = EXCLUDED.blur_hash,
	updated_at = now()`

// Upsert inserts or updates the single row for section. The unique section
// key is the concurrency boundary: conflicting writers serialize here.
func (s *ImageStore) Upsert(ctx context.Context, section string, fields content.ImageFields) error {
	_, err := s.pool.Exec(ctx, upsertImageQuery,
		section,
		fields.ImageURL,
		fields.AltText,
		fields.Width,
		fields.Height,
		fields.BlurHash,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert section %s: %s", content.ErrStore, section, err)
	}
	return nil
}

// DeleteBySection removes the row for section; absent rows are a no-op.
func (s *ImageStore) DeleteBySection(ctx context.Context, section string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM site_images WHERE section = $1`, section)
	if err != nil {
		return fmt.Errorf("%w: delete section %s: %s", content.ErrStore, section, err)
	}
	return nil
}
