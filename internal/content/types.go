// Package content defines the domain types and store interfaces for the
// photosite content service. By keeping the interfaces here, the ingestion
// pipeline and the HTTP layer stay independent of any concrete backend
// (Google Cloud Storage, Postgres, or the in-memory providers used in tests).
package content

import (
	"context"
	"time"
)

// SiteImage is one image record per logical site section. At most one row
// exists per section value; re-ingesting a section updates the row in place.
type SiteImage struct {
	ID        int64     `json:"id"`
	Section   string    `json:"section"`
	ImageURL  string    `json:"image_url"`
	AltText   string    `json:"alt_text,omitempty"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	BlurHash  string    `json:"blur_hash,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SectionText is one free-form text block keyed by section, grouped by an
// optional page tag for admin UI organization.
type SectionText struct {
	ID      int64  `json:"id"`
	Section string `json:"section"`
	Page    string `json:"page,omitempty"`
	Content string `json:"content"`
}

// ImageFields carries the mutable fields of a SiteImage for an upsert.
// Width and Height are the ORIGINAL (pre-transcode) pixel dimensions; public
// pages resize by URL query parameter and rely on the true source aspect
// ratio, not the transcoded file's incidental dimensions.
type ImageFields struct {
	ImageURL string
	AltText  string
	Width    int
	Height   int
	BlurHash string
}

// BlobStore abstracts the object store holding image blobs.
type BlobStore interface {
	// Put uploads data under path. When overwrite is false and the path
	// already exists the call fails with ErrConflict.
	Put(ctx context.Context, path string, data []byte, contentType string, overwrite bool) error

	// List returns blob paths under prefix, up to limit. A limit <= 0 means
	// no limit.
	List(ctx context.Context, prefix string, limit int) ([]string, error)

	// Remove deletes a batch of blobs. Callers must chunk batches to at most
	// MaxRemoveBatch paths.
	Remove(ctx context.Context, paths []string) error

	// PublicURL derives the publicly resolvable URL for a path. It is pure
	// and performs no network call.
	PublicURL(path string) string
}

// MaxRemoveBatch is the provider-imposed cap on one Remove call.
const MaxRemoveBatch = 100

// ImageStore persists SiteImage rows keyed by their unique section.
type ImageStore interface {
	// FindBySection returns the row for section, or (nil, nil) when absent.
	FindBySection(ctx context.Context, section string) (*SiteImage, error)

	// Upsert inserts a row for section or updates the existing one,
	// refreshing updated_at.
	Upsert(ctx context.Context, section string, fields ImageFields) error

	// DeleteBySection removes the row for section. Deleting an absent
	// section is not an error.
	DeleteBySection(ctx context.Context, section string) error
}

// TextStore persists SectionText rows keyed by their unique section.
type TextStore interface {
	GetBySection(ctx context.Context, section string) (*SectionText, error)
	ListByPage(ctx context.Context, page string) ([]SectionText, error)
	Upsert(ctx context.Context, section, page, contentText string) error
	DeleteBySection(ctx context.Context, section string) error
}

// Clock abstracts time.Now so path timestamps and row timestamps can be
// controlled in tests.
type Clock interface {
	Now() time.Time
}
