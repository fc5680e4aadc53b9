package memory

import (
	"context"
	"sync"

	"github.com/camillebr/photosite/internal/content"
)

// ImageStore keeps SiteImage rows in a map keyed by section.
type ImageStore struct {
	mu     sync.RWMutex
	rows   map[string]content.SiteImage
	nextID int64
	clock  content.Clock
}

// NewImageStore creates an empty in-memory image store. The clock drives
// created_at/updated_at, mirroring what the database does with now().
func NewImageStore(clock content.Clock) *ImageStore {
	return &ImageStore{
		rows:   make(map[string]content.SiteImage),
		nextID: 1,
		clock:  clock,
	}
}

// FindBySection returns a copy of the row for section, or (nil, nil).
func (s *ImageStore) FindBySection(_ context.Context, section string) (*content.SiteImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[section]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

// Upsert inserts or updates the single row for section.
func (s *ImageStore) Upsert(_ context.Context, section string, fields content.ImageFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	row, ok := s.rows[section]
	if !ok {
		row = content.SiteImage{
			ID:        s.nextID,
			Section:   section,
			CreatedAt: now,
		}
		s.nextID++
	}
	row.ImageURL = fields.ImageURL
	row.AltText = fields.AltText
	row.Width = fields.Width
	row.Height = fields.Height
	row.BlurHash = fields.BlurHash
	row.UpdatedAt = now
	s.rows[section] = row
	return nil
}

// DeleteBySection removes the row for section; absent rows are a no-op.
func (s *ImageStore) DeleteBySection(_ context.Context, section string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, section)
	return nil
}

// Len reports the number of stored rows.
func (s *ImageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// TextStore keeps SectionText rows in a map keyed by section.
type TextStore struct {
	mu     sync.RWMutex
	rows   map[string]content.SectionText
	nextID int64
}

// NewTextStore creates an empty in-memory text store.
func NewTextStore() *TextStore {
	return &TextStore{rows: make(map[string]content.SectionText), nextID: 1}
}

// GetBySection returns a copy of the row for section, or (nil, nil).
func (s *TextStore) GetBySection(_ context.Context, section string) (*content.SectionText, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[section]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

// ListByPage returns all rows tagged with page; an empty page lists all.
func (s *TextStore) ListByPage(_ context.Context, page string) ([]content.SectionText, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []content.SectionText
	for _, row := range s.rows {
		if page == "" || row.Page == page {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// Upsert inserts or updates the single row for section.
func (s *TextStore) Upsert(_ context.Context, section, page, contentText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[section]
	if !ok {
		row = content.SectionText{ID: s.nextID, Section: section}
		s.nextID++
	}
	row.Page = page
	row.Content = contentText
	s.rows[section] = row
	return nil
}

// DeleteBySection removes the row for section; absent rows are a no-op.
func (s *TextStore) DeleteBySection(_ context.Context, section string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, section)
	return nil
}
