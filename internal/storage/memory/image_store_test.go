package memory

import (
	"context"
	"testing"
	"time"

	"github.com/camillebr/photosite/internal/content"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestImageStoreUpsertInsertsThenUpdates(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1000, 0).UTC()}
	store := NewImageStore(clock)
	ctx := context.Background()

	err := store.Upsert(ctx, "hero", content.ImageFields{ImageURL: "memory://hero/a.jpg", Width: 1200, Height: 800, BlurHash: "h1"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	first, err := store.FindBySection(ctx, "hero")
	if err != nil || first == nil {
		t.Fatalf("FindBySection() = %v, %v", first, err)
	}
	if first.CreatedAt != clock.now || first.UpdatedAt != clock.now {
		t.Fatalf("unexpected timestamps %v %v", first.CreatedAt, first.UpdatedAt)
	}

	clock.now = clock.now.Add(time.Minute)
	err = store.Upsert(ctx, "hero", content.ImageFields{ImageURL: "memory://hero/b.jpg", Width: 600, Height: 400, BlurHash: "h2"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one row, got %d", store.Len())
	}
	second, err := store.FindBySection(ctx, "hero")
	if err != nil || second == nil {
		t.Fatalf("FindBySection() = %v, %v", second, err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same row id, got %d and %d", first.ID, second.ID)
	}
	if second.ImageURL != "memory://hero/b.jpg" || second.BlurHash != "h2" {
		t.Fatalf("expected updated fields, got %+v", second)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatal("expected updated_at to advance")
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatal("expected created_at to stay fixed")
	}
}

func TestImageStoreFindMissingSection(t *testing.T) {
	t.Parallel()

	store := NewImageStore(&fakeClock{now: time.Unix(0, 0)})
	row, err := store.FindBySection(context.Background(), "hero")
	if err != nil {
		t.Fatalf("FindBySection() error = %v", err)
	}
	if row != nil {
		t.Fatalf("expected nil row, got %+v", row)
	}
}

func TestTextStoreUpsertAndListByPage(t *testing.T) {
	t.Parallel()

	store := NewTextStore()
	ctx := context.Background()
	if err := store.Upsert(ctx, "hero-title", "home", "Bienvenue"); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := store.Upsert(ctx, "pricing-intro", "tarifs", "Nos forfaits"); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := store.Upsert(ctx, "hero-title", "home", "Bienvenue !"); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	home, err := store.ListByPage(ctx, "home")
	if err != nil {
		t.Fatalf("ListByPage() error = %v", err)
	}
	if len(home) != 1 || home[0].Content != "Bienvenue !" {
		t.Fatalf("unexpected rows %+v", home)
	}
	all, err := store.ListByPage(ctx, "")
	if err != nil {
		t.Fatalf("ListByPage() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(all))
	}
}
