package ingest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/camillebr/photosite/internal/content"
	notifymemory "github.com/camillebr/photosite/internal/notify/memory"
	"github.com/camillebr/photosite/internal/storage/memory"
	"github.com/camillebr/photosite/internal/transcode"
)

// stepClock advances one second on every Now call so consecutive ingests get
// distinct path timestamps.
type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x + y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fixture struct {
	orch   *Orchestrator
	blobs  *memory.BlobStore
	images *memory.ImageStore
	pub    *notifymemory.Publisher
	clock  *stepClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &stepClock{now: time.Unix(1700000000, 0).UTC()}
	blobs := memory.NewBlobStore()
	images := memory.NewImageStore(clock)
	pub := notifymemory.New()
	orch := New(blobs, images, pub, clock, Config{
		Sections: content.NewSectionSet(content.DefaultSections()),
		Quality:  transcode.DefaultQuality,
	}, nil)
	return &fixture{orch: orch, blobs: blobs, images: images, pub: pub, clock: clock}
}

// Scenario: ingest a 1200x800 JPEG to hero with alt text, expect one row with
// the original dimensions, a placeholder hash, and a hero/hero- path.
func TestIngestHappyPath(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res, err := f.orch.Ingest(context.Background(), "hero", testJPEG(t, 1200, 800), "Test")
	require.NoError(t, err)

	require.Equal(t, 1200, res.Width)
	require.Equal(t, 800, res.Height)
	require.NotEmpty(t, res.BlurHash)
	require.Contains(t, res.URL, "hero/hero-")

	row, err := f.images.FindBySection(context.Background(), "hero")
	require.NoError(t, err)
	require.NotNil(t, row)
	require.Equal(t, "hero", row.Section)
	require.Equal(t, "Test", row.AltText)
	require.Equal(t, 1200, row.Width)
	require.Equal(t, 800, row.Height)
	require.NotEmpty(t, row.BlurHash)
	require.Equal(t, res.URL, row.ImageURL)

	events := f.pub.Events()
	require.Len(t, events, 1)
	require.Equal(t, "image.updated", events[0].Kind)
}

// Section uniqueness: two ingests to the same section leave exactly one row,
// carrying the second file's derived data, with a later updated_at.
func TestIngestTwiceKeepsOneRowPerSection(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orch.Ingest(ctx, "hero", testJPEG(t, 1200, 800), "first")
	require.NoError(t, err)
	first, err := f.images.FindBySection(ctx, "hero")
	require.NoError(t, err)

	res, err := f.orch.Ingest(ctx, "hero", testJPEG(t, 600, 400), "second")
	require.NoError(t, err)

	require.Equal(t, 1, f.images.Len())
	second, err := f.images.FindBySection(ctx, "hero")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "second", second.AltText)
	require.Equal(t, 600, second.Width)
	require.Equal(t, 400, second.Height)
	require.Equal(t, res.URL, second.ImageURL)
	require.True(t, second.UpdatedAt.After(first.UpdatedAt))
	require.True(t, second.CreatedAt.Equal(first.CreatedAt))
}

// Path freshness: consecutive ingests to one section upload to distinct paths.
func TestIngestProducesFreshPaths(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	res1, err := f.orch.Ingest(ctx, "hero", testJPEG(t, 100, 100), "")
	require.NoError(t, err)
	res2, err := f.orch.Ingest(ctx, "hero", testJPEG(t, 100, 100), "")
	require.NoError(t, err)

	require.NotEqual(t, res1.URL, res2.URL)
	require.Equal(t, 2, f.blobs.Len())
}

// Dimension provenance: metadata records the encoder's original dimensions
// even when transcoding changes the stored file.
func TestIngestRecordsOriginalDimensionsForPNG(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res, err := f.orch.Ingest(context.Background(), "famille-1", testPNG(t, 640, 480), "")
	require.NoError(t, err)
	require.Equal(t, 640, res.Width)
	require.Equal(t, 480, res.Height)
	require.True(t, strings.HasSuffix(res.URL, ".jpg"))
}

// Unknown sections are rejected before any store call.
func TestIngestRejectsUnknownSection(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.orch.Ingest(context.Background(), "not-a-real-section", testJPEG(t, 10, 10), "")
	require.ErrorIs(t, err, content.ErrInvalidSection)
	require.Equal(t, 0, f.blobs.Len())
	require.Equal(t, 0, f.images.Len())
}

// No upload without successful encode: undecodable input never reaches the
// blob store.
func TestIngestDecodeFailureSkipsUpload(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.orch.Ingest(context.Background(), "hero", []byte("not pixels"), "")
	require.ErrorIs(t, err, content.ErrDecode)
	require.Equal(t, 0, f.blobs.Len())
	require.Equal(t, 0, f.images.Len())
	require.Empty(t, f.pub.Events())
}

// failingBlobStore wraps the memory store and fails selected operations.
type failingBlobStore struct {
	*memory.BlobStore
	failPut         bool
	failRemoveAfter int
	removeCallsSeen int
}

func (s *failingBlobStore) Put(ctx context.Context, path string, data []byte, contentType string, overwrite bool) error {
	if s.failPut {
		return fmt.Errorf("%w: injected put failure", content.ErrStore)
	}
	return s.BlobStore.Put(ctx, path, data, contentType, overwrite)
}

func (s *failingBlobStore) Remove(ctx context.Context, paths []string) error {
	s.removeCallsSeen++
	if s.failRemoveAfter > 0 && s.removeCallsSeen > s.failRemoveAfter {
		return fmt.Errorf("%w: injected remove failure", content.ErrStore)
	}
	return s.BlobStore.Remove(ctx, paths)
}

// failingImageStore fails every upsert, simulating a metadata outage.
type failingImageStore struct {
	*memory.ImageStore
}

func (s *failingImageStore) Upsert(_ context.Context, section string, _ content.ImageFields) error {
	return fmt.Errorf("%w: injected upsert failure for %s", content.ErrStore, section)
}

// No metadata without blob: a failed upload never reaches the metadata store.
func TestIngestUploadFailureSkipsMetadata(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Unix(1700000000, 0).UTC()}
	blobs := &failingBlobStore{BlobStore: memory.NewBlobStore(), failPut: true}
	images := memory.NewImageStore(clock)
	orch := New(blobs, images, nil, clock, Config{
		Sections: content.NewSectionSet(content.DefaultSections()),
	}, nil)

	_, err := orch.Ingest(context.Background(), "hero", testJPEG(t, 10, 10), "")
	require.ErrorIs(t, err, content.ErrStore)
	require.Equal(t, 0, images.Len())
}

// The orphaned-blob window: metadata failure after upload surfaces a
// distinguishable error and leaves the uploaded blob in place.
func TestIngestMetadataFailureReportsOrphanedBlob(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Unix(1700000000, 0).UTC()}
	blobs := memory.NewBlobStore()
	images := &failingImageStore{ImageStore: memory.NewImageStore(clock)}
	orch := New(blobs, images, nil, clock, Config{
		Sections: content.NewSectionSet(content.DefaultSections()),
	}, nil)

	_, err := orch.Ingest(context.Background(), "hero", testJPEG(t, 10, 10), "")

	var orphaned *content.OrphanedBlobError
	require.ErrorAs(t, err, &orphaned)
	require.Contains(t, orphaned.Path, "hero/hero-")
	// No compensating delete: the blob stays for manual reconciliation.
	require.Equal(t, 1, blobs.Len())
	require.Equal(t, 0, images.ImageStore.Len())
}

// A path collision with overwrite disabled surfaces ErrConflict.
func TestIngestPathCollisionSurfacesConflict(t *testing.T) {
	t.Parallel()

	fixed := &stepClock{now: time.Unix(1700000000, 0).UTC()}
	blobs := memory.NewBlobStore()
	images := memory.NewImageStore(fixed)
	orch := New(blobs, images, nil, frozenClock{time.Unix(42, 0)}, Config{
		Sections: content.NewSectionSet(content.DefaultSections()),
	}, nil)

	ctx := context.Background()
	_, err := orch.Ingest(ctx, "hero", testJPEG(t, 10, 10), "")
	require.NoError(t, err)
	_, err = orch.Ingest(ctx, "hero", testJPEG(t, 10, 10), "")
	require.ErrorIs(t, err, content.ErrConflict)
	require.Equal(t, 1, images.Len())
}

type frozenClock struct {
	t time.Time
}

func (c frozenClock) Now() time.Time { return c.t }

// Delete removes all blobs under the prefix, chunked, then the metadata row.
func TestDeleteSectionRemovesBlobsThenMetadata(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orch.Ingest(ctx, "hero", testJPEG(t, 10, 10), "")
	require.NoError(t, err)
	// Leftover blobs from prior ingests share the prefix and must go too.
	require.NoError(t, f.blobs.Put(ctx, "hero/hero-1.jpg", []byte("old"), "", false))
	require.NoError(t, f.blobs.Put(ctx, "hero/hero-2.jpg", []byte("older"), "", false))

	require.NoError(t, f.orch.DeleteSection(ctx, "hero"))

	paths, err := f.blobs.List(ctx, "hero/", 0)
	require.NoError(t, err)
	require.Empty(t, paths)
	row, err := f.images.FindBySection(ctx, "hero")
	require.NoError(t, err)
	require.Nil(t, row)

	events := f.pub.Events()
	require.Equal(t, "image.deleted", events[len(events)-1].Kind)
}

func TestDeleteSectionChunksLargeBatches(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 250; i++ {
		require.NoError(t, f.blobs.Put(ctx, fmt.Sprintf("hero/hero-%d.jpg", i), []byte("x"), "", false))
	}

	require.NoError(t, f.orch.DeleteSection(ctx, "hero"))
	require.Equal(t, 0, f.blobs.Len())
}

// Delete ordering: when blob removal fails partway, the metadata row
// survives, leaving a detectable broken-image state instead of a silent leak.
func TestDeleteSectionKeepsMetadataWhenRemovalFails(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Unix(1700000000, 0).UTC()}
	blobs := &failingBlobStore{BlobStore: memory.NewBlobStore(), failRemoveAfter: 1}
	images := memory.NewImageStore(clock)
	orch := New(blobs, images, nil, clock, Config{
		Sections: content.NewSectionSet(content.DefaultSections()),
	}, nil)

	ctx := context.Background()
	_, err := orch.Ingest(ctx, "hero", testJPEG(t, 10, 10), "")
	require.NoError(t, err)
	for i := 0; i < 150; i++ {
		require.NoError(t, blobs.BlobStore.Put(ctx, fmt.Sprintf("hero/hero-%d.jpg", i), []byte("x"), "", false))
	}

	err = orch.DeleteSection(ctx, "hero")
	require.ErrorIs(t, err, content.ErrStore)

	row, findErr := images.FindBySection(ctx, "hero")
	require.NoError(t, findErr)
	require.NotNil(t, row)
}

func TestDeleteSectionRejectsUnknownSection(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	err := f.orch.DeleteSection(context.Background(), "not-a-real-section")
	require.ErrorIs(t, err, content.ErrInvalidSection)
}
