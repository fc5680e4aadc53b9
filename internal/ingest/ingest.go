// Package ingest implements the admin image-ingestion pipeline: placeholder
// encoding, transcoding, blob upload, and metadata upsert, in that order.
//
// The ordering invariant: metadata is never written for a blob that has not
// finished uploading, and a blob is never uploaded before both placeholder
// and transcode succeed. The converse risk, metadata referencing a missing
// blob, is the single accepted failure window (metadata upsert failing after
// upload) and is surfaced as a content.OrphanedBlobError.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/camillebr/photosite/internal/content"
	"github.com/camillebr/photosite/internal/metrics"
	"github.com/camillebr/photosite/internal/notify"
	"github.com/camillebr/photosite/internal/placeholder"
	"github.com/camillebr/photosite/internal/transcode"
)

// Pipeline stages, used for logging and stage latency metrics.
const (
	stageEncoding  = "encoding"
	stageTranscode = "transcoding"
	stageUpload    = "uploading"
	stageMetadata  = "recording_metadata"
)

// Terminal status labels for the ingest counter.
const (
	statusOK              = "ok"
	statusInvalidSection  = "invalid_section"
	statusDecodeFailed    = "decode_failed"
	statusTranscodeFailed = "transcode_failed"
	statusConflict        = "conflict"
	statusStoreFailed     = "store_failed"
	statusOrphanedBlob    = "orphaned_blob"
)

// Config controls pipeline behavior.
type Config struct {
	// Sections is the allow-list of ingestable section keys.
	Sections content.SectionSet

	// Quality is the transcode quality target in [0,1].
	Quality float64

	// ForceTranscode re-encodes even inputs already in the target format.
	ForceTranscode bool
}

// Result carries the derived image data back to the caller on success.
type Result struct {
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	BlurHash string `json:"blurhash"`
}

// Orchestrator sequences encode, transcode, upload, and metadata upsert for
// one section at a time. Concurrent invocations share no mutable state; the
// metadata store's unique section key serializes conflicting writes, and the
// timestamped blob path avoids object-store collisions without coordination.
type Orchestrator struct {
	blobs     content.BlobStore
	images    content.ImageStore
	publisher notify.Publisher
	clock     content.Clock
	cfg       Config
	logger    *zap.Logger
}

// New constructs an Orchestrator.
func New(
	blobs content.BlobStore,
	images content.ImageStore,
	publisher notify.Publisher,
	clock content.Clock,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	if publisher == nil {
		publisher = notify.NoOp{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Quality <= 0 || cfg.Quality > 1 {
		cfg.Quality = transcode.DefaultQuality
	}
	return &Orchestrator{
		blobs:     blobs,
		images:    images,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Ingest runs the full pipeline for one uploaded file. There is no retry
// layer: any failure halts the pipeline and a fresh call restarts it from the
// beginning, since intermediate results are not cached.
func (o *Orchestrator) Ingest(ctx context.Context, section string, raw []byte, altText string) (Result, error) {
	if !o.cfg.Sections.Contains(section) {
		metrics.ObserveIngest(section, statusInvalidSection)
		return Result{}, fmt.Errorf("%w: %q", content.ErrInvalidSection, section)
	}

	// Encoding. The file is never uploaded if a placeholder cannot be
	// derived: pages rendering a section assume a placeholder exists
	// whenever an image row exists.
	start := time.Now()
	ph, err := placeholder.Encode(raw)
	metrics.ObserveIngestStage(stageEncoding, time.Since(start))
	if err != nil {
		return Result{}, o.fail(section, stageEncoding, statusDecodeFailed, err)
	}

	// Transcoding. Skipped when the input already is the target format
	// (format sniff, not extension), unless forced.
	start = time.Now()
	blob, err := transcode.Transcode(raw, o.cfg.Quality, o.cfg.ForceTranscode)
	metrics.ObserveIngestStage(stageTranscode, time.Since(start))
	if err != nil {
		return Result{}, o.fail(section, stageTranscode, statusTranscodeFailed, err)
	}

	// Uploading. The millisecond timestamp guarantees a fresh path on every
	// ingest, so re-uploads never race an in-flight reader of the previous
	// blob. Put still refuses to overwrite in case of a collision.
	path := fmt.Sprintf("%s/%s-%d.%s", section, section, o.clock.Now().UnixMilli(), transcode.Extension)
	start = time.Now()
	err = o.blobs.Put(ctx, path, blob, transcode.ContentType, false)
	metrics.ObserveIngestStage(stageUpload, time.Since(start))
	if err != nil {
		status := statusStoreFailed
		if isConflict(err) {
			status = statusConflict
		}
		return Result{}, o.fail(section, stageUpload, status, err)
	}
	metrics.AddBlobUploadBytes(section, len(blob))

	// Recording metadata. Width/height come from the encoder's original
	// dimensions, not the transcoder output.
	fields := content.ImageFields{
		ImageURL: o.blobs.PublicURL(path),
		AltText:  altText,
		Width:    ph.Width,
		Height:   ph.Height,
		BlurHash: ph.Hash,
	}
	start = time.Now()
	err = o.images.Upsert(ctx, section, fields)
	metrics.ObserveIngestStage(stageMetadata, time.Since(start))
	if err != nil {
		orphaned := &content.OrphanedBlobError{Path: path, Err: err}
		return Result{}, o.fail(section, stageMetadata, statusOrphanedBlob, orphaned)
	}

	metrics.ObserveIngest(section, statusOK)
	o.logger.Info("image ingested",
		zap.String("section", section),
		zap.String("path", path),
		zap.Int("width", ph.Width),
		zap.Int("height", ph.Height),
		zap.Int("bytes", len(blob)),
	)
	o.notifyEvent(ctx, notify.Event{Kind: notify.KindImageUpdated, Section: section, URL: fields.ImageURL})

	return Result{
		URL:      fields.ImageURL,
		Width:    ph.Width,
		Height:   ph.Height,
		BlurHash: ph.Hash,
	}, nil
}

// DeleteSection removes every blob stored under the section prefix, in
// batches the provider accepts, then the metadata row. Blob deletion comes
// first: failing after blobs are gone leaves metadata pointing at 404 URLs (a
// detectable broken-image state) rather than unreferenced blobs nobody can
// discover.
func (o *Orchestrator) DeleteSection(ctx context.Context, section string) error {
	if !o.cfg.Sections.Contains(section) {
		return fmt.Errorf("%w: %q", content.ErrInvalidSection, section)
	}

	paths, err := o.blobs.List(ctx, section+"/", 0)
	if err != nil {
		return fmt.Errorf("list section blobs: %w", err)
	}
	for _, batch := range chunkPaths(paths, content.MaxRemoveBatch) {
		if err := o.blobs.Remove(ctx, batch); err != nil {
			return fmt.Errorf("remove section blobs: %w", err)
		}
	}

	if err := o.images.DeleteBySection(ctx, section); err != nil {
		return fmt.Errorf("delete section metadata: %w", err)
	}

	o.logger.Info("section deleted", zap.String("section", section), zap.Int("blobs", len(paths)))
	o.notifyEvent(ctx, notify.Event{Kind: notify.KindImageDeleted, Section: section})
	return nil
}

func (o *Orchestrator) fail(section, stage, status string, err error) error {
	metrics.ObserveIngest(section, status)
	o.logger.Warn("ingest failed",
		zap.String("section", section),
		zap.String("stage", stage),
		zap.Error(err),
	)
	return err
}

// notifyEvent is best effort; a failed notification never fails the content
// operation that triggered it.
func (o *Orchestrator) notifyEvent(ctx context.Context, event notify.Event) {
	if _, err := o.publisher.Publish(ctx, event); err != nil {
		o.logger.Warn("content event publish failed",
			zap.String("kind", event.Kind),
			zap.String("section", event.Section),
			zap.Error(err),
		)
	}
}

func isConflict(err error) bool {
	return errors.Is(err, content.ErrConflict)
}

func chunkPaths(paths []string, size int) [][]string {
	if len(paths) == 0 {
		return nil
	}
	var chunks [][]string
	for len(paths) > size {
		chunks = append(chunks, paths[:size])
		paths = paths[size:]
	}
	return append(chunks, paths)
}
