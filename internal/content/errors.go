package content

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying pipeline failures. Handlers map these onto HTTP
// statuses and human-readable messages; internal detail stays in the wrapped
// cause and is logged, never returned to the caller.
var (
	// ErrInvalidSection rejects sections outside the configured allow-list.
	// No side effects have occurred when this is returned.
	ErrInvalidSection = errors.New("unknown section")

	// ErrDecode means the input bytes could not be rasterized. Local failure,
	// no network side effects, safe to retry immediately.
	ErrDecode = errors.New("image decode failed")

	// ErrTranscode means re-encoding the image failed. Local failure, safe to
	// retry immediately.
	ErrTranscode = errors.New("image transcode failed")

	// ErrConflict means a blob path already exists and overwrite was not
	// requested. No metadata has been written.
	ErrConflict = errors.New("blob path already exists")

	// ErrStore covers transport or backend failures from either store.
	ErrStore = errors.New("store operation failed")
)

// OrphanedBlobError reports the one known gap in the pipeline: the blob
// uploaded fine but the metadata upsert failed, so the new blob is referenced
// by no row. The previous row (if any) still points at the previous blob, so
// the site keeps rendering; an operator can re-run the ingest or delete the
// orphaned path. The error is deliberately distinguishable from earlier-stage
// store failures so it is surfaced, never silently swallowed.
type OrphanedBlobError struct {
	Path string
	Err  error
}

func (e *OrphanedBlobError) Error() string {
	return fmt.Sprintf("metadata write failed after upload, blob %s is orphaned: %v", e.Path, e.Err)
}

func (e *OrphanedBlobError) Unwrap() error {
	return e.Err
}
