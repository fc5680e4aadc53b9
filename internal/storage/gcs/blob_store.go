// Package gcs provides a content.BlobStore backed by Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/camillebr/photosite/internal/content"
)

// Config captures the parameters required to address blobs in GCS.
type Config struct {
	// Bucket is the bucket holding all site assets.
	Bucket string

	// PublicBaseURL overrides the default public URL root. Useful when the
	// bucket sits behind a CDN. Defaults to storage.googleapis.com.
	PublicBaseURL string
}

// BlobStore reads and writes site image blobs in a configured GCS bucket.
type BlobStore struct {
	client     *storage.Client
	bucket     string
	publicBase string
}

// New creates a GCS-backed blob store from an existing client.
// Authentication is handled by Google's Application Default Credentials.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	base := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://storage.googleapis.com/%s", cfg.Bucket)
	}
	return &BlobStore{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: base,
	}, nil
}

// Put uploads data to the bucket. With overwrite=false the write carries a
// DoesNotExist precondition, so a colliding path fails with content.ErrConflict
// instead of clobbering an in-flight reader's blob.
func (s *BlobStore) Put(ctx context.Context, path string, data []byte, contentType string, overwrite bool) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: path is required", content.ErrStore)
	}
	obj := s.client.Bucket(s.bucket).Object(path)
	if !overwrite {
		obj = obj.If(storage.Conditions{DoesNotExist: true})
	}
	writer := obj.NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}
	if _, err := writer.Write(data); err != nil {
		// Close anyway to release resources; the write error is primary.
		_ = writer.Close()
		return classifyPutError(path, err)
	}
	// Close finalizes the upload; precondition failures surface here.
	if err := writer.Close(); err != nil {
		return classifyPutError(path, err)
	}
	return nil
}

func classifyPutError(path string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
		return fmt.Errorf("%w: %s", content.ErrConflict, path)
	}
	return fmt.Errorf("%w: put %s: %s", content.ErrStore, path, err)
}

// List returns blob paths under prefix, up to limit (limit <= 0 lists all).
func (s *BlobStore) List(ctx context.Context, prefix string, limit int) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var paths []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: list %s: %s", content.ErrStore, prefix, err)
		}
		paths = append(paths, attrs.Name)
		if limit > 0 && len(paths) >= limit {
			break
		}
	}
	return paths, nil
}

// Remove deletes the given blobs. Already-deleted blobs are not an error.
func (s *BlobStore) Remove(ctx context.Context, paths []string) error {
	if len(paths) > content.MaxRemoveBatch {
		return fmt.Errorf("%w: remove batch of %d exceeds %d", content.ErrStore, len(paths), content.MaxRemoveBatch)
	}
	for _, path := range paths {
		err := s.client.Bucket(s.bucket).Object(path).Delete(ctx)
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("%w: remove %s: %s", content.ErrStore, path, err)
		}
	}
	return nil
}

// PublicURL derives the retrievable URL for a blob path. Pure, no network.
func (s *BlobStore) PublicURL(path string) string {
	return fmt.Sprintf("%s/%s", s.publicBase, path)
}
