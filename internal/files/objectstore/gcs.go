package objectstore

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/cnpie-acelerador/cnpie-backend/internal/logging"
)

// GCS writes to a Cloud Storage bucket, normally the Firebase project bucket.
type GCS struct {
	bucket       *storage.BucketHandle
	publicBase   string
	cacheControl string
}

func NewGCS(bucket *storage.BucketHandle, bucketName, publicBase, cacheControl string) *GCS {
	if publicBase == "" {
		publicBase = "https://storage.googleapis.com/" + bucketName
	}
	return &GCS{bucket: bucket, publicBase: publicBase, cacheControl: cacheControl}
}

func (g *GCS) Upload(ctx context.Context, obj Object) (string, error) {
	w := g.bucket.Object(obj.Key).NewWriter(ctx)
	w.ContentType = obj.ContentType
	w.CacheControl = firstNonEmpty(obj.CacheControl, g.cacheControl)
	// Single request upload; files are capped well below the resumable threshold.
	w.ChunkSize = 0

	if _, err := io.Copy(w, obj.Body); err != nil {
		_ = w.Close()
		logging.NewLogger(ctx).LogErrorf("gcs_upload", "copy %s: %v", obj.Key, err)
		return "", fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		logging.NewLogger(ctx).LogErrorf("gcs_upload", "close %s: %v", obj.Key, err)
		return "", fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return joinURL(g.publicBase, obj.Key), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
