// Package storage provides object storage implementations for serving
// purchased downloadable files.
package storage

import (
	"context"
	"time"
)

// FileStorage resolves a stored file to a short-lived download URL. The
// download handler redirects the customer there after validating the
// fulfillment token.
type FileStorage interface {
	// GenerateDownloadURL returns a presigned GET URL for the object and
	// the instant it stops working.
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	// ObjectExists checks whether the object is present in the bucket.
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}
