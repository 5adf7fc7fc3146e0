// Package blobstore manages stored cover-image blobs. Blobs are addressed
// only by the random name generated at validation time, never by anything
// derived from client input. Swap implementations by changing the concrete
// type injected at startup — Local keeps files in one managed directory,
// Minio works with any S3-compatible provider.
package blobstore

import (
	"context"

	"github.com/stillframe/service/internal/upload"
)

// Store is the interface for committing and removing cover-image blobs.
type Store interface {
	// Commit persists a validated candidate and returns the reference to
	// record on the owning row.
	Commit(ctx context.Context, c *upload.Candidate) (string, error)
	// Remove deletes the blob for ref. Removing a ref that no longer
	// exists is not an error.
	Remove(ctx context.Context, ref string) error
	// URL constructs the browser-accessible URL for a stored reference.
	URL(ref string) string
}
