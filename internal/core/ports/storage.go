package ports

import (
	"context"
	"io"
)

// ObjectStore holds listing media. Buckets are logical namespaces
// ("listing-images", "listing-videos"); paths are caller-chosen keys.
type ObjectStore interface {
	// Upload stores the blob and returns its public URL.
	Upload(ctx context.Context, bucket, path string, r io.Reader) (string, error)
	PublicURL(bucket, path string) string
	Open(ctx context.Context, bucket, path string) (io.ReadCloser, error)
	Remove(ctx context.Context, bucket string, paths []string) error
}
