// Package storage provides read access to media objects by bucket and key.
// It defines the Storage interface (port) for hexagonal architecture and
// implementations for local disk and S3.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for resolving a media object to a local file.
// Implementations download or copy the object into a temporary directory and
// hand back a readable path; the caller releases it with Cleanup.
type Storage interface {
	// Fetch resolves the object identified by bucket and key to a local
	// readable file and returns its path.
	Fetch(ctx context.Context, bucket, key string) (path string, err error)

	// SaveTemp saves data to a temporary file and returns the file path.
	// The name parameter is used as a hint for the filename.
	SaveTemp(ctx context.Context, name string, data io.Reader) (path string, err error)

	// Cleanup removes the specified temporary files.
	// It continues cleanup even if some files fail to delete.
	Cleanup(ctx context.Context, paths []string) error
}
