package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrObjectNotFound is returned when the requested bucket/key does not
// resolve to a readable object.
var ErrObjectNotFound = errors.New("object not found")

// LocalStorage implements the Storage interface using local disk.
// Objects are resolved under a root directory where each bucket is a
// subdirectory; fetched objects are copied into a temp directory so the
// fetch/cleanup lifecycle matches the S3 implementation.
type LocalStorage struct {
	tempDir string
	rootDir string
}

// NewLocalStorage creates a new LocalStorage instance.
// The tempDir parameter specifies where fetched files are staged; if empty,
// a subdirectory of os.TempDir() is used. The rootDir parameter is the
// directory under which buckets live; if empty, it defaults to tempDir.
// Both directories are created if they don't exist.
func NewLocalStorage(tempDir, rootDir string) (*LocalStorage, error) {
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "noise-detector")
	}
	if rootDir == "" {
		rootDir = tempDir
	}

	if err := os.MkdirAll(tempDir, 0750); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	if err := os.MkdirAll(rootDir, 0750); err != nil {
		return nil, fmt.Errorf("create root directory: %w", err)
	}

	return &LocalStorage{tempDir: tempDir, rootDir: rootDir}, nil
}

// TempDir returns the temporary directory path.
func (s *LocalStorage) TempDir() string {
	return s.tempDir
}

// Fetch copies the object at rootDir/bucket/key into the temp directory and
// returns the staged path. Bucket and key must stay within the root.
func (s *LocalStorage) Fetch(ctx context.Context, bucket, key string) (string, error) {
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(bucket) || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
	}

	src := filepath.Join(s.rootDir, bucket, rel)

	f, err := os.Open(src) // #nosec G304 - path is rooted under the configured directory
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
		}
		return "", fmt.Errorf("open object: %w", err)
	}
	defer func() { _ = f.Close() }()

	return s.SaveTemp(ctx, filepath.Base(key), f)
}

// SaveTemp saves data to a temporary file and returns the file path.
// The name is used as a base for the filename with a unique suffix.
func (s *LocalStorage) SaveTemp(ctx context.Context, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	f, err := os.CreateTemp(s.tempDir, name+"_*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	fileName := f.Name()
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(fileName)
		return "", fmt.Errorf("write temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(fileName)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return fileName, nil
}

// Cleanup removes the specified temporary files.
// It continues cleanup even if some files fail to delete,
// returning the first error encountered.
func (s *LocalStorage) Cleanup(ctx context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove temp file %s: %w", p, err)
			}
		}
	}
	return firstErr
}
