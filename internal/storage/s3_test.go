package storage

import (
	"bytes"
	"context"
	"os"
	"testing"
)

func TestNewS3Storage(t *testing.T) {
	cfg := S3Config{
		Region:          "us-east-1",
		Endpoint:        "http://localhost:4566", // LocalStack-like endpoint
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	}

	storage, err := NewS3Storage(t.TempDir(), cfg)
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}

	if storage.region != cfg.Region {
		t.Errorf("region = %v, want %v", storage.region, cfg.Region)
	}
	if storage.client == nil {
		t.Error("client is nil")
	}
}

func TestS3Storage_InheritsLocalStorage(t *testing.T) {
	cfg := S3Config{
		Region:          "us-east-1",
		Endpoint:        "http://localhost:4566",
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	}

	storage, err := NewS3Storage(t.TempDir(), cfg)
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}

	ctx := context.Background()

	// Inherited SaveTemp and Cleanup still operate on local disk.
	path, err := storage.SaveTemp(ctx, "test", bytes.NewReader([]byte("test data")))
	if err != nil {
		t.Fatalf("SaveTemp() error = %v", err)
	}

	if err := storage.Cleanup(ctx, []string{path}); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file %v still exists after cleanup", path)
	}
}

func TestS3Storage_FetchUnreachableEndpoint(t *testing.T) {
	cfg := S3Config{
		Region:          "us-east-1",
		Endpoint:        "http://127.0.0.1:1", // nothing listens here
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	}

	storage, err := NewS3Storage(t.TempDir(), cfg)
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = storage.Fetch(ctx, "bucket", "key.wav")
	if err == nil {
		t.Error("Fetch() expected error for unreachable endpoint")
	}
}
