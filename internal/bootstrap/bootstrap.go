// Package bootstrap provides dependency initialization for the Noise Detector API.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/audioops/noise-detector-api/internal/config"
	"github.com/audioops/noise-detector-api/internal/noise"
	"github.com/audioops/noise-detector-api/internal/silence"
	"github.com/audioops/noise-detector-api/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	DetectService *noise.Service
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	analyzer := silence.NewFFmpegAnalyzer(cfg.FFmpegPath)

	svc := noise.NewService(
		store,
		analyzer,
		logger,
		noise.WithTimeout(cfg.FFmpegTimeout()),
	)

	return &Dependencies{
		DetectService: svc,
	}, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir, cfg.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", cfg.TempDir),
		slog.String("storage_dir", cfg.StorageDir),
	)
	return localStore, nil
}
