package noise

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/audioops/noise-detector-api/internal/silence"
	"github.com/audioops/noise-detector-api/internal/storage"
)

// DefaultTimeout bounds the analysis subprocess wait when no timeout is
// configured.
const DefaultTimeout = 120 * time.Second

// Service orchestrates one detection pass: validate the request, fetch the
// object to a local path, run the analyzer, and classify. Every failure is
// folded into a Result; nothing escapes the Detect boundary.
type Service struct {
	store    storage.Storage
	analyzer silence.Analyzer
	validate *validator.Validate
	logger   *slog.Logger
	timeout  time.Duration
}

// Option is a function that configures a Service instance.
type Option func(*Service)

// WithTimeout sets the bounded wait for one analysis run.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewService creates a new detection Service.
func NewService(store storage.Storage, analyzer silence.Analyzer, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New()
	// Report field names as they appear on the wire.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	s := &Service{
		store:    store,
		analyzer: analyzer,
		validate: v,
		logger:   logger,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Detect runs one detection pass. It never returns an error; failures are
// reported through the Result and the operation is never retried.
func (s *Service) Detect(ctx context.Context, req Request) Result {
	if err := s.validateRequest(req); err != nil {
		s.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		return failure(err)
	}

	path, err := s.store.Fetch(ctx, req.BucketName, req.KeyName)
	if err != nil {
		s.logger.Error("fetch object failed",
			slog.String("bucket", req.BucketName),
			slog.String("key", req.KeyName),
			slog.String("error", err.Error()),
		)
		return failure(&ExecutionError{err: fmt.Errorf("fetch %s/%s: %w", req.BucketName, req.KeyName, err)})
	}
	defer func() {
		// Cleanup must run even when the request context is already done.
		if err := s.store.Cleanup(context.WithoutCancel(ctx), []string{path}); err != nil {
			s.logger.Warn("cleanup failed",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
	}()

	detectCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.analyzer.Detect(detectCtx, path, silence.Opts{
		NoiseToleranceDB: *req.NoiseTolerance,
		NoiseDurationSec: *req.NoiseDuration,
	})
	if err != nil {
		s.logger.Error("silence detection failed",
			slog.String("bucket", req.BucketName),
			slog.String("key", req.KeyName),
			slog.String("error", err.Error()),
		)
		return failure(&ExecutionError{err: err})
	}

	s.logger.Debug("silence detection completed",
		slog.String("bucket", req.BucketName),
		slog.String("key", req.KeyName),
		slog.Int("silence_intervals", len(res.Intervals)),
		slog.Float64("stream_duration_sec", res.Duration),
		slog.Bool("noise_detected", res.NoiseDetected),
	)

	detected := res.NoiseDetected
	return Result{
		Success:       true,
		NoiseDetected: &detected,
	}
}

// validateRequest checks field presence and value constraints, converting
// validator output into wire-level field messages.
func (s *Service) validateRequest(req Request) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return &ValidationError{msg: fmt.Sprintf("%s is required", fe.Field())}
		case "gt":
			return &ValidationError{msg: fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())}
		default:
			return &ValidationError{msg: fmt.Sprintf("%s is invalid", fe.Field())}
		}
	}

	return &ValidationError{msg: err.Error()}
}

func failure(err error) Result {
	return Result{
		Success: false,
		Err:     err,
	}
}
