package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/audioops/noise-detector-api/internal/noise"
	"github.com/audioops/noise-detector-api/internal/silence"
)

// mockStorage implements storage.Storage for testing.
type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Fetch(ctx context.Context, bucket, key string) (string, error) {
	args := m.Called(ctx, bucket, key)
	return args.String(0), args.Error(1)
}

func (m *mockStorage) SaveTemp(ctx context.Context, name string, data io.Reader) (string, error) {
	args := m.Called(ctx, name, data)
	return args.String(0), args.Error(1)
}

func (m *mockStorage) Cleanup(ctx context.Context, paths []string) error {
	args := m.Called(ctx, paths)
	return args.Error(0)
}

// mockAnalyzer implements silence.Analyzer for testing.
type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) Detect(ctx context.Context, path string, opts silence.Opts) (silence.Result, error) {
	args := m.Called(ctx, path, opts)
	return args.Get(0).(silence.Result), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandlers(store *mockStorage, analyzer *mockAnalyzer) *Handlers {
	svc := noise.NewService(store, analyzer, testLogger())
	return NewHandlers(svc, testLogger())
}

func postDetect(t *testing.T, h *Handlers, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/detect", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Detect(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) DetectResponse {
	t.Helper()
	var resp DetectResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	h := newTestHandlers(&mockStorage{}, &mockAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestDetect_Success(t *testing.T) {
	store := &mockStorage{}
	analyzer := &mockAnalyzer{}
	h := newTestHandlers(store, analyzer)

	store.On("Fetch", mock.Anything, "media-bucket", "clips/loud.wav").
		Return("/tmp/staged.wav", nil)
	store.On("Cleanup", mock.Anything, mock.Anything).Return(nil)
	analyzer.On("Detect", mock.Anything, "/tmp/staged.wav",
		silence.Opts{NoiseToleranceDB: -36, NoiseDurationSec: 0.3}).
		Return(silence.Result{NoiseDetected: true}, nil)

	rec := postDetect(t, h,
		`{"bucket_name":"media-bucket","key_name":"clips/loud.wav","noise_tolerance":-36,"noise_duration":0.3}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resp.Data.Success)
	require.NotNil(t, resp.Data.NoiseDetected)
	assert.True(t, *resp.Data.NoiseDetected)
	assert.Nil(t, resp.Data.Error)

	store.AssertExpectations(t)
	analyzer.AssertExpectations(t)
}

func TestDetect_SilentFile(t *testing.T) {
	store := &mockStorage{}
	analyzer := &mockAnalyzer{}
	h := newTestHandlers(store, analyzer)

	store.On("Fetch", mock.Anything, mock.Anything, mock.Anything).
		Return("/tmp/staged.wav", nil)
	store.On("Cleanup", mock.Anything, mock.Anything).Return(nil)
	analyzer.On("Detect", mock.Anything, mock.Anything, mock.Anything).
		Return(silence.Result{
			Intervals:     []silence.Interval{{Start: 0, End: -1}},
			NoiseDetected: false,
		}, nil)

	rec := postDetect(t, h,
		`{"bucket_name":"b","key_name":"silent.wav","noise_tolerance":-36,"noise_duration":0.3}`)

	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Data.Success)
	require.NotNil(t, resp.Data.NoiseDetected)
	assert.False(t, *resp.Data.NoiseDetected)
	assert.Nil(t, resp.Data.Error)
}

func TestDetect_MissingField(t *testing.T) {
	store := &mockStorage{}
	analyzer := &mockAnalyzer{}
	h := newTestHandlers(store, analyzer)

	rec := postDetect(t, h,
		`{"bucket_name":"b","noise_tolerance":-36,"noise_duration":0.3}`)

	// Operation failures ride a 200 transport status.
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, resp.Data.Success)
	assert.Nil(t, resp.Data.NoiseDetected)
	require.NotNil(t, resp.Data.Error)
	assert.Equal(t, "key_name is required", *resp.Data.Error)

	store.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
	analyzer.AssertNotCalled(t, "Detect", mock.Anything, mock.Anything, mock.Anything)
}

func TestDetect_MalformedBody(t *testing.T) {
	h := newTestHandlers(&mockStorage{}, &mockAnalyzer{})

	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{not json`},
		{"wrong field type", `{"bucket_name":"b","key_name":"k","noise_tolerance":"loud","noise_duration":0.3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postDetect(t, h, tt.body)

			assert.Equal(t, http.StatusOK, rec.Code)

			resp := decodeEnvelope(t, rec)
			assert.False(t, resp.Data.Success)
			assert.Nil(t, resp.Data.NoiseDetected)
			require.NotNil(t, resp.Data.Error)
		})
	}
}

func TestDetect_AnalyzerFailure(t *testing.T) {
	store := &mockStorage{}
	analyzer := &mockAnalyzer{}
	h := newTestHandlers(store, analyzer)

	store.On("Fetch", mock.Anything, mock.Anything, mock.Anything).
		Return("/tmp/staged.wav", nil)
	store.On("Cleanup", mock.Anything, mock.Anything).Return(nil)
	analyzer.On("Detect", mock.Anything, mock.Anything, mock.Anything).
		Return(silence.Result{}, &silence.FFmpegError{
			Args:   []string{"-i", "staged.wav"},
			Stderr: "Invalid data found when processing input",
			Err:    assert.AnError,
		})

	rec := postDetect(t, h,
		`{"bucket_name":"b","key_name":"broken.wav","noise_tolerance":-36,"noise_duration":0.3}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Data.Success)
	assert.Nil(t, resp.Data.NoiseDetected)
	require.NotNil(t, resp.Data.Error)
}

func TestDetect_EnvelopeNullness(t *testing.T) {
	// The serialized data object always carries exactly the three documented
	// fields, with noise_detected and error mutually exclusive in nullness.
	store := &mockStorage{}
	analyzer := &mockAnalyzer{}
	h := newTestHandlers(store, analyzer)

	store.On("Fetch", mock.Anything, mock.Anything, mock.Anything).
		Return("/tmp/staged.wav", nil)
	store.On("Cleanup", mock.Anything, mock.Anything).Return(nil)
	analyzer.On("Detect", mock.Anything, mock.Anything, mock.Anything).
		Return(silence.Result{NoiseDetected: true}, nil)

	check := func(t *testing.T, body string, wantSuccess bool) {
		rec := postDetect(t, h, body)

		var raw struct {
			StatusCode int                        `json:"statusCode"`
			Data       map[string]json.RawMessage `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))

		assert.Equal(t, http.StatusOK, raw.StatusCode)
		assert.Len(t, raw.Data, 3)
		for _, field := range []string{"success", "noise_detected", "error"} {
			assert.Contains(t, raw.Data, field)
		}

		nullField, setField := "noise_detected", "error"
		if wantSuccess {
			nullField, setField = "error", "noise_detected"
		}
		assert.Equal(t, "null", string(raw.Data[nullField]))
		assert.NotEqual(t, "null", string(raw.Data[setField]))
	}

	t.Run("success", func(t *testing.T) {
		check(t, `{"bucket_name":"b","key_name":"k","noise_tolerance":-36,"noise_duration":0.3}`, true)
	})

	t.Run("failure", func(t *testing.T) {
		check(t, `{"bucket_name":"b","noise_tolerance":-36,"noise_duration":0.3}`, false)
	})
}

func TestRouter(t *testing.T) {
	store := &mockStorage{}
	analyzer := &mockAnalyzer{}
	h := newTestHandlers(store, analyzer)
	router := NewRouter(h, testLogger(), DefaultConfig())

	t.Run("health route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("method not allowed on detect", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/detect", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("preflight request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/detect", nil)
		req.Header.Set("Origin", "https://example.com")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("detect through full chain", func(t *testing.T) {
		store.On("Fetch", mock.Anything, mock.Anything, mock.Anything).
			Return("/tmp/staged.wav", nil)
		store.On("Cleanup", mock.Anything, mock.Anything).Return(nil)
		analyzer.On("Detect", mock.Anything, mock.Anything, mock.Anything).
			Return(silence.Result{NoiseDetected: true}, nil)

		body := bytes.NewReader([]byte(`{"bucket_name":"b","key_name":"k","noise_tolerance":-36,"noise_duration":0.3}`))
		req := httptest.NewRequest(http.MethodPost, "/detect", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp DetectResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.True(t, resp.Data.Success)
	})
}
