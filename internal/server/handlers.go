package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/audioops/noise-detector-api/internal/noise"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service *noise.Service
	logger  *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *noise.Service, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service: service,
		logger:  logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Detect handles POST /detect requests. The transport status is always 200;
// every operation failure, including a malformed body, is reported through
// the envelope with success=false.
func (h *Handlers) Detect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeDetectFailure(w, "invalid JSON body: "+err.Error())
		return
	}

	result := h.service.Detect(r.Context(), noise.Request{
		BucketName:     req.BucketName,
		KeyName:        req.KeyName,
		NoiseTolerance: req.NoiseTolerance,
		NoiseDuration:  req.NoiseDuration,
	})

	if !result.Success {
		writeDetectFailure(w, result.Err.Error())
		return
	}

	h.logger.Info("detection completed",
		slog.String("bucket", req.BucketName),
		slog.String("key", req.KeyName),
		slog.Bool("noise_detected", *result.NoiseDetected),
	)

	writeJSON(w, http.StatusOK, DetectResponse{
		StatusCode: http.StatusOK,
		Data: DetectData{
			Success:       true,
			NoiseDetected: result.NoiseDetected,
		},
	})
}

// writeDetectFailure writes the success=false envelope with the given message.
func writeDetectFailure(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, DetectResponse{
		StatusCode: http.StatusOK,
		Data: DetectData{
			Success: false,
			Error:   &msg,
		},
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
