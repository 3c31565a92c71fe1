// Package server provides the HTTP server for the Noise Detector API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// DetectRequest is the HTTP request body for a detection run.
// The numeric fields are pointers so omitted fields are detectable;
// presence and value constraints are enforced by the detection service.
type DetectRequest struct {
	// BucketName is the storage location containing the target file.
	BucketName string `json:"bucket_name"`
	// KeyName is the path of the target file within the bucket.
	KeyName string `json:"key_name"`
	// NoiseTolerance is the silence threshold in dB.
	NoiseTolerance *float64 `json:"noise_tolerance"`
	// NoiseDuration is the minimum silence duration in seconds.
	NoiseDuration *float64 `json:"noise_duration"`
}

// DetectData is the operation-level payload of a detection response.
// Exactly one of NoiseDetected and Error is null: NoiseDetected is set when
// Success is true, Error when it is false.
type DetectData struct {
	Success       bool    `json:"success"`
	NoiseDetected *bool   `json:"noise_detected"`
	Error         *string `json:"error"`
}

// DetectResponse is the transport envelope for a detection run. StatusCode
// is always 200; operation failure is signaled only via Data.Success.
type DetectResponse struct {
	StatusCode int        `json:"statusCode"`
	Data       DetectData `json:"data"`
}

// ErrorResponse is the standard error response format for transport-level
// failures (panics), which sit outside the detection envelope.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
