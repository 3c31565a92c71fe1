// Package noise implements the noise detection operation: fetch a media
// object, run silence detection on it, and classify the outcome.
package noise

// Request identifies the media object and the detection sensitivity.
// The numeric fields are pointers so an omitted field is distinguishable
// from an explicit zero.
type Request struct {
	// BucketName is the storage location containing the target file.
	BucketName string `json:"bucket_name" validate:"required"`
	// KeyName is the path of the target file within the bucket.
	KeyName string `json:"key_name" validate:"required"`
	// NoiseTolerance is the loudness threshold in dB below which audio
	// is considered silence. Typically negative (dBFS); the sign is not
	// validated.
	NoiseTolerance *float64 `json:"noise_tolerance" validate:"required"`
	// NoiseDuration is the minimum duration in seconds a quiet span must
	// last to count as a silence interval. Must be positive.
	NoiseDuration *float64 `json:"noise_duration" validate:"required,gt=0"`
}

// Result is the outcome of one detection run.
type Result struct {
	// Success reports whether the operation completed without failure.
	Success bool
	// NoiseDetected is the classification; nil when Success is false.
	NoiseDetected *bool
	// Err describes the failure; nil when Success is true.
	Err error
}

// ValidationError reports a malformed or missing request field.
// No subprocess is invoked when validation fails.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// ExecutionError reports a failure while fetching the object or running
// the analysis subprocess.
type ExecutionError struct {
	err error
}

func (e *ExecutionError) Error() string {
	return e.err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.err
}
