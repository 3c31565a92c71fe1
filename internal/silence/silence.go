// Package silence provides interfaces and implementations for detecting
// silence intervals in media files.
package silence

import "context"

// Opts configures a silence detection run.
type Opts struct {
	// NoiseToleranceDB is the loudness threshold in dBFS below which
	// audio is considered silence.
	// Default: -36 dBFS.
	NoiseToleranceDB float64

	// NoiseDurationSec is the minimum duration in seconds a quiet span
	// must last to count as a silence interval.
	// Default: 0.3 seconds.
	NoiseDurationSec float64
}

// DefaultOpts returns the default options for silence detection.
func DefaultOpts() Opts {
	return Opts{
		NoiseToleranceDB: -36,
		NoiseDurationSec: 0.3,
	}
}

// Interval represents one detected silence interval in the media file.
// End is negative when the silence ran to the end of the stream.
type Interval struct {
	Start float64
	End   float64
}

// Closed reports whether the interval has a known end.
func (i Interval) Closed() bool {
	return i.End >= 0
}

// Result holds the outcome of one silence detection run.
type Result struct {
	// Intervals is the ordered list of detected silence intervals.
	Intervals []Interval

	// Duration is the total stream duration in seconds, or 0 when the
	// tool output did not include it.
	Duration float64

	// NoiseDetected reports whether the file contains audible content:
	// true when no silence interval was found, or when the intervals
	// leave at least one non-silent span.
	NoiseDetected bool
}

// Analyzer defines the interface for running silence detection on a local
// media file.
type Analyzer interface {
	// Detect runs silence detection on the file at path and classifies
	// the output. The context bounds the subprocess wait.
	Detect(ctx context.Context, path string, opts Opts) (Result, error)
}
