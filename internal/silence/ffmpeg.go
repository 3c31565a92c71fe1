package silence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// Static errors for silence detection.
var (
	// ErrInvalidNoiseDuration is returned when the minimum silence duration is not positive.
	ErrInvalidNoiseDuration = errors.New("invalid noise duration: must be positive")
	// ErrInputNotFound is returned when the input file does not exist.
	ErrInputNotFound = errors.New("input file does not exist")
)

// startBoundary tolerates silencedetect reporting a slightly negative or
// near-zero silence_start for silence at the head of the stream.
const startBoundary = 0.01

// Regex patterns for the silencedetect diagnostic lines and the trailing
// progress summary ffmpeg writes to stderr.
var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?[\d.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*(-?[\d.]+)`)
	totalTimeRe    = regexp.MustCompile(`size=[^ ]+\s+time=(\d{2}):(\d{2}):([\d.]+)\s+bitrate=`)
	durationRe     = regexp.MustCompile(`Duration:\s*(\d+):(\d+):([\d.]+)`)
)

// FFmpegAnalyzer implements Analyzer using the ffmpeg CLI's silencedetect filter.
type FFmpegAnalyzer struct {
	ffmpegPath string
}

// NewFFmpegAnalyzer creates a new FFmpegAnalyzer.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegAnalyzer(ffmpegPath string) *FFmpegAnalyzer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegAnalyzer{ffmpegPath: ffmpegPath}
}

// Detect runs ffmpeg silencedetect on the file at path and classifies the
// stderr diagnostics. ffmpeg exiting non-zero, failing to launch, or the
// context expiring all surface as errors; the run is never retried.
func (a *FFmpegAnalyzer) Detect(ctx context.Context, path string, opts Opts) (Result, error) {
	if opts.NoiseDurationSec <= 0 {
		return Result{}, fmt.Errorf("%w: got %g", ErrInvalidNoiseDuration, opts.NoiseDurationSec)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Result{}, fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}

	filter := fmt.Sprintf("silencedetect=noise=%gdB:d=%g",
		opts.NoiseToleranceDB,
		opts.NoiseDurationSec,
	)

	args := []string{
		"-hide_banner",
		"-i", path,
		"-af", filter,
		"-f", "null",
		"-",
	}

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, a.ffmpegPath, args...)

	// silencedetect reports on stderr, not stdout.
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Result{}, fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return Result{}, &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	intervals, duration := parseSilenceOutput(stderr.String())

	return Result{
		Intervals:     intervals,
		Duration:      duration,
		NoiseDetected: classifyNoise(intervals, duration),
	}, nil
}

// parseSilenceOutput parses ffmpeg silencedetect diagnostics into the ordered
// list of silence intervals and the total stream duration (0 when unknown).
// A silence_start without a matching silence_end yields an open interval
// (negative End) running to the end of the stream.
// ffmpeg terminates progress updates with \r, so when piped they arrive
// packed into a single \n-line; both separators delimit lines here so the
// trailing update wins.
func parseSilenceOutput(output string) ([]Interval, float64) {
	var intervals []Interval
	var duration float64

	currentStart := 0.0
	hasStart := false

	lines := strings.FieldsFunc(output, func(r rune) bool {
		return r == '\n' || r == '\r'
	})
	for _, line := range lines {
		if m := silenceStartRe.FindStringSubmatch(line); len(m) > 1 {
			val, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			currentStart = val
			hasStart = true
			continue
		}

		if m := silenceEndRe.FindStringSubmatch(line); len(m) > 1 && hasStart {
			val, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			intervals = append(intervals, Interval{Start: currentStart, End: val})
			hasStart = false
			continue
		}

		if m := durationRe.FindStringSubmatch(line); len(m) > 3 && duration == 0 {
			duration = hmsToSeconds(m[1], m[2], m[3])
			continue
		}

		if m := totalTimeRe.FindStringSubmatch(line); len(m) > 3 {
			// The progress summary reflects the processed stream length;
			// prefer it over the container header.
			duration = hmsToSeconds(m[1], m[2], m[3])
		}
	}

	if hasStart {
		intervals = append(intervals, Interval{Start: currentStart, End: -1})
	}

	return intervals, duration
}

// classifyNoise decides whether the file contains audible content given the
// detected silence intervals. Zero intervals means silencedetect never found
// a qualifying quiet span, so the whole file is noisy. Otherwise the file is
// noisy iff the intervals leave a non-silent span: audio before the first
// silence, audio between two silences, or audio after a silence that ended
// before the stream did.
func classifyNoise(intervals []Interval, duration float64) bool {
	if len(intervals) == 0 {
		return true
	}

	if intervals[0].Start > startBoundary {
		return true
	}

	for i := 1; i < len(intervals); i++ {
		// A new silence_start after a silence_end implies audio between.
		if intervals[i].Start > intervals[i-1].End+startBoundary {
			return true
		}
	}

	last := intervals[len(intervals)-1]
	if !last.Closed() {
		// Silence ran to the end of the stream.
		return false
	}

	// silencedetect only emits silence_end when audio resumes, so a closed
	// final interval means trailing audio even if the stream length is unknown.
	if duration == 0 {
		return true
	}
	return last.End < duration-startBoundary
}

// hmsToSeconds converts HH, MM and SS.cc capture groups to seconds.
func hmsToSeconds(h, m, s string) float64 {
	hours, _ := strconv.ParseFloat(h, 64)
	minutes, _ := strconv.ParseFloat(m, 64)
	seconds, _ := strconv.ParseFloat(s, 64)
	return hours*3600 + minutes*60 + seconds
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}
