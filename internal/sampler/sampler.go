// Package sampler extracts a bounded, evenly-strided sequence of still
// frames from a video asset using ffmpeg.
package sampler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // frame decoding
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultFrameInterval is the target spacing between kept frames.
	DefaultFrameInterval = 100 * time.Millisecond

	// MaxFrames caps how many frames one sampling pass may keep, bounding
	// memory against arbitrarily long videos. At the default interval this
	// covers roughly 30 seconds of output.
	MaxFrames = 300

	// frameJPEGQuality is the qscale:v value for extracted frames. 2 is
	// high quality, minimizing compression artifacts before estimation.
	frameJPEGQuality = 2
)

// ErrNoVideoTrack is returned when the asset exposes no visual track at all.
var ErrNoVideoTrack = errors.New("video asset has no visual track")

// ExtractionError is a sampler-level fatal I/O failure: ffmpeg could not be
// run against the asset. Per-frame decode failures are not extraction
// errors; those frames are silently skipped.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("frame extraction failed for %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Frame is one kept still image. Index is the frame's 0-based position in
// the sampled sequence; Data holds the JPEG bytes at source resolution.
type Frame struct {
	Index  int
	Data   []byte
	Width  int
	Height int
}

// Result is one sampling pass over a video asset.
type Result struct {
	Frames    []Frame
	FrameRate float64
	Stride    int
	Interval  time.Duration
}

// Sample extracts an ordered, evenly-strided frame sequence from the video
// at videoPath. The stride is derived from the asset's nominal frame rate
// and the requested interval; at most MaxFrames frames are kept. Frames
// that fail to decode are skipped without counting toward the kept total.
//
// Returns ErrNoVideoTrack when the asset has no visual track. Zero
// decodable frames is not a sampling error; that condition surfaces later,
// when the sequence builder finds no poses to build from.
func Sample(ctx context.Context, videoPath string, interval time.Duration) (*Result, error) {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}

	meta, err := Probe(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	if !meta.HasVideo {
		return nil, fmt.Errorf("%s: %w", filepath.Base(videoPath), ErrNoVideoTrack)
	}

	stride := computeStride(meta.FrameRate, interval)

	log.Info().
		Str("video", filepath.Base(videoPath)).
		Float64("fps", meta.FrameRate).
		Dur("interval", interval).
		Int("stride", stride).
		Msg("Starting frame sampling")

	frameDir, err := extractFrames(ctx, videoPath, stride)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(frameDir); err != nil {
			log.Warn().Err(err).Str("dir", frameDir).Msg("Failed to remove frame directory")
		}
	}()

	frames := loadFrames(frameDir)

	log.Info().
		Str("video", filepath.Base(videoPath)).
		Int("kept_frames", len(frames)).
		Msg("Frame sampling complete")

	return &Result{
		Frames:    frames,
		FrameRate: meta.FrameRate,
		Stride:    stride,
		Interval:  interval,
	}, nil
}

// computeStride converts a nominal frame rate and target interval into a
// keep-every-Nth stride, never below 1.
func computeStride(fps float64, interval time.Duration) int {
	stride := int(math.Round(fps * interval.Seconds()))
	if stride < 1 {
		return 1
	}
	return stride
}

// extractFrames runs ffmpeg once, keeping every stride-th decoded frame up
// to the MaxFrames cap, and returns the temp directory holding the JPEGs.
func extractFrames(ctx context.Context, videoPath string, stride int) (string, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", &ExtractionError{Path: videoPath, Err: fmt.Errorf("ffmpeg not found in PATH: %w", err)}
	}

	frameDir, err := os.MkdirTemp("", "posecheck-frames-*")
	if err != nil {
		return "", &ExtractionError{Path: videoPath, Err: err}
	}

	framePattern := filepath.Join(frameDir, "frame_%06d.jpg")
	args := []string{
		"-i", videoPath,
		"-qscale:v", strconv.Itoa(frameJPEGQuality),
	}
	if stride > 1 {
		args = append(args, "-vf", fmt.Sprintf("select='not(mod(n\\,%d))'", stride))
	}
	args = append(args,
		"-frames:v", strconv.Itoa(MaxFrames),
		"-vsync", "0",
		"-y", framePattern,
	)

	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if removeErr := os.RemoveAll(frameDir); removeErr != nil {
			log.Warn().Err(removeErr).Str("dir", frameDir).Msg("Failed to remove frame directory")
		}
		return "", &ExtractionError{Path: videoPath, Err: fmt.Errorf("%w\nffmpeg output: %s", err, string(output))}
	}

	return frameDir, nil
}

// loadFrames reads the extracted JPEGs into memory in filename order.
// Frames that cannot be read or decoded are treated as absent source
// frames: skipped, unindexed, and logged at debug level only.
func loadFrames(frameDir string) []Frame {
	entries, err := os.ReadDir(frameDir)
	if err != nil {
		log.Warn().Err(err).Str("dir", frameDir).Msg("Failed to read frame directory")
		return nil
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "frame_") && strings.HasSuffix(name, ".jpg") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	frames := make([]Frame, 0, len(names))
	for _, name := range names {
		path := filepath.Join(frameDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			log.Debug().Err(err).Str("frame", name).Msg("Skipping unreadable frame")
			continue
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			log.Debug().Err(err).Str("frame", name).Msg("Skipping undecodable frame")
			continue
		}
		frames = append(frames, Frame{
			Index:  len(frames),
			Data:   data,
			Width:  cfg.Width,
			Height: cfg.Height,
		})
		if len(frames) >= MaxFrames {
			break
		}
	}

	return frames
}
