package sampler

// probe.go wraps ffprobe to read the metadata the sampler needs: whether the
// asset has a visual track at all, its nominal frame rate, and its dimensions.

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Metadata describes the video asset as reported by ffprobe.
type Metadata struct {
	HasVideo  bool
	FrameRate float64
	Width     int
	Height    int
	Duration  time.Duration
	Codec     string
}

// ffprobeOutput is the subset of ffprobe's JSON output the sampler reads.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	Duration   string `json:"duration"`
}

// Probe reads video metadata using ffprobe. It does not fail when the asset
// has no video stream; callers check Metadata.HasVideo.
func Probe(ctx context.Context, videoPath string) (*Metadata, error) {
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	meta := &Metadata{}
	if probe.Format.Duration != "" {
		if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			meta.Duration = time.Duration(dur * float64(time.Second))
		}
	}

	for _, stream := range probe.Streams {
		if stream.CodecType != "video" {
			continue
		}
		meta.HasVideo = true
		if meta.Width == 0 {
			meta.Width = stream.Width
			meta.Height = stream.Height
		}
		if meta.Codec == "" {
			meta.Codec = stream.CodecName
		}
		if meta.FrameRate == 0 && stream.RFrameRate != "" {
			meta.FrameRate = parseFrameRate(stream.RFrameRate)
		}
		if meta.Duration == 0 && stream.Duration != "" {
			if dur, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
				meta.Duration = time.Duration(dur * float64(time.Second))
			}
		}
	}

	log.Debug().
		Bool("has_video", meta.HasVideo).
		Float64("frame_rate", meta.FrameRate).
		Int("width", meta.Width).
		Int("height", meta.Height).
		Dur("duration", meta.Duration).
		Str("codec", meta.Codec).
		Msg("Video metadata extracted via ffprobe")

	return meta, nil
}

// parseFrameRate parses frame rate from ffprobe format (e.g., "30/1" -> 30.0)
func parseFrameRate(value string) float64 {
	parts := strings.Split(value, "/")
	if len(parts) == 2 {
		num, _ := strconv.ParseFloat(parts[0], 64)
		den, _ := strconv.ParseFloat(parts[1], 64)
		if den != 0 {
			return num / den
		}
	}
	rate, _ := strconv.ParseFloat(value, 64)
	return rate
}
