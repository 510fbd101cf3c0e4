// Package config loads posecheck configuration from an optional YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds the tunable settings for an analysis run. Scoring policy
// (thresholds, weights, required-joint tables) is fixed and deliberately
// not configurable.
type Config struct {
	// Model is the Gemini model used for pose estimation.
	Model string `yaml:"model"`

	// FrameIntervalSeconds is the target spacing between sampled frames.
	FrameIntervalSeconds float64 `yaml:"frame_interval_seconds"`

	// StorePath is the SQLite file analysis sessions are saved to.
	// Empty disables persistence.
	StorePath string `yaml:"store_path"`

	// LogLevel is the zerolog level: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Model:                "gemini-3-flash-preview",
		FrameIntervalSeconds: 0.1,
		LogLevel:             "info",
	}
}

// Load reads configuration from path (if it exists) over the defaults,
// then applies environment overrides: POSECHECK_MODEL,
// POSECHECK_FRAME_INTERVAL, POSECHECK_STORE_PATH, POSECHECK_LOG_LEVEL.
// A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
			}
			log.Debug().Str("path", path).Msg("Loaded config file")
		case os.IsNotExist(err):
			log.Debug().Str("path", path).Msg("No config file, using defaults")
		default:
			return cfg, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	envOverride(&cfg.Model, "POSECHECK_MODEL")
	envOverrideFloat(&cfg.FrameIntervalSeconds, "POSECHECK_FRAME_INTERVAL")
	envOverride(&cfg.StorePath, "POSECHECK_STORE_PATH")
	envOverride(&cfg.LogLevel, "POSECHECK_LOG_LEVEL")

	if cfg.FrameIntervalSeconds <= 0 {
		cfg.FrameIntervalSeconds = Default().FrameIntervalSeconds
	}

	return cfg, nil
}

// FrameInterval returns the sampling interval as a duration.
func (c Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalSeconds * float64(time.Second))
}

func envOverride(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func envOverrideFloat(target *float64, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn().Str("var", key).Str("value", v).Msg("Ignoring non-numeric environment override")
		return
	}
	*target = f
}
