// Package config provides configuration management for StegDetector.
// Configuration is read from an optional YAML file, then overridden by
// STEGDETECTOR_* environment variables, then validated.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	audiofeat "github.com/mostafa-hamdan/StegDetector-Project/pkg/features/audio"
	videofeat "github.com/mostafa-hamdan/StegDetector-Project/pkg/features/video"
)

// ModelFiles names the two artifacts of one trained model.
type ModelFiles struct {
	Scaler     string `yaml:"scaler"`
	Classifier string `yaml:"classifier"`
}

// LSBStats controls frame sampling for the statistical video method.
type LSBStats struct {
	MaxFrames int `yaml:"max_frames"`
	FrameStep int `yaml:"frame_step"`
}

// Band maps a score to a verdict: below Low is clean, at or above High is
// stego, anything between is uncertain.
type Band struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// Thresholds holds the verdict bands per method family.
type Thresholds struct {
	Audio      Band `yaml:"audio"`
	Video      Band `yaml:"video"`
	LSBBalance Band `yaml:"lsb_balance"`
}

// Config holds all configuration for StegDetector.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "console" or "json".
	// Default: "console"
	LogFormat string `yaml:"log_format"`

	FFmpegPath       string        `yaml:"ffmpeg_path"`
	FFprobePath      string        `yaml:"ffprobe_path"`
	TranscodeTimeout time.Duration `yaml:"transcode_timeout"`

	// TempDir is where per-operation workspaces are created. Empty means the
	// system temp directory.
	TempDir string `yaml:"temp_dir"`

	// ModelsDir is prepended to relative model file names.
	// Default: "models"
	ModelsDir  string     `yaml:"models_dir"`
	AudioModel ModelFiles `yaml:"audio_model"`
	VideoModel ModelFiles `yaml:"video_model"`

	// MaxPayloadBytes rejects embed requests above this size.
	// Default: 50 MiB
	MaxPayloadBytes int `yaml:"max_payload_bytes"`

	// MaxDecodeBytes bounds the raw frame bytes decoded from one video.
	// Default: 4 GiB
	MaxDecodeBytes int64 `yaml:"max_decode_bytes"`

	// Workers bounds parallel work. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`

	AudioFeatures audiofeat.Params `yaml:"audio_features"`
	VideoFeatures videofeat.Params `yaml:"video_features"`
	LSBStats      LSBStats         `yaml:"lsb_stats"`
	Thresholds    Thresholds       `yaml:"thresholds"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "console",
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		TranscodeTimeout: 10 * time.Minute,
		ModelsDir:        "models",
		AudioModel: ModelFiles{
			Scaler:     "audio_scaler.json",
			Classifier: "audio_svm.json",
		},
		VideoModel: ModelFiles{
			Scaler:     "video_scaler.json",
			Classifier: "video_svm.json",
		},
		MaxPayloadBytes: 50 * 1024 * 1024,
		MaxDecodeBytes:  4 << 30,
		AudioFeatures:   audiofeat.DefaultParams(),
		VideoFeatures:   videofeat.DefaultParams(),
		LSBStats:        LSBStats{MaxFrames: 200, FrameStep: 10},
		Thresholds: Thresholds{
			Audio:      Band{Low: 0.3, High: 0.7},
			Video:      Band{Low: 0.4, High: 0.6},
			LSBBalance: Band{Low: 0.4, High: 0.7},
		},
	}
}

// Load reads path (when non-empty) over the defaults, applies environment
// overrides and validates the result.
//
// Environment variables:
//   - STEGDETECTOR_LOG_LEVEL: debug, info, warn or error
//   - STEGDETECTOR_LOG_FORMAT: console or json
//   - STEGDETECTOR_FFMPEG: ffmpeg binary
//   - STEGDETECTOR_FFPROBE: ffprobe binary
//   - STEGDETECTOR_TRANSCODE_TIMEOUT: Go duration, e.g. 90s
//   - STEGDETECTOR_TEMP_DIR: workspace root
//   - STEGDETECTOR_MODELS_DIR: model artifact directory
//   - STEGDETECTOR_MAX_PAYLOAD_BYTES: integer
//   - STEGDETECTOR_MAX_DECODE_BYTES: integer
//   - STEGDETECTOR_WORKERS: integer
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if val := os.Getenv("STEGDETECTOR_LOG_LEVEL"); val != "" {
		c.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}

	if val := os.Getenv("STEGDETECTOR_LOG_FORMAT"); val != "" {
		c.LogFormat = strings.ToLower(strings.TrimSpace(val))
	}

	if val := os.Getenv("STEGDETECTOR_FFMPEG"); val != "" {
		c.FFmpegPath = val
	}

	if val := os.Getenv("STEGDETECTOR_FFPROBE"); val != "" {
		c.FFprobePath = val
	}

	if val := os.Getenv("STEGDETECTOR_TRANSCODE_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return errors.New("STEGDETECTOR_TRANSCODE_TIMEOUT must be a valid duration")
		}
		c.TranscodeTimeout = d
	}

	if val := os.Getenv("STEGDETECTOR_TEMP_DIR"); val != "" {
		c.TempDir = val
	}

	if val := os.Getenv("STEGDETECTOR_MODELS_DIR"); val != "" {
		c.ModelsDir = val
	}

	if val := os.Getenv("STEGDETECTOR_MAX_PAYLOAD_BYTES"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.New("STEGDETECTOR_MAX_PAYLOAD_BYTES must be a valid integer")
		}
		c.MaxPayloadBytes = n
	}

	if val := os.Getenv("STEGDETECTOR_MAX_DECODE_BYTES"); val != "" {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return errors.New("STEGDETECTOR_MAX_DECODE_BYTES must be a valid integer")
		}
		c.MaxDecodeBytes = n
	}

	if val := os.Getenv("STEGDETECTOR_WORKERS"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.New("STEGDETECTOR_WORKERS must be a valid integer")
		}
		c.Workers = n
	}

	return nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return errors.New("log_level must be 'debug', 'info', 'warn', or 'error'")
	}

	if c.LogFormat != "console" && c.LogFormat != "json" {
		return errors.New("log_format must be 'console' or 'json'")
	}

	if c.FFmpegPath == "" || c.FFprobePath == "" {
		return errors.New("ffmpeg_path and ffprobe_path cannot be empty")
	}

	if c.TranscodeTimeout <= 0 {
		return errors.New("transcode_timeout must be positive")
	}

	if c.AudioModel.Scaler == "" || c.AudioModel.Classifier == "" ||
		c.VideoModel.Scaler == "" || c.VideoModel.Classifier == "" {
		return errors.New("model file names cannot be empty")
	}

	if c.MaxPayloadBytes <= 0 {
		return errors.New("max_payload_bytes must be positive")
	}

	if c.MaxDecodeBytes <= 0 {
		return errors.New("max_decode_bytes must be positive")
	}

	if c.Workers < 0 {
		return errors.New("workers cannot be negative")
	}

	if err := c.AudioFeatures.Validate(); err != nil {
		return fmt.Errorf("audio_features: %w", err)
	}

	if err := c.VideoFeatures.Validate(); err != nil {
		return fmt.Errorf("video_features: %w", err)
	}

	if c.LSBStats.MaxFrames <= 0 || c.LSBStats.FrameStep <= 0 {
		return errors.New("lsb_stats max_frames and frame_step must be positive")
	}

	for name, b := range map[string]Band{
		"audio":       c.Thresholds.Audio,
		"video":       c.Thresholds.Video,
		"lsb_balance": c.Thresholds.LSBBalance,
	} {
		if b.Low < 0 || b.High > 1 || b.Low > b.High {
			return fmt.Errorf("thresholds.%s must satisfy 0 <= low <= high <= 1", name)
		}
	}

	return nil
}

// ModelPaths resolves the artifact paths of m against ModelsDir.
func (c *Config) ModelPaths(m ModelFiles) (scaler, classifier string) {
	return c.resolve(m.Scaler), c.resolve(m.Classifier)
}

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) || c.ModelsDir == "" {
		return name
	}
	return filepath.Join(c.ModelsDir, name)
}

// IsDebug returns true if the log level is set to debug.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}
