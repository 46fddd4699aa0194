// Package config provides configuration loading for pitchmate commands.
//
// Values come from three layers, later layers win:
//   - Default()
//   - an optional YAML file (Load)
//   - environment variables (ApplyEnv)
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gulaysahinn/pitchmate-pro/pkg/feedback"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvSpeechKey    = "GOOGLE_SPEECH_API_KEY"
	EnvLanguage     = "PITCHMATE_LANGUAGE"
	EnvLogLevel     = "PITCHMATE_LOG_LEVEL"
	EnvDBPath       = "PITCHMATE_DB"
	EnvDetector     = "PITCHMATE_DETECTOR"
	EnvCascadePath  = "PITCHMATE_CASCADE"
	EnvYuNetModel   = "PITCHMATE_YUNET_MODEL"
	EnvUploadDir    = "PITCHMATE_UPLOAD_DIR"
	EnvServerAddr   = "PITCHMATE_ADDR"
	EnvMaxAnalyses  = "PITCHMATE_MAX_ANALYSES"
	EnvFFmpegBinary = "PITCHMATE_FFMPEG"
)

// Log configures internal/log.
type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Detector selects and configures the face detector.
type Detector struct {
	// Kind is "haar" or "yunet".
	Kind             string  `yaml:"kind"`
	CascadePath      string  `yaml:"cascade_path"`
	ModelPath        string  `yaml:"model_path"`
	ConfidenceThresh float64 `yaml:"confidence_thresh"`
}

// Motion configures the stability tracker.
type Motion struct {
	BlurKernel     int     `yaml:"blur_kernel"`
	PixelThreshold float64 `yaml:"pixel_threshold"`
}

// Speech configures transcription and signal analysis.
type Speech struct {
	LanguageCode      string        `yaml:"language_code"`
	APIKey            string        `yaml:"api_key"`
	CalibrationWindow time.Duration `yaml:"calibration_window"`
	Timeout           time.Duration `yaml:"timeout"`
	Disabled          bool          `yaml:"disabled"`
}

// Feedback configures the generative commentary step.
type Feedback struct {
	Enabled bool          `yaml:"enabled"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`

	// FallbackModels are tried in order when Model fails.
	FallbackModels []string `yaml:"fallback_models"`
}

// Store configures persistence.
type Store struct {
	Path string `yaml:"path"`
}

// Server configures the HTTP API.
type Server struct {
	Addr          string `yaml:"addr"`
	UploadDir     string `yaml:"upload_dir"`
	MaxConcurrent int    `yaml:"max_concurrent"`
	BodyLimitMB   int    `yaml:"body_limit_mb"`
	KeepUploads   bool   `yaml:"keep_uploads"`
}

// Media configures external binaries.
type Media struct {
	FFmpegBin  string `yaml:"ffmpeg_bin"`
	FFprobeBin string `yaml:"ffprobe_bin"`
}

// Config is the root configuration.
type Config struct {
	// Language selects recommendation texts and the filler catalogue ("tr", "en").
	Language string   `yaml:"language"`
	Log      Log      `yaml:"log"`
	Detector Detector `yaml:"detector"`
	Motion   Motion   `yaml:"motion"`
	Speech   Speech   `yaml:"speech"`
	Feedback Feedback `yaml:"feedback"`
	Store    Store    `yaml:"store"`
	Server   Server   `yaml:"server"`
	Media    Media    `yaml:"media"`
}

// Default returns production defaults.
func Default() Config {
	return Config{
		Language: "tr",
		Log:      Log{Level: "info"},
		Detector: Detector{
			Kind:             "haar",
			CascadePath:      "models/haarcascade_frontalface_default.xml",
			ModelPath:        "models/face_detection_yunet.onnx",
			ConfidenceThresh: 0.5,
		},
		Motion: Motion{
			BlurKernel:     21,
			PixelThreshold: 25,
		},
		Speech: Speech{
			LanguageCode:      "tr-TR",
			CalibrationWindow: 500 * time.Millisecond,
			Timeout:           5 * time.Minute,
		},
		Feedback: Feedback{
			Model:          "gemini-2.0-flash",
			FallbackModels: []string{"gemini-1.5-flash"},
			Timeout:        30 * time.Second,
		},
		Store: Store{Path: "data/pitchmate.sqlite"},
		Server: Server{
			Addr:          ":8080",
			UploadDir:     "uploads/videos",
			MaxConcurrent: 2,
			BodyLimitMB:   512,
		},
		Media: Media{
			FFmpegBin:  "ffmpeg",
			FFprobeBin: "ffprobe",
		},
	}
}

// Load reads a YAML file on top of Default and applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open config %s: %w", path, err)
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from environment variables that are set.
func (c *Config) ApplyEnv() {
	setString(&c.Feedback.APIKey, EnvGeminiKey)
	setString(&c.Speech.APIKey, EnvSpeechKey)
	setString(&c.Language, EnvLanguage)
	setString(&c.Log.Level, EnvLogLevel)
	setString(&c.Store.Path, EnvDBPath)
	setString(&c.Detector.Kind, EnvDetector)
	setString(&c.Detector.CascadePath, EnvCascadePath)
	setString(&c.Detector.ModelPath, EnvYuNetModel)
	setString(&c.Server.UploadDir, EnvUploadDir)
	setString(&c.Server.Addr, EnvServerAddr)
	setString(&c.Media.FFmpegBin, EnvFFmpegBinary)
	if v := os.Getenv(EnvMaxAnalyses); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.MaxConcurrent = n
		}
	}
	if c.Feedback.APIKey != "" && os.Getenv(EnvGeminiKey) != "" {
		c.Feedback.Enabled = true
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	switch c.Detector.Kind {
	case "haar", "yunet":
	default:
		errs = append(errs, fmt.Errorf("detector.kind must be haar or yunet, got %q", c.Detector.Kind))
	}
	if !feedback.IsSupported(c.Language) {
		errs = append(errs, fmt.Errorf("language must be one of %v, got %q", feedback.Languages(), c.Language))
	}
	if c.Motion.BlurKernel <= 0 || c.Motion.BlurKernel%2 == 0 {
		errs = append(errs, fmt.Errorf("motion.blur_kernel must be a positive odd number, got %d", c.Motion.BlurKernel))
	}
	if c.Motion.PixelThreshold <= 0 || c.Motion.PixelThreshold >= 255 {
		errs = append(errs, fmt.Errorf("motion.pixel_threshold must be in (0, 255), got %v", c.Motion.PixelThreshold))
	}
	if c.Speech.CalibrationWindow < 0 {
		errs = append(errs, fmt.Errorf("speech.calibration_window must not be negative, got %v", c.Speech.CalibrationWindow))
	}
	if c.Server.MaxConcurrent <= 0 {
		errs = append(errs, fmt.Errorf("server.max_concurrent must be positive, got %d", c.Server.MaxConcurrent))
	}
	return errors.Join(errs...)
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
