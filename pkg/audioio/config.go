// Package audioio loads recorded audio into memory for analysis.
//
// This package supports multiple backends:
//   - ffmpeg - any container ffmpeg can read (wav, mp3, m4a, mp4, webm...)
//   - opus   - Ogg-Opus files decoded in-process with libopus
//   - mock   - synthetic waveforms for tests
//
// The backend is selected from the file extension, or can be explicitly
// specified via configuration.
package audioio

import "fmt"

// Backend represents the audio decoding backend.
type Backend string

const (
	// BackendAuto picks opus for .opus/.ogg files and ffmpeg for everything else.
	BackendAuto Backend = "auto"
	// BackendFFmpeg decodes through an ffmpeg subprocess.
	BackendFFmpeg Backend = "ffmpeg"
	// BackendOpus decodes Ogg-Opus with libopus.
	BackendOpus Backend = "opus"
	// BackendMock returns a fixed synthetic waveform.
	BackendMock Backend = "mock"
)

// OpusSampleRate is the rate libopus always decodes at.
const OpusSampleRate = 48000

// Config holds audio loading configuration.
type Config struct {
	// Backend specifies which decoder to use.
	// Default: "auto"
	Backend Backend `yaml:"backend" json:"backend"`

	// SampleRate forces the decoded sample rate in Hz.
	// Default: 0 (keep the file's native rate, as reported by ffprobe)
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`

	// FallbackRate is used when the native rate cannot be read.
	// Default: 16000
	FallbackRate int `yaml:"fallback_rate" json:"fallback_rate"`

	// OpusChannels is the channel count of Ogg-Opus inputs.
	// Default: 1 (browser recordings are mono)
	OpusChannels int `yaml:"opus_channels" json:"opus_channels"`

	// FFmpegBin and FFprobeBin are the executables used by the ffmpeg backend.
	FFmpegBin  string `yaml:"ffmpeg_bin" json:"ffmpeg_bin"`
	FFprobeBin string `yaml:"ffprobe_bin" json:"ffprobe_bin"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:      BackendAuto,
		SampleRate:   0, // Native
		FallbackRate: 16000,
		OpusChannels: 1,
		FFmpegBin:    "ffmpeg",
		FFprobeBin:   "ffprobe",
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAuto, BackendFFmpeg, BackendOpus, BackendMock:
	default:
		return fmt.Errorf("unsupported backend: %s", c.Backend)
	}
	if c.SampleRate < 0 {
		return fmt.Errorf("sample_rate must not be negative, got %d", c.SampleRate)
	}
	if c.FallbackRate <= 0 {
		return fmt.Errorf("fallback_rate must be positive, got %d", c.FallbackRate)
	}
	if c.OpusChannels != 1 && c.OpusChannels != 2 {
		return fmt.Errorf("opus_channels must be 1 or 2, got %d", c.OpusChannels)
	}
	return nil
}
