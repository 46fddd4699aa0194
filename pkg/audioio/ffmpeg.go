package audioio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpegLoader decodes audio with an ffmpeg subprocess writing raw PCM to a pipe.
type FFmpegLoader struct {
	cfg    Config
	logger *slog.Logger
}

// NewFFmpegLoader creates an ffmpeg-backed loader.
func NewFFmpegLoader(cfg Config, logger *slog.Logger) *FFmpegLoader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FFmpegBin == "" {
		cfg.FFmpegBin = "ffmpeg"
	}
	if cfg.FFprobeBin == "" {
		cfg.FFprobeBin = "ffprobe"
	}
	if cfg.FallbackRate <= 0 {
		cfg.FallbackRate = 16000
	}
	return &FFmpegLoader{cfg: cfg, logger: logger.With("backend", "ffmpeg")}
}

// Name returns "ffmpeg".
func (l *FFmpegLoader) Name() string { return string(BackendFFmpeg) }

// Load decodes path to mono at the configured (or native) rate.
func (l *FFmpegLoader) Load(ctx context.Context, path string) (Waveform, error) {
	if _, err := os.Stat(path); err != nil {
		return Waveform{}, fmt.Errorf("audio file: %w", err)
	}

	rate := l.cfg.SampleRate
	if rate == 0 {
		native, err := l.ReadSampleRate(ctx, path)
		if err != nil {
			l.logger.Debug("sample rate lookup failed, using fallback", "path", path, "error", err)
			native = l.cfg.FallbackRate
		}
		rate = native
	}

	cmd := exec.CommandContext(ctx, l.cfg.FFmpegBin,
		"-hide_banner", "-nostats", "-v", "error",
		"-i", path,
		"-vn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", "1", // Downmix to mono
		"-ar", strconv.Itoa(rate),
		"pipe:1",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Waveform{}, fmt.Errorf("ffmpeg decode %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}

	samples := BytesToSamples(stdout.Bytes())
	if len(samples) == 0 {
		return Waveform{}, fmt.Errorf("%w: %s", ErrNoAudio, path)
	}

	l.logger.Debug("audio decoded", "path", path, "samples", len(samples), "rate", rate)

	return Waveform{Samples: SamplesToFloat(samples), SampleRate: rate}, nil
}

// ReadSampleRate returns the sample rate of the first audio stream.
func (l *FFmpegLoader) ReadSampleRate(ctx context.Context, path string) (int, error) {
	out, err := exec.CommandContext(ctx, l.cfg.FFprobeBin,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate,channels",
		"-of", "json",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	return parseStreamRate(out)
}

type streamInfo struct {
	Streams []struct {
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

func parseStreamRate(data []byte) (int, error) {
	var p streamInfo
	if err := json.Unmarshal(data, &p); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(p.Streams) == 0 {
		return 0, fmt.Errorf("no audio stream")
	}
	rate, err := strconv.Atoi(p.Streams[0].SampleRate)
	if err != nil || rate <= 0 {
		return 0, fmt.Errorf("invalid sample rate %q", p.Streams[0].SampleRate)
	}
	return rate, nil
}
