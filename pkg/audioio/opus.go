package audioio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/hraban/opus.v2"
)

// OpusLoader decodes Ogg-Opus files in-process using libopus.
type OpusLoader struct {
	cfg    Config
	logger *slog.Logger
}

// NewOpusLoader creates an Ogg-Opus loader.
func NewOpusLoader(cfg Config, logger *slog.Logger) *OpusLoader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.OpusChannels == 0 {
		cfg.OpusChannels = 1
	}
	return &OpusLoader{cfg: cfg, logger: logger.With("backend", "opus")}
}

// Name returns "opus".
func (l *OpusLoader) Name() string { return string(BackendOpus) }

// Load decodes the whole stream at 48kHz, downmixing stereo to mono.
func (l *OpusLoader) Load(ctx context.Context, path string) (Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return Waveform{}, fmt.Errorf("audio file: %w", err)
	}
	defer f.Close()

	stream, err := opus.NewStream(f)
	if err != nil {
		return Waveform{}, fmt.Errorf("open opus stream: %w", err)
	}
	defer stream.Close()

	// Max 120ms per packet at 48kHz
	frameBuf := make([]int16, 5760*l.cfg.OpusChannels)
	var pcm []int16

	for {
		if err := ctx.Err(); err != nil {
			return Waveform{}, err
		}

		n, err := stream.Read(frameBuf)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Waveform{}, fmt.Errorf("decode opus: %w", err)
		}
		pcm = append(pcm, frameBuf[:n*l.cfg.OpusChannels]...)
	}

	if l.cfg.OpusChannels == 2 {
		pcm = StereoToMono(pcm)
	}
	if len(pcm) == 0 {
		return Waveform{}, fmt.Errorf("%w: %s", ErrNoAudio, path)
	}

	w := Waveform{Samples: SamplesToFloat(pcm), SampleRate: OpusSampleRate}
	if l.cfg.SampleRate > 0 && l.cfg.SampleRate != OpusSampleRate {
		w = w.Resampled(l.cfg.SampleRate)
	}

	l.logger.Debug("audio decoded", "path", path, "samples", len(w.Samples), "rate", w.SampleRate)
	return w, nil
}
