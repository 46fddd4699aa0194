package audioio

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// NewLoader creates a loader for the configured backend.
// If cfg.Backend is BackendAuto, the backend is picked per file.
func NewLoader(cfg Config, logger *slog.Logger) (Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("creating audio loader",
		"backend", cfg.Backend,
		"sample_rate", cfg.SampleRate,
	)

	switch cfg.Backend {
	case BackendAuto:
		return &AutoLoader{
			ffmpeg: NewFFmpegLoader(cfg, logger),
			opus:   NewOpusLoader(cfg, logger),
		}, nil
	case BackendFFmpeg:
		return NewFFmpegLoader(cfg, logger), nil
	case BackendOpus:
		return NewOpusLoader(cfg, logger), nil
	case BackendMock:
		return NewMockLoader(Silence(1, cfg.FallbackRate)), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}
}

// AutoLoader dispatches on file extension.
type AutoLoader struct {
	ffmpeg Loader
	opus   Loader
}

// Load decodes path with the backend matching its extension.
func (a *AutoLoader) Load(ctx context.Context, path string) (Waveform, error) {
	return a.pick(path).Load(ctx, path)
}

// Name returns "auto".
func (a *AutoLoader) Name() string { return string(BackendAuto) }

func (a *AutoLoader) pick(path string) Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".opus", ".ogg":
		return a.opus
	default:
		return a.ffmpeg
	}
}
