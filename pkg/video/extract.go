package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrNoAudioTrack is returned when the video carries no audio stream.
var ErrNoAudioTrack = errors.New("video: no audio track")

// ExtractConfig controls audio extraction.
type ExtractConfig struct {
	FFmpegBin  string        // ffmpeg executable
	SampleRate int           // Output rate, 0 keeps the source rate
	Dir        string        // Directory for the temporary WAV, "" uses os.TempDir
	Timeout    time.Duration // Upper bound for one extraction, 0 disables
}

// DefaultExtractConfig returns production defaults.
func DefaultExtractConfig() ExtractConfig {
	return ExtractConfig{
		FFmpegBin:  "ffmpeg",
		SampleRate: 0,
		Timeout:    5 * time.Minute,
	}
}

// Extracted is a temporary audio file produced from a video.
type Extracted struct {
	Path string
}

// Cleanup removes the temporary file. Safe on a nil receiver.
func (e *Extracted) Cleanup() error {
	if e == nil || e.Path == "" {
		return nil
	}
	if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", e.Path, err)
	}
	return nil
}

// ExtractAudio writes the audio track of videoPath to a temporary 16-bit
// PCM WAV file. The caller owns the result and must call Cleanup.
func ExtractAudio(ctx context.Context, cfg ExtractConfig, videoPath string) (*Extracted, error) {
	if cfg.FFmpegBin == "" {
		cfg.FFmpegBin = "ffmpeg"
	}
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("video file: %w", err)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	tmp, err := os.CreateTemp(cfg.Dir, strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))+"-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp audio: %w", err)
	}
	tmp.Close()
	out := &Extracted{Path: tmp.Name()}

	args := []string{
		"-hide_banner", "-nostats", "-v", "error",
		"-y",
		"-i", videoPath,
		"-vn",                  // Drop video
		"-acodec", "pcm_s16le", // 16-bit PCM
	}
	if cfg.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(cfg.SampleRate))
	}
	args = append(args, out.Path)

	cmd := exec.CommandContext(ctx, cfg.FFmpegBin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		out.Cleanup()
		msg := strings.TrimSpace(stderr.String())
		if isMissingAudio(msg) {
			return nil, fmt.Errorf("%w: %s", ErrNoAudioTrack, videoPath)
		}
		return nil, fmt.Errorf("ffmpeg extract %s: %w: %s", videoPath, err, msg)
	}

	info, err := os.Stat(out.Path)
	if err != nil || info.Size() <= wavHeaderSize {
		out.Cleanup()
		return nil, fmt.Errorf("%w: %s", ErrNoAudioTrack, videoPath)
	}

	return out, nil
}

const wavHeaderSize = 44

func isMissingAudio(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "does not contain any stream") ||
		strings.Contains(s, "matches no streams") ||
		strings.Contains(s, "output file is empty")
}
