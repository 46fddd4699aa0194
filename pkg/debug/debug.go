// Package debug provides global debug logging flags
package debug

import "log/slog"

// Enabled controls whether debug logging is active
var Enabled bool

// Tracking controls whether verbose per-frame logs are shown (faces, motion ratios).
// Use --debug-frames to enable these very verbose logs
var Tracking bool

// Log emits a debug message only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		slog.Info(msg, args...)
	}
}

// TrackLog emits a per-frame message only if tracking debug mode is enabled
func TrackLog(msg string, args ...any) {
	if Tracking {
		slog.Info(msg, args...)
	}
}
