// Package tracking scores a presenter's on-camera behaviour frame by frame:
// how well the face stays centered (eye contact proxy) and how much the
// body moves between frames.
package tracking

import "fmt"

// Config holds all tunable parameters for the visual trackers
type Config struct {
	// Eye contact
	CenterTolerance float64 // Max horizontal face offset, as a fraction of frame width

	// Motion
	BlurKernel     int     // Gaussian kernel side (odd) applied before differencing
	PixelThreshold float64 // Intensity delta above which a pixel counts as moved

	// Scoring bands for average movement percentage
	StaticBelow    float64 // Below this the presenter is considered frozen
	ExcessiveAbove float64 // Above this the presenter moves too much
	IdealMovement  float64 // Movement percentage that earns 100
}

// DefaultConfig returns the recommended configuration
func DefaultConfig() Config {
	return Config{
		CenterTolerance: 0.30,

		BlurKernel:     21,
		PixelThreshold: 25,

		StaticBelow:    0.2,
		ExcessiveAbove: 3.0,
		IdealMovement:  1.5,
	}
}

// Validate checks that the configuration is usable
func (c Config) Validate() error {
	if c.CenterTolerance <= 0 || c.CenterTolerance > 0.5 {
		return fmt.Errorf("tracking: center tolerance %.2f out of range (0, 0.5]", c.CenterTolerance)
	}
	if c.BlurKernel <= 0 || c.BlurKernel%2 == 0 {
		return fmt.Errorf("tracking: blur kernel must be a positive odd number, got %d", c.BlurKernel)
	}
	if c.PixelThreshold <= 0 || c.PixelThreshold >= 255 {
		return fmt.Errorf("tracking: pixel threshold %.0f out of range", c.PixelThreshold)
	}
	if c.StaticBelow <= 0 || c.StaticBelow >= c.IdealMovement || c.IdealMovement >= c.ExcessiveAbove {
		return fmt.Errorf("tracking: movement bands must satisfy 0 < static < ideal < excessive")
	}
	return nil
}
