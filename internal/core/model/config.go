package model

import (
	"fmt"
	"time"

	"napkeeper/internal/core/countdown"
)

// SessionConfig holds the user-configured durations for one nap session.
type SessionConfig struct {
	HoldRelease time.Duration
	Nap         time.Duration
	Max         time.Duration

	// MaxFromHold starts the failsafe at the first press-down instead of
	// the first release.
	MaxFromHold bool
}

// Validate reports the first non-positive duration.
func (config SessionConfig) Validate() error {
	if config.HoldRelease <= 0 {
		return fmt.Errorf("hold release %v: %w", config.HoldRelease, countdown.ErrInvalidDuration)
	}
	if config.Nap <= 0 {
		return fmt.Errorf("nap %v: %w", config.Nap, countdown.ErrInvalidDuration)
	}
	if config.Max <= 0 {
		return fmt.Errorf("max %v: %w", config.Max, countdown.ErrInvalidDuration)
	}
	return nil
}

// MaxShorterThanNap reports a configuration where the failsafe always wins.
// The core tolerates it; the UI surfaces it as a warning.
func (config SessionConfig) MaxShorterThanNap() bool {
	return config.Max < config.HoldRelease+config.Nap
}
