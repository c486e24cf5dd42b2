// Package countdown implements the one-shot timer used for every nap stage.
package countdown

import (
	"errors"
	"time"
)

// ErrInvalidDuration indicates a non-positive countdown duration.
var ErrInvalidDuration = errors.New("invalid duration")

// Countdown ticks from a duration down to zero and completes exactly once.
// It is not safe for concurrent use.
type Countdown struct {
	duration   time.Duration
	remaining  time.Duration
	running    bool
	onComplete func()
}

// New creates an idle countdown. onComplete may be nil.
func New(onComplete func()) *Countdown {
	return &Countdown{onComplete: onComplete}
}

// Start arms the countdown with a fresh duration.
func (countdown *Countdown) Start(duration time.Duration) error {
	if duration <= 0 {
		return ErrInvalidDuration
	}
	countdown.duration = duration
	countdown.remaining = duration
	countdown.running = true
	return nil
}

// Tick advances the countdown and reports whether it completed on this call.
func (countdown *Countdown) Tick(delta time.Duration) bool {
	if !countdown.running || delta <= 0 {
		return false
	}
	countdown.remaining -= delta
	if countdown.remaining > 0 {
		return false
	}
	countdown.remaining = 0
	countdown.running = false
	if countdown.onComplete != nil {
		countdown.onComplete()
	}
	return true
}

// Pause stops ticking without changing the remaining time.
func (countdown *Countdown) Pause() {
	countdown.running = false
}

// Resume continues a paused countdown. It does nothing once the countdown has
// reached zero or was never started.
func (countdown *Countdown) Resume() {
	if countdown.remaining <= 0 {
		return
	}
	countdown.running = true
}

// Reset rewinds to the full duration and stops.
func (countdown *Countdown) Reset() {
	countdown.remaining = countdown.duration
	countdown.running = false
}

// Clear forgets the duration entirely, as if Start was never called.
func (countdown *Countdown) Clear() {
	countdown.duration = 0
	countdown.remaining = 0
	countdown.running = false
}

// Duration returns the configured duration.
func (countdown *Countdown) Duration() time.Duration {
	return countdown.duration
}

// Remaining returns the time left.
func (countdown *Countdown) Remaining() time.Duration {
	return countdown.remaining
}

// Running reports whether Tick currently advances the countdown.
func (countdown *Countdown) Running() bool {
	return countdown.running
}

// Started reports whether the countdown holds a duration.
func (countdown *Countdown) Started() bool {
	return countdown.duration > 0
}

// Paused reports whether the countdown was stopped with time left.
func (countdown *Countdown) Paused() bool {
	return !countdown.running && countdown.remaining > 0
}
