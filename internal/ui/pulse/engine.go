// Package pulse drives the visual buzz that stands in for device vibration on
// desktops: the alarm window and tray icon flash in a phone-like rhythm.
package pulse

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"fyne.io/fyne/v2"
)

// Range defines a duration range with random sampling.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Random returns a random duration within the range.
func (value Range) Random(rng *rand.Rand) time.Duration {
	if value.Max <= value.Min {
		return value.Min
	}
	delta := value.Max - value.Min
	return value.Min + time.Duration(rng.Int63n(int64(delta)))
}

// Config contains pulse timing values.
type Config struct {
	Buzz             Range
	Gap              Range
	BurstCount       int
	Rest             Range
	DoubleBuzzChance float64
}

// Frames are the two resources the engine alternates between.
type Frames struct {
	On  fyne.Resource
	Off fyne.Resource
}

// Engine plays the pulse pattern until stopped. It implements the alarm
// haptic channel.
type Engine struct {
	mu      sync.Mutex
	config  Config
	frames  Frames
	update  func(fyne.Resource)
	enabled bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates an enabled pulse engine.
func New(config Config, frames Frames, update func(fyne.Resource)) *Engine {
	return &Engine{
		config:  config,
		frames:  frames,
		update:  update,
		enabled: true,
	}
}

// SetEnabled turns pulsing on or off. Disabling stops an active pulse.
func (engine *Engine) SetEnabled(enabled bool) {
	engine.mu.Lock()
	engine.enabled = enabled
	engine.mu.Unlock()
	if !enabled {
		_ = engine.StopVibration()
	}
}

// Trigger starts pulsing. A running pulse is restarted.
func (engine *Engine) Trigger() error {
	engine.mu.Lock()
	enabled := engine.enabled
	engine.mu.Unlock()
	if !enabled || engine.update == nil {
		return nil
	}

	engine.halt()

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	engine.mu.Lock()
	engine.cancel = cancel
	engine.done = done
	engine.mu.Unlock()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	go func() {
		defer close(done)
		engine.run(runCtx, rng)
	}()
	return nil
}

// StopVibration stops pulsing and leaves the Off frame showing.
func (engine *Engine) StopVibration() error {
	if engine.halt() && engine.update != nil {
		engine.update(engine.frames.Off)
	}
	return nil
}

// Active reports whether a pulse is running.
func (engine *Engine) Active() bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.cancel != nil
}

// halt cancels the running pulse and waits for it to exit.
func (engine *Engine) halt() bool {
	engine.mu.Lock()
	cancel, done := engine.cancel, engine.done
	engine.cancel, engine.done = nil, nil
	engine.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	<-done
	return true
}

func (engine *Engine) run(ctx context.Context, rng *rand.Rand) {
	burst := engine.config.BurstCount
	if burst < 1 {
		burst = 1
	}
	for {
		for i := 0; i < burst; i++ {
			if !engine.buzz(ctx, rng) {
				return
			}
		}
		if rng.Float64() < engine.config.DoubleBuzzChance {
			if !engine.buzz(ctx, rng) {
				return
			}
		}
		if !sleepWithContext(ctx, engine.config.Rest.Random(rng)) {
			return
		}
	}
}

func (engine *Engine) buzz(ctx context.Context, rng *rand.Rand) bool {
	engine.update(engine.frames.On)
	if !sleepWithContext(ctx, engine.config.Buzz.Random(rng)) {
		return false
	}
	engine.update(engine.frames.Off)
	return sleepWithContext(ctx, engine.config.Gap.Random(rng))
}

func sleepWithContext(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
