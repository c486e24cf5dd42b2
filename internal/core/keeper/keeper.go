// Package keeper drives a session.Machine from a clock ticker and serializes
// user events with ticks.
package keeper

import (
	"sync"
	"time"

	"napkeeper/internal/core/clock"
	"napkeeper/internal/core/model"
	"napkeeper/internal/core/session"
)

// Config contains runtime options for Keeper.
type Config struct {
	TickInterval time.Duration
	Clock        clock.Clock
}

// Keeper owns the tick loop for one nap state machine.
type Keeper struct {
	mu       sync.Mutex
	machine  *session.Machine
	options  Config
	events   []chan session.Event
	stopCh   chan struct{}
	running  bool
	lastTick time.Time
}

// New wraps machine. The machine must not be used directly afterwards.
func New(machine *session.Machine, options Config) *Keeper {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}

	keeper := &Keeper{
		machine: machine,
		options: options,
	}
	// Machine callbacks only run while keeper.mu is held.
	machine.Observe(keeper.emitLocked)
	return keeper
}

// Subscribe registers a new observer channel. Events are dropped for
// subscribers whose buffer is full.
func (keeper *Keeper) Subscribe(buffer int) <-chan session.Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan session.Event, buffer)
	keeper.mu.Lock()
	keeper.events = append(keeper.events, ch)
	keeper.mu.Unlock()
	return ch
}

// Start launches the ticking loop.
func (keeper *Keeper) Start() {
	keeper.mu.Lock()
	if keeper.running {
		keeper.mu.Unlock()
		return
	}
	keeper.running = true
	keeper.stopCh = make(chan struct{})
	keeper.lastTick = keeper.options.Clock.Now()
	ticker := keeper.options.Clock.NewTicker(keeper.options.TickInterval)
	stopCh := keeper.stopCh
	keeper.mu.Unlock()

	go keeper.run(ticker, stopCh)
}

// Stop terminates the ticking loop and closes observers. A stopped keeper
// can be started again; earlier subscribers stay closed.
func (keeper *Keeper) Stop() {
	keeper.mu.Lock()
	if !keeper.running {
		keeper.mu.Unlock()
		return
	}
	close(keeper.stopCh)
	keeper.running = false
	events := keeper.events
	keeper.events = nil
	keeper.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

// PressDown forwards a hold-pad press.
func (keeper *Keeper) PressDown() error {
	return keeper.apply((*session.Machine).PressDown)
}

// Release forwards a hold-pad release.
func (keeper *Keeper) Release() error {
	return keeper.apply((*session.Machine).Release)
}

// Skip jumps to the alarm.
func (keeper *Keeper) Skip() error {
	return keeper.apply((*session.Machine).Skip)
}

// Dismiss stops the alarm.
func (keeper *Keeper) Dismiss() error {
	return keeper.apply((*session.Machine).Dismiss)
}

// UpdateConfig changes durations for countdowns started afterwards.
func (keeper *Keeper) UpdateConfig(config model.SessionConfig) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.machine.UpdateConfig(config)
}

// SessionConfig returns the active durations.
func (keeper *Keeper) SessionConfig() model.SessionConfig {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.machine.Config()
}

// Snapshot brings the countdowns up to date with the clock and returns the
// observable state.
func (keeper *Keeper) Snapshot() session.Snapshot {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.syncLocked(keeper.options.Clock.Now())
	return keeper.machine.Snapshot()
}

func (keeper *Keeper) apply(event func(*session.Machine) error) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.syncLocked(keeper.options.Clock.Now())
	return event(keeper.machine)
}

func (keeper *Keeper) run(ticker clock.Ticker, stopCh <-chan struct{}) {
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C():
			keeper.tick(keeper.options.Clock.Now())
		}
	}
}

func (keeper *Keeper) tick(now time.Time) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.syncLocked(now)
}

// syncLocked advances the machine by the monotonic time since the last sync.
func (keeper *Keeper) syncLocked(now time.Time) {
	if !keeper.running {
		return
	}
	delta := now.Sub(keeper.lastTick)
	if delta <= 0 {
		return
	}
	keeper.lastTick = now
	keeper.machine.Tick(delta)
}

func (keeper *Keeper) emitLocked(event session.Event) {
	events := append([]chan session.Event(nil), keeper.events...)
	for _, ch := range events {
		select {
		case ch <- event:
		default:
		}
	}
}
