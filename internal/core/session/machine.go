// Package session sequences the release, nap and max countdowns of a nap.
//
// The Machine is synchronous and holds no locks. Callers that deliver user
// events and ticks from more than one goroutine must serialize them, which is
// what package keeper does.
package session

import (
	"errors"
	"fmt"
	"time"

	"napkeeper/internal/core/alarm"
	"napkeeper/internal/core/clock"
	"napkeeper/internal/core/countdown"
	"napkeeper/internal/core/model"

	"github.com/google/uuid"
)

// ErrIgnoredEvent indicates a user event that has no effect in the current phase.
var ErrIgnoredEvent = errors.New("event ignored in current phase")

// Armer is the alarm side of the machine.
type Armer interface {
	Raise(reason alarm.Reason) bool
	Disarm() bool
	ScheduleBackup(at time.Time)
	CancelBackup()
}

// Observer receives session events.
type Observer func(Event)

// Options contains optional collaborators.
type Options struct {
	Clock clock.Clock
	NewID func() string
}

type observerEntry struct {
	id int
	fn Observer
}

// Machine is the nap session state machine.
type Machine struct {
	config     model.SessionConfig
	armer      Armer
	clock      clock.Clock
	newID      func() string
	phase      Phase
	sessionID  string
	reason     alarm.Reason
	release    *countdown.Countdown
	nap        *countdown.Countdown
	max        *countdown.Countdown
	maxStarted bool
	observers  []observerEntry
	nextID     int
}

// New creates an idle Machine after validating config.
func New(config model.SessionConfig, armer Armer, options Options) (*Machine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.NewID == nil {
		options.NewID = uuid.NewString
	}
	return &Machine{
		config:  config,
		armer:   armer,
		clock:   options.Clock,
		newID:   options.NewID,
		phase:   PhaseIdle,
		release: countdown.New(nil),
		nap:     countdown.New(nil),
		max:     countdown.New(nil),
	}, nil
}

// Observe registers an observer and returns a function that removes it.
func (machine *Machine) Observe(observer Observer) func() {
	machine.nextID++
	id := machine.nextID
	machine.observers = append(machine.observers, observerEntry{id: id, fn: observer})
	return func() {
		for i, entry := range machine.observers {
			if entry.id == id {
				machine.observers = append(machine.observers[:i], machine.observers[i+1:]...)
				return
			}
		}
	}
}

// UpdateConfig replaces the durations used by countdowns started from now on.
func (machine *Machine) UpdateConfig(config model.SessionConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("session config: %w", err)
	}
	machine.config = config
	return nil
}

// Config returns the active configuration.
func (machine *Machine) Config() model.SessionConfig {
	return machine.config
}

// Phase returns the active phase.
func (machine *Machine) Phase() Phase {
	return machine.phase
}

// Snapshot returns the observable state.
func (machine *Machine) Snapshot() Snapshot {
	return Snapshot{
		SessionID: machine.sessionID,
		Phase:     machine.phase,
		Release:   machine.release.Remaining(),
		Nap:       machine.nap.Remaining(),
		Max:       machine.max.Remaining(),
		MaxActive: machine.max.Running(),
		Reason:    machine.reason,
	}
}

// PressDown handles the user touching the hold pad.
func (machine *Machine) PressDown() error {
	switch machine.phase {
	case PhaseIdle:
		machine.beginSession()
		if machine.config.MaxFromHold {
			if err := machine.startMax(); err != nil {
				return err
			}
		}
		machine.setPhase(PhaseHolding)
		machine.scheduleBackup()
		return nil
	case PhaseHolding:
		if machine.release.Running() {
			machine.release.Pause()
		}
		return nil
	case PhaseReleasing:
		machine.release.Pause()
		machine.setPhase(PhaseHolding)
		machine.scheduleBackup()
		return nil
	default:
		return fmt.Errorf("press down while %s: %w", machine.phase, ErrIgnoredEvent)
	}
}

// Release handles the user letting go of the hold pad.
func (machine *Machine) Release() error {
	if machine.phase != PhaseHolding {
		return fmt.Errorf("release while %s: %w", machine.phase, ErrIgnoredEvent)
	}

	if machine.release.Paused() {
		machine.release.Resume()
	} else if err := machine.release.Start(machine.config.HoldRelease); err != nil {
		return fmt.Errorf("start release countdown: %w", err)
	}
	if !machine.maxStarted {
		if err := machine.startMax(); err != nil {
			return err
		}
	}

	machine.setPhase(PhaseReleasing)
	machine.scheduleBackup()
	return nil
}

// Skip jumps straight to the alarm.
func (machine *Machine) Skip() error {
	if machine.phase == PhaseAlarming {
		return fmt.Errorf("skip while %s: %w", machine.phase, ErrIgnoredEvent)
	}
	if machine.phase == PhaseIdle {
		machine.beginSession()
	}
	machine.raise(alarm.ReasonSkipped)
	return nil
}

// Dismiss stops the alarm and returns to idle.
func (machine *Machine) Dismiss() error {
	if machine.phase != PhaseAlarming {
		return fmt.Errorf("dismiss while %s: %w", machine.phase, ErrIgnoredEvent)
	}
	reason := machine.reason
	machine.armer.Disarm()
	machine.release.Clear()
	machine.nap.Clear()
	machine.max.Clear()
	machine.maxStarted = false
	machine.reason = alarm.ReasonNone

	machine.setPhase(PhaseIdle)
	machine.emit(Event{
		Type:   EventAlarmDismissed,
		Phase:  PhaseIdle,
		Reason: reason,
	})
	machine.sessionID = ""
	return nil
}

// Tick advances every active countdown by delta.
// The max countdown is checked first so it wins a tie with the nap.
func (machine *Machine) Tick(delta time.Duration) {
	if delta <= 0 {
		return
	}
	switch machine.phase {
	case PhaseHolding, PhaseReleasing, PhaseNapping:
	default:
		return
	}

	if machine.max.Tick(delta) {
		machine.raise(alarm.ReasonMaxFailsafe)
		return
	}

	switch machine.phase {
	case PhaseReleasing:
		before := machine.release.Remaining()
		if !machine.release.Tick(delta) {
			break
		}
		if err := machine.nap.Start(machine.config.Nap); err != nil {
			// Unreachable with a validated config.
			machine.raise(alarm.ReasonNapComplete)
			return
		}
		machine.setPhase(PhaseNapping)
		if overflow := delta - before; overflow > 0 && machine.nap.Tick(overflow) {
			machine.raise(alarm.ReasonNapComplete)
			return
		}
		machine.scheduleBackup()
	case PhaseNapping:
		if machine.nap.Tick(delta) {
			machine.raise(alarm.ReasonNapComplete)
			return
		}
	}

	machine.emit(Event{Type: EventProgress, Phase: machine.phase})
}

func (machine *Machine) beginSession() {
	machine.sessionID = machine.newID()
	machine.reason = alarm.ReasonNone
	machine.release.Clear()
	machine.nap.Clear()
	machine.max.Clear()
	machine.maxStarted = false
}

func (machine *Machine) startMax() error {
	if err := machine.max.Start(machine.config.Max); err != nil {
		return fmt.Errorf("start max countdown: %w", err)
	}
	machine.maxStarted = true
	return nil
}

func (machine *Machine) raise(reason alarm.Reason) {
	machine.release.Pause()
	machine.nap.Pause()
	machine.max.Pause()
	machine.reason = reason

	machine.setPhase(PhaseAlarming)
	machine.armer.Raise(reason)
	machine.emit(Event{
		Type:   EventAlarmRaised,
		Phase:  PhaseAlarming,
		Reason: reason,
	})
}

// scheduleBackup keeps the notification backup pointed at the earliest time
// the alarm can fire from the current phase.
func (machine *Machine) scheduleBackup() {
	var wake time.Duration
	switch machine.phase {
	case PhaseReleasing:
		wake = machine.release.Remaining() + machine.config.Nap
	case PhaseNapping:
		wake = machine.nap.Remaining()
	}
	if machine.max.Running() && (wake == 0 || machine.max.Remaining() < wake) {
		wake = machine.max.Remaining()
	}
	if wake <= 0 {
		machine.armer.CancelBackup()
		return
	}
	machine.armer.ScheduleBackup(machine.clock.Now().Add(wake))
}

func (machine *Machine) setPhase(phase Phase) {
	previous := machine.phase
	machine.phase = phase
	if previous == phase {
		return
	}
	machine.emit(Event{
		Type:     EventPhaseChange,
		Phase:    phase,
		Previous: previous,
		Reason:   machine.reason,
	})
}

func (machine *Machine) emit(event Event) {
	event.Snapshot = machine.Snapshot()
	if event.At.IsZero() {
		event.At = machine.clock.Now()
	}
	observers := append([]observerEntry(nil), machine.observers...)
	for _, entry := range observers {
		entry.fn(event)
	}
}
