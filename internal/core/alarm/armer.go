// Package alarm raises and clears the wake-up alarm across its backup channels.
//
// Sound, vibration and notification are triggered independently: a failing
// channel is logged and never prevents the others from firing, and the armer
// reports itself armed regardless.
package alarm

import (
	"io"
	"log"
	"sync"
	"time"

	"napkeeper/internal/core/clock"
)

// Reason explains why the alarm was raised.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonNapComplete Reason = "nap_complete"
	ReasonMaxFailsafe Reason = "max_failsafe"
	ReasonSkipped     Reason = "skipped"
)

// SoundPlayer plays the alarm sound.
type SoundPlayer interface {
	Play(alarmID string) error
	Stop() error
}

// HapticPlayer drives the vibration channel.
type HapticPlayer interface {
	Trigger() error
	StopVibration() error
}

// NotificationScheduler delivers a wake notification at a point in time.
type NotificationScheduler interface {
	ScheduleAt(at time.Time) error
	CancelPending() error
}

// Players groups the alarm channels. Nil members are skipped.
type Players struct {
	Sound        SoundPlayer
	Haptics      HapticPlayer
	Notification NotificationScheduler
}

// Options configures an Armer.
type Options struct {
	AlarmID string
	Clock   clock.Clock
	Logger  *log.Logger
}

// Armer tracks the armed state and fans raise/disarm out to the players.
type Armer struct {
	mu        sync.Mutex
	players   Players
	alarmID   string
	clock     clock.Clock
	logger    *log.Logger
	armed     bool
	reason    Reason
	observers []func(bool)
}

// NewArmer creates a disarmed Armer.
func NewArmer(players Players, options Options) *Armer {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = log.New(io.Discard, "", 0)
	}
	if options.AlarmID == "" {
		options.AlarmID = "default"
	}
	return &Armer{
		players: players,
		alarmID: options.AlarmID,
		clock:   options.Clock,
		logger:  options.Logger,
	}
}

// OnChange registers a callback for armed state transitions.
func (armer *Armer) OnChange(handler func(armed bool)) {
	armer.mu.Lock()
	armer.observers = append(armer.observers, handler)
	armer.mu.Unlock()
}

// SetAlarmID selects the sound passed to the sound player on the next raise.
func (armer *Armer) SetAlarmID(alarmID string) {
	armer.mu.Lock()
	armer.alarmID = alarmID
	armer.mu.Unlock()
}

// Armed reports whether the alarm is currently raised.
func (armer *Armer) Armed() bool {
	armer.mu.Lock()
	defer armer.mu.Unlock()
	return armer.armed
}

// Reason returns why the current alarm was raised.
func (armer *Armer) Reason() Reason {
	armer.mu.Lock()
	defer armer.mu.Unlock()
	return armer.reason
}

// Raise arms the alarm. It returns false when already armed.
func (armer *Armer) Raise(reason Reason) bool {
	armer.mu.Lock()
	if armer.armed {
		armer.mu.Unlock()
		return false
	}
	armer.armed = true
	armer.reason = reason
	players := armer.players
	alarmID := armer.alarmID
	observers := append([]func(bool){}, armer.observers...)
	now := armer.clock.Now()
	armer.mu.Unlock()

	armer.notify(observers, true)

	if players.Sound != nil {
		if err := players.Sound.Play(alarmID); err != nil {
			armer.logger.Printf("alarm sound: %v", err)
		}
	}
	if players.Haptics != nil {
		if err := players.Haptics.Trigger(); err != nil {
			armer.logger.Printf("alarm vibration: %v", err)
		}
	}
	if players.Notification != nil {
		if err := players.Notification.CancelPending(); err != nil {
			armer.logger.Printf("cancel backup notification: %v", err)
		}
		if err := players.Notification.ScheduleAt(now); err != nil {
			armer.logger.Printf("alarm notification: %v", err)
		}
	}
	return true
}

// Disarm clears the alarm and silences every channel. It returns false when
// nothing was armed.
func (armer *Armer) Disarm() bool {
	armer.mu.Lock()
	if !armer.armed {
		armer.mu.Unlock()
		return false
	}
	armer.armed = false
	armer.reason = ReasonNone
	players := armer.players
	observers := append([]func(bool){}, armer.observers...)
	armer.mu.Unlock()

	if players.Sound != nil {
		if err := players.Sound.Stop(); err != nil {
			armer.logger.Printf("stop alarm sound: %v", err)
		}
	}
	if players.Haptics != nil {
		if err := players.Haptics.StopVibration(); err != nil {
			armer.logger.Printf("stop vibration: %v", err)
		}
	}
	armer.cancelNotification()

	armer.notify(observers, false)
	return true
}

// ScheduleBackup asks the notification channel to wake the user at the
// projected alarm time in case the app is not in the foreground.
func (armer *Armer) ScheduleBackup(at time.Time) {
	armer.mu.Lock()
	scheduler := armer.players.Notification
	armed := armer.armed
	armer.mu.Unlock()
	if scheduler == nil || armed {
		return
	}
	if err := scheduler.CancelPending(); err != nil {
		armer.logger.Printf("cancel backup notification: %v", err)
	}
	if err := scheduler.ScheduleAt(at); err != nil {
		armer.logger.Printf("schedule backup notification: %v", err)
	}
}

// CancelBackup drops any pending backup notification.
func (armer *Armer) CancelBackup() {
	armer.cancelNotification()
}

func (armer *Armer) cancelNotification() {
	armer.mu.Lock()
	scheduler := armer.players.Notification
	armer.mu.Unlock()
	if scheduler == nil {
		return
	}
	if err := scheduler.CancelPending(); err != nil {
		armer.logger.Printf("cancel notification: %v", err)
	}
}

func (armer *Armer) notify(observers []func(bool), armed bool) {
	for _, observer := range observers {
		observer(armed)
	}
}
