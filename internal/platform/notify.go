package platform

import (
	"sync"
	"time"

	"napkeeper/internal/core/clock"

	"fyne.io/fyne/v2"
)

// NotificationSender delivers a notification. fyne.App satisfies it.
type NotificationSender interface {
	SendNotification(notification *fyne.Notification)
}

// Notifier schedules a single wake-up notification at a time.
type Notifier struct {
	mu      sync.Mutex
	sender  NotificationSender
	clock   clock.Clock
	title   string
	body    string
	enabled bool
	pending clock.Timer
	due     time.Time
}

// NewNotifier creates an enabled notifier.
func NewNotifier(sender NotificationSender, clk clock.Clock, title, body string) *Notifier {
	if clk == nil {
		clk = clock.Real()
	}
	return &Notifier{sender: sender, clock: clk, title: title, body: body, enabled: true}
}

// SetEnabled turns delivery on or off. Disabling drops the pending notification.
func (notifier *Notifier) SetEnabled(enabled bool) {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	notifier.enabled = enabled
	if !enabled {
		notifier.cancelLocked()
	}
}

// ScheduleAt replaces any pending notification with one due at the given time.
// A time at or before now is delivered immediately.
func (notifier *Notifier) ScheduleAt(at time.Time) error {
	notifier.mu.Lock()
	notifier.cancelLocked()
	if !notifier.enabled {
		notifier.mu.Unlock()
		return nil
	}

	delay := at.Sub(notifier.clock.Now())
	if delay <= 0 {
		notifier.mu.Unlock()
		notifier.send()
		return nil
	}

	var timer clock.Timer
	timer = notifier.clock.AfterFunc(delay, func() {
		notifier.mu.Lock()
		if notifier.pending != timer {
			notifier.mu.Unlock()
			return
		}
		notifier.pending = nil
		notifier.due = time.Time{}
		notifier.mu.Unlock()
		notifier.send()
	})
	notifier.pending = timer
	notifier.due = at
	notifier.mu.Unlock()
	return nil
}

// CancelPending drops the scheduled notification, if any.
func (notifier *Notifier) CancelPending() error {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	notifier.cancelLocked()
	return nil
}

// Due returns the pending delivery time.
func (notifier *Notifier) Due() (time.Time, bool) {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	return notifier.due, notifier.pending != nil
}

func (notifier *Notifier) cancelLocked() {
	if notifier.pending != nil {
		notifier.pending.Stop()
		notifier.pending = nil
		notifier.due = time.Time{}
	}
}

func (notifier *Notifier) send() {
	if notifier.sender == nil {
		return
	}
	notifier.sender.SendNotification(fyne.NewNotification(notifier.title, notifier.body))
}
