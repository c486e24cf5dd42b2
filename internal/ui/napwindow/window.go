package napwindow

import (
	"fmt"
	"time"

	"napkeeper/internal/core/session"
	"napkeeper/internal/storage"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Callbacks defines nap window action handlers.
type Callbacks struct {
	OnPress       func()
	OnRelease     func()
	OnSkip        func()
	OnPreferences func()
}

// Window is the main nap window: the hold pad plus countdown readouts.
type Window struct {
	window       fyne.Window
	pad          *HoldPad
	releaseLabel *widget.Label
	napLabel     *widget.Label
	maxLabel     *widget.Label
	historyLabel *widget.Label
	skipButton   *widget.Button
}

// New creates the nap window.
func New(app fyne.App, callbacks Callbacks) *Window {
	window := app.NewWindow("NapKeeper")

	pad := NewHoldPad()
	pad.OnPress = callbacks.OnPress
	pad.OnRelease = callbacks.OnRelease

	napWindow := &Window{
		window:       window,
		pad:          pad,
		releaseLabel: widget.NewLabel(""),
		napLabel:     widget.NewLabel(""),
		maxLabel:     widget.NewLabel(""),
		historyLabel: widget.NewLabel("No naps yet"),
		skipButton:   widget.NewButton("Wake me now", callbacks.OnSkip),
	}

	settingsButton := widget.NewButton("Settings", callbacks.OnPreferences)
	readouts := container.NewGridWithColumns(3, napWindow.releaseLabel, napWindow.napLabel, napWindow.maxLabel)
	footer := container.NewVBox(
		readouts,
		napWindow.historyLabel,
		container.NewGridWithColumns(2, napWindow.skipButton, settingsButton),
	)

	window.SetContent(container.NewBorder(nil, footer, nil, nil, pad))
	window.Resize(fyne.NewSize(360, 420))
	window.SetCloseIntercept(func() {
		window.Hide()
	})

	napWindow.Update(session.Snapshot{Phase: session.PhaseIdle})
	return napWindow
}

// Show displays the window.
func (napWindow *Window) Show() {
	napWindow.window.Show()
	napWindow.window.RequestFocus()
}

// Hide hides the window without quitting.
func (napWindow *Window) Hide() {
	napWindow.window.Hide()
}

// Window exposes the underlying fyne window.
func (napWindow *Window) Window() fyne.Window {
	return napWindow.window
}

// Update redraws the pad and readouts for a snapshot.
func (napWindow *Window) Update(snapshot session.Snapshot) {
	title, detail := describe(snapshot)
	napWindow.pad.SetStatus(title, detail)
	napWindow.releaseLabel.SetText("Release " + formatClock(snapshot.Release))
	napWindow.napLabel.SetText("Nap " + formatClock(snapshot.Nap))
	if snapshot.MaxActive || snapshot.Max > 0 {
		napWindow.maxLabel.SetText("Max " + formatClock(snapshot.Max))
	} else {
		napWindow.maxLabel.SetText("Max --:--")
	}

	switch snapshot.Phase {
	case session.PhaseHolding, session.PhaseReleasing, session.PhaseNapping:
		napWindow.skipButton.Enable()
	default:
		napWindow.skipButton.Disable()
	}
}

// SetHistory shows a one-line summary of past naps.
func (napWindow *Window) SetHistory(stats *storage.HistoryStats) {
	napWindow.historyLabel.SetText(historySummary(stats))
}

func describe(snapshot session.Snapshot) (string, string) {
	switch snapshot.Phase {
	case session.PhaseHolding:
		return "Holding", "Let go when you drift off"
	case session.PhaseReleasing:
		return "Released", "Nap starts in " + formatClock(snapshot.Release)
	case session.PhaseNapping:
		return "Napping", "Wake in " + formatClock(wakeIn(snapshot))
	case session.PhaseAlarming:
		return "Wake up", "Dismiss the alarm to finish"
	default:
		return "Press and hold", "Keep holding while you fall asleep"
	}
}

// wakeIn returns the time until whichever countdown fires first.
func wakeIn(snapshot session.Snapshot) time.Duration {
	if snapshot.MaxActive && snapshot.Max < snapshot.Nap {
		return snapshot.Max
	}
	return snapshot.Nap
}

func historySummary(stats *storage.HistoryStats) string {
	if stats == nil || stats.TotalNaps == 0 {
		return "No naps yet"
	}
	noun := "naps"
	if stats.TotalNaps == 1 {
		noun = "nap"
	}
	average := time.Duration(stats.AverageSeconds * float64(time.Second))
	return fmt.Sprintf("%d %s, average %s", stats.TotalNaps, noun, formatClock(average))
}

func formatClock(value time.Duration) string {
	if value < 0 {
		value = 0
	}
	// Round up so a countdown shows 00:01 until it actually completes.
	seconds := int((value + time.Second - 1) / time.Second)
	minutes := seconds / 60
	seconds = seconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
