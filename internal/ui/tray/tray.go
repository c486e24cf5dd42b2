package tray

import (
	"fmt"

	"napkeeper/internal/core/session"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnShow        func()
	OnPreferences func()
	OnSkip        func()
	OnDismiss     func()
	OnQuit        func()
}

// Manager handles system tray state.
type Manager struct {
	app         desktop.App
	statusItem  *fyne.MenuItem
	showItem    *fyne.MenuItem
	prefsItem   *fyne.MenuItem
	skipItem    *fyne.MenuItem
	dismissItem *fyne.MenuItem
	quitItem    *fyne.MenuItem
	callbacks   Callbacks
	phase       session.Phase
	statusLabel string
}

// New creates a tray manager with the provided callbacks. app may be nil
// on platforms without a system tray.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
		phase:     session.PhaseIdle,
	}

	manager.statusItem = fyne.NewMenuItem("Status: idle", nil)
	manager.statusItem.Disabled = true

	manager.showItem = fyne.NewMenuItem("Show nap pad", func() {
		if manager.callbacks.OnShow != nil {
			manager.callbacks.OnShow()
		}
	})

	manager.prefsItem = fyne.NewMenuItem("Preferences", func() {
		if manager.callbacks.OnPreferences != nil {
			manager.callbacks.OnPreferences()
		}
	})

	manager.skipItem = fyne.NewMenuItem("Skip to alarm", func() {
		if manager.callbacks.OnSkip != nil {
			manager.callbacks.OnSkip()
		}
	})

	manager.dismissItem = fyne.NewMenuItem("Dismiss alarm", func() {
		if manager.callbacks.OnDismiss != nil {
			manager.callbacks.OnDismiss()
		}
	})

	manager.quitItem = fyne.NewMenuItem("Quit", func() {
		if manager.callbacks.OnQuit != nil {
			manager.callbacks.OnQuit()
		}
	})
	manager.quitItem.IsQuit = true

	manager.applyPhase()
	manager.refreshMenu()
	return manager
}

// SetStatus updates the status label.
func (manager *Manager) SetStatus(status string) {
	if manager.statusLabel == status {
		return
	}
	manager.statusLabel = status
	manager.refreshStatus()
}

// SetPhase enables the actions that apply to the given phase.
func (manager *Manager) SetPhase(phase session.Phase) {
	if manager.phase == phase {
		return
	}
	manager.phase = phase
	manager.applyPhase()
	manager.refreshStatus()
}

// Menu returns the current tray menu.
func (manager *Manager) Menu() *fyne.Menu {
	return fyne.NewMenu("NapKeeper",
		manager.statusItem,
		fyne.NewMenuItemSeparator(),
		manager.showItem,
		manager.skipItem,
		manager.dismissItem,
		fyne.NewMenuItemSeparator(),
		manager.prefsItem,
		manager.quitItem,
	)
}

func (manager *Manager) applyPhase() {
	switch manager.phase {
	case session.PhaseHolding, session.PhaseReleasing, session.PhaseNapping:
		manager.skipItem.Disabled = false
		manager.dismissItem.Disabled = true
	case session.PhaseAlarming:
		manager.skipItem.Disabled = true
		manager.dismissItem.Disabled = false
	default:
		manager.skipItem.Disabled = true
		manager.dismissItem.Disabled = true
	}
}

func (manager *Manager) refreshStatus() {
	status := string(manager.phase)
	if manager.statusLabel != "" {
		status = fmt.Sprintf("%s, %s", status, manager.statusLabel)
	}
	manager.statusItem.Label = fmt.Sprintf("Status: %s", status)
	manager.refreshMenu()
}

func (manager *Manager) refreshMenu() {
	if manager.app != nil {
		manager.app.SetSystemTrayMenu(manager.Menu())
	}
}
