package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"napkeeper/internal/core/alarm"
	"napkeeper/internal/core/keeper"
	"napkeeper/internal/core/session"
	"napkeeper/internal/platform"
	"napkeeper/internal/storage"
	"napkeeper/internal/ui/napwindow"
	"napkeeper/internal/ui/overlay"
	"napkeeper/internal/ui/preferences"
	"napkeeper/internal/ui/pulse"
	"napkeeper/internal/ui/tray"
	"napkeeper/resources"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
)

const (
	appName      = "NapKeeper"
	tickInterval = 250 * time.Millisecond
)

func main() {
	logger := log.New(os.Stderr, "napkeeper: ", log.LstdFlags)

	guard, err := platform.AcquireSingleInstance(appName)
	if err != nil {
		logger.Printf("single instance: %v", err)
		return
	}
	defer func() {
		_ = guard.Release()
	}()

	fyneApp := app.NewWithID("com.napkeeper.app")
	fyneApp.SetIcon(resources.MustIcon(resources.IconLogo))
	desktopApp, hasTray := fyneApp.(desktop.App)

	settings := preferences.DefaultSettings()
	settingsStore, err := storage.NewSettingsStore(appName)
	if err != nil {
		logger.Printf("settings: %v", err)
	} else if loaded, err := settingsStore.Load(); err != nil {
		logger.Printf("settings: %v", err)
	} else {
		settings = loaded
	}

	loginItem := newLoginItem(logger)
	if settings.LaunchAtLogin {
		syncLoginItem(loginItem, true, logger)
	}

	alarmWindow := overlay.New(fyneApp, overlay.Config{Fullscreen: settings.FullscreenAlarm})

	idleIcon := resources.MustIcon(resources.IconIdle)
	nappingIcon := resources.MustIcon(resources.IconNapping)
	alarmOn := resources.MustIcon(resources.IconAlarmOn)
	alarmOff := resources.MustIcon(resources.IconAlarmOff)

	pulseEngine := pulse.New(pulse.DefaultConfig(), pulse.Frames{On: alarmOn, Off: alarmOff}, func(frame fyne.Resource) {
		fyne.Do(func() {
			alarmWindow.SetPulse(frame, frame == alarmOn)
			if hasTray {
				desktopApp.SetSystemTrayIcon(frame)
			}
		})
	})
	pulseEngine.SetEnabled(settings.Vibration)

	soundPlayer := platform.NewSoundPlayer(settings.Volume)
	notifier := platform.NewNotifier(mainThreadSender{app: fyneApp}, nil, appName, "Time to wake up")
	notifier.SetEnabled(settings.Notifications)

	armer := alarm.NewArmer(alarm.Players{
		Sound:        soundPlayer,
		Haptics:      pulseEngine,
		Notification: notifier,
	}, alarm.Options{AlarmID: settings.AlarmID(), Logger: logger})

	machine, err := session.New(settings.SessionConfig(), armer, session.Options{})
	if err != nil {
		logger.Printf("settings rejected, using defaults: %v", err)
		settings = preferences.DefaultSettings()
		machine, err = session.New(settings.SessionConfig(), armer, session.Options{})
		if err != nil {
			logger.Fatalf("session: %v", err)
		}
	}
	napKeeper := keeper.New(machine, keeper.Config{TickInterval: tickInterval})

	report := func(action string, err error) {
		if err != nil && !errors.Is(err, session.ErrIgnoredEvent) {
			logger.Printf("%s: %v", action, err)
		}
	}

	var prefsWindow *preferences.Window
	napWindow := napwindow.New(fyneApp, napwindow.Callbacks{
		OnPress:   func() { report("press", napKeeper.PressDown()) },
		OnRelease: func() { report("release", napKeeper.Release()) },
		OnSkip:    func() { report("skip", napKeeper.Skip()) },
		OnPreferences: func() {
			prefsWindow.Show()
		},
	})
	alarmWindow.SetOnDismiss(func() {
		report("dismiss", napKeeper.Dismiss())
	})

	prefsWindow = preferences.New(fyneApp, settings, func(updated preferences.Settings) {
		if err := napKeeper.UpdateConfig(updated.SessionConfig()); err != nil {
			logger.Printf("preferences: %v", err)
			prefsWindow.UpdateSettings(settings)
			return
		}
		previous := settings
		settings = updated
		armer.SetAlarmID(settings.AlarmID())
		soundPlayer.SetVolume(settings.Volume)
		pulseEngine.SetEnabled(settings.Vibration)
		notifier.SetEnabled(settings.Notifications)
		alarmWindow.UpdateConfig(overlay.Config{Fullscreen: settings.FullscreenAlarm})
		if updated.LaunchAtLogin != previous.LaunchAtLogin {
			syncLoginItem(loginItem, updated.LaunchAtLogin, logger)
		}
		if settingsStore != nil {
			if err := settingsStore.Save(settings); err != nil {
				logger.Printf("settings: %v", err)
			}
		}
	})

	quit := func() {
		napKeeper.Stop()
		armer.Disarm()
		fyneApp.Quit()
	}

	var trayApp desktop.App
	if hasTray {
		trayApp = desktopApp
	}
	trayManager := tray.New(trayApp, tray.Callbacks{
		OnShow:        napWindow.Show,
		OnPreferences: prefsWindow.Show,
		OnSkip:        func() { report("skip", napKeeper.Skip()) },
		OnDismiss:     func() { report("dismiss", napKeeper.Dismiss()) },
		OnQuit:        quit,
	})
	if hasTray {
		desktopApp.SetSystemTrayIcon(idleIcon)
		desktopApp.SetSystemTrayWindow(napWindow.Window())
	} else {
		napWindow.Window().SetCloseIntercept(quit)
	}

	if settingsStore != nil {
		historyPath := filepath.Join(filepath.Dir(settingsStore.Path()), "history.db")
		if err := os.MkdirAll(filepath.Dir(historyPath), 0o755); err != nil {
			logger.Printf("history: %v", err)
		} else if history, err := storage.NewSQLiteHistory(historyPath); err != nil {
			logger.Printf("history: %v", err)
		} else {
			defer history.Close()
			refreshHistory := func() {
				stats, err := history.Stats()
				if err != nil {
					logger.Printf("history: %v", err)
					return
				}
				fyne.Do(func() {
					napWindow.SetHistory(stats)
				})
			}
			recorder := storage.NewRecorder(history, napKeeper.SessionConfig, logger)
			recorder.SetOnSaved(func(storage.NapRecord) { refreshHistory() })
			go recorder.Run(napKeeper.Subscribe(32))
			refreshHistory()
		}
	}

	view := &sessionView{
		napWindow:   napWindow,
		alarmWindow: alarmWindow,
		trayManager: trayManager,
		setTrayIcon: func(icon fyne.Resource) {
			if hasTray {
				desktopApp.SetSystemTrayIcon(icon)
			}
		},
		idleIcon:    idleIcon,
		nappingIcon: nappingIcon,
		alarmIcon:   alarmOn,
	}
	events := napKeeper.Subscribe(64)
	go func() {
		for event := range events {
			fyne.Do(func() {
				view.handle(event)
			})
		}
	}()

	guard.Serve(func() {
		fyne.Do(napWindow.Show)
	})

	napKeeper.Start()
	napWindow.Show()
	fyneApp.Run()
	napKeeper.Stop()
}

// sessionView applies session events to the windows and tray. It only runs
// on the fyne goroutine.
type sessionView struct {
	napWindow   *napwindow.Window
	alarmWindow *overlay.Window
	trayManager *tray.Manager
	setTrayIcon func(fyne.Resource)
	idleIcon    fyne.Resource
	nappingIcon fyne.Resource
	alarmIcon   fyne.Resource
	startedAt   time.Time
}

func (view *sessionView) handle(event session.Event) {
	snapshot := event.Snapshot
	view.napWindow.Update(snapshot)
	view.trayManager.SetPhase(snapshot.Phase)

	switch event.Type {
	case session.EventPhaseChange:
		if event.Previous == session.PhaseIdle {
			view.startedAt = event.At
		}
		switch event.Phase {
		case session.PhaseIdle:
			view.setTrayIcon(view.idleIcon)
			view.trayManager.SetStatus("")
		case session.PhaseHolding, session.PhaseReleasing, session.PhaseNapping:
			view.setTrayIcon(view.nappingIcon)
		case session.PhaseAlarming:
			view.setTrayIcon(view.alarmIcon)
		}
	case session.EventProgress:
		view.trayManager.SetStatus(progressStatus(snapshot))
	case session.EventAlarmRaised:
		view.trayManager.SetStatus("")
		view.alarmWindow.Show(overlay.Alarm{
			Reason: event.Reason,
			Slept:  event.At.Sub(view.startedAt),
			At:     event.At,
		})
	case session.EventAlarmDismissed:
		view.alarmWindow.Hide()
	}
}

func progressStatus(snapshot session.Snapshot) string {
	switch snapshot.Phase {
	case session.PhaseReleasing:
		return "nap starts in " + formatRemaining(snapshot.Release)
	case session.PhaseNapping:
		remaining := snapshot.Nap
		if snapshot.MaxActive && snapshot.Max < remaining {
			remaining = snapshot.Max
		}
		return "wake in " + formatRemaining(remaining)
	default:
		return ""
	}
}

func formatRemaining(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	seconds := int(remaining.Seconds())
	minutes := seconds / 60
	seconds = seconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

func newLoginItem(logger *log.Logger) *platform.LoginItem {
	execPath, err := os.Executable()
	if err != nil {
		logger.Printf("launch at login: %v", err)
	}
	return platform.NewLoginItem(appName, execPath)
}

func syncLoginItem(item *platform.LoginItem, enabled bool, logger *log.Logger) {
	if err := item.Set(enabled); err != nil {
		logger.Printf("launch at login: %v", err)
	}
}

// mainThreadSender hands notifications to fyne on its own goroutine.
type mainThreadSender struct {
	app fyne.App
}

func (sender mainThreadSender) SendNotification(notification *fyne.Notification) {
	fyne.Do(func() {
		sender.app.SendNotification(notification)
	})
}
