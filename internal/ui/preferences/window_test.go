package preferences

import (
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
)

func TestSaveCollectsForm(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	var saved *Settings
	prefs := New(app, DefaultSettings(), func(settings Settings) {
		saved = &settings
	})

	prefs.holdRelease.SetText("5")
	prefs.nap.SetText("15")
	prefs.maxNap.SetText("not a number")
	prefs.maxFromHold.SetChecked(true)
	prefs.alarmSound.SetSelected("gentle")
	prefs.vibration.SetChecked(false)
	prefs.launchAtLogin.SetChecked(true)
	prefs.handleSave()

	if saved == nil {
		t.Fatal("onSave not called")
	}
	if saved.HoldRelease != 5*time.Second || saved.Nap != 15*time.Minute {
		t.Fatalf("saved timers = %v / %v", saved.HoldRelease, saved.Nap)
	}
	if saved.Max != 30*time.Minute {
		t.Fatalf("invalid max should keep previous value, got %v", saved.Max)
	}
	if !saved.MaxFromHold || !saved.LaunchAtLogin || saved.AlarmSound != "gentle" || saved.Vibration {
		t.Fatalf("saved = %+v", *saved)
	}
}

func TestWarningWhenMaxShorterThanNap(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	prefs := New(app, DefaultSettings(), nil)
	if prefs.warning.Visible() {
		t.Fatal("warning shown for default settings")
	}

	prefs.nap.SetText("45")
	if !prefs.warning.Visible() || prefs.warning.Text != maxShorterWarning {
		t.Fatalf("warning = %q visible=%v", prefs.warning.Text, prefs.warning.Visible())
	}

	prefs.maxNap.SetText("60")
	if prefs.warning.Visible() {
		t.Fatal("warning should clear once max exceeds nap")
	}
}
