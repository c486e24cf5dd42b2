package preferences

import (
	"strconv"
	"time"

	"napkeeper/internal/platform"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const maxShorterWarning = "Max is shorter than the nap: the max timer will end every nap."

// Window handles the preferences UI.
type Window struct {
	window        fyne.Window
	settings      Settings
	onSave        func(Settings)
	onCancel      func()
	holdRelease   *widget.Entry
	nap           *widget.Entry
	maxNap        *widget.Entry
	maxFromHold   *widget.Check
	alarmSound    *widget.Select
	soundFile     *widget.Entry
	volume        *widget.Slider
	vibration     *widget.Check
	notifications *widget.Check
	fullscreen    *widget.Check
	launchAtLogin *widget.Check
	warning       *widget.Label
}

// New creates a preferences window.
func New(app fyne.App, settings Settings, onSave func(Settings)) *Window {
	window := app.NewWindow("NapKeeper Settings")

	prefs := &Window{
		window:        window,
		onSave:        onSave,
		holdRelease:   widget.NewEntry(),
		nap:           widget.NewEntry(),
		maxNap:        widget.NewEntry(),
		maxFromHold:   widget.NewCheck("Start max timer on first press", nil),
		alarmSound:    widget.NewSelect(platform.AlarmSounds(), nil),
		soundFile:     widget.NewEntry(),
		volume:        widget.NewSlider(MinVolume, MaxVolume),
		vibration:     widget.NewCheck("Flash alarm window (vibration)", nil),
		notifications: widget.NewCheck("Backup notification", nil),
		fullscreen:    widget.NewCheck("Fullscreen alarm", nil),
		launchAtLogin: widget.NewCheck("Launch at login", nil),
		warning:       widget.NewLabel(""),
	}
	prefs.volume.Step = 0.25
	prefs.soundFile.SetPlaceHolder("WAV file (optional)")
	prefs.warning.Wrapping = fyne.TextWrapWord
	prefs.warning.Importance = widget.WarningImportance
	prefs.nap.OnChanged = func(string) { prefs.refreshWarning() }
	prefs.maxNap.OnChanged = func(string) { prefs.refreshWarning() }

	browse := widget.NewButton("Browse...", func() {
		open := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil || reader == nil {
				return
			}
			defer reader.Close()
			prefs.soundFile.SetText(reader.URI().Path())
		}, window)
		open.SetFilter(storage.NewExtensionFileFilter([]string{".wav"}))
		open.Show()
	})

	form := container.NewVBox(
		widget.NewLabelWithStyle("Timers", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Release countdown"), prefs.holdRelease, widget.NewLabel("sec")),
		container.NewHBox(widget.NewLabel("Nap length"), prefs.nap, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Max nap"), prefs.maxNap, widget.NewLabel("min")),
		prefs.maxFromHold,
		prefs.warning,
		widget.NewLabelWithStyle("Alarm", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Sound"), prefs.alarmSound),
		container.NewBorder(nil, nil, nil, browse, prefs.soundFile),
		widget.NewLabel("Volume"),
		prefs.volume,
		prefs.vibration,
		prefs.notifications,
		prefs.fullscreen,
		widget.NewSeparator(),
		prefs.launchAtLogin,
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", func() {
		window.Hide()
		if prefs.onCancel != nil {
			prefs.onCancel()
		}
	})
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(440, 520))
	window.SetCloseIntercept(func() {
		window.Hide()
	})

	prefs.UpdateSettings(settings)
	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// SetOnCancel sets the handler run when the user discards changes.
func (prefs *Window) SetOnCancel(handler func()) {
	prefs.onCancel = handler
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	prefs.holdRelease.SetText(strconv.Itoa(int(settings.HoldRelease / time.Second)))
	prefs.nap.SetText(strconv.Itoa(int(settings.Nap / time.Minute)))
	prefs.maxNap.SetText(strconv.Itoa(int(settings.Max / time.Minute)))
	prefs.maxFromHold.SetChecked(settings.MaxFromHold)
	prefs.alarmSound.SetSelected(settings.AlarmSound)
	prefs.soundFile.SetText(settings.SoundFile)
	prefs.volume.SetValue(settings.Volume)
	prefs.vibration.SetChecked(settings.Vibration)
	prefs.notifications.SetChecked(settings.Notifications)
	prefs.fullscreen.SetChecked(settings.FullscreenAlarm)
	prefs.launchAtLogin.SetChecked(settings.LaunchAtLogin)
	prefs.refreshWarning()
}

func (prefs *Window) handleSave() {
	settings := prefs.collect()
	prefs.settings = settings
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

// collect reads the form. Unparseable fields keep their previous value.
func (prefs *Window) collect() Settings {
	settings := prefs.settings

	if seconds, ok := parsePositiveInt(prefs.holdRelease.Text); ok {
		settings.HoldRelease = time.Duration(seconds) * time.Second
	}
	if minutes, ok := parsePositiveInt(prefs.nap.Text); ok {
		settings.Nap = time.Duration(minutes) * time.Minute
	}
	if minutes, ok := parsePositiveInt(prefs.maxNap.Text); ok {
		settings.Max = time.Duration(minutes) * time.Minute
	}

	settings.MaxFromHold = prefs.maxFromHold.Checked
	if prefs.alarmSound.Selected != "" {
		settings.AlarmSound = prefs.alarmSound.Selected
	}
	settings.SoundFile = prefs.soundFile.Text
	settings.Volume = prefs.volume.Value
	settings.Vibration = prefs.vibration.Checked
	settings.Notifications = prefs.notifications.Checked
	settings.FullscreenAlarm = prefs.fullscreen.Checked
	settings.LaunchAtLogin = prefs.launchAtLogin.Checked
	return settings
}

func (prefs *Window) refreshWarning() {
	if prefs.collect().SessionConfig().MaxShorterThanNap() {
		prefs.warning.SetText(maxShorterWarning)
		prefs.warning.Show()
		return
	}
	prefs.warning.SetText("")
	prefs.warning.Hide()
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
