package preferences

import (
	"time"

	"napkeeper/internal/core/model"
	"napkeeper/internal/platform"
)

// Settings defines editable user preferences.
type Settings struct {
	HoldRelease time.Duration
	Nap         time.Duration
	Max         time.Duration
	MaxFromHold bool

	AlarmSound    string
	SoundFile     string
	Volume        float64
	Vibration     bool
	Notifications bool

	FullscreenAlarm bool
	LaunchAtLogin   bool
}

// Volume bounds, in beep's base-2 exponent.
const (
	MinVolume = -4.0
	MaxVolume = 1.0
)

// DefaultSettings returns default settings for NapKeeper.
func DefaultSettings() Settings {
	return Settings{
		HoldRelease:     10 * time.Second,
		Nap:             20 * time.Minute,
		Max:             30 * time.Minute,
		MaxFromHold:     false,
		AlarmSound:      "default",
		Volume:          0,
		Vibration:       true,
		Notifications:   true,
		FullscreenAlarm: false,
		LaunchAtLogin:   false,
	}
}

// SessionConfig converts settings to the state machine configuration.
func (settings Settings) SessionConfig() model.SessionConfig {
	return model.SessionConfig{
		HoldRelease: settings.HoldRelease,
		Nap:         settings.Nap,
		Max:         settings.Max,
		MaxFromHold: settings.MaxFromHold,
	}
}

// AlarmID returns the sound the alarm plays. A custom file wins over the
// built-in tone.
func (settings Settings) AlarmID() string {
	if settings.SoundFile != "" {
		return platform.FileAlarmPrefix + settings.SoundFile
	}
	if settings.AlarmSound == "" {
		return "default"
	}
	return settings.AlarmSound
}
