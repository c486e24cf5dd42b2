package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"napkeeper/internal/platform"
	"napkeeper/internal/ui/preferences"

	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	HoldReleaseSeconds int     `yaml:"hold_release_seconds"`
	NapMinutes         int     `yaml:"nap_minutes"`
	MaxMinutes         int     `yaml:"max_minutes"`
	MaxFromHold        bool    `yaml:"max_from_hold"`
	AlarmSound         string  `yaml:"alarm_sound,omitempty"`
	SoundFile          string  `yaml:"sound_file,omitempty"`
	Volume             float64 `yaml:"volume"`
	Vibration          *bool   `yaml:"vibration"`
	Notifications      *bool   `yaml:"notifications"`
	FullscreenAlarm    bool    `yaml:"fullscreen_alarm"`
	LaunchAtLogin      bool    `yaml:"launch_at_login"`
}

// SettingsStore reads and writes preferences for one application.
type SettingsStore struct {
	path string
}

// NewSettingsStore resolves the settings file under the user config dir.
func NewSettingsStore(appName string) (*SettingsStore, error) {
	configPath, err := resolveConfigPath(appName)
	if err != nil {
		return nil, err
	}
	return &SettingsStore{path: configPath}, nil
}

// NewSettingsStoreAt uses an explicit settings file path.
func NewSettingsStoreAt(path string) *SettingsStore {
	return &SettingsStore{path: path}
}

// Path returns the settings file location.
func (store *SettingsStore) Path() string {
	return store.path
}

// Load reads user preferences from YAML.
// If the file does not exist, default settings are returned.
func (store *SettingsStore) Load() (preferences.Settings, error) {
	settings := preferences.DefaultSettings()

	rawData, err := os.ReadFile(store.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// Save writes user preferences to YAML.
func (store *SettingsStore) Save(settings preferences.Settings) error {
	if err := os.MkdirAll(filepath.Dir(store.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	vibration := settings.Vibration
	notifications := settings.Notifications
	fileData := yamlSettings{
		HoldReleaseSeconds: int(settings.HoldRelease / time.Second),
		NapMinutes:         int(settings.Nap / time.Minute),
		MaxMinutes:         int(settings.Max / time.Minute),
		MaxFromHold:        settings.MaxFromHold,
		AlarmSound:         settings.AlarmSound,
		SoundFile:          settings.SoundFile,
		Volume:             settings.Volume,
		Vibration:          &vibration,
		Notifications:      &notifications,
		FullscreenAlarm:    settings.FullscreenAlarm,
		LaunchAtLogin:      settings.LaunchAtLogin,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(store.path, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

func resolveConfigPath(appName string) (string, error) {
	configDir, err := platform.ConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

func applyYamlSettings(settings *preferences.Settings, fileData yamlSettings) {
	if fileData.HoldReleaseSeconds > 0 {
		settings.HoldRelease = time.Duration(fileData.HoldReleaseSeconds) * time.Second
	}
	if fileData.NapMinutes > 0 {
		settings.Nap = time.Duration(fileData.NapMinutes) * time.Minute
	}
	if fileData.MaxMinutes > 0 {
		settings.Max = time.Duration(fileData.MaxMinutes) * time.Minute
	}

	if fileData.Volume >= preferences.MinVolume && fileData.Volume <= preferences.MaxVolume {
		settings.Volume = fileData.Volume
	}
	if fileData.Vibration != nil {
		settings.Vibration = *fileData.Vibration
	}
	if fileData.Notifications != nil {
		settings.Notifications = *fileData.Notifications
	}

	if fileData.AlarmSound != "" {
		settings.AlarmSound = fileData.AlarmSound
	}
	settings.MaxFromHold = fileData.MaxFromHold
	settings.SoundFile = fileData.SoundFile
	settings.FullscreenAlarm = fileData.FullscreenAlarm
	settings.LaunchAtLogin = fileData.LaunchAtLogin
}
