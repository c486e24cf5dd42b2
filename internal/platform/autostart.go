package platform

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrLoginItemConfig indicates a LoginItem without a name or executable.
var ErrLoginItemConfig = errors.New("login item needs a name and executable path")

// LoginItem registers the application to start when the user logs in.
type LoginItem struct {
	Name     string
	ExecPath string

	// Directory lookups, replaceable in tests.
	homeDir   func() (string, error)
	configDir func() (string, error)
}

// NewLoginItem describes the login entry for execPath.
func NewLoginItem(name, execPath string) *LoginItem {
	return &LoginItem{
		Name:      name,
		ExecPath:  execPath,
		homeDir:   os.UserHomeDir,
		configDir: ConfigDir,
	}
}

// Set enables or disables launching at login.
func (item *LoginItem) Set(enabled bool) error {
	if item.Name == "" || (enabled && item.ExecPath == "") {
		return ErrLoginItemConfig
	}
	if enabled {
		if err := item.enable(); err != nil {
			return fmt.Errorf("enable launch at login: %w", err)
		}
		return nil
	}
	if err := item.disable(); err != nil {
		return fmt.Errorf("disable launch at login: %w", err)
	}
	return nil
}

// ConfigDir returns the OS-standard configuration directory.
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err == nil && configDir != "" {
		return configDir, nil
	}

	homeDir, homeErr := os.UserHomeDir()
	if homeErr != nil {
		if err != nil {
			return "", fmt.Errorf("get config dir: %w", err)
		}
		return "", fmt.Errorf("get config dir: %w", homeErr)
	}

	return fallbackConfigDir(homeDir), nil
}

func slugName(appName string) string {
	name := strings.ToLower(strings.TrimSpace(appName))
	return strings.ReplaceAll(name, " ", "-")
}
