//go:build windows

package platform

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

const registryRunKey = `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`

func (item *LoginItem) enable() error {
	return runReg("add", registryRunKey, "/v", item.Name, "/t", "REG_SZ", "/d", quoteWindowsPath(item.ExecPath), "/f")
}

func (item *LoginItem) disable() error {
	if enabled, err := item.Enabled(); err == nil && !enabled {
		return nil
	}
	return runReg("delete", registryRunKey, "/v", item.Name, "/f")
}

// Enabled reports whether the Run registry value exists.
func (item *LoginItem) Enabled() (bool, error) {
	err := exec.Command("reg", "query", registryRunKey, "/v", item.Name).Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, err
}

func runReg(args ...string) error {
	output, err := exec.Command("reg", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("reg %s failed: %w: %s", args[0], err, strings.TrimSpace(string(output)))
	}
	return nil
}

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, "AppData", "Roaming")
}

func quoteWindowsPath(execPath string) string {
	trimmed := strings.Trim(execPath, `"`)
	return fmt.Sprintf(`"%s"`, trimmed)
}
