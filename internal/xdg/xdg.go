// Package xdg resolves XDG Base Directory paths for invops.
// Configuration lives under $XDG_CONFIG_HOME/invops, falling back to
// ~/.config/invops when the variable is unset.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under the XDG base directories.
const AppName = "invops"

// ConfigHome returns the config directory path without creating it.
func ConfigHome() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, AppName), nil
}

// ConfigDir returns the XDG config directory for invops.
// The directory is created with private permissions (0700) if missing.
func ConfigDir() (string, error) {
	dir, err := ConfigHome()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
