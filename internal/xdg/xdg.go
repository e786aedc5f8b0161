// Package xdg resolves XDG Base Directory paths for pgshim.
//
// The directories are created with private permissions on first use because
// they may hold connection settings.
package xdg

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

const appName = "pgshim"

// ConfigDir returns the XDG config directory for pgshim, falling back to
// ~/.config/pgshim when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return dir("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for pgshim, falling back to
// ~/.local/state/pgshim when XDG_STATE_HOME is unset.
func StateDir() (string, error) {
	return dir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func dir(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := homedir.Dir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	d := filepath.Join(base, appName)
	if err := os.MkdirAll(d, 0o700); err != nil { // private dir
		return "", err
	}
	return d, nil
}
