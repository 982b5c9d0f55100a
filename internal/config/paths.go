package config

import (
	"os"
	"path/filepath"
)

const appName = "nirinit"

// DataFile returns the session snapshot path under $XDG_DATA_HOME,
// creating the directory if needed.
func DataFile() (string, error) {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".local", "share")
	}
	dir = filepath.Join(dir, appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// ConfigFile returns the configuration path under $XDG_CONFIG_HOME.
// The directory is created so a first-run user can drop a config in place.
func ConfigFile() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// JournalFile returns the restore/save journal database path, colocated
// with the session snapshot.
func JournalFile() (string, error) {
	snapshot, err := DataFile()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(snapshot), "journal.db"), nil
}

func configDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config"), nil
}
