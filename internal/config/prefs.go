package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"quit-tracker/internal/models"

	"github.com/BurntSushi/toml"
)

// Prefs holds quitctl preferences.
type Prefs struct {
	General    GeneralPrefs    `toml:"general"`
	Appearance AppearancePrefs `toml:"appearance"`
	Watch      WatchPrefs      `toml:"watch"`
}

// GeneralPrefs holds the defaults for the global flags.
type GeneralPrefs struct {
	DBPath   string `toml:"db_path"`
	Username string `toml:"username,omitempty"`
}

// AppearancePrefs holds the terminal theme.
type AppearancePrefs struct {
	Theme string `toml:"theme"`
}

// WatchPrefs holds settings for the live dashboard.
type WatchPrefs struct {
	IntervalSeconds int `toml:"interval_seconds"`
}

// DefaultPrefs returns the preferences used when no file exists.
func DefaultPrefs() Prefs {
	return Prefs{
		General:    GeneralPrefs{DBPath: "quit-tracker.db"},
		Appearance: AppearancePrefs{Theme: models.DefaultTheme},
		Watch:      WatchPrefs{IntervalSeconds: 60},
	}
}

// PrefsDir returns the XDG-compliant config directory.
func PrefsDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "quit-tracker")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "quit-tracker")
}

// PrefsPath returns the full path to the preferences file.
func PrefsPath() string {
	return filepath.Join(PrefsDir(), "config.toml")
}

// LoadPrefs reads the preferences file, returning defaults if it doesn't exist.
func LoadPrefs() (Prefs, error) {
	return LoadPrefsFrom(PrefsPath())
}

// LoadPrefsFrom reads preferences from path.
func LoadPrefsFrom(path string) (Prefs, error) {
	p := DefaultPrefs()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return p, fmt.Errorf("reading preferences: %w", err)
	}

	if err := toml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing preferences: %w", err)
	}
	return p, nil
}

// SavePrefs writes the preferences to the default path.
func SavePrefs(p Prefs) error {
	return SavePrefsTo(PrefsPath(), p)
}

// SavePrefsTo writes the preferences to path, creating its directory.
func SavePrefsTo(path string, p Prefs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating preferences file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(p)
}
