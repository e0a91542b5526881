package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/tidyvault/pkg/logging"
)

const (
	configFileName   = "config.toml"
	settingsFileName = "settings.toml"
	journalFileName  = "journal.db"
)

// The xdg package resolves its directories once at init; reading the
// environment first lets tests point them elsewhere.

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	return xdg.ConfigHome
}

func stateHome() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	return xdg.StateHome
}

// ConfigDir returns the tidyvault config directory
func ConfigDir() string {
	return filepath.Join(configHome(), logging.AppDirName)
}

// StateDir returns the tidyvault state directory
func StateDir() string {
	return filepath.Join(stateHome(), logging.AppDirName)
}

// DefaultConfigFile returns the path of the user config file
func DefaultConfigFile() string {
	return filepath.Join(ConfigDir(), configFileName)
}

// DefaultSettingsFile returns the path of the settings document
func DefaultSettingsFile() string {
	return filepath.Join(ConfigDir(), settingsFileName)
}

// DefaultJournalFile returns the path of the move journal
func DefaultJournalFile() string {
	return filepath.Join(StateDir(), journalFileName)
}
