// Package paths resolves configuration and data directory locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDataDirName is the CWD-relative data directory used when no
// override is active.
const DefaultDataDirName = ".geopanda-data"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "PANDA_CONFIG_DIR"
	EnvDataDir   = "PANDA_DATA_DIR"
)

// DefaultConfigDir returns the platform-specific default configuration
// directory.
//
// Linux:   $XDG_CONFIG_HOME/geopanda (fallback ~/.config/geopanda)
// macOS:   ~/Library/Application Support/geopanda
// Windows: %APPDATA%/geopanda
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "geopanda"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "geopanda"), nil
	}
	// macOS and Windows via os.UserConfigDir: ~/Library/Application Support
	// and %APPDATA% respectively.
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "geopanda"), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > PANDA_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the local-backend data directory following the
// precedence chain: flag > config file value > PANDA_DATA_DIR env >
// $(CWD)/.geopanda-data. The CWD-relative default keeps scratch data next to
// the pipeline checkout it belongs to.
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
