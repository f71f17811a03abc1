// Config loading for the panda CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend    = "backend"
	cfgKeyDataDir    = "data_dir"
	cfgKeyBucket     = "bucket"
	cfgKeyRootPrefix = "root_prefix"
	cfgKeyWorkers    = "workers"

	defaultBackend = "local"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# panda CLI configuration

# Storage backend: local or gcs
backend: local

# Data directory for the local backend (optional; overridable by --data-dir)
# data_dir:

# GCS settings (required for the gcs backend; credentials come from
# GOOGLE_APPLICATION_CREDENTIALS)
# bucket:
# root_prefix:

# Worker pool size (0 = hardware parallelism minus one)
# workers: 0
`

// cliConfigValues is the subset of config.yaml the CLI consumes.
type cliConfigValues struct {
	backend    string
	dataDir    string
	bucket     string
	rootPrefix string
	workers    int
}

// loadConfig reads config.yaml from the config directory, creating the
// directory and a default file on first run. A missing config.yaml is not an
// error.
func loadConfig(configDir string) (cliConfigValues, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return cliConfigValues{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return cliConfigValues{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cliConfigValues{}, fmt.Errorf("read config: %w", err)
		}
	}

	return cliConfigValues{
		backend:    v.GetString(cfgKeyBackend),
		dataDir:    v.GetString(cfgKeyDataDir),
		bucket:     v.GetString(cfgKeyBucket),
		rootPrefix: v.GetString(cfgKeyRootPrefix),
		workers:    v.GetInt(cfgKeyWorkers),
	}, nil
}

// ensureDefaultConfigFile creates a default config.yaml if none exists.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
