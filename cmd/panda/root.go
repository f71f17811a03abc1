// Root command for the panda CLI.
package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/folimar/geopanda/internal/paths"
	"github.com/folimar/geopanda/pkg/geopanda"
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagVerbose   bool
)

// resolvedConfigDir and cliConfig are set by PersistentPreRunE for all
// subcommands.
var (
	resolvedConfigDir string
	cliConfig         cliConfigValues
	logger            *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "panda",
	Short:         "panda manages versioned geodata artifacts and their pipelines",
	Version:       geopanda.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := paths.ResolveConfigDir(flagConfigDir)
		if err != nil {
			return err
		}
		resolvedConfigDir = configDir

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		cliConfig = cfg

		logger, err = newLogger(flagVerbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "local backend data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(landingCmd)
	rootCmd.AddCommand(refineCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(runsCmd)
}

// newLogger builds the CLI logger: production config at Info, --verbose
// flips to development output at Debug.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	return cfg.Build()
}

// resolveDataDir returns the data directory following the precedence chain:
// --data-dir flag > config.yaml data_dir > PANDA_DATA_DIR env > default.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, cliConfig.dataDir)
}
