package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"relocate/config"
	"relocate/internal/domain"
	"relocate/internal/usecase"
)

var (
	cfgFile  string
	cfg      *config.Config
	rootDir  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "relocate",
	Short: "Move vendored bundle output out of node_modules paths",
	Long: `relocate is a post-bundling pass. Every output file whose path contains
node_modules is moved under a label (default "external"), and every import or
require specifier that pointed at a moved file is rewritten so it still
resolves. Source maps of rewritten chunks are regenerated.

Example usage:
  relocate apply dist              # Relocate a build output directory
  relocate apply --dry-run dist    # Show what would move
  relocate manifest -i bundle.json # Relocate a JSON bundle manifest
  relocate rename node_modules/a/index.js`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if logLevel != "" {
			level = logLevel
		}
		return setupLogging(level)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("relocate failed")
		os.Exit(1)
	}
}

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./relocate.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, disabled)")
}

func setupLogging(level string) error {
	if level == "" {
		level = "info"
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

// passOptions builds the pass options from config, with a label override.
func passOptions(label string, noMaps bool) (usecase.Options, error) {
	opts := usecase.DefaultOptions()
	opts.Replacement = cfg.Relocate.Replacement
	opts.EmitSourceMaps = cfg.Relocate.SourceMaps && !noMaps
	if label != "" {
		if domain.HasMarker(label) {
			return opts, fmt.Errorf("label %q must not contain %q", label, domain.VendorMarker)
		}
		opts.Replacement = label
	}
	return opts, nil
}
