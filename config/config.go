package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// vendorMarker mirrors domain.VendorMarker; config stays free of internal imports.
const vendorMarker = "node_modules"

// StateDirName holds the ledger and the optional config file.
const StateDirName = ".relocate"

// Config holds all configuration for the relocate tool.
type Config struct {
	Relocate RelocateConfig `yaml:"relocate"`
	Output   OutputConfig   `yaml:"output"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// RelocateConfig holds the options of the relocation pass itself.
type RelocateConfig struct {
	Replacement string `yaml:"replacement"` // label substituted for node_modules
	SourceMaps  bool   `yaml:"source_maps"`
}

// OutputConfig controls how an output directory is read as a bundle.
type OutputConfig struct {
	Includes        []string `yaml:"includes"`
	Excludes        []string `yaml:"excludes"`
	Metafile        string   `yaml:"metafile"` // esbuild metafile supplying chunk imports
	ChunkExtensions []string `yaml:"chunk_extensions"`
}

// LedgerConfig holds run history configuration.
type LedgerConfig struct {
	Enabled bool `yaml:"enabled"`
	Keep    int  `yaml:"keep"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Relocate: RelocateConfig{
			Replacement: "external",
			SourceMaps:  true,
		},
		Output: OutputConfig{
			Includes:        []string{"**/*"},
			Excludes:        []string{StateDirName + "/**"},
			ChunkExtensions: []string{".js", ".mjs", ".cjs"},
		},
		Ledger: LedgerConfig{
			Enabled: true,
			Keep:    50,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for relocate.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "relocate.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, StateDirName, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Validate checks values that would make a pass misbehave.
func (c *Config) Validate() error {
	label := c.Relocate.Replacement
	if label == "" {
		return fmt.Errorf("%w: relocate.replacement is empty", ErrInvalid)
	}
	if strings.Contains(label, vendorMarker) {
		return fmt.Errorf("%w: relocate.replacement %q contains %q", ErrInvalid, label, vendorMarker)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("%w: unknown logging.level %q", ErrInvalid, c.Logging.Level)
	}

	if c.Ledger.Keep < 0 {
		return fmt.Errorf("%w: ledger.keep must not be negative", ErrInvalid)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LedgerDBPath returns the path to the run ledger database.
func LedgerDBPath(dir string) string {
	return filepath.Join(dir, StateDirName, "ledger.db")
}

// EnsureStateDir ensures the .relocate directory exists.
func EnsureStateDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, StateDirName), 0755)
}
