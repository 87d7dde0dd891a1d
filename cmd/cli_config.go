package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/ethpandaops/shiftgraph/pkg/configuration"
	"github.com/ethpandaops/shiftgraph/pkg/loader"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	// ErrScopesRequired is returned when the config declares no scopes
	ErrScopesRequired = errors.New("at least one scope is required")
	// ErrUnsupportedFormat is returned for an unknown plan output format
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

// CLIConfig is the configuration shared by every command
type CLIConfig struct {
	// Logging level
	Logging string `yaml:"logging" default:"warn"`

	// Paths are walked for *.yaml and *.yml declaration files
	Paths []string `yaml:"paths" default:"[\"declarations\"]"`

	configuration.Options `yaml:",inline"`

	// Workers bounds the number of variants resolved concurrently
	Workers int `yaml:"workers" default:"4"`

	// Format of the plan output, json or yaml
	Format string `yaml:"format" default:"json"`
}

// Validate validates the CLI configuration
func (c *CLIConfig) Validate() error {
	if len(c.Scopes) == 0 {
		return ErrScopesRequired
	}

	if !lo.Contains([]string{formatJSON, formatYAML}, c.Format) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, c.Format)
	}

	if c.Workers < 1 {
		c.Workers = 1
	}

	return nil
}

// LoadCLIConfig loads CLI configuration from a YAML file
func LoadCLIConfig(path string) (*CLIConfig, error) {
	if path == "" {
		path = "shiftgraph.yaml"
	}

	config := &CLIConfig{}

	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	// Try to read the file, but allow it to not exist
	yamlFile, err := os.ReadFile(path) //nolint:gosec // User-provided config file path
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return config, nil
}

// loadDefinition reads every declaration file and freezes the result
func loadDefinition(cfg *CLIConfig) (*configuration.Definition, error) {
	c := configuration.New(cfg.Options, logger)

	if err := loader.New(logger, cfg.Paths...).LoadInto(c); err != nil {
		return nil, err
	}

	return c.Freeze()
}
