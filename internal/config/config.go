package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPrescanLines is how many lines of an encrypted file are inspected
// for comments before deciding whether it is worth decrypting
const DefaultPrescanLines = 100

// Config represents the complete sops-shell configuration
type Config struct {
	Sops  SopsConfig  `yaml:"sops"`
	Shell ShellConfig `yaml:"shell"`
	Sync  SyncConfig  `yaml:"sync"`
}

// SopsConfig configures the sops binary invocation
type SopsConfig struct {
	Binary string   `yaml:"binary"`
	Args   []string `yaml:"args"`
}

// ShellConfig configures how directive commands run
type ShellConfig struct {
	Path string            `yaml:"path"`
	Env  map[string]string `yaml:"env"`
}

// SyncConfig configures sync behavior
type SyncConfig struct {
	// PrescanLines bounds the comment prescan. Negative disables it.
	PrescanLines int `yaml:"prescan_lines"`
}

// Default returns the configuration used when no config file exists
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.expandEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// expandEnv expands environment variables in all string fields
func (c *Config) expandEnv() {
	c.Sops.Binary = os.ExpandEnv(c.Sops.Binary)
	for i, arg := range c.Sops.Args {
		c.Sops.Args[i] = os.ExpandEnv(arg)
	}
	c.Shell.Path = os.ExpandEnv(c.Shell.Path)
	for k, v := range c.Shell.Env {
		c.Shell.Env[k] = os.ExpandEnv(v)
	}
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Sops.Binary == "" {
		c.Sops.Binary = "sops"
	}
	if c.Shell.Path == "" {
		c.Shell.Path = "sh"
	}
	if c.Sync.PrescanLines == 0 {
		c.Sync.PrescanLines = DefaultPrescanLines
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Sops.Binary) == "" {
		return fmt.Errorf("sops.binary must not be blank")
	}
	if strings.TrimSpace(c.Shell.Path) == "" {
		return fmt.Errorf("shell.path must not be blank")
	}

	for name := range c.Shell.Env {
		if name == "" {
			return fmt.Errorf("shell.env contains an empty variable name")
		}
		if strings.ContainsAny(name, "= \t\n") {
			return fmt.Errorf("invalid shell.env variable name %q", name)
		}
	}

	return nil
}

// PrescanEnabled reports whether files are prescanned before decryption
func (c *Config) PrescanEnabled() bool {
	return c.Sync.PrescanLines > 0
}
