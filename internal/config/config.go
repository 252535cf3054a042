// ABOUTME: Configuration loading and parsing for warden
// ABOUTME: Supports YAML files with environment variable expansion and validation

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/2389/warden/internal/address"
)

// Config represents the complete warden configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Root      RootConfig      `yaml:"root"`
	Namespace NamespaceConfig `yaml:"namespace"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds capability and principal token configuration.
// The secret keys both capability handle minting and principal bearer tokens.
type AuthConfig struct {
	CapabilitySecret string `yaml:"capability_secret"`
}

// RootConfig identifies the root identity the deployment derives under.
type RootConfig struct {
	Identity string `yaml:"identity"` // 64-char hex address
}

// NamespaceConfig holds the namespace's immutable metadata, set at bootstrap.
type NamespaceConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	DisplayURI  string `yaml:"display_uri"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Auth.CapabilitySecret == "" {
		return fmt.Errorf("auth.capability_secret is required")
	}
	if c.Root.Identity == "" {
		return fmt.Errorf("root.identity is required")
	}
	if _, err := address.Parse(c.Root.Identity); err != nil {
		return fmt.Errorf("root.identity: %w", err)
	}
	if c.Namespace.Name == "" {
		return fmt.Errorf("namespace.name is required")
	}
	return nil
}

// RootAddress returns the parsed root identity. Validate must have passed.
func (c *Config) RootAddress() (address.Address, error) {
	return address.Parse(c.Root.Identity)
}
