/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/recordkv/pkg/remote"
	"github.com/ssargent/recordkv/pkg/store"
)

// Config represents the recordkv configuration
type Config struct {
	DataDir  string      `yaml:"data_dir"`
	Variant  VariantName `yaml:"variant"`
	Port     int         `yaml:"port"`
	Bind     string      `yaml:"bind"`
	Store    Store       `yaml:"store"`
	Scan     Scan        `yaml:"scan"`
	Remote   Remote      `yaml:"remote"`
	Security Security    `yaml:"security"`
	Logging  Logging     `yaml:"logging"`
}

// VariantName is the engine selector as written in the file. Both the
// numeric form (0, 1, 2) and the engine name are accepted.
type VariantName string

// UnmarshalYAML keeps the raw scalar so that `variant: 1` and
// `variant: log` both decode.
func (v *VariantName) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("variant must be a scalar, got %s", node.Tag)
	}
	*v = VariantName(node.Value)
	return nil
}

// Parse resolves the selector to an engine.
func (v VariantName) Parse() (store.Variant, error) {
	return store.ParseVariant(string(v))
}

// Store contains engine durability settings
type Store struct {
	Sync          bool          `yaml:"sync"`
	FsyncInterval time.Duration `yaml:"fsync_interval"`
}

// Scan contains scan assembly settings
type Scan struct {
	Workers int `yaml:"workers"` // 0 means GOMAXPROCS
}

// Remote points the CLI at a running server instead of a local engine
type Remote struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
	Format   string        `yaml:"format"`
}

// Security contains security-related configuration
type Security struct {
	ClientAPIKey string `yaml:"client_api_key"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ConfigError reports a configuration value that cannot be used
type ConfigError struct {
	Field  string
	Reason string
	Err    error // underlying cause, if any
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Variant: "0",
		Port:    8080,
		Bind:    "127.0.0.1",
		Remote: Remote{
			Timeout: remote.DefaultTimeout,
			Format:  string(remote.FormatJSON),
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the values that would otherwise fail later at open or
// listen time.
func (c *Config) Validate() error {
	variant, err := c.Variant.Parse()
	if err != nil {
		return &ConfigError{Field: "variant", Reason: err.Error()}
	}

	if c.Remote.Endpoint == "" && variant != store.VariantMemory {
		if c.DataDir == "" {
			return &ConfigError{Field: "data_dir", Reason: "must be set"}
		}
		info, err := os.Stat(c.DataDir)
		switch {
		case err == nil && !info.IsDir():
			return &ConfigError{Field: "data_dir", Reason: fmt.Sprintf("%s is not a directory", c.DataDir)}
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return &ConfigError{Field: "data_dir", Reason: err.Error(), Err: err}
		}
	}

	if c.Port < 0 || c.Port > 65535 {
		return &ConfigError{Field: "port", Reason: fmt.Sprintf("%d is out of range", c.Port)}
	}
	if c.Store.FsyncInterval < 0 {
		return &ConfigError{Field: "store.fsync_interval", Reason: "must not be negative"}
	}
	if c.Scan.Workers < 0 {
		return &ConfigError{Field: "scan.workers", Reason: "must not be negative"}
	}
	if c.Remote.Timeout < 0 {
		return &ConfigError{Field: "remote.timeout", Reason: "must not be negative"}
	}

	switch remote.Format(strings.ToLower(c.Remote.Format)) {
	case "", remote.FormatJSON, remote.FormatMsgpack:
	default:
		return &ConfigError{Field: "remote.format", Reason: fmt.Sprintf("unknown format %q", c.Remote.Format)}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return &ConfigError{Field: "logging.level", Reason: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return &ConfigError{Field: "logging.format", Reason: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}

	return nil
}

// LoadConfig loads configuration from the specified path. Keys missing from
// the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a default configuration with a fresh client API key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	clientAPIKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate client API key: %w", err)
	}
	config.Security.ClientAPIKey = clientAPIKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./recordkv.yaml"
	}

	// For Linux/macOS, use ~/.config/recordkv/config.yaml
	configDir := filepath.Join(homeDir, ".config", "recordkv")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
