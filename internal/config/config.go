package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
// It is loaded from ~/.config/aksbpa/config.yaml and must never be committed
// with real secrets.
type Config struct {
	Azure      AzureConfig      `yaml:"azure"      json:"azure"`
	Store      StoreConfig      `yaml:"store"      json:"store"`
	Assessment AssessmentConfig `yaml:"assessment" json:"assessment"`
}

// AzureConfig holds optional service principal credentials. When empty, the
// Azure CLI credential and default chain are used instead.
type AzureConfig struct {
	TenantID     string `yaml:"tenant_id"     json:"tenant_id"`
	ClientID     string `yaml:"client_id"     json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
}

// StoreConfig locates the local scan history database.
type StoreConfig struct {
	// Path is the SQLite database file. Defaults to
	// ~/.config/aksbpa/history.db.
	Path string `yaml:"path" json:"path"`
}

// AssessmentConfig tunes rule evaluation.
type AssessmentConfig struct {
	// Concurrency bounds parallel rule evaluation. Defaults to 4.
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	// QueryTimeoutSeconds caps one Resource Graph query round-trip.
	// Defaults to 30.
	QueryTimeoutSeconds int `yaml:"query_timeout_seconds" json:"query_timeout_seconds"`

	// CatalogDir overrides the embedded rule catalog with a directory
	// holding recommendations.json and kql/. Empty uses the embedded set.
	CatalogDir string `yaml:"catalog_dir" json:"catalog_dir"`
}

// QueryTimeout returns the configured query timeout as a duration.
func (a AssessmentConfig) QueryTimeout() time.Duration {
	if a.QueryTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.QueryTimeoutSeconds) * time.Second
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Assessment: AssessmentConfig{
			Concurrency:         4,
			QueryTimeoutSeconds: 30,
		},
	}
}

// Dir returns the configuration directory, honouring XDG_CONFIG_HOME.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "aksbpa"), nil
}

// Path returns the absolute path of the configuration file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the configuration from path. A missing file yields Default()
// and no error; a present but malformed file is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	if cfg.Assessment.Concurrency <= 0 {
		cfg.Assessment.Concurrency = 4
	}
	return cfg, nil
}

// StorePath returns the configured history database path, defaulting to
// history.db in the config directory.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return filepath.Join(dir, "history.db"), nil
}
