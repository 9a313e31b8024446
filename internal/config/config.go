// Package config loads the back-office configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working
// directory.
const FileName = ".backoffice.yaml"

// Config holds the tunables read from .backoffice.yaml.
type Config struct {
	// DBPath is the directory holding the SQLite database.
	DBPath string `yaml:"db_path"`
	// AllowNegativeStock permits oversells to be recorded as negative
	// stock instead of being rejected.
	AllowNegativeStock bool `yaml:"allow_negative_stock"`
	// DefaultCountry fills customer addresses with no country.
	DefaultCountry string `yaml:"default_country"`
	// Workers bounds the pool for bulk recomputes.
	Workers int `yaml:"workers"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		DBPath:             "~/.backoffice",
		AllowNegativeStock: true,
		DefaultCountry:     "Indonesia",
		Workers:            4,
	}
}

// Load reads .backoffice.yaml from dir. Returns Default when the file
// does not exist; missing keys fall back to their defaults.
func Load(dir string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	return cfg, nil
}

// Validate rejects values the rest of the system cannot work with.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	return nil
}
