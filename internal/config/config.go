package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the tool's optional settings. Stored in
// ~/.config/mpflash/config.yaml; every field has a working default so the
// file does not need to exist.
type Config struct {
	Repo         string `yaml:"repo"`          // GitHub repo firmware releases come from
	Esptool      string `yaml:"esptool"`       // esptool executable
	TeensyLoader string `yaml:"teensy_loader"` // teensy_loader_cli executable
	Baud         string `yaml:"baud"`          // esptool baud rate
	Manifest     string `yaml:"manifest"`      // board manifest override path
}

const (
	defaultRepo = "sparkfun/micropython"
	defaultBaud = "460800"
)

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "mpflash", "config.yaml"), nil
}

// Load reads the config file, or returns defaults if it does not exist.
// The MPFLASH_REPO env var overrides the release repository either way.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return loadFrom(path)
}

func loadFrom(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if repo := os.Getenv("MPFLASH_REPO"); repo != "" {
		cfg.Repo = repo
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Save writes the config to ~/.config/mpflash/config.yaml.
func Save(cfg *Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func applyDefaults(cfg *Config) {
	if cfg.Repo == "" {
		cfg.Repo = defaultRepo
	}
	if cfg.Baud == "" {
		cfg.Baud = defaultBaud
	}
	if cfg.Esptool == "" {
		cfg.Esptool = "esptool"
	}
	if cfg.TeensyLoader == "" {
		cfg.TeensyLoader = "teensy_loader_cli"
	}
}
