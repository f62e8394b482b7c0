package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/marcus/academy/internal/models"
)

const configFile = ".academy/config.json"

// DefaultPollInterval is used when the config does not specify one.
const DefaultPollInterval = 2 * time.Second

// Load reads the config from disk
func Load(baseDir string) (*models.Config, error) {
	configPath := filepath.Join(baseDir, configFile)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &models.Config{}, nil
		}
		return nil, err
	}

	var cfg models.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the config to disk
func Save(baseDir string, cfg *models.Config) error {
	configPath := filepath.Join(baseDir, configFile)

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// SetServerURL records the fragment server URL the console should use.
func SetServerURL(baseDir, url string) error {
	cfg, err := Load(baseDir)
	if err != nil {
		return err
	}

	cfg.ServerURL = url
	return Save(baseDir, cfg)
}

// GetServerURL returns the configured fragment server URL, if any.
func GetServerURL(baseDir string) (string, error) {
	cfg, err := Load(baseDir)
	if err != nil {
		return "", err
	}
	return cfg.ServerURL, nil
}

// PollInterval returns the configured SSE poll interval, falling back to
// the default when unset or unparseable.
func PollInterval(cfg *models.Config) time.Duration {
	if cfg.PollInterval == "" {
		return DefaultPollInterval
	}
	d, err := time.ParseDuration(cfg.PollInterval)
	if err != nil || d <= 0 {
		return DefaultPollInterval
	}
	return d
}
