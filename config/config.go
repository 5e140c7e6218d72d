// Package config layers the application configuration: a YAML file in
// the user's home directory, then a .env file, then real environment
// variables. Later layers win.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything outside the game content: API access, model
// choice, and where saves land.
type Config struct {
	GeminiAPIKey string  `yaml:"gemini_api_key"`
	Model        string  `yaml:"model"`
	SavePath     string  `yaml:"save_path"`
	MusicEnabled bool    `yaml:"music_enabled"`
	Volume       float64 `yaml:"volume"`
}

// Load assembles the configuration. Every source is optional; a missing
// API key just means offline dialogue.
func Load() (*Config, error) {
	cfg := &Config{
		Model:        "",
		MusicEnabled: true,
		Volume:       0.7,
	}

	if err := loadYAML(cfg); err != nil {
		return nil, err
	}

	// .env in the working directory, if present. Errors other than
	// absence are real problems (unreadable file, bad syntax).
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: loading .env: %w", err)
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("FABLECORE_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("FABLECORE_SAVE_PATH"); v != "" {
		cfg.SavePath = v
	}

	if cfg.SavePath == "" {
		cfg.SavePath = defaultSavePath()
	}
	return cfg, nil
}

func loadYAML(cfg *Config) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	path := filepath.Join(home, ".fablecore", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

func defaultSavePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "fablecore.db"
	}
	return filepath.Join(home, ".fablecore", "saves.db")
}
