package client

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adithyag/studytoolsgpt/internal/prompt"
	"gopkg.in/yaml.v3"
)

// Config holds client-side settings, read from an optional YAML file with
// environment overrides.
type Config struct {
	ServerURL string `yaml:"server_url"`
	Mode      string `yaml:"mode"`
	DBPath    string `yaml:"db_path"`
	LogPath   string `yaml:"log_path"`
}

// DefaultConfigPath returns the standard location of the client config.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "studytools", "config.yaml")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "studytools")
}

// LoadConfig reads the config file at path. A missing file yields defaults;
// a malformed one is an error. Environment variables STUDYTOOLS_SERVER_URL
// and STUDYTOOLS_MODE override file values.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		ServerURL: "http://localhost:5050",
		Mode:      prompt.DefaultModeLabel,
		DBPath:    filepath.Join(defaultDataDir(), "packs.db"),
		LogPath:   filepath.Join(defaultDataDir(), "studytools.log"),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults apply.
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if v := os.Getenv("STUDYTOOLS_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("STUDYTOOLS_MODE"); v != "" {
		cfg.Mode = v
	}

	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server_url cannot be empty")
	}
	if cfg.Mode == "" {
		cfg.Mode = prompt.DefaultModeLabel
	}
	return cfg, nil
}
