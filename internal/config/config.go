package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gitlite/internal/fsys"
)

// Config is the per-repository configuration, stored as JSON inside the
// control directory. Every field has a working default so a repository with
// no config file behaves normally.
type Config struct {
	LogLevel string `json:"log_level"` // debug, info, warn, error
	Author   string `json:"author"`
	Color    string `json:"color"` // auto, always, never
}

func Default() *Config {
	return &Config{
		LogLevel: "error",
		Color:    "auto",
	}
}

// Load reads the config file at path, falling back to defaults when the file
// is absent. Unknown fields are ignored.
func Load(fs *fsys.FS, path string) (*Config, error) {
	cfg := Default()
	if !fs.IsFile(path) {
		return cfg, nil
	}

	data, err := fs.ReadBytes(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "error"
	}
	if cfg.Color == "" {
		cfg.Color = "auto"
	}
	return cfg, nil
}

// Save writes the config back as indented JSON.
func Save(fs *fsys.FS, path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return fs.Write(path, append(data, '\n'))
}
