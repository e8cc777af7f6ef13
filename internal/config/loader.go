package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the base name of the configuration file.
const DefaultConfigFile = ".multicrawler"

// configFileNames are the accepted file names, in lookup order.
var configFileNames = []string{
	DefaultConfigFile + ".yaml",
	DefaultConfigFile + ".yml",
	DefaultConfigFile + ".toml",
}

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads a configuration file. Files ending in .toml are
// decoded as TOML, everything else as YAML.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &cf); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config %s: %w", path, err)
		}
		return &cf, nil
	}

	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config %s: %w", path, err)
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .multicrawler.{yaml,yml,toml} in the current directory
// 3. Look in the XDG config directory
// 4. Look in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	dirs = append(dirs, XDGConfigDir())
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}

	return findIn(dirs)
}

func findIn(dirs []string) string {
	for _, dir := range dirs {
		for _, name := range configFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}

// Load builds the effective configuration: defaults, then the config file
// (explicit path or the first one found), then environment overrides.
// An explicit path that does not exist is an error; a missing default
// file is not. The returned path is empty when no file was used.
func Load(explicitPath string, getenv func(string) string) (*Config, string, error) {
	cfg := NewConfig()

	path := FindConfigFile(explicitPath)
	if explicitPath != "" && path == "" {
		return nil, "", fmt.Errorf("%w: %s", ErrConfigNotFound, explicitPath)
	}

	if path != "" {
		file, err := LoadConfigFile(path)
		if err != nil {
			return nil, "", err
		}
		if err := file.Apply(cfg); err != nil {
			return nil, "", fmt.Errorf("invalid config file %s: %w", path, err)
		}
		cfg.ConfigFilePath = path
	}

	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}
