// Package config loads the user-level bower configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ForgeConfig selects the code-hosting forge used for pull requests.
type ForgeConfig struct {
	Type string `toml:"type"` // "github" or "gitlab"
	Host string `toml:"host"` // optional enterprise host
}

// Config holds the bower configuration.
type Config struct {
	WorkspaceRoot string            `toml:"workspace_root"` // default workspace when not inferable from cwd
	DefaultBase   string            `toml:"default_base"`   // base ref used when create omits one
	CacheDir      string            `toml:"cache_dir"`      // overrides <workspace>/cache
	Preserve      []string          `toml:"preserve"`       // ignored-file patterns copied into new worktrees
	Forge         ForgeConfig       `toml:"forge"`
	Hosts         map[string]string `toml:"hosts"` // domain -> forge type mapping
}

// DefaultBase is used when neither the config file nor the command line
// names a base reference.
const DefaultBase = "main"

// Default returns the default configuration.
func Default() Config {
	return Config{
		DefaultBase: DefaultBase,
		Forge:       ForgeConfig{Type: "github"},
	}
}

// ValidatePath checks that the path is absolute or starts with ~.
func ValidatePath(path, fieldName string) error {
	if path == "" {
		return nil // not configured
	}
	if path[0] == '~' {
		return nil
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be absolute or start with ~, got: %q", fieldName, path)
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	return path, nil
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "bower", "config.toml"), nil
}

// Load reads config from ~/.config/bower/config.toml.
// Returns Default() if the file doesn't exist; errors only on an
// unreadable or invalid file.
func Load() (Config, error) {
	path, err := configPath()
	if err != nil {
		return Default(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from an explicit path.
func LoadFrom(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config file: %w", err)
	}

	for field, value := range map[string]*string{
		"workspace_root": &cfg.WorkspaceRoot,
		"cache_dir":      &cfg.CacheDir,
	} {
		if err := ValidatePath(*value, field); err != nil {
			return Default(), err
		}
		expanded, err := expandPath(*value)
		if err != nil {
			return Default(), fmt.Errorf("expand %s: %w", field, err)
		}
		*value = expanded
	}

	if cfg.Forge.Type != "" && cfg.Forge.Type != "github" && cfg.Forge.Type != "gitlab" {
		return Default(), fmt.Errorf("invalid forge.type %q: must be \"github\" or \"gitlab\"", cfg.Forge.Type)
	}
	for host, forgeType := range cfg.Hosts {
		if forgeType != "github" && forgeType != "gitlab" {
			return Default(), fmt.Errorf("invalid forge type %q for host %q: must be \"github\" or \"gitlab\"", forgeType, host)
		}
	}

	if cfg.DefaultBase == "" {
		cfg.DefaultBase = DefaultBase
	}
	if cfg.Forge.Type == "" {
		cfg.Forge.Type = "github"
	}

	return cfg, nil
}
