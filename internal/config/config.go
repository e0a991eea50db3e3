package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration. Every field can be
// overridden per-invocation by a CLI flag; the file only stores defaults.
type Config struct {
	// Source is the default calendar location (HTTP(S) URL or file path)
	// used when no -u/--source flag is given.
	Source string `yaml:"source"`

	// Timezone is the IANA zone used as the display timezone (e.g.
	// "Europe/Stockholm"). Empty means the process-local zone.
	Timezone string `yaml:"timezone"`

	// TimeoutSeconds bounds the HTTP fetch of a URL source.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// Highlight is a list of keywords; events whose title contains one are
	// rendered in the accent style. Matching is case-insensitive.
	Highlight []string `yaml:"highlight"`

	// Color toggles ANSI styling in the rendered table.
	Color bool `yaml:"color"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Source:         "",
		Timezone:       "",
		TimeoutSeconds: 15,
		Highlight:      []string{},
		Color:          true,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
	}
	if c.Highlight == nil {
		c.Highlight = []string{}
	}
}

// DefaultPath returns the default config file location under the user's
// config directory.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "weekcal", "config.yaml")
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create parent directory if needed, write
//     a default config with 0600 perms, and return the default config.
//   - If the file exists: read YAML, unmarshal, normalize defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	// Unmarshal over the defaults so keys omitted from a hand-edited file
	// keep their documented default instead of the zero value (notably
	// Color, where the zero value would silently disable styling).
	cfg := *DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Ensures the parent directory exists (0700), marshals to YAML, and writes
// atomically via a temp file + rename with final 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".weekcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up the temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the
// package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
