// Package config loads the optional stashtree configuration file. Command line
// flags take precedence over anything set here.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	AppDir     = "stashtree"
	ConfigFile = "config.toml"
)

// Config mirrors the persistent command line flags.
type Config struct {
	Backend      string `toml:"backend"`       // native or gitcli
	Color        string `toml:"color"`         // auto, always or never
	Theme        string `toml:"theme"`         // auto, light or dark
	Syntax       bool   `toml:"syntax"`        // highlight diff content
	Jobs         int    `toml:"jobs"`          // parallel diff workers, 0 = one per CPU
	ContextLines int    `toml:"context_lines"` // unchanged lines around each hunk, 0 = default

	path string
}

func Default() *Config {
	return &Config{
		Backend:      "native",
		Color:        "auto",
		Theme:        "auto",
		Syntax:       true,
		ContextLines: 3,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/stashtree/config.toml, or the
// platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppDir, ConfigFile), nil
}

// Load reads the file at path on top of the defaults. An empty path means
// DefaultPath, which may be missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.path = path
	return cfg, nil
}

// Parse decodes TOML on top of the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("failed to parse config: %s", strict.String())
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if c.ContextLines < 0 {
		return fmt.Errorf("context_lines must not be negative, got %d", c.ContextLines)
	}
	return nil
}

// Path returns the file the configuration was read from, or "" for defaults.
func (c *Config) Path() string {
	return c.path
}
