// Package config provides the TOML configuration for mbsim.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"mbsim/sidechannel"
)

// Config is the complete front-end configuration.
type Config struct {
	// Emulator is the emulator binary, looked up in PATH if not absolute.
	Emulator    string   `toml:"emulator"`
	PollTimeout Timeout  `toml:"poll_timeout"`
	TapDelay    Duration `toml:"tap_delay"`
	LogFile     string   `toml:"log_file"`
	InheritEnv  bool     `toml:"inherit_env"`
	Pipes       Pipes    `toml:"pipes"`
}

// Pipes configures the side channel.
type Pipes struct {
	EventsEnv  string `toml:"events_env"`
	UpdatesEnv string `toml:"updates_env"`
	ReadChunk  int    `toml:"read_chunk"`
}

// EnvNames returns the side-channel environment variable names.
func (p Pipes) EnvNames() sidechannel.EnvNames {
	return sidechannel.EnvNames{Events: p.EventsEnv, Updates: p.UpdatesEnv}
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Emulator:    "microbit-micropython",
		PollTimeout: Timeout{200 * time.Millisecond},
		TapDelay:    Duration{200 * time.Millisecond},
		LogFile:     "mbsim.log",
		InheritEnv:  true,
		Pipes: Pipes{
			EventsEnv:  "GROK_CLIENT_PIPE",
			UpdatesEnv: "GROK_UPDATES_PIPE",
			ReadChunk:  sidechannel.DefaultChunk,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/mbsim/config.toml, falling back to
// ~/.config/mbsim/config.toml.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "mbsim", "config.toml")
}

// Load reads the configuration at path. A missing file yields the defaults.
// Environment overrides are applied either way.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()
	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes TOML on top of the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MBSIM_EMULATOR"); v != "" {
		cfg.Emulator = v
	}
	if v, ok := os.LookupEnv("MBSIM_LOG_FILE"); ok {
		cfg.LogFile = v
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Emulator == "":
		return errors.New("emulator: must be set")
	case c.PollTimeout.Duration <= 0:
		return errors.New("poll_timeout: must be positive")
	case c.Pipes.ReadChunk <= 0:
		return errors.New("pipes.read_chunk: must be positive")
	case c.Pipes.EventsEnv == "" || c.Pipes.UpdatesEnv == "":
		return errors.New("pipes: both environment variable names must be set")
	case c.Pipes.EventsEnv == c.Pipes.UpdatesEnv:
		return fmt.Errorf("pipes: events_env and updates_env are both %q", c.Pipes.EventsEnv)
	}
	return nil
}
