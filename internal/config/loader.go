package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by [Validate] when the corresponding field is unset.
const (
	DefaultListenAddr   = ":8080"
	DefaultDownloadsDir = "downloads"
	DefaultTimeout      = 30 * time.Second
	DefaultMaxChars     = 300
	DefaultRepeatLimit  = 4
	DefaultTickInterval = 100 * time.Millisecond
)

// tokenEnvVar overrides discord.token when set.
const tokenEnvVar = "SPACEGIRL_DISCORD_TOKEN"

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies environment overrides
// and defaults, and validates the result. Useful in tests where configs are
// constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if token := os.Getenv(tokenEnvVar); token != "" {
		cfg.Discord.Token = token
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values and fills in
// defaults for unset fields. It returns a joined error listing all
// validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Discord.Token == "" {
		errs = append(errs, fmt.Errorf("discord.token is required (or set %s)", tokenEnvVar))
	}

	if cfg.Database.PostgresDSN == "" {
		errs = append(errs, errors.New("database.postgres_dsn is required"))
	}

	if cfg.TTS.DownloadsDir == "" {
		cfg.TTS.DownloadsDir = DefaultDownloadsDir
	}
	if cfg.TTS.Timeout == 0 {
		cfg.TTS.Timeout = DefaultTimeout
	} else if cfg.TTS.Timeout < 0 {
		errs = append(errs, fmt.Errorf("tts.timeout %v must be positive", cfg.TTS.Timeout))
	}
	if cfg.TTS.MaxChars == 0 {
		cfg.TTS.MaxChars = DefaultMaxChars
	} else if cfg.TTS.MaxChars < 0 {
		errs = append(errs, fmt.Errorf("tts.max_chars %d must be positive", cfg.TTS.MaxChars))
	}
	if cfg.TTS.RepeatLimit == 0 {
		cfg.TTS.RepeatLimit = DefaultRepeatLimit
	} else if cfg.TTS.RepeatLimit < 0 {
		errs = append(errs, fmt.Errorf("tts.repeat_limit %d must be positive", cfg.TTS.RepeatLimit))
	}

	if cfg.Playback.TickInterval == 0 {
		cfg.Playback.TickInterval = DefaultTickInterval
	} else if cfg.Playback.TickInterval < 0 {
		errs = append(errs, fmt.Errorf("playback.tick_interval %v must be positive", cfg.Playback.TickInterval))
	}

	return errors.Join(errs...)
}
