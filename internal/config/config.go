// Package config loads the bot settings from the environment, an optional
// .env file and an optional TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken  string `env:"DISCORD_TOKEN,required,notEmpty"`
	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"!"`

	YtdlCookies string `env:"YTDL_COOKIES"`
	YtdlProxy   string `env:"YTDL_PROXY"`
	FFmpegPath  string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	TempParent  string `env:"TEMP_PARENT" envDefault:"/tmp"`

	LogFile  string `env:"LOG_FILE" envDefault:"discord.log"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	SearchLimit       int           `env:"SEARCH_LIMIT" envDefault:"10"`
	IdleSweepInterval time.Duration `env:"IDLE_SWEEP_INTERVAL" envDefault:"2500ms"`
	AloneTimeout      time.Duration `env:"ALONE_TIMEOUT" envDefault:"10s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"10s"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"0s"`
	SweepWorkers      int           `env:"SWEEP_WORKERS" envDefault:"4"`

	FilteredWords []string `env:"FILTERED_WORDS" envDefault:"popo" envSeparator:","`

	FetchAttempts  int           `env:"FETCH_ATTEMPTS" envDefault:"2"`
	FetchRate      float64       `env:"FETCH_RATE" envDefault:"2"`
	FetchTimeout   time.Duration `env:"FETCH_TIMEOUT" envDefault:"5m"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

// Files names the optional sources read before the process environment.
type Files struct {
	// EnvFile is loaded with godotenv; a missing file is ignored.
	EnvFile string
	// ConfigFile is a TOML file keyed by the environment variable names.
	ConfigFile string
}

// Load builds the configuration. Precedence, highest first: the process
// environment, the .env file, the TOML file, the defaults.
func Load(files Files) (*Config, error) {
	if files.EnvFile != "" {
		if err := godotenv.Load(files.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", files.EnvFile, err)
		}
	}

	vars := make(map[string]string)
	if files.ConfigFile != "" {
		fileVars, err := readTOML(files.ConfigFile)
		if err != nil {
			return nil, err
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readTOML flattens a TOML file into environment-style string values.
// Arrays become comma separated lists.
func readTOML(path string) (map[string]string, error) {
	raw := make(map[string]any)
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	vars := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case []any:
			parts := make([]string, len(val))
			for i, p := range val {
				parts[i] = fmt.Sprint(p)
			}
			vars[strings.ToUpper(k)] = strings.Join(parts, ",")
		case map[string]any:
			return nil, fmt.Errorf("read %s: key %q: tables are not supported", path, k)
		default:
			vars[strings.ToUpper(k)] = fmt.Sprint(val)
		}
	}
	return vars, nil
}

// Validate rejects settings the player cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.CommandPrefix) == "" {
		errs = append(errs, errors.New("COMMAND_PREFIX must not be empty"))
	}
	positive := []struct {
		name string
		ok   bool
	}{
		{"SEARCH_LIMIT", c.SearchLimit > 0},
		{"IDLE_SWEEP_INTERVAL", c.IdleSweepInterval > 0},
		{"ALONE_TIMEOUT", c.AloneTimeout > 0},
		{"IDLE_TIMEOUT", c.IdleTimeout > 0},
		{"SWEEP_WORKERS", c.SweepWorkers > 0},
		{"FETCH_ATTEMPTS", c.FetchAttempts > 0},
		{"FETCH_RATE", c.FetchRate > 0},
		{"FETCH_TIMEOUT", c.FetchTimeout > 0},
		{"CONNECT_TIMEOUT", c.ConnectTimeout > 0},
	}
	for _, p := range positive {
		if !p.ok {
			errs = append(errs, fmt.Errorf("%s must be positive", p.name))
		}
	}
	if c.SessionTTL < 0 {
		errs = append(errs, errors.New("SESSION_TTL must not be negative"))
	}
	return errors.Join(errs...)
}
