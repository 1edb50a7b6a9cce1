package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/focusroom/go/internal/dbconfig"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the gateway configuration. Values come from an optional YAML file and
// are then overridden by environment variables.
type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	// TokenSecret signs handshake tokens. Empty is allowed: the server starts and
	// rejects every handshake as misconfigured.
	TokenSecret string `yaml:"-"`

	Rooms     RoomsConfig     `yaml:"rooms"`
	NATS      NATSConfig      `yaml:"nats"`
	Directory DirectoryConfig `yaml:"directory"`
	CORS      CORSConfig      `yaml:"cors"`
}

type RoomsConfig struct {
	IdleTTL       time.Duration `yaml:"idle_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	Seed          []string      `yaml:"seed"`
}

type NATSConfig struct {
	URL           string `yaml:"url"` // empty disables activity publishing
	SubjectPrefix string `yaml:"subject_prefix"`
}

type DirectoryConfig struct {
	Enabled       bool            `yaml:"enabled"`
	NotifyChannel string          `yaml:"notify_channel"`
	Database      dbconfig.Config `yaml:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:     "8081",
		LogLevel: "info",
		Rooms: RoomsConfig{
			IdleTTL:       30 * time.Minute,
			SweepInterval: time.Minute,
			Seed:          []string{"default_room"},
		},
		NATS: NATSConfig{
			SubjectPrefix: "focusroom.rooms",
		},
		Directory: DirectoryConfig{
			NotifyChannel: "room_created",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load reads path (if non-empty and present) and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.Directory.Database = dbconfig.NewConfigFromEnv()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("GATEWAY_PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.TokenSecret = getEnv("SOCKET_TOKEN_SECRET", os.Getenv("NEXTAUTH_SECRET"))

	var err error
	if c.Rooms.IdleTTL, err = getEnvAsDuration("ROOM_IDLE_TTL", c.Rooms.IdleTTL); err != nil {
		return err
	}
	if c.Rooms.SweepInterval, err = getEnvAsDuration("ROOM_SWEEP_INTERVAL", c.Rooms.SweepInterval); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("ROOM_SEED"); ok {
		c.Rooms.Seed = splitList(v)
	}

	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", c.NATS.SubjectPrefix)

	if v := os.Getenv("DIRECTORY_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DIRECTORY_ENABLED %q: %w", v, err)
		}
		c.Directory.Enabled = enabled
	}
	c.Directory.NotifyChannel = getEnv("DIRECTORY_NOTIFY_CHANNEL", c.Directory.NotifyChannel)

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORS.AllowedOrigins = splitList(v)
	}
	return nil
}

// Level parses LogLevel, defaulting to info.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Addr is the listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
