package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// FileEnv names the optional TOML file applied before environment overrides.
const FileEnv = "EXPORTBRIDGE_CONFIG"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Channel   ChannelConfig   `toml:"channel"`
	Documents DocumentsConfig `toml:"documents"`
	Grants    GrantsConfig    `toml:"grants"`
	Picker    PickerConfig    `toml:"picker"`
	Writer    WriterConfig    `toml:"writer"`
	Logging   LogConfig       `toml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" toml:"port"`
	Host string `envconfig:"HOST" toml:"host"`
}

// ChannelConfig names the method channel.
type ChannelConfig struct {
	Name string `envconfig:"CHANNEL_NAME" toml:"name"`
}

// DocumentsConfig selects and configures the document provider.
type DocumentsConfig struct {
	Backend     string `envconfig:"DOCUMENTS_BACKEND" toml:"backend"` // "local" or "memory"
	Authority   string `envconfig:"DOCUMENTS_AUTHORITY" toml:"authority"`
	VolumeID    string `envconfig:"DOCUMENTS_VOLUME" toml:"volume"`
	VolumePath  string `envconfig:"DOCUMENTS_ROOT" toml:"root"`
	VolumeLabel string `envconfig:"DOCUMENTS_LABEL" toml:"label"`
}

// GrantsConfig locates the grant table.
type GrantsConfig struct {
	Path string `envconfig:"GRANTS_DB" toml:"path"`
}

// PickerConfig configures the directory chooser.
type PickerConfig struct {
	Mode       string `envconfig:"PICKER_MODE" toml:"mode"` // "manual" or "static"
	InitialDoc string `envconfig:"PICKER_INITIAL_DOC" toml:"initial_doc"`
	StaticTree string `envconfig:"PICKER_STATIC_TREE" toml:"static_tree"`
}

// WriterConfig bounds file writes.
type WriterConfig struct {
	Workers         int   `envconfig:"WRITER_WORKERS" toml:"workers"`
	MaxPayloadBytes int64 `envconfig:"WRITER_MAX_PAYLOAD_BYTES" toml:"max_payload_bytes"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" toml:"development"`
	File        string `envconfig:"LOG_FILE" toml:"file"` // empty logs to stderr
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" toml:"enabled"`
}

// Load loads configuration from the optional file named by
// EXPORTBRIDGE_CONFIG and then from environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile reads a TOML file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.applyFile(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch c.Documents.Backend {
	case "local", "memory":
	default:
		return fmt.Errorf("unknown documents backend %q", c.Documents.Backend)
	}
	switch c.Picker.Mode {
	case "manual", "static":
	default:
		return fmt.Errorf("unknown picker mode %q", c.Picker.Mode)
	}
	if c.Channel.Name == "" {
		return fmt.Errorf("channel name cannot be empty")
	}
	if c.Writer.MaxPayloadBytes < 0 {
		return fmt.Errorf("writer max payload cannot be negative")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "127.0.0.1",
		},
		Channel: ChannelConfig{
			Name: "com.vitomein.loadintel/export",
		},
		Documents: DocumentsConfig{
			Backend:     "local",
			Authority:   "com.android.externalstorage.documents",
			VolumeID:    "primary",
			VolumePath:  "/tmp/exportbridge/storage",
			VolumeLabel: "Internal storage",
		},
		Grants: GrantsConfig{
			Path: "/tmp/exportbridge/grants.db",
		},
		Picker: PickerConfig{
			Mode:       "manual",
			InitialDoc: "primary:Documents",
		},
		Writer: WriterConfig{
			Workers:         2,
			MaxPayloadBytes: 64 << 20,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
