// Package config loads service configuration from an optional YAML file with
// environment overrides. Flag overrides happen in the command layer, on top
// of what Load returns.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/scribe/internal/pipeline"
	"github.com/aretw0/scribe/pkg/adapters/duckduckgo"
	"github.com/aretw0/scribe/pkg/adapters/llm"
)

// DefaultFileName is looked up in the working directory when no --config
// path is given.
const DefaultFileName = "scribe.yaml"

// envPrefix namespaces the environment overrides, devflow style:
// SCRIBE_ADDR, SCRIBE_REDIS_ADDR, and so on.
const envPrefix = "SCRIBE_"

// Server configures the HTTP listener.
type Server struct {
	Addr string `yaml:"addr"`
}

// LLM configures the chat model adapter. A nil Temperature keeps the
// adapter's default.
type LLM struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature *float32      `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Search configures the web search adapter. Delay is mirrored into the
// pipeline configuration and wins over pipeline.search_delay.
type Search struct {
	BaseURL    string        `yaml:"base_url"`
	Delay      time.Duration `yaml:"delay"`
	MaxResults int           `yaml:"max_results"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Store selects and configures the run store.
type Store struct {
	Kind          string        `yaml:"kind"` // memory or redis
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	Prefix        string        `yaml:"prefix"`
	TTL           time.Duration `yaml:"ttl"`

	// EncryptionKey, hex-encoded 32 bytes, seals run records at rest when
	// set. RedactPatterns mask matches in stored error and document text.
	EncryptionKey  string   `yaml:"encryption_key"`
	RedactPatterns []string `yaml:"redact_patterns"`
}

// Archive configures where completed documents are written.
type Archive struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Config is the full service configuration.
type Config struct {
	Server   Server          `yaml:"server"`
	LLM      LLM             `yaml:"llm"`
	Search   Search          `yaml:"search"`
	Pipeline pipeline.Config `yaml:"pipeline"`
	Store    Store           `yaml:"store"`
	Archive  Archive         `yaml:"archive"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // text or json
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		Server: Server{Addr: ":8080"},
		LLM: LLM{
			Model:   llm.DefaultModel,
			Timeout: llm.DefaultTimeout,
		},
		Search: Search{
			Delay:      time.Second,
			MaxResults: duckduckgo.DefaultMaxResults,
			Timeout:    30 * time.Second,
		},
		Pipeline:  pipeline.DefaultConfig(),
		Store:     Store{Kind: "memory", RedisAddr: "localhost:6379"},
		Archive:   Archive{Enabled: true, Dir: "."},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads the YAML file at path over the defaults, layers environment
// overrides on top, and validates the result. An empty path falls back to
// DefaultFileName when that file exists and skips the file step otherwise;
// an explicit path that cannot be read is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFileName); err == nil {
			path = DefaultFileName
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.Pipeline.SearchDelay = cfg.Search.Delay

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// unmarshal decodes the YAML through an intermediate map so duration strings
// like "30s" land in time.Duration fields, which yaml alone cannot decode.
// Keys present in the file override cfg; everything else keeps its value.
func unmarshal(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     cfg,
		TagName:    "yaml",
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v := os.Getenv(envPrefix + key); v != "" {
			*dst = v
		}
	}
	str("ADDR", &c.Server.Addr)
	str("LLM_BASE_URL", &c.LLM.BaseURL)
	str("LLM_API_KEY", &c.LLM.APIKey)
	str("LLM_MODEL", &c.LLM.Model)
	str("STORE", &c.Store.Kind)
	str("REDIS_ADDR", &c.Store.RedisAddr)
	str("REDIS_PASSWORD", &c.Store.RedisPassword)
	str("STORE_PREFIX", &c.Store.Prefix)
	str("ENCRYPTION_KEY", &c.Store.EncryptionKey)
	str("ARCHIVE_DIR", &c.Archive.Dir)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)

	if v := os.Getenv(envPrefix + "REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_DB: %w", envPrefix, err)
		}
		c.Store.RedisDB = db
	}
	if v := os.Getenv(envPrefix + "STORE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sSTORE_TTL: %w", envPrefix, err)
		}
		c.Store.TTL = ttl
	}

	// The conventional OpenAI variables apply when no scribe-specific value
	// was set anywhere else.
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	return nil
}

// Validate reports the first structural problem. It does not require an API
// key: commands that never call the model (graph, version) stay usable
// without one.
func (c Config) Validate() error {
	switch c.Store.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("store kind %q: must be memory or redis", c.Store.Kind)
	}
	if c.Store.Kind == "redis" && c.Store.RedisAddr == "" {
		return fmt.Errorf("redis store needs an address")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log format %q: must be text or json", c.LogFormat)
	}
	if c.Store.EncryptionKey != "" {
		if _, err := c.Store.EncryptionKeyBytes(); err != nil {
			return err
		}
	}
	for _, p := range c.Store.RedactPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("redact pattern %q: %w", p, err)
		}
	}
	if c.Search.Delay < 0 {
		return fmt.Errorf("search delay must not be negative")
	}
	return nil
}

// Level parses LogLevel into a slog.Level.
func (c Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
}

// EncryptionKeyBytes decodes the hex-encoded key. The encryption middleware
// takes exactly 32 bytes (AES-256).
func (s Store) EncryptionKeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}
