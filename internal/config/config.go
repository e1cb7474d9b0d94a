// Package config loads gateway settings from defaults, an optional config
// file, a .env file and the environment, in increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces the gateway's own environment variables
// (LLM_GATEWAY_SERVER_PORT, LLM_GATEWAY_LOG_LEVEL, ...).
// Backend credentials keep their conventional unprefixed names.
const EnvPrefix = "LLM_GATEWAY"

// Config holds runtime configuration for the gateway.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Thinking  ThinkingConfig  `mapstructure:"thinking"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"` // 0: streams may run long
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ThinkingConfig points at an optional replacement for the embedded thinking table.
type ThinkingConfig struct {
	TablePath string `mapstructure:"table_path"`
}

// ProvidersConfig holds per-backend settings.
type ProvidersConfig struct {
	Gemini    KeyConfig    `mapstructure:"gemini"`
	XAI       KeyConfig    `mapstructure:"xai"`
	Anthropic KeyConfig    `mapstructure:"anthropic"`
	Ollama    OllamaConfig `mapstructure:"ollama"`
	Lorem     LoremConfig  `mapstructure:"lorem"`
}

// KeyConfig is a backend authenticated by API key. An empty key leaves the
// backend mounted but unavailable.
type KeyConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// OllamaConfig locates the Ollama server.
type OllamaConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// LoremConfig toggles the mock backend.
type LoremConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

// credentialEnv binds config keys to the environment names backends document.
var credentialEnv = map[string]string{
	"providers.gemini.api_key":    "GEMINI_API_KEY",
	"providers.xai.api_key":       "XAI_API_KEY",
	"providers.anthropic.api_key": "ANTHROPIC_API_KEY",
	"providers.ollama.base_url":   "OLLAMA_BASE_URL",
	"providers.ollama.model":      "OLLAMA_MODEL",
}

// Option adjusts the viper instance before it is read. The CLI uses it to
// bind flags.
type Option func(*viper.Viper)

// WithOverride sets a value that wins over every other source.
func WithOverride(key string, value any) Option {
	return func(v *viper.Viper) { v.Set(key, value) }
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", time.Duration(0))
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("thinking.table_path", "")

	v.SetDefault("providers.gemini.api_key", "")
	v.SetDefault("providers.xai.api_key", "")
	v.SetDefault("providers.anthropic.api_key", "")
	v.SetDefault("providers.ollama.base_url", "http://localhost:11434")
	v.SetDefault("providers.ollama.model", "")
	v.SetDefault("providers.lorem.enabled", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load builds a Config. path may be empty; when set, the file must exist.
// A .env file found by LoadEnv is applied to the process environment first.
func Load(path string, opts ...Option) (*Config, error) {
	LoadEnv()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range credentialEnv {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for _, opt := range opts {
		opt(v)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format must be 'text' or 'json', got %q", c.Log.Format)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
