// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/nexuslabs/nexus-cli/api/schemas"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig           `mapstructure:"logger" yaml:"logger"`
	LLM       LLMConfig              `mapstructure:"llm" yaml:"llm"`
	Pipeline  PipelineConfig         `mapstructure:"pipeline" yaml:"pipeline"`
	Workspace WorkspaceConfig        `mapstructure:"workspace" yaml:"workspace"`
	Project   schemas.ProjectContext `mapstructure:"project" yaml:"project"`
}

// LoggerConfig controls the zap logger and its optional rotated file sink.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// LLMProvider defines the supported generation providers.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
)

// LLMConfig describes the provider backends, keyed by model tier, plus the
// dedicated image model.
type LLMConfig struct {
	Provider LLMProvider    `mapstructure:"provider" yaml:"provider"`
	Fast     LLMModelConfig `mapstructure:"fast" yaml:"fast"`
	Powerful LLMModelConfig `mapstructure:"powerful" yaml:"powerful"`
	Image    LLMModelConfig `mapstructure:"image" yaml:"image"`
}

// LLMModelConfig defines the configuration for a single model endpoint.
type LLMModelConfig struct {
	Model          string            `mapstructure:"model" yaml:"model"`
	APIKey         string            `mapstructure:"api_key" yaml:"api_key"`
	Endpoint       string            `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout     time.Duration     `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature    float64           `mapstructure:"temperature" yaml:"temperature"`
	TopP           float32           `mapstructure:"top_p" yaml:"top_p"`
	TopK           int               `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens      int               `mapstructure:"max_tokens" yaml:"max_tokens"`
	ThinkingBudget int               `mapstructure:"thinking_budget" yaml:"thinking_budget"`
	MaxRetries     uint64            `mapstructure:"max_retries" yaml:"max_retries"`
	SafetyFilters  map[string]string `mapstructure:"safety_filters" yaml:"safety_filters"`
}

// PipelineConfig bounds outbound provider traffic across all sessions and
// sizes the orchestration router's classification cache.
type PipelineConfig struct {
	// RateLimit is the sustained outbound calls-per-second budget shared by
	// every session in the process. Zero disables limiting.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	// RateBurst is the limiter's burst allowance.
	RateBurst int `mapstructure:"rate_burst" yaml:"rate_burst"`
	// BreakerMaxFailures is the number of consecutive provider failures that
	// trips the circuit breaker. Zero disables the breaker.
	BreakerMaxFailures uint32 `mapstructure:"breaker_max_failures" yaml:"breaker_max_failures"`
	// BreakerCooldown is how long the breaker stays open before probing again.
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown" yaml:"breaker_cooldown"`
	// RouterCacheSize bounds the LRU cache of utterance classifications.
	RouterCacheSize int `mapstructure:"router_cache_size" yaml:"router_cache_size"`
}

// WorkspaceConfig holds per-session defaults for the agent workspace.
type WorkspaceConfig struct {
	// Memory is the initial advisory "agent memory" text seeded into every new
	// session. Operators edit it per session afterwards.
	Memory string `mapstructure:"memory" yaml:"memory"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "nexus-cli")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- LLM --
	v.SetDefault("llm.provider", string(ProviderGemini))
	v.SetDefault("llm.fast.model", "gemini-2.5-flash")
	v.SetDefault("llm.fast.api_timeout", "60s")
	v.SetDefault("llm.fast.temperature", 0.7)
	v.SetDefault("llm.fast.max_retries", 0)
	v.SetDefault("llm.powerful.model", "gemini-2.5-pro")
	v.SetDefault("llm.powerful.api_timeout", "60s")
	v.SetDefault("llm.powerful.temperature", 0.7)
	v.SetDefault("llm.powerful.thinking_budget", 4096)
	v.SetDefault("llm.powerful.max_retries", 0)
	v.SetDefault("llm.image.model", "gemini-2.5-flash-image")
	v.SetDefault("llm.image.api_timeout", "90s")
	v.SetDefault("llm.image.max_retries", 0)

	// -- Pipeline --
	v.SetDefault("pipeline.rate_limit", 5.0)
	v.SetDefault("pipeline.rate_burst", 10)
	v.SetDefault("pipeline.breaker_max_failures", 5)
	v.SetDefault("pipeline.breaker_cooldown", "30s")
	v.SetDefault("pipeline.router_cache_size", 256)

	// -- Workspace --
	v.SetDefault("workspace.memory", "")

	// -- Project --
	v.SetDefault("project.name", "Untitled Project")
	v.SetDefault("project.audience", "")
	v.SetDefault("project.tone", "")
	v.SetDefault("project.goal", "")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Bind environment variables for sensitive data.
	v.BindEnv("llm.fast.api_key", "NEXUS_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("llm.powerful.api_key", "NEXUS_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("llm.image.api_key", "NEXUS_API_KEY", "GEMINI_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field invariants that viper cannot express.
func (c *Config) Validate() error {
	if c.LLM.Provider != ProviderGemini {
		return fmt.Errorf("unsupported llm provider %q (supported: %s)", c.LLM.Provider, ProviderGemini)
	}
	for name, m := range map[string]LLMModelConfig{
		"fast": c.LLM.Fast, "powerful": c.LLM.Powerful, "image": c.LLM.Image,
	} {
		if m.Model == "" {
			return fmt.Errorf("llm.%s.model must not be empty", name)
		}
		if m.APITimeout <= 0 {
			return fmt.Errorf("llm.%s.api_timeout must be positive", name)
		}
	}
	if c.Pipeline.RateLimit < 0 {
		return fmt.Errorf("pipeline.rate_limit must not be negative")
	}
	if c.Pipeline.RouterCacheSize < 0 {
		return fmt.Errorf("pipeline.router_cache_size must not be negative")
	}
	return nil
}

// DefaultConfigDir resolves the user-level configuration directory
// (~/.config/nexus-cli), falling back to the working directory when the home
// directory cannot be determined.
func DefaultConfigDir() string {
	home, err := homedir.Dir()
	if err != nil {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return "."
		}
		return wd
	}
	return filepath.Join(home, ".config", "nexus-cli")
}
