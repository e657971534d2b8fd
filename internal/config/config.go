// Package config handles application configuration using Viper.
// Settings come from a YAML file, ANALYST_-prefixed environment variables
// and built-in defaults, merged in that priority order and loaded into
// structs rather than accessed as raw key-value pairs.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/nexusdash/analyst-service/internal/model"
)

// MissingKeyPolicy controls what happens when no credential can be resolved
// for the selected provider.
type MissingKeyPolicy string

const (
	// PolicyFallback silently serves the static demo report. Default, for a
	// frictionless first run without any keys configured.
	PolicyFallback MissingKeyPolicy = "fallback"
	// PolicyError serves the demo report with an explicit configuration
	// error message asking the user to supply a key.
	PolicyError MissingKeyPolicy = "error"
)

// Config is the root configuration struct.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Search    SearchConfig    `mapstructure:"search"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

type AuthConfig struct {
	APIKeys   []string `mapstructure:"api_keys"`
	AdminKeys []string `mapstructure:"admin_keys"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ProviderConfig is one vendor's credential slot and model selection.
type ProviderConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// ProvidersConfig holds one slot per vendor.
type ProvidersConfig struct {
	Gemini   ProviderConfig `mapstructure:"gemini"`
	DeepSeek ProviderConfig `mapstructure:"deepseek"`
	Kimi     ProviderConfig `mapstructure:"kimi"`
	Zhipu    ProviderConfig `mapstructure:"zhipu"`
	Baidu    ProviderConfig `mapstructure:"baidu"`
}

// ForProvider returns the configured slot for a provider. The DeepSeek
// reasoner variant shares the DeepSeek credential.
func (p ProvidersConfig) ForProvider(id model.ProviderID) ProviderConfig {
	switch id {
	case model.ProviderGemini:
		return p.Gemini
	case model.ProviderDeepSeek, model.ProviderDeepSeekReasoner:
		return p.DeepSeek
	case model.ProviderKimi:
		return p.Kimi
	case model.ProviderZhipu:
		return p.Zhipu
	case model.ProviderBaidu:
		return p.Baidu
	default:
		return ProviderConfig{}
	}
}

type SearchConfig struct {
	APIKey    string `mapstructure:"api_key"`
	SecretKey string `mapstructure:"secret_key"`
	BaseURL   string `mapstructure:"base_url"`
	Simulate  bool   `mapstructure:"simulate"`
}

type AnalysisConfig struct {
	// DefaultProvider is used when a request names none.
	DefaultProvider string `mapstructure:"default_provider"`
	// MissingKeyPolicy: "fallback" or "error".
	MissingKeyPolicy MissingKeyPolicy `mapstructure:"missing_key_policy"`
	// RatePerMinute limits outbound LLM calls across the whole process.
	RatePerMinute int `mapstructure:"rate_per_minute"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.database_path", "./storage/analyst-service.db")
	v.SetDefault("auth.api_keys", []string{})
	v.SetDefault("auth.admin_keys", []string{})
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	// Secret-bearing keys need explicit empty defaults: viper only binds
	// AutomaticEnv overrides for keys it already knows about, so without
	// these the ANALYST_PROVIDERS_*_API_KEY variables would be dropped.
	v.SetDefault("providers.gemini.api_key", "")
	v.SetDefault("providers.deepseek.api_key", "")
	v.SetDefault("providers.kimi.api_key", "")
	v.SetDefault("providers.zhipu.api_key", "")
	v.SetDefault("providers.baidu.api_key", "")
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.secret_key", "")
	v.SetDefault("providers.gemini.model", "gemini-2.5-flash")
	v.SetDefault("providers.deepseek.model", "deepseek-chat")
	v.SetDefault("providers.kimi.model", "kimi-k2-0905-preview")
	v.SetDefault("providers.zhipu.model", "glm-4.6")
	v.SetDefault("providers.baidu.model", "ernie-bot-4")
	v.SetDefault("search.base_url", "https://aip.baidubce.com/rest/2.0/search/solr/v1/web")
	v.SetDefault("search.simulate", false)
	v.SetDefault("analysis.default_provider", string(model.ProviderGemini))
	v.SetDefault("analysis.missing_key_policy", string(PolicyFallback))
	v.SetDefault("analysis.rate_per_minute", 10)
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("log.level", "info")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// A missing config file is fine; defaults plus env cover everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Environment variables override everything.
	// ANALYST_ prefix + nested keys: ANALYST_PROVIDERS_GEMINI_API_KEY, etc.
	v.SetEnvPrefix("ANALYST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Analysis.MissingKeyPolicy != PolicyFallback && cfg.Analysis.MissingKeyPolicy != PolicyError {
		return nil, fmt.Errorf("invalid analysis.missing_key_policy %q", cfg.Analysis.MissingKeyPolicy)
	}
	if !model.ValidProvider(cfg.Analysis.DefaultProvider) {
		return nil, fmt.Errorf("invalid analysis.default_provider %q", cfg.Analysis.DefaultProvider)
	}

	return &cfg, nil
}

// Address returns the listen address string like "0.0.0.0:8080".
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
