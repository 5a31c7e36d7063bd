// Package config layers screenlog's runtime configuration the way the
// teacher's internal/config package layers CoreConfig over ProjectConfig
// over environment overrides (allaspectsdev-tokenman/internal/config):
// built-in defaults, then an optional YAML file, then environment
// variables, then explicit CLI flags — each later layer overriding the
// fields it sets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults mirror the constants the teacher keeps alongside its Config
// type (internal/config/types.go DefaultLLMProvider/DefaultLLMModel/...).
const (
	DefaultLLMProvider         = "openai"
	DefaultLLMModel            = "gpt-4o-mini"
	DefaultLLMBaseURL          = "https://api.openai.com/v1"
	DefaultPHashCap            = 10000
	DefaultPHashWindow         = 100
	DefaultPHashThreshold      = 5
	DefaultRecentContextN      = 5
	DefaultRunningSummaryEvery = 10
	DefaultProfileUpdateEvery  = 100
	DefaultProfileHistoryCap   = 100
	DefaultChatHistoryTurns    = 10
	DefaultExtractionRetries   = 3
)

// Config is screenlog's resolved runtime configuration.
type Config struct {
	DataDir string `mapstructure:"data_dir"`
	LogLevel string `mapstructure:"log_level"`

	LLMProvider string `mapstructure:"llm_provider"`
	LLMModel    string `mapstructure:"llm_model"`
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`

	PHashCap            int `mapstructure:"phash_cap"`
	PHashWindow         int `mapstructure:"phash_window"`
	PHashThreshold      int `mapstructure:"phash_threshold"`
	RecentContextN      int `mapstructure:"recent_context_n"`
	RunningSummaryEvery int `mapstructure:"running_summary_every"`
	ProfileUpdateEvery  int `mapstructure:"profile_update_every"`
	ProfileHistoryCap   int `mapstructure:"profile_history_cap"`
	ChatHistoryTurns    int `mapstructure:"chat_history_turns"`
	ExtractionRetries   int `mapstructure:"extraction_retries"`
}

// Default returns the built-in baseline configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:             filepath.Join(home, ".screenlog"),
		LogLevel:            "info",
		LLMProvider:         DefaultLLMProvider,
		LLMModel:            DefaultLLMModel,
		BaseURL:             DefaultLLMBaseURL,
		PHashCap:            DefaultPHashCap,
		PHashWindow:         DefaultPHashWindow,
		PHashThreshold:      DefaultPHashThreshold,
		RecentContextN:      DefaultRecentContextN,
		RunningSummaryEvery: DefaultRunningSummaryEvery,
		ProfileUpdateEvery:  DefaultProfileUpdateEvery,
		ProfileHistoryCap:   DefaultProfileHistoryCap,
		ChatHistoryTurns:    DefaultChatHistoryTurns,
		ExtractionRetries:   DefaultExtractionRetries,
	}
}

// Load resolves Config from defaults, an optional config file
// (~/.config/screenlog/config.yaml), SCREENLOG_* environment variables, and
// finally the explicit dataDirFlag/apiKeyFlag overrides from the CLI (empty
// strings are treated as "not set").
func Load(dataDirFlag, apiKeyFlag string) (Config, error) {
	def := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "screenlog"))
	}

	v.SetEnvPrefix("SCREENLOG")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v, def)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = resolveProviderAPIKey(cfg.LLMProvider)
	}

	if strings.TrimSpace(dataDirFlag) != "" {
		cfg.DataDir = dataDirFlag
	}
	if strings.TrimSpace(apiKeyFlag) != "" {
		cfg.APIKey = apiKeyFlag
	}

	expanded, err := expandHome(cfg.DataDir)
	if err != nil {
		return Config{}, err
	}
	cfg.DataDir = expanded

	return cfg, nil
}

func setDefaults(v *viper.Viper, def Config) {
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("llm_provider", def.LLMProvider)
	v.SetDefault("llm_model", def.LLMModel)
	v.SetDefault("base_url", def.BaseURL)
	v.SetDefault("api_key", def.APIKey)
	v.SetDefault("phash_cap", def.PHashCap)
	v.SetDefault("phash_window", def.PHashWindow)
	v.SetDefault("phash_threshold", def.PHashThreshold)
	v.SetDefault("recent_context_n", def.RecentContextN)
	v.SetDefault("running_summary_every", def.RunningSummaryEvery)
	v.SetDefault("profile_update_every", def.ProfileUpdateEvery)
	v.SetDefault("profile_history_cap", def.ProfileHistoryCap)
	v.SetDefault("chat_history_turns", def.ChatHistoryTurns)
	v.SetDefault("extraction_retries", def.ExtractionRetries)
}

// resolveProviderAPIKey falls back to a provider-specific environment
// variable (OPENAI_API_KEY, ANTHROPIC_API_KEY, ...) when SCREENLOG_API_KEY
// is unset, matching spec.md §6's "a model-provider API key" env var.
func resolveProviderAPIKey(provider string) string {
	switch strings.ToLower(provider) {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai", "":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return os.Getenv(strings.ToUpper(provider) + "_API_KEY")
	}
}

func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolving home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// RecordingsDir returns <dataDir>/recordings if it exists, else dataDir
// itself, per spec.md §4.1.
func RecordingsDir(dataDir string) string {
	candidate := filepath.Join(dataDir, "recordings")
	if info, err := os.Stat(candidate); err == nil && info.IsDir() {
		return candidate
	}
	return dataDir
}

// Touch returns the current time; extracted so tests can avoid real-time
// dependence where needed.
func Touch() time.Time { return time.Now() }
