// Package config loads application configuration from config.yaml, the
// environment (NEURONEWS_ prefix), and an optional .env file.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	PubMed    PubMedConfig    `yaml:"pubmed" mapstructure:"pubmed"`
	EuropePMC EuropePMCConfig `yaml:"europepmc" mapstructure:"europepmc"`
	OpenAlex  OpenAlexConfig  `yaml:"openalex" mapstructure:"openalex"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PubMedConfig configures the E-utilities search/fetch client.
type PubMedConfig struct {
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	Query      string `yaml:"query" mapstructure:"query"`
	WindowDays int    `yaml:"window_days" mapstructure:"window_days"`
	MaxResults int    `yaml:"max_results" mapstructure:"max_results"`
}

// EuropePMCConfig configures the citation-count side channel.
type EuropePMCConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// OpenAlexConfig configures the journal impact-factor side channel.
type OpenAlexConfig struct {
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// EnrichConfig configures the enrichment pipeline.
type EnrichConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	Limit       int `yaml:"limit" mapstructure:"limit"`
}

// ServerConfig configures the read-only API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultQuery is the fixed topic query used by the fetch pipeline.
const DefaultQuery = `"Neurosurgery"[MeSH] OR "Neurosurgical Procedures"[MeSH]`

// Load reads configuration from .env, config.yaml, and the environment.
func Load() (*Config, error) {
	// .env is optional; environment wins over file values either way.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("NEURONEWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "postgres")
	// Registering env-only keys lets AutomaticEnv surface them during
	// Unmarshal even when no config file sets them.
	v.SetDefault("store.database_url", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("enrich.limit", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("pubmed.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("pubmed.query", DefaultQuery)
	v.SetDefault("pubmed.window_days", 30)
	v.SetDefault("pubmed.max_results", 200)
	v.SetDefault("europepmc.base_url", "https://www.ebi.ac.uk/europepmc/webservices/rest")
	v.SetDefault("openalex.base_url", "https://api.openalex.org")
	v.SetDefault("openalex.user_agent", "neuro-news/1.0 (mailto:noreply@example.com)")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 512)
	v.SetDefault("enrich.concurrency", 1)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
