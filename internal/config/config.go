package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	// Debug replays cached artifacts instead of calling external services.
	// It is read once here and injected into the pipeline.
	Debug      bool             `yaml:"debug" mapstructure:"debug"`
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Stages     StagesConfig     `yaml:"stages" mapstructure:"stages"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the artifact tree.
type DataConfig struct {
	Root string `yaml:"root" mapstructure:"root"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// FirecrawlConfig holds Firecrawl API settings for crawl and extract jobs.
type FirecrawlConfig struct {
	Key              string `yaml:"key" mapstructure:"key"`
	BaseURL          string `yaml:"base_url" mapstructure:"base_url"`
	CrawlLimit       int    `yaml:"crawl_limit" mapstructure:"crawl_limit"`
	PollIntervalSecs int    `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	// PollTimeoutSecs bounds crawl/extract polling. Zero waits until the job
	// reaches a terminal state.
	PollTimeoutSecs int `yaml:"poll_timeout_secs" mapstructure:"poll_timeout_secs"`
	// PollCapSecs lets the poll interval double up to this value. Zero keeps
	// the interval fixed.
	PollCapSecs int `yaml:"poll_cap_secs" mapstructure:"poll_cap_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// StageConfig tunes a single reasoning call.
type StageConfig struct {
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// StagesConfig tunes every reasoning stage.
type StagesConfig struct {
	Profile    StageConfig `yaml:"profile" mapstructure:"profile"`
	Events     StageConfig `yaml:"events" mapstructure:"events"`
	Prioritize StageConfig `yaml:"prioritize" mapstructure:"prioritize"`
	Outreach   StageConfig `yaml:"outreach" mapstructure:"outreach"`
	// CallTimeoutSecs bounds each reasoning call. Zero means no bound.
	CallTimeoutSecs int `yaml:"call_timeout_secs" mapstructure:"call_timeout_secs"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
}

// NotionConfig holds Notion API credentials for the lead database.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Username string `yaml:"username" mapstructure:"username"`
	KeyPath  string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROSPECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("debug", "PROSPECTOR_DEBUG", "DEBUG_MODE"); err != nil {
		return nil, eris.Wrap(err, "config: bind debug env")
	}

	// Defaults. Secrets get empty defaults so AutomaticEnv values reach
	// Unmarshal.
	for _, key := range []string{
		"store.database_url",
		"firecrawl.key",
		"anthropic.key",
		"notion.token",
		"notion.lead_db",
		"salesforce.client_id",
		"salesforce.username",
		"salesforce.key_path",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("debug", false)
	v.SetDefault("data.root", "data")
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit_rps", 5.0)
	v.SetDefault("server.rate_limit_burst", 10)
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("firecrawl.crawl_limit", 10)
	v.SetDefault("firecrawl.poll_interval_secs", 10)
	v.SetDefault("firecrawl.poll_timeout_secs", 0)
	v.SetDefault("firecrawl.poll_cap_secs", 0)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("stages.profile.temperature", 0.2)
	v.SetDefault("stages.profile.max_tokens", 3000)
	v.SetDefault("stages.events.temperature", 0.2)
	v.SetDefault("stages.events.max_tokens", 3000)
	v.SetDefault("stages.prioritize.temperature", 0.2)
	v.SetDefault("stages.prioritize.max_tokens", 8000)
	v.SetDefault("stages.outreach.temperature", 0.3)
	v.SetDefault("stages.outreach.max_tokens", 1000)
	v.SetDefault("stages.call_timeout_secs", 0)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")

	// Read config file (optional)
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

// Validate checks that the settings a command mode depends on are present.
// Modes: "crawl", "reasoning", "extract", "store", "serve", "notion",
// "salesforce".
func (c *Config) Validate(modes ...string) error {
	var missing []string
	for _, mode := range modes {
		switch mode {
		case "crawl", "extract":
			if !c.Debug && c.Firecrawl.Key == "" {
				missing = append(missing, "firecrawl.key")
			}
		case "reasoning":
			if !c.Debug && c.Anthropic.Key == "" {
				missing = append(missing, "anthropic.key")
			}
		case "store":
			switch c.Store.Driver {
			case "postgres":
				if c.Store.DatabaseURL == "" {
					missing = append(missing, "store.database_url")
				}
			case "sqlite":
			default:
				return eris.Errorf("config: unsupported store driver %q", c.Store.Driver)
			}
		case "serve":
			if c.Server.Port <= 0 {
				return eris.Errorf("config: server.port must be > 0, got %d", c.Server.Port)
			}
		case "notion":
			if c.Notion.Token == "" {
				missing = append(missing, "notion.token")
			}
			if c.Notion.LeadDB == "" {
				missing = append(missing, "notion.lead_db")
			}
		case "salesforce":
			if c.Salesforce.ClientID == "" {
				missing = append(missing, "salesforce.client_id")
			}
			if c.Salesforce.KeyPath == "" {
				missing = append(missing, "salesforce.key_path")
			}
		default:
			return eris.Errorf("config: unknown validation mode %q", mode)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("config: missing required settings: %s", strings.Join(dedupe(missing), ", "))
	}
	return nil
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
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
