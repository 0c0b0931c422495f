// Package config loads application configuration from file and environment
// and owns global logger setup.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Marketplace MarketplaceConfig `yaml:"marketplace" mapstructure:"marketplace"`
	Browser     BrowserConfig     `yaml:"browser" mapstructure:"browser"`
	Pipeline    PipelineConfig    `yaml:"pipeline" mapstructure:"pipeline"`
	Storage     StorageConfig     `yaml:"storage" mapstructure:"storage"`
	Runs        RunsConfig        `yaml:"runs" mapstructure:"runs"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// MarketplaceConfig identifies the seller account and the pages the
// pipeline visits.
type MarketplaceConfig struct {
	SellerPageURL    string `yaml:"seller_page_url" mapstructure:"seller_page_url"`
	SignInURL        string `yaml:"sign_in_url" mapstructure:"sign_in_url"`
	OverviewURL      string `yaml:"overview_url" mapstructure:"overview_url"`
	TransactionsURL  string `yaml:"transactions_url" mapstructure:"transactions_url"`
	ItemURLPrefix    string `yaml:"item_url_prefix" mapstructure:"item_url_prefix"`
	Email            string `yaml:"email" mapstructure:"email"`
	Password         string `yaml:"password" mapstructure:"password"`
	ChallengeMarker  string `yaml:"challenge_marker" mapstructure:"challenge_marker"`
}

// BrowserConfig configures the supervised browser process and session.
type BrowserConfig struct {
	Headless        bool   `yaml:"headless" mapstructure:"headless"`
	UserAgent       string `yaml:"user_agent" mapstructure:"user_agent"`
	WaitTimeoutSecs int    `yaml:"wait_timeout_secs" mapstructure:"wait_timeout_secs"`
	NavTimeoutSecs  int    `yaml:"nav_timeout_secs" mapstructure:"nav_timeout_secs"`
}

// PipelineConfig configures the staged scrape behavior.
type PipelineConfig struct {
	TickRateHz        float64 `yaml:"tick_rate_hz" mapstructure:"tick_rate_hz"`
	ChallengePollSecs int     `yaml:"challenge_poll_secs" mapstructure:"challenge_poll_secs"`
	EnrichDelayMillis int     `yaml:"enrich_delay_millis" mapstructure:"enrich_delay_millis"`
	Enrich            bool    `yaml:"enrich" mapstructure:"enrich"`
}

// StorageConfig configures listing persistence.
type StorageConfig struct {
	CSVPath     string `yaml:"csv_path" mapstructure:"csv_path"`
	PostgresURL string `yaml:"postgres_url" mapstructure:"postgres_url"`
}

// RunsConfig configures the run-history store.
type RunsConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("marketplace.seller_page_url", "https://www.ebay.com/usr/thriftngo5")
	v.SetDefault("marketplace.sign_in_url", "https://signin.ebay.com/")
	v.SetDefault("marketplace.overview_url", "https://www.ebay.com/mys/overview")
	v.SetDefault("marketplace.transactions_url", "https://www.ebay.com/mes/transactionlist")
	v.SetDefault("marketplace.item_url_prefix", "https://www.ebay.com/itm/")
	v.SetDefault("marketplace.challenge_marker", "captcha")
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/122.0.0.0 Safari/537.36")
	v.SetDefault("browser.wait_timeout_secs", 5)
	v.SetDefault("browser.nav_timeout_secs", 30)
	v.SetDefault("pipeline.tick_rate_hz", 30.0)
	v.SetDefault("pipeline.challenge_poll_secs", 1)
	v.SetDefault("pipeline.enrich_delay_millis", 1500)
	v.SetDefault("pipeline.enrich", true)
	v.SetDefault("storage.csv_path", "output/listings.csv")
	v.SetDefault("runs.db_path", "storefront.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
