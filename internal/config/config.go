package config

import (
	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort    string  `mapstructure:"SERVER_PORT"`
	SearchURL     string  `mapstructure:"SEARCH_URL"`          // primary search template, {query} placeholder
	AltSearchURL  string  `mapstructure:"ALT_SEARCH_URL"`      // optional second template; empty disables the stage
	ExternalURL   string  `mapstructure:"EXTERNAL_SEARCH_URL"` // external engine endpoint; empty disables the stage
	RemoteEnabled bool    `mapstructure:"REMOTE_ENABLED"`
	CatalogPath   string  `mapstructure:"CATALOG_PATH"`
	RedisAddr     string  `mapstructure:"REDIS_ADDR"`          // empty selects the in-memory cache
	PostgresURL   string  `mapstructure:"POSTGRES_URL"`        // empty disables resolution history
	CacheTTL      int     `mapstructure:"CACHE_TTL"`           // in seconds
	SitemapTTL    int     `mapstructure:"SITEMAP_TTL"`         // in seconds
	QueryBudgetMS int     `mapstructure:"QUERY_BUDGET_MS"`
	FetchTimeout  int     `mapstructure:"FETCH_TIMEOUT"`       // in seconds
	VerifyWorkers int     `mapstructure:"VERIFY_WORKERS"`
	VerifyCap     int     `mapstructure:"VERIFY_CAP"`          // absolute per-query hydration fetch cap
	FetchRate     float64 `mapstructure:"FETCH_RATE"`          // requests per second against the source site
	FetchBurst    int     `mapstructure:"FETCH_BURST"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present
	// This allows configuration purely through environment variables in production
	_ = viper.ReadInConfig()

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REMOTE_ENABLED", true)
	viper.SetDefault("EXTERNAL_SEARCH_URL", "https://html.duckduckgo.com/html/")
	viper.SetDefault("CATALOG_PATH", "catalog.json")
	viper.SetDefault("CACHE_TTL", 600)      // in seconds
	viper.SetDefault("SITEMAP_TTL", 3600)   // in seconds
	viper.SetDefault("QUERY_BUDGET_MS", 8000)
	viper.SetDefault("FETCH_TIMEOUT", 5) // in seconds
	viper.SetDefault("VERIFY_WORKERS", 4)
	viper.SetDefault("VERIFY_CAP", 8)
	viper.SetDefault("FETCH_RATE", 4.0)
	viper.SetDefault("FETCH_BURST", 8)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
