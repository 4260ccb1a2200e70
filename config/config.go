package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultJournalDatabaseID is used when NOTION_JOURNAL_ID is not set.
const DefaultJournalDatabaseID = "2f60ace7-431d-8079-b4b0-e84ba2c0f2d2"

// Config holds all process configuration.
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	ServerPort  string `mapstructure:"SERVER_PORT"`
	SiteURL     string `mapstructure:"SITE_URL"`

	// Notion
	NotionAPIKey         string `mapstructure:"NOTION_API_KEY"`
	NotionDatabaseID     string `mapstructure:"NOTION_DATABASE_ID"`
	NotionJournalID      string `mapstructure:"NOTION_JOURNAL_ID"`
	NotionTimeoutSeconds int    `mapstructure:"NOTION_TIMEOUT_SECONDS"`
	NotionMaxRetries     int    `mapstructure:"NOTION_MAX_RETRIES"`

	// Rendered output cache
	CacheTTLSeconds int `mapstructure:"CACHE_TTL_SECONDS"`

	// Redis (optional cache backend)
	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	JournalFetchConcurrency int `mapstructure:"JOURNAL_FETCH_CONCURRENCY"`

	LogDir string `mapstructure:"LOG_DIR"`

	// Shared secret for /internal endpoints; empty disables them
	InternalAuthToken string `mapstructure:"INTERNAL_AUTH_TOKEN"`

	// OpenTelemetry
	OtelEnabled     bool    `mapstructure:"OTEL_ENABLED"`
	OtelEndpoint    string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelInsecure    bool    `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OtelSampleRatio float64 `mapstructure:"OTEL_SAMPLER_RATIO"`
	OtelServiceName string  `mapstructure:"OTEL_SERVICE_NAME"`
}

var defaults = map[string]any{
	"ENVIRONMENT":                 "development",
	"SERVER_PORT":                 "8080",
	"SITE_URL":                    "https://zeke.bot",
	"NOTION_API_KEY":              "",
	"NOTION_DATABASE_ID":          "",
	"NOTION_JOURNAL_ID":           DefaultJournalDatabaseID,
	"NOTION_TIMEOUT_SECONDS":      10,
	"NOTION_MAX_RETRIES":          2,
	"CACHE_TTL_SECONDS":           60,
	"REDIS_HOST":                  "",
	"REDIS_PORT":                  "6379",
	"REDIS_PASSWORD":              "",
	"REDIS_DB":                    0,
	"JOURNAL_FETCH_CONCURRENCY":   4,
	"LOG_DIR":                     "logs",
	"INTERNAL_AUTH_TOKEN":         "",
	"OTEL_ENABLED":                false,
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"OTEL_EXPORTER_OTLP_INSECURE": false,
	"OTEL_SAMPLER_RATIO":          0.1,
	"OTEL_SERVICE_NAME":           "zeke-site",
}

// LoadConfig reads configuration from the environment, optionally seeded by a .env file in path.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	// Defaults also register every key with AutomaticEnv so Unmarshal sees env-only values.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	err = v.ReadInConfig()
	if err != nil {
		// A missing .env is fine, values then come from the environment.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return
	}
	config.normalize()
	return
}

func (c *Config) normalize() {
	c.NotionAPIKey = strings.TrimSpace(c.NotionAPIKey)
	c.NotionDatabaseID = strings.TrimSpace(c.NotionDatabaseID)
	c.NotionJournalID = strings.TrimSpace(c.NotionJournalID)
	if c.NotionJournalID == "" {
		c.NotionJournalID = DefaultJournalDatabaseID
	}
	c.InternalAuthToken = strings.TrimSpace(c.InternalAuthToken)
	c.SiteURL = strings.TrimRight(strings.TrimSpace(c.SiteURL), "/")
	if c.CacheTTLSeconds < 0 {
		c.CacheTTLSeconds = 0
	}
	if c.JournalFetchConcurrency <= 0 {
		c.JournalFetchConcurrency = 1
	}
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production") || strings.EqualFold(c.Environment, "prod")
}

// CacheTTL returns the rendered output cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// NotionTimeout returns the per-request timeout for Notion API calls.
func (c *Config) NotionTimeout() time.Duration {
	return time.Duration(c.NotionTimeoutSeconds) * time.Second
}

// GetRedisConnString returns the Redis address, or "" when Redis is not configured.
func (c *Config) GetRedisConnString() string {
	if strings.TrimSpace(c.RedisHost) == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
