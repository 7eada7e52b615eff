package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"rental-market-backend/internal/domain"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Cache       CacheConfig       `yaml:"cache"`
	JWT         JWTConfig         `yaml:"jwt"`
	Ingest      IngestConfig      `yaml:"ingest"`
	SendGrid    SendGridConfig    `yaml:"sendgrid"`
	SMTP        SMTPConfig        `yaml:"smtp"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Log         LogConfig         `yaml:"log"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Retention   RetentionConfig   `yaml:"retention"`
}

// ServerConfig contains HTTP and gRPC listener settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpc_port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// RedisConfig enables the shared read cache. Empty Addr means in-memory.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

// JWTConfig contains ingest access token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// IngestClient is an indexer allowed to push snapshots. APIKeyHash is a bcrypt hash.
type IngestClient struct {
	ID         string `yaml:"id"`
	APIKeyHash string `yaml:"api_key_hash"`
}

type IngestConfig struct {
	Clients []IngestClient `yaml:"clients"`
}

// SendGridConfig contains revoke digest email settings. No API key disables email.
type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// SMTPConfig is used for revoke digests when no SendGrid key is set
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type PaymentMintConfig struct {
	Mint     string `yaml:"mint"`
	Symbol   string `yaml:"symbol"`
	Decimals uint8  `yaml:"decimals"`
}

type CollectionConfig struct {
	Name         string   `yaml:"name"`
	DisplayName  string   `yaml:"display_name"`
	Issuers      []string `yaml:"issuers"`
	RateUnit     string   `yaml:"rate_unit"`
	RateModeOnly bool     `yaml:"rate_mode_only"`
	HideFilters  bool     `yaml:"hide_filters"`
	NotifyEmail  string   `yaml:"notify_email"`
}

// MarketplaceConfig describes the supported payment mints and collections
type MarketplaceConfig struct {
	DefaultRateUnit string              `yaml:"default_rate_unit"`
	PaymentMints    []PaymentMintConfig `yaml:"payment_mints"`
	Collections     []CollectionConfig  `yaml:"collections"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	SweepInvalidations string `yaml:"sweep_invalidations"`
	PruneInvalidated   string `yaml:"prune_invalidated"`
}

type RetentionConfig struct {
	InvalidatedDays int `yaml:"invalidated_days"`
}

// Load reads configuration from a YAML file. A .env file next to the process
// is loaded first so its values can feed the environment overrides.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse builds a validated Config from YAML bytes
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("GRPC_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.GRPCPort)
	}

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// Secrets
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}
	if val := os.Getenv("SMTP_HOST"); val != "" {
		c.SMTP.Host = val
	}
	if val := os.Getenv("SMTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.SMTP.Port)
	}
	if val := os.Getenv("SMTP_USER"); val != "" {
		c.SMTP.User = val
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		c.SMTP.Password = val
	}
	if val := os.Getenv("SMTP_FROM"); val != "" {
		c.SMTP.From = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.Server.GRPCPort)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	for _, client := range c.Ingest.Clients {
		if client.ID == "" || client.APIKeyHash == "" {
			return fmt.Errorf("ingest clients need an id and api_key_hash")
		}
	}

	if c.Marketplace.DefaultRateUnit == "" {
		c.Marketplace.DefaultRateUnit = string(domain.RateUnitDays)
	}
	if !domain.RateUnit(c.Marketplace.DefaultRateUnit).Valid() {
		return fmt.Errorf("invalid default rate unit: %s", c.Marketplace.DefaultRateUnit)
	}
	seen := make(map[string]bool)
	for i := range c.Marketplace.Collections {
		col := &c.Marketplace.Collections[i]
		if col.Name == "" {
			return fmt.Errorf("collection name is required")
		}
		if seen[col.Name] {
			return fmt.Errorf("duplicate collection: %s", col.Name)
		}
		seen[col.Name] = true
		if col.RateUnit == "" {
			col.RateUnit = c.Marketplace.DefaultRateUnit
		}
		if !domain.RateUnit(col.RateUnit).Valid() {
			return fmt.Errorf("invalid rate unit for collection %s: %s", col.Name, col.RateUnit)
		}
	}

	if c.SMTP.Host != "" && c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}

	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 20
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "rental-market:"
	}
	if c.Retention.InvalidatedDays == 0 {
		c.Retention.InvalidatedDays = 30
	}

	if c.Scheduler.SweepInvalidations == "" {
		c.Scheduler.SweepInvalidations = "0 */5 * * * *" // every 5 minutes
	}
	if c.Scheduler.PruneInvalidated == "" {
		c.Scheduler.PruneInvalidated = "0 0 3 * * *" // 3 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the gRPC health server address; the port defaults
// to the one after the HTTP port.
func (c *Config) GetGRPCAddress() string {
	port := c.Server.GRPCPort
	if port == 0 {
		port = c.Server.Port + 1
	}
	return fmt.Sprintf("%s:%d", c.Server.Host, port)
}

// PaymentMints returns the configured seed mint table
func (c *Config) PaymentMints() []domain.PaymentMintInfo {
	infos := make([]domain.PaymentMintInfo, 0, len(c.Marketplace.PaymentMints))
	for _, m := range c.Marketplace.PaymentMints {
		infos = append(infos, domain.PaymentMintInfo{Mint: m.Mint, Symbol: m.Symbol, Decimals: m.Decimals})
	}
	return infos
}

// Collections returns the configured collections keyed by name
func (c *Config) Collections() map[string]domain.Collection {
	out := make(map[string]domain.Collection, len(c.Marketplace.Collections))
	for _, col := range c.Marketplace.Collections {
		out[strings.ToLower(col.Name)] = domain.Collection{
			Name:         col.Name,
			DisplayName:  col.DisplayName,
			Issuers:      col.Issuers,
			RateUnit:     domain.RateUnit(col.RateUnit),
			RateModeOnly: col.RateModeOnly,
			HideFilters:  col.HideFilters,
			NotifyEmail:  col.NotifyEmail,
		}
	}
	return out
}

// IngestKeyHashes returns bcrypt hashes keyed by ingest client id
func (c *Config) IngestKeyHashes() map[string]string {
	out := make(map[string]string, len(c.Ingest.Clients))
	for _, client := range c.Ingest.Clients {
		out[client.ID] = client.APIKeyHash
	}
	return out
}
