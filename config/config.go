package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// MinJWTSecretLength is the minimum accepted HS256 signing secret length in bytes.
const MinJWTSecretLength = 32

// Config represents the complete application configuration
type Config struct {
	Environment   string `env:"ENVIRONMENT" envDefault:"development"`
	Server        ServerConfig
	Database      DatabaseConfig
	JWT           JWTConfig
	Bootstrap     BootstrapConfig
	Pricing       PricingConfig
	Audit         AuditConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string        `env:"DATABASE_URL"`
	Host             string        `env:"DB_HOST" envDefault:"localhost"`
	Port             int           `env:"DB_PORT" envDefault:"5432"`
	User             string        `env:"DB_USER" envDefault:"cinema"`
	Password         string        `env:"DB_PASSWORD"`
	Database         string        `env:"DB_NAME" envDefault:"cinema"`
	SSLMode          string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns     int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns     int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime  time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
}

// JWTConfig holds the token signing settings
type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"cinema-api"`
	Expiration time.Duration `env:"JWT_EXPIRATION" envDefault:"2h"`
}

// BootstrapConfig describes the administrator created on first start.
// Both fields empty disables bootstrapping.
type BootstrapConfig struct {
	AdminUsername string `env:"BOOTSTRAP_ADMIN_USERNAME"`
	AdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// PricingConfig holds ticket pricing
type PricingConfig struct {
	TicketPrice decimal.Decimal `env:"TICKET_PRICE" envDefault:"30.00"`
	Currency    string          `env:"CURRENCY" envDefault:"BRL"`
}

// AuditConfig sizes the asynchronous audit writer
type AuditConfig struct {
	Workers    int `env:"AUDIT_WORKERS" envDefault:"2"`
	BufferSize int `env:"AUDIT_BUFFER" envDefault:"256"`
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json or console
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// NewMigrationConfig loads the configuration for the migrate command, which
// only needs the database and logging settings.
func NewMigrationConfig(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the connection settings
func (c *DatabaseConfig) Validate() error {
	if c.ConnectionString == "" && c.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.ConnectionString == "" {
		if c.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}
	return nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < MinJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", MinJWTSecretLength)
	}
	if c.JWT.Issuer == "" {
		return fmt.Errorf("JWT issuer is required")
	}
	if c.JWT.Expiration <= 0 {
		return fmt.Errorf("JWT expiration must be positive")
	}

	if (c.Bootstrap.AdminUsername == "") != (c.Bootstrap.AdminPassword == "") {
		return fmt.Errorf("bootstrap admin requires both username and password")
	}

	if !c.Pricing.TicketPrice.IsPositive() {
		return fmt.Errorf("ticket price must be positive")
	}
	if len(c.Pricing.Currency) != 3 {
		return fmt.Errorf("currency must be an ISO-4217 code")
	}

	if c.Audit.Workers < 1 {
		return fmt.Errorf("audit workers must be at least 1")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password).
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
