package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// Storage
	StoreDriver   string `yaml:"store_driver"`
	StorePath     string `yaml:"store_path"`
	SQLiteDSN     string `yaml:"sqlite_dsn"`
	DynamoDBTable string `yaml:"dynamodb_table"`
	AWSRegion     string `yaml:"aws_region"`
	OptionName    string `yaml:"option_name"`

	// Events
	EventBusName string `yaml:"event_bus_name"`
	EnableEvents bool   `yaml:"enable_events"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Authentication
	JWTSecret     string        `yaml:"jwt_secret"`
	JWTIssuer     string        `yaml:"jwt_issuer"`
	NonceSecret   string        `yaml:"nonce_secret"`
	NonceLifetime time.Duration `yaml:"nonce_lifetime"`

	// Notes behaviour
	RejectEmptyNotes bool `yaml:"reject_empty_notes"`

	// HTTP features
	EnableCORS         bool     `yaml:"enable_cors"`
	CORSOrigins        []string `yaml:"cors_origins"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
	EnableMetrics      bool     `yaml:"enable_metrics"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		ServerAddress:      ":8080",
		Environment:        "development",
		StoreDriver:        DriverMemory,
		StorePath:          "data/options.yaml",
		SQLiteDSN:          "data/notes.db",
		DynamoDBTable:      "admin-notes",
		AWSRegion:          "us-west-2",
		OptionName:         "wp_auto_admin_notes",
		EventBusName:       "admin-notes-events",
		LogLevel:           "info",
		JWTIssuer:          "admin-notes",
		NonceLifetime:      24 * time.Hour,
		EnableCORS:         true,
		CORSOrigins:        []string{"*"},
		RateLimitPerMinute: 120,
		EnableMetrics:      true,
	}
}

// LoadConfig loads configuration from an optional YAML file named by
// CONFIG_FILE, then applies environment variables on top.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	c.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", c.StoreDriver))
	c.StorePath = getEnv("STORE_PATH", c.StorePath)
	c.SQLiteDSN = getEnv("SQLITE_DSN", c.SQLiteDSN)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.OptionName = getEnv("OPTION_NAME", c.OptionName)

	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)
	c.EnableEvents = getEnvBool("ENABLE_EVENTS", c.EnableEvents)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.NonceSecret = getEnv("NONCE_SECRET", c.NonceSecret)
	c.NonceLifetime = getEnvDuration("NONCE_LIFETIME", c.NonceLifetime)

	c.RejectEmptyNotes = getEnvBool("REJECT_EMPTY_NOTES", c.RejectEmptyNotes)

	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.CORSOrigins = getEnvList("CORS_ORIGINS", c.CORSOrigins)
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverFile:
		if c.StorePath == "" {
			return fmt.Errorf("STORE_PATH is required for the file store")
		}
	case DriverSQLite:
		if c.SQLiteDSN == "" {
			return fmt.Errorf("SQLITE_DSN is required for the sqlite store")
		}
	case DriverDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.OptionName == "" {
		return fmt.Errorf("OPTION_NAME must not be empty")
	}
	if c.NonceLifetime < 2*time.Second {
		return fmt.Errorf("NONCE_LIFETIME must be at least 2s")
	}
	if c.EnableEvents && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
	}

	if c.IsProduction() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.NonceSecret == "" {
			return fmt.Errorf("NONCE_SECRET is required in production")
		}
	}

	return nil
}

// DevelopmentSecret signs tokens and nonces outside production when no
// secret is configured.
const DevelopmentSecret = "admin-notes-development-secret"

// JWTSigningKey returns the JWT secret, falling back to DevelopmentSecret
// outside production.
func (c *Config) JWTSigningKey() string {
	if c.JWTSecret == "" && !c.IsProduction() {
		return DevelopmentSecret
	}
	return c.JWTSecret
}

// NonceKey returns the nonce secret, falling back to DevelopmentSecret
// outside production.
func (c *Config) NonceKey() string {
	if c.NonceSecret == "" && !c.IsProduction() {
		return DevelopmentSecret
	}
	return c.NonceSecret
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList gets a comma separated environment variable with a default value
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
