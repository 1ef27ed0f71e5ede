package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logger   LoggerConfig   `yaml:"logger"`
	Auth     AuthConfig     `yaml:"auth"`
	Payment  PaymentConfig  `yaml:"payment"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	S3       S3Config       `yaml:"s3"`
	App      AppConfig      `yaml:"app"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Database        string `yaml:"name"`
	MaxConnections  int    `yaml:"max_connections"`
	MinConnections  int    `yaml:"min_connections"`
	MaxConnLifetime int    `yaml:"max_conn_lifetime"` // seconds
	MigrateOnStart  bool   `yaml:"migrate_on_start"`
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// AuthConfig holds bearer token configuration.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// PaymentConfig holds payment gateway configuration.
type PaymentConfig struct {
	Enabled           bool          `yaml:"enabled"`
	KeyID             string        `yaml:"key_id"`
	KeySecret         string        `yaml:"key_secret"`
	Currency          string        `yaml:"currency"`
	UpdateRetries     int           `yaml:"update_retries"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
}

// SMTPConfig holds outbound mail configuration.
type SMTPConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	SSL      bool   `yaml:"ssl"`
}

// KafkaConfig holds order event publishing configuration.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// RedisConfig holds cache configuration.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// S3Config holds AWS S3 configuration for catalog import files.
type S3Config struct {
	Enabled bool   `yaml:"enabled"`
	Bucket  string `yaml:"bucket"`
	Region  string `yaml:"region"`
	Prefix  string `yaml:"prefix"` // Path prefix within bucket (e.g., "catalog/")
}

// AppConfig holds settings used to build user-facing links.
type AppConfig struct {
	PublicURL string `yaml:"public_url"`
}

// Defaults returns the built-in configuration before any file or environment overrides.
func Defaults() Config {
	return Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Database:        "handmadekart",
			MaxConnections:  25,
			MinConnections:  5,
			MaxConnLifetime: 300,
			MigrateOnStart:  true,
		},
		Logger: LoggerConfig{Level: "info", Format: "json"},
		Auth:   AuthConfig{Issuer: "handmade-kart", TokenTTL: 24 * time.Hour},
		Payment: PaymentConfig{
			Currency:          "INR",
			UpdateRetries:     3,
			ReconcileInterval: time.Minute,
		},
		SMTP:  SMTPConfig{Port: 465, SSL: true},
		Kafka: KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "order-events", GroupID: "order-notifier"},
		Redis: RedisConfig{Addr: "localhost:6379"},
		S3:    S3Config{Region: "us-east-1", Prefix: "catalog/"},
		App:   AppConfig{PublicURL: "http://localhost:8080"},
	}
}

// Load loads configuration from an optional YAML file named by CONFIG_FILE,
// then applies environment variable overrides.
func Load() (*Config, error) {
	base := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &base); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", base.Server.Host),
			Port: getEnvAsInt("SERVER_PORT", base.Server.Port),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", base.Database.URL),
			Host:            getEnv("DB_HOST", base.Database.Host),
			Port:            getEnvAsInt("DB_PORT", base.Database.Port),
			User:            getEnv("DB_USER", base.Database.User),
			Password:        getEnv("DB_PASSWORD", base.Database.Password),
			Database:        getEnv("DB_NAME", base.Database.Database),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", base.Database.MaxConnections),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", base.Database.MinConnections),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", base.Database.MaxConnLifetime),
			MigrateOnStart:  getEnvAsBool("DB_MIGRATE_ON_START", base.Database.MigrateOnStart),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", base.Logger.Level),
			Format: getEnv("LOG_FORMAT", base.Logger.Format),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", base.Auth.JWTSecret),
			Issuer:    getEnv("JWT_ISSUER", base.Auth.Issuer),
			TokenTTL:  getEnvAsDuration("JWT_TTL", base.Auth.TokenTTL),
		},
		Payment: PaymentConfig{
			Enabled:           getEnvAsBool("RAZORPAY_ENABLED", base.Payment.Enabled),
			KeyID:             getEnv("RAZORPAY_KEY_ID", base.Payment.KeyID),
			KeySecret:         getEnv("RAZORPAY_KEY_SECRET", base.Payment.KeySecret),
			Currency:          getEnv("PAYMENT_CURRENCY", base.Payment.Currency),
			UpdateRetries:     getEnvAsInt("PAYMENT_UPDATE_RETRIES", base.Payment.UpdateRetries),
			ReconcileInterval: getEnvAsDuration("PAYMENT_RECONCILE_INTERVAL", base.Payment.ReconcileInterval),
		},
		SMTP: SMTPConfig{
			Enabled:  getEnvAsBool("SMTP_ENABLED", base.SMTP.Enabled),
			Host:     getEnv("SMTP_HOST", base.SMTP.Host),
			Port:     getEnvAsInt("SMTP_PORT", base.SMTP.Port),
			User:     getEnv("SMTP_USER", base.SMTP.User),
			Password: getEnv("SMTP_PASSWORD", base.SMTP.Password),
			From:     getEnv("SMTP_FROM", base.SMTP.From),
			SSL:      getEnvAsBool("SMTP_SSL", base.SMTP.SSL),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", base.Kafka.Enabled),
			Brokers: getEnvAsList("KAFKA_BROKERS", base.Kafka.Brokers),
			Topic:   getEnv("KAFKA_TOPIC", base.Kafka.Topic),
			GroupID: getEnv("KAFKA_GROUP_ID", base.Kafka.GroupID),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", base.Redis.Enabled),
			Addr:     getEnv("REDIS_ADDR", base.Redis.Addr),
			Password: getEnv("REDIS_PASSWORD", base.Redis.Password),
			DB:       getEnvAsInt("REDIS_DB", base.Redis.DB),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", base.S3.Enabled),
			Bucket:  getEnv("S3_BUCKET", base.S3.Bucket),
			Region:  getEnv("S3_REGION", base.S3.Region),
			Prefix:  getEnv("S3_PREFIX", base.S3.Prefix),
		},
		App: AppConfig{
			PublicURL: getEnv("APP_PUBLIC_URL", base.App.PublicURL),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile decodes a YAML file over cfg. Keys absent from the file keep their current values.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.URL == "" {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}

		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}

		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}

		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT token TTL must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Payment.Enabled {
		if c.Payment.KeyID == "" || c.Payment.KeySecret == "" {
			return fmt.Errorf("payment key id and secret are required when payments are enabled")
		}
	}

	if c.Payment.Currency == "" {
		return fmt.Errorf("payment currency is required")
	}

	if c.Payment.UpdateRetries < 0 {
		return fmt.Errorf("payment update retries cannot be negative")
	}

	if c.Payment.ReconcileInterval <= 0 {
		return fmt.Errorf("payment reconcile interval must be positive")
	}

	if c.SMTP.Enabled {
		if c.SMTP.Host == "" || c.SMTP.From == "" {
			return fmt.Errorf("SMTP host and from address are required when SMTP is enabled")
		}
		if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
			return fmt.Errorf("invalid SMTP port: %d", c.SMTP.Port)
		}
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("at least one Kafka broker is required when Kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("Kafka topic is required when Kafka is enabled")
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("Redis address is required when Redis is enabled")
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration parses values like "30s" or "24h".
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable.
func getEnvAsList(key string, defaultValue []string) []string {
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
