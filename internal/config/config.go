package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the storefront API.
// Values come from defaults, then an optional YAML file named by CONFIG_FILE,
// then environment variables, each layer overriding the previous one.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	CORS     CORSConfig     `yaml:"cors"`
	Shop     ShopConfig     `yaml:"shop"`
	LogLevel string         `yaml:"log_level"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`
	CookieSecure  bool          `yaml:"cookie_secure"`
	AdminName     string        `yaml:"admin_name"`
	AdminEmail    string        `yaml:"admin_email"`
	AdminPassword string        `yaml:"admin_password"`
}

// StorageConfig points at the LevelDB directory for refresh sessions.
// An empty path keeps sessions in memory.
type StorageConfig struct {
	SessionPath string `yaml:"session_path"`
}

// RabbitMQConfig is disabled when URL is empty.
type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Queue    string `yaml:"queue"`
	PoolSize int    `yaml:"pool_size"`
	Workers  int    `yaml:"workers"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ShopConfig carries storefront rules that are not per-entity.
type ShopConfig struct {
	// ShippingFee is a flat charge added to every order, in whole currency units.
	ShippingFee int64 `yaml:"shipping_fee"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:     "change-me-in-production-please",
			AccessTTL:     13 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			AdminName:     "Admin",
			AdminEmail:    "admin@blitz.local",
			AdminPassword: "admin12345",
		},
		RabbitMQ: RabbitMQConfig{
			Queue:    "order_events",
			PoolSize: 4,
			Workers:  2,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		LogLevel: "info",
	}
}

// Load reads configuration and validates it.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("HOST", cfg.Server.Host)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvAsDuration("READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvAsDuration("WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.AccessTTL = getEnvAsDuration("ACCESS_TOKEN_TTL", cfg.Auth.AccessTTL)
	cfg.Auth.RefreshTTL = getEnvAsDuration("REFRESH_TOKEN_TTL", cfg.Auth.RefreshTTL)
	cfg.Auth.CookieSecure = getEnvAsBool("COOKIE_SECURE", cfg.Auth.CookieSecure)
	cfg.Auth.AdminName = getEnv("ADMIN_NAME", cfg.Auth.AdminName)
	cfg.Auth.AdminEmail = getEnv("ADMIN_EMAIL", cfg.Auth.AdminEmail)
	cfg.Auth.AdminPassword = getEnv("ADMIN_PASSWORD", cfg.Auth.AdminPassword)

	cfg.Storage.SessionPath = getEnv("SESSION_DB_PATH", cfg.Storage.SessionPath)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.Queue = getEnv("RABBITMQ_QUEUE", cfg.RabbitMQ.Queue)
	cfg.RabbitMQ.PoolSize = getEnvAsInt("RABBITMQ_POOL_SIZE", cfg.RabbitMQ.PoolSize)
	cfg.RabbitMQ.Workers = getEnvAsInt("RABBITMQ_WORKERS", cfg.RabbitMQ.Workers)

	cfg.CORS.AllowedOrigins = getEnvAsSlice("CORS_ALLOWED_ORIGINS", cfg.CORS.AllowedOrigins)
	cfg.Shop.ShippingFee = int64(getEnvAsInt("SHIPPING_FEE", int(cfg.Shop.ShippingFee)))
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.Auth.AccessTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if c.Auth.RefreshTTL <= c.Auth.AccessTTL {
		return fmt.Errorf("REFRESH_TOKEN_TTL must be longer than ACCESS_TOKEN_TTL")
	}
	if c.Auth.AdminEmail != "" && len(c.Auth.AdminPassword) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters")
	}
	if c.RabbitMQ.URL != "" {
		if c.RabbitMQ.Queue == "" {
			return fmt.Errorf("RABBITMQ_QUEUE is required when RABBITMQ_URL is set")
		}
		if c.RabbitMQ.PoolSize < 1 {
			return fmt.Errorf("RABBITMQ_POOL_SIZE must be at least 1")
		}
		if c.RabbitMQ.Workers < 0 {
			return fmt.Errorf("RABBITMQ_WORKERS must not be negative")
		}
	}
	if c.Shop.ShippingFee < 0 {
		return fmt.Errorf("SHIPPING_FEE must not be negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("15s", "13m") or plain seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
