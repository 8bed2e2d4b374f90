package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the restaurant system
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Redis    RedisConfig    `yaml:"redis"`
	Server   ServerConfig   `yaml:"server"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// RabbitMQConfig holds RabbitMQ connection configuration
type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// RedisConfig holds the cart store connection configuration
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// CartTTLHours is how long an untouched cart is kept. 0 keeps carts forever.
	CartTTLHours int `yaml:"cart_ttl_hours"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Timezone       string   `yaml:"timezone"`
	RateLimit      int      `yaml:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the configuration used when a value is not set anywhere
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "restaurant_user", Database: "restaurant_db"},
		RabbitMQ: RabbitMQConfig{Host: "localhost", Port: 5672, User: "guest", Password: "guest"},
		Redis:    RedisConfig{Host: "localhost", Port: 6379, CartTTLHours: 24 * 7},
		Server:   ServerConfig{Port: 3000, Timezone: "UTC", RateLimit: 20, RateBurst: 40},
	}
}

// Load reads configuration from a YAML file, then applies a .env file (if any)
// and RESTAURANT_* environment overrides on top.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// A missing .env is fine
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overrides file values with environment variables
func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"RESTAURANT_DB_HOST":       &c.Database.Host,
		"RESTAURANT_DB_USER":       &c.Database.User,
		"RESTAURANT_DB_PASSWORD":   &c.Database.Password,
		"RESTAURANT_DB_NAME":       &c.Database.Database,
		"RESTAURANT_RABBITMQ_HOST": &c.RabbitMQ.Host,
		"RESTAURANT_RABBITMQ_USER": &c.RabbitMQ.User,
		"RESTAURANT_RABBITMQ_PASS": &c.RabbitMQ.Password,
		"RESTAURANT_REDIS_HOST":    &c.Redis.Host,
		"RESTAURANT_REDIS_PASS":    &c.Redis.Password,
		"RESTAURANT_TIMEZONE":      &c.Server.Timezone,
	}
	for key, dst := range strs {
		if value, ok := os.LookupEnv(key); ok {
			*dst = value
		}
	}

	ints := map[string]*int{
		"RESTAURANT_DB_PORT":       &c.Database.Port,
		"RESTAURANT_RABBITMQ_PORT": &c.RabbitMQ.Port,
		"RESTAURANT_REDIS_PORT":    &c.Redis.Port,
		"RESTAURANT_REDIS_DB":      &c.Redis.DB,
		"RESTAURANT_PORT":          &c.Server.Port,
	}
	for key, dst := range ints {
		value, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		*dst = n
	}

	return nil
}

// Validate checks the values that cannot be defaulted
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port <= 0 {
		return fmt.Errorf("database.port must be positive")
	}
	if c.RabbitMQ.Port <= 0 {
		return fmt.Errorf("rabbitmq.port must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid server.timezone: %w", err)
	}
	return nil
}

// Location returns the restaurant time zone used for "today" and reservation times
func (c *Config) Location() (*time.Location, error) {
	if c.Server.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Server.Timezone)
}

// CartTTL returns the expiry applied to persisted carts
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.Redis.CartTTLHours) * time.Hour
}

// DatabaseURL returns a PostgreSQL connection URL
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Database)
}

// RabbitMQURL returns an AMQP connection URL
func (c *Config) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}

// RedisAddr returns the host:port of the cart store
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
