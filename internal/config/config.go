package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the ordering system
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Catalog      CatalogConfig      `yaml:"catalog"`
	OrderSink    OrderSinkConfig    `yaml:"order_sink"`
	Database     DatabaseConfig     `yaml:"database"`
	RabbitMQ     RabbitMQConfig     `yaml:"rabbitmq"`
	Notification NotificationConfig `yaml:"notification"`
}

// ServerConfig holds settings for the order sink HTTP server
type ServerConfig struct {
	Port          int    `yaml:"port"`
	MaxConcurrent int    `yaml:"max_concurrent"`
	Migrations    string `yaml:"migrations"`
}

// CatalogConfig holds the menu endpoint settings
type CatalogConfig struct {
	URL      string        `yaml:"url"`
	Timeout  time.Duration `yaml:"timeout"`
	Fallback bool          `yaml:"fallback"`
}

// OrderSinkConfig holds the order endpoint settings
type OrderSinkConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
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

// NotificationConfig controls the best-effort order confirmation channel
type NotificationConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns a configuration with every optional value filled in
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          3000,
			MaxConcurrent: 50,
			Migrations:    "migrations",
		},
		Catalog: CatalogConfig{
			URL:      "http://localhost:3000/menu",
			Timeout:  10 * time.Second,
			Fallback: true,
		},
		OrderSink: OrderSinkConfig{
			URL:     "http://localhost:3000/orders",
			Timeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Host: "localhost",
			Port: 5432,
		},
		RabbitMQ: RabbitMQConfig{
			Host: "localhost",
			Port: 5672,
		},
		Notification: NotificationConfig{
			Timeout: 5 * time.Second,
		},
	}
}

// Load reads configuration from a YAML file
func Load(filename string) (*Config, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	return Parse(content)
}

// Parse decodes YAML content on top of the defaults and validates the result
func Parse(content []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values the services cannot run without
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Catalog.URL) == "" {
		errs = append(errs, errors.New("catalog.url is required"))
	}
	if strings.TrimSpace(c.OrderSink.URL) == "" {
		errs = append(errs, errors.New("order_sink.url is required"))
	}
	if c.Catalog.Timeout <= 0 {
		errs = append(errs, errors.New("catalog.timeout must be positive"))
	}
	if c.OrderSink.Timeout <= 0 {
		errs = append(errs, errors.New("order_sink.timeout must be positive"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.MaxConcurrent <= 0 {
		errs = append(errs, errors.New("server.max_concurrent must be positive"))
	}
	return errors.Join(errs...)
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
