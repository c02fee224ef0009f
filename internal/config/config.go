package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"shareit/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverMemory  = "memory"
	DriverSQLite  = "sqlite3"
	DriverMySQL   = "mysql"
	LockMemory    = "memory"
	LockRedis     = "redis"
	BrokerNone    = "none"
	BrokerRabbit  = "rabbitmq"
	BrokerKafka   = "kafka"
	defaultHeader = "X-Sharer-User-Id"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Locks      LocksConfig      `yaml:"locks"`
	Events     EventsConfig     `yaml:"events"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Driver         string `yaml:"driver"` // memory, sqlite3, mysql
	Path           string `yaml:"path"`
	DSN            string `yaml:"dsn"`
	MaxConnections int    `yaml:"max_connections"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type LocksConfig struct {
	Backend string        `yaml:"backend"` // memory, redis
	TTL     time.Duration `yaml:"ttl"`
	Wait    time.Duration `yaml:"wait"`
}

type EventsConfig struct {
	Broker   string         `yaml:"broker"` // none, rabbitmq, kafka
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Retry    RetryConfig    `yaml:"retry"`
}

type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type RetryConfig struct {
	MaxRetries    int           `yaml:"max_retries"`
	InitialDelay  time.Duration `yaml:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	HTTP           APIHTTPConfig      `yaml:"http"`
	RateLimit      APIRateLimitConfig `yaml:"rate_limit"`
	IdentityHeader string             `yaml:"identity_header"`
}

type APIHTTPConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type BookingConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
}

// Load reads an optional .env file, expands environment variables in the YAML
// file at configPath, then applies defaults and validates the result.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required for sqlite3")
		}
	case DriverMySQL:
		if c.Database.DSN == "" {
			return errors.New("database dsn is required for mysql")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Locks.Backend {
	case LockMemory:
	case LockRedis:
		if c.Redis.Address == "" {
			return errors.New("redis address is required for redis locks")
		}
	default:
		return fmt.Errorf("unsupported lock backend: %s", c.Locks.Backend)
	}

	switch c.Events.Broker {
	case BrokerNone:
	case BrokerRabbit:
		if c.Events.RabbitMQ.URL == "" {
			return errors.New("events.rabbitmq.url is required")
		}
	case BrokerKafka:
		if len(c.Events.Kafka.Brokers) == 0 {
			return errors.New("events.kafka.brokers is required")
		}
	default:
		return fmt.Errorf("unsupported event broker: %s", c.Events.Broker)
	}

	if c.Backup.Enabled && c.Database.Driver != DriverSQLite {
		return errors.New("backups are supported for sqlite3 only")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "shareit"
	}

	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		c.Database.Path = "data/shareit.db"
	}

	c.Locks.Backend = strings.ToLower(strings.TrimSpace(c.Locks.Backend))
	if c.Locks.Backend == "" {
		c.Locks.Backend = LockMemory
	}
	if c.Locks.TTL == 0 {
		c.Locks.TTL = 10 * time.Second
	}
	if c.Locks.Wait == 0 {
		c.Locks.Wait = 5 * time.Second
	}

	c.Events.Broker = strings.ToLower(strings.TrimSpace(c.Events.Broker))
	if c.Events.Broker == "" {
		c.Events.Broker = BrokerNone
	}
	if c.Events.RabbitMQ.Exchange == "" {
		c.Events.RabbitMQ.Exchange = "shareit.events"
	}
	if c.Events.Kafka.Topic == "" {
		c.Events.Kafka.Topic = "shareit.bookings"
	}

	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.HTTP.ReadTimeout == 0 {
		c.API.HTTP.ReadTimeout = 5 * time.Second
	}
	if c.API.HTTP.WriteTimeout == 0 {
		c.API.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.API.HTTP.ShutdownTimeout == 0 {
		c.API.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.API.IdentityHeader == "" {
		c.API.IdentityHeader = defaultHeader
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}

	if c.Booking.DefaultPageSize <= 0 {
		c.Booking.DefaultPageSize = models.DefaultPageSize
	}
}
