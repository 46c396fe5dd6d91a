package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	redisbroker "github.com/jwalitptl/clinic-queue/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-queue/pkg/worker"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Outbox    OutboxConfig
	Carryover CarryoverConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL          string `mapstructure:"url"`
	MaxRetries   int    `mapstructure:"max_retries"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type OutboxConfig struct {
	BatchSize        int `mapstructure:"batch_size"`
	PollIntervalSecs int `mapstructure:"poll_interval_seconds"`
	RetryAttempts    int `mapstructure:"retry_attempts"`
	RetryDelaySecs   int `mapstructure:"retry_delay_seconds"`
	RetentionHours   int `mapstructure:"retention_hours"`
}

type CarryoverConfig struct {
	CheckIntervalMins int `mapstructure:"check_interval_minutes"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

func (r RedisConfig) ToBrokerConfig() redisbroker.Config {
	return redisbroker.Config{
		URL:          r.URL,
		MaxRetries:   r.MaxRetries,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     r.PoolSize,
		MinIdleConns: r.MinIdleConns,
	}
}

func (o OutboxConfig) ToWorkerConfig() worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		BatchSize:     o.BatchSize,
		PollInterval:  time.Duration(o.PollIntervalSecs) * time.Second,
		RetryAttempts: o.RetryAttempts,
		RetryDelay:    time.Duration(o.RetryDelaySecs) * time.Second,
		Retention:     time.Duration(o.RetentionHours) * time.Hour,
	}
}

func (c CarryoverConfig) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalMins) * time.Minute
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeoutSeconds", 30)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.url", "redis://localhost:6379/0")
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 2)
	viper.SetDefault("outbox.batch_size", 100)
	viper.SetDefault("outbox.poll_interval_seconds", 5)
	viper.SetDefault("outbox.retry_attempts", 3)
	viper.SetDefault("outbox.retry_delay_seconds", 5)
	viper.SetDefault("outbox.retention_hours", 24)
	viper.SetDefault("carryover.check_interval_minutes", 10)
	viper.SetDefault("ratelimit.requests_per_second", 50)
	viper.SetDefault("ratelimit.burst", 100)
}

// WorkerConfig is the worker process environment. The worker runs in
// containers where a mounted config file is more trouble than env vars.
type WorkerConfig struct {
	DatabaseHost     string `envconfig:"DB_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DB_PORT" default:"5432"`
	DatabaseUser     string `envconfig:"DB_USER" default:"postgres"`
	DatabasePassword string `envconfig:"DB_PASSWORD" default:""`
	DatabaseName     string `envconfig:"DB_NAME" default:"clinic_queue"`
	DatabaseSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	RedisURL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`

	HealthPort int `envconfig:"HEALTH_PORT" default:"8081"`

	OutboxBatchSize        int `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	OutboxPollIntervalSecs int `envconfig:"OUTBOX_POLL_INTERVAL_SECONDS" default:"5"`
	OutboxRetryAttempts    int `envconfig:"OUTBOX_RETRY_ATTEMPTS" default:"3"`
	OutboxRetryDelaySecs   int `envconfig:"OUTBOX_RETRY_DELAY_SECONDS" default:"5"`
	OutboxRetentionHours   int `envconfig:"OUTBOX_RETENTION_HOURS" default:"24"`

	CarryoverCheckMins int `envconfig:"CARRYOVER_CHECK_INTERVAL_MINUTES" default:"10"`
}

func LoadWorkerConfig() (*WorkerConfig, error) {
	var cfg WorkerConfig
	if err := envconfig.Process("queue", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	return &cfg, nil
}

func (w *WorkerConfig) Database() DatabaseConfig {
	return DatabaseConfig{
		Host:     w.DatabaseHost,
		Port:     w.DatabasePort,
		User:     w.DatabaseUser,
		Password: w.DatabasePassword,
		Name:     w.DatabaseName,
		SSLMode:  w.DatabaseSSLMode,
	}
}

func (w *WorkerConfig) Outbox() worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		BatchSize:     w.OutboxBatchSize,
		PollInterval:  time.Duration(w.OutboxPollIntervalSecs) * time.Second,
		RetryAttempts: w.OutboxRetryAttempts,
		RetryDelay:    time.Duration(w.OutboxRetryDelaySecs) * time.Second,
		Retention:     time.Duration(w.OutboxRetentionHours) * time.Hour,
	}
}
