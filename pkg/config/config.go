// Package config loads and validates wordsmith configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Dictionary, Search, Postgres, Redis, Kafka, etc.).
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Search     SearchConfig     `yaml:"search"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	RateLimit  RateLimitConfig  `yaml:"rateLimit"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
	Logging    LoggingConfig    `yaml:"logging"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
}

// Dictionary sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// DictionaryConfig says where the pronouncing dictionary comes from.
type DictionaryConfig struct {
	Source   string `yaml:"source"`
	Path     string `yaml:"path"`
	Format   string `yaml:"format"`   // auto, cmudict or gob
	Encoding string `yaml:"encoding"` // text dictionaries only
}

// SearchConfig bounds the work a single homophone query may do.
type SearchConfig struct {
	MaxPhonemes   int           `yaml:"maxPhonemes"`
	MaxPartitions int64         `yaml:"maxPartitions"`
	Timeout       time.Duration `yaml:"timeout"`
	Workers       int           `yaml:"workers"`
	MaxPhrases    int           `yaml:"maxPhrases"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings. No brokers disables
// search-event publishing.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

type KafkaTopics struct {
	SearchEvents string `yaml:"searchEvents"`
}

// RedisConfig holds Redis connection and caching parameters. An empty Addr
// disables the result cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
}

type AnalyticsConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig controls span logging.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns the configuration used for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RequestTimeout:  15 * time.Second,
		},
		Dictionary: DictionaryConfig{
			Source:   SourceFile,
			Path:     "data/cmudict.dict",
			Format:   "auto",
			Encoding: "utf-8",
		},
		Search: SearchConfig{
			MaxPhonemes:   24,
			MaxPartitions: 1 << 22,
			Timeout:       10 * time.Second,
			Workers:       runtime.GOMAXPROCS(0),
			MaxPhrases:    1000,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "wordsmith",
			User:            "wordsmith",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			ConsumerGroup: "wordsmith-analytics",
			Topics: KafkaTopics{
				SearchEvents: "homophone-search-events",
			},
		},
		Redis: RedisConfig{
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 120,
		},
		Analytics: AnalyticsConfig{
			Port: 8083,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate rejects settings no component can honour.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Dictionary.Source {
	case SourceFile:
		if c.Dictionary.Path == "" {
			errs = append(errs, errors.New("dictionary.path is required for the file source"))
		}
	case SourcePostgres:
	default:
		errs = append(errs, fmt.Errorf("dictionary.source %q must be %q or %q", c.Dictionary.Source, SourceFile, SourcePostgres))
	}
	switch c.Dictionary.Format {
	case "", "auto", "cmudict", "gob":
	default:
		errs = append(errs, fmt.Errorf("dictionary.format %q must be auto, cmudict or gob", c.Dictionary.Format))
	}
	switch strings.ToLower(c.Dictionary.Encoding) {
	case "", "utf-8", "utf8", "latin-1", "latin1", "iso-8859-1", "windows-1252", "cp1252":
	default:
		errs = append(errs, fmt.Errorf("dictionary.encoding %q is not supported", c.Dictionary.Encoding))
	}
	if c.Search.MaxPhonemes < 0 || c.Search.MaxPhonemes > 64 {
		errs = append(errs, fmt.Errorf("search.maxPhonemes %d must be within 0..64", c.Search.MaxPhonemes))
	}
	if c.Search.MaxPartitions < 0 {
		errs = append(errs, errors.New("search.maxPartitions must not be negative"))
	}
	if c.Search.Timeout < 0 {
		errs = append(errs, errors.New("search.timeout must not be negative"))
	}
	if c.Search.Workers < 0 {
		errs = append(errs, errors.New("search.workers must not be negative"))
	}
	if c.Search.MaxPhrases < 0 {
		errs = append(errs, errors.New("search.maxPhrases must not be negative"))
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("rateLimit.requestsPerMinute must not be negative"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topics.SearchEvents == "" {
		errs = append(errs, errors.New("kafka.topics.searchEvents is required when brokers are set"))
	}
	return errors.Join(errs...)
}

// applyEnvOverrides reads WS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	setInt("WS_SERVER_PORT", &cfg.Server.Port)
	setString("WS_DICTIONARY_SOURCE", &cfg.Dictionary.Source)
	setString("WS_DICTIONARY_PATH", &cfg.Dictionary.Path)
	setString("WS_DICTIONARY_FORMAT", &cfg.Dictionary.Format)
	setString("WS_DICTIONARY_ENCODING", &cfg.Dictionary.Encoding)
	setInt("WS_SEARCH_MAX_PHONEMES", &cfg.Search.MaxPhonemes)
	if v := os.Getenv("WS_SEARCH_MAX_PARTITIONS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Search.MaxPartitions = n
		}
	}
	if v := os.Getenv("WS_SEARCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Search.Timeout = d
		}
	}
	setInt("WS_SEARCH_WORKERS", &cfg.Search.Workers)
	setInt("WS_SEARCH_MAX_PHRASES", &cfg.Search.MaxPhrases)
	setString("WS_POSTGRES_HOST", &cfg.Postgres.Host)
	setInt("WS_POSTGRES_PORT", &cfg.Postgres.Port)
	setString("WS_POSTGRES_DATABASE", &cfg.Postgres.Database)
	setString("WS_POSTGRES_USER", &cfg.Postgres.User)
	setString("WS_POSTGRES_PASSWORD", &cfg.Postgres.Password)
	setString("WS_POSTGRES_SSLMODE", &cfg.Postgres.SSLMode)
	if v := os.Getenv("WS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	setString("WS_REDIS_ADDR", &cfg.Redis.Addr)
	setString("WS_REDIS_PASSWORD", &cfg.Redis.Password)
	setInt("WS_RATELIMIT_RPM", &cfg.RateLimit.RequestsPerMinute)
	setString("WS_LOGGING_LEVEL", &cfg.Logging.Level)
	setString("WS_LOGGING_FORMAT", &cfg.Logging.Format)
	setInt("WS_METRICS_PORT", &cfg.Metrics.Port)
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
