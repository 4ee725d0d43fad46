// Package config provides Viper-based configuration management for engagesim
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vjranagit/engagesim/pkg/evaluation"
	"github.com/vjranagit/engagesim/pkg/storage"
	"github.com/vjranagit/engagesim/pkg/types"
)

// EnvPrefix prefixes every environment override, e.g. ENGAGESIM_STORAGE_BACKEND
const EnvPrefix = "ENGAGESIM"

// Config holds the application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Generation GenerationConfig `mapstructure:"generation"`
	Evaluation EvaluationConfig `mapstructure:"evaluation"`
	Report     ReportConfig     `mapstructure:"report"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Backend          string        `mapstructure:"backend"`
	Path             string        `mapstructure:"path"`
	CompressionLevel int           `mapstructure:"compression_level"`
	RedisAddr        string        `mapstructure:"redis_addr"`
	RedisPassword    string        `mapstructure:"redis_password"`
	RedisDB          int           `mapstructure:"redis_db"`
	MongoURI         string        `mapstructure:"mongo_uri"`
	MongoDatabase    string        `mapstructure:"mongo_database"`
	MongoCollection  string        `mapstructure:"mongo_collection"`
	CacheSize        int           `mapstructure:"cache_size"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	Journal          bool          `mapstructure:"journal"`
}

// GenerationConfig holds dataset generation settings
type GenerationConfig struct {
	// Seed makes noise reproducible; zero draws fresh noise on every run
	Seed         uint64 `mapstructure:"seed"`
	VariantsFile string `mapstructure:"variants_file"`
}

// EvaluationConfig holds harness settings
type EvaluationConfig struct {
	TrainHours    int           `mapstructure:"train_hours"`
	TestHours     int           `mapstructure:"test_hours"`
	Confidence    float64       `mapstructure:"confidence"`
	Metrics       []string      `mapstructure:"metrics"`
	Workers       int           `mapstructure:"workers"`
	Forecaster    string        `mapstructure:"forecaster"`
	ForecasterURL string        `mapstructure:"forecaster_url"`
	TrendHours    int           `mapstructure:"trend_hours"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// ReportConfig holds output settings
type ReportConfig struct {
	Dir    string `mapstructure:"dir"`
	Charts bool   `mapstructure:"charts"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Forecaster kinds
const (
	ForecasterSeasonal = "seasonal"
	ForecasterRemote   = "remote"
)

// Load reads configuration from an optional file and the environment
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("engagesim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/engagesim")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("invalid config defaults: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	store := storage.DefaultConfig()
	eval := evaluation.DefaultConfig()

	v.SetDefault("server.listen_addr", ":9090")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("storage.backend", store.Backend)
	v.SetDefault("storage.path", store.Path)
	v.SetDefault("storage.compression_level", store.CompressionLevel)
	v.SetDefault("storage.redis_addr", store.RedisAddr)
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.mongo_uri", store.MongoURI)
	v.SetDefault("storage.mongo_database", store.MongoDatabase)
	v.SetDefault("storage.mongo_collection", store.MongoCollection)
	v.SetDefault("storage.cache_size", store.CacheSize)
	v.SetDefault("storage.cache_ttl", store.CacheTTL)
	v.SetDefault("storage.journal", true)

	v.SetDefault("generation.seed", 0)
	v.SetDefault("generation.variants_file", "")

	v.SetDefault("evaluation.train_hours", eval.TrainHours)
	v.SetDefault("evaluation.test_hours", eval.TestHours)
	v.SetDefault("evaluation.confidence", eval.Confidence)
	v.SetDefault("evaluation.metrics", []string{string(types.Likes)})
	v.SetDefault("evaluation.workers", 1)
	v.SetDefault("evaluation.forecaster", ForecasterSeasonal)
	v.SetDefault("evaluation.forecaster_url", "")
	v.SetDefault("evaluation.trend_hours", 72)
	v.SetDefault("evaluation.timeout", 60*time.Second)

	v.SetDefault("report.dir", "./plots")
	v.SetDefault("report.charts", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server listen address is required")
	}

	switch c.Storage.Backend {
	case storage.BackendFile, storage.BackendBadger:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required")
		}
	case storage.BackendRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("redis address is required")
		}
	case storage.BackendMongo:
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("mongo uri is required")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Storage.CompressionLevel < 1 || c.Storage.CompressionLevel > 4 {
		return fmt.Errorf("compression level must be between 1 and 4")
	}

	if _, err := c.ToEvaluationConfig(); err != nil {
		return err
	}
	if c.Evaluation.Workers < 1 {
		return fmt.Errorf("evaluation workers must be at least 1")
	}

	switch c.Evaluation.Forecaster {
	case ForecasterSeasonal:
	case ForecasterRemote:
		if c.Evaluation.ForecasterURL == "" {
			return fmt.Errorf("forecaster url is required for the remote forecaster")
		}
	default:
		return fmt.Errorf("unknown forecaster %q", c.Evaluation.Forecaster)
	}

	return nil
}

// ToStorageConfig converts to storage.Config
func (c *Config) ToStorageConfig() *storage.Config {
	return &storage.Config{
		Backend:          c.Storage.Backend,
		Path:             c.Storage.Path,
		CompressionLevel: c.Storage.CompressionLevel,
		RedisAddr:        c.Storage.RedisAddr,
		RedisPassword:    c.Storage.RedisPassword,
		RedisDB:          c.Storage.RedisDB,
		MongoURI:         c.Storage.MongoURI,
		MongoDatabase:    c.Storage.MongoDatabase,
		MongoCollection:  c.Storage.MongoCollection,
		CacheSize:        c.Storage.CacheSize,
		CacheTTL:         c.Storage.CacheTTL,
	}
}

// ToEvaluationConfig converts to evaluation.Config
func (c *Config) ToEvaluationConfig() (evaluation.Config, error) {
	cfg := evaluation.Config{
		TrainHours: c.Evaluation.TrainHours,
		TestHours:  c.Evaluation.TestHours,
		Confidence: c.Evaluation.Confidence,
	}
	for _, name := range c.Evaluation.Metrics {
		m, err := types.ParseMetric(strings.TrimSpace(name))
		if err != nil {
			return cfg, err
		}
		cfg.Metrics = append(cfg.Metrics, m)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
