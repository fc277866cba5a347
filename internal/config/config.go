// Package config loads application configuration from file and
// environment and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Dataset DatasetConfig `yaml:"dataset" mapstructure:"dataset"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Train   TrainConfig   `yaml:"train" mapstructure:"train"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// DatasetConfig locates the salary dataset.
type DatasetConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// CacheConfig configures the model cache tiers.
type CacheConfig struct {
	// Path is the sqlite database holding the durable local tier.
	Path string `yaml:"path" mapstructure:"path"`
	// BundledDir is the well-known directory holding the read-only
	// bundled model artifacts (model.json, scaler.json).
	BundledDir string `yaml:"bundled_dir" mapstructure:"bundled_dir"`
}

// TrainConfig configures the training loop. Defaults match the fixed
// model hyperparameters; tests lower epochs to keep runs short.
type TrainConfig struct {
	Epochs          int     `yaml:"epochs" mapstructure:"epochs"`
	BatchSize       int     `yaml:"batch_size" mapstructure:"batch_size"`
	ValidationSplit float64 `yaml:"validation_split" mapstructure:"validation_split"`
	LearningRate    float64 `yaml:"learning_rate" mapstructure:"learning_rate"`
	Seed            int64   `yaml:"seed" mapstructure:"seed"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port      int     `yaml:"port" mapstructure:"port"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SALARYLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dataset.path", "data/salaries.csv")
	v.SetDefault("cache.path", "salarylens.db")
	v.SetDefault("cache.bundled_dir", "assets/model")
	v.SetDefault("train.epochs", 100)
	v.SetDefault("train.batch_size", 32)
	v.SetDefault("train.validation_split", 0.2)
	v.SetDefault("train.learning_rate", 0.001)
	v.SetDefault("train.seed", 0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 20)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Default returns the built-in configuration without consulting file or
// environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always unmarshal cleanly.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
