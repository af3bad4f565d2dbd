// Package config layers application settings from flag defaults, an
// optional YAML file, MEMORANK_ environment variables, and explicit
// command-line flags, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "MEMORANK_"

// Config holds all runtime settings.
type Config struct {
	ListenAddr   string `koanf:"listen_addr" validate:"required"`
	DatabasePath string `koanf:"database_path" validate:"required"`
	ReposDir     string `koanf:"repos_dir" validate:"required"`

	Bootstrap BootstrapConfig `koanf:"bootstrap"`
	Training  TrainingConfig  `koanf:"training"`
}

// BootstrapConfig controls the synthetic baseline generated when no
// review history exists yet.
type BootstrapConfig struct {
	Sessions int   `koanf:"sessions" validate:"min=1"`
	Seed     int64 `koanf:"seed"`
}

// TrainingConfig holds the gradient-descent hyperparameters.
type TrainingConfig struct {
	Epochs       int     `koanf:"epochs" validate:"min=1"`
	LearningRate float64 `koanf:"learning_rate" validate:"gt=0"`
	L2           float64 `koanf:"l2" validate:"gte=0"`
}

// RegisterFlags declares the command-line flags and their defaults.
// Flag names double as config keys, so every setting can also come
// from the YAML file or the environment.
func RegisterFlags(f *pflag.FlagSet) {
	f.String("listen_addr", ":8080", "address for the HTTP server")
	f.String("database_path", "memorank.db", "path to the sqlite database")
	f.String("repos_dir", "repos", "directory for cloned git deck sources")
	f.Int("bootstrap.sessions", 500, "simulated reviews in the synthetic baseline")
	f.Int64("bootstrap.seed", 42, "random seed for the synthetic baseline")
	f.Int("training.epochs", 400, "gradient descent epochs per retrain")
	f.Float64("training.learning_rate", 0.5, "gradient descent learning rate")
	f.Float64("training.l2", 1e-4, "L2 regularisation strength")
}

// Load builds the configuration from the given flag set and optional
// YAML file path. An empty or missing file path is not an error; a
// file that exists but fails to parse is.
func Load(flags *pflag.FlagSet, filePath string) (Config, error) {
	k := koanf.New(".")

	// Flag defaults first so later layers can override them.
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load flag defaults: %w", err)
	}

	if filePath != "" {
		if _, err := os.Stat(filePath); err == nil {
			if err := k.Load(file.Provider(filePath), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("failed to load config file %s: %w", filePath, err)
			}
		}
	}

	// MEMORANK_TRAINING__EPOCHS maps to training.epochs; single
	// underscores stay part of the key (MEMORANK_LISTEN_ADDR).
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	// Explicitly set flags win over everything.
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
