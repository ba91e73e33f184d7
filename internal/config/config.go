// Package config loads server settings from defaults, an optional YAML file
// and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/mmynk/coffeeledger/internal/models"
	"github.com/mmynk/coffeeledger/internal/money"
	"github.com/mmynk/coffeeledger/internal/validation"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// ConfigEnv names the YAML file to overlay on the defaults.
const ConfigEnv = "LEDGER_CONFIG"

// StorageConfig selects and locates the ledger store.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	DataDir string `yaml:"data_dir"`
	DBPath  string `yaml:"db_path"`
}

// Config is the server configuration.
type Config struct {
	Port            int               `yaml:"port"`
	Storage         StorageConfig     `yaml:"storage"`
	StaticPath      string            `yaml:"static_path"`
	LogLevel        string            `yaml:"log_level"`
	LogFormat       string            `yaml:"log_format"`
	SettlementModel string            `yaml:"settlement_model"`
	TieStrategy     string            `yaml:"tie_strategy"`
	DefaultRoster   map[string]string `yaml:"default_roster"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port: 8080,
		Storage: StorageConfig{
			Backend: BackendFile,
			DataDir: "./data",
			DBPath:  "./data/ledger.db",
		},
		StaticPath:      "../frontend/dist",
		LogLevel:        "info",
		LogFormat:       "text",
		SettlementModel: string(models.DefaultSettlementModel),
		TieStrategy:     string(models.DefaultTieStrategy),
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// LEDGER_CONFIG if set, then environment overrides. The result is validated.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(ConfigEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: PORT: %w", err)
		}
		cfg.Port = port
	}
	setString(&cfg.Storage.Backend, "STORAGE_BACKEND")
	setString(&cfg.Storage.DataDir, "DATA_DIR")
	setString(&cfg.Storage.DBPath, "DB_PATH")
	setString(&cfg.StaticPath, "STATIC_PATH")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFormat, "LOG_FORMAT")
	setString(&cfg.SettlementModel, "SETTLEMENT_MODEL")
	setString(&cfg.TieStrategy, "TIE_STRATEGY")
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks every field that has a closed set of values.
func (c Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.DataDir == "" {
			errs = append(errs, errors.New("storage.data_dir required for file backend"))
		}
	case BackendSQLite:
		if c.Storage.DBPath == "" {
			errs = append(errs, errors.New("storage.db_path required for sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}
	if _, ok := models.ParseSettlementModel(c.SettlementModel); !ok {
		errs = append(errs, fmt.Errorf("unknown settlement model %q", c.SettlementModel))
	}
	if c.TieStrategy != "" {
		if _, ok := models.LookupTieStrategy(c.TieStrategy); !ok {
			errs = append(errs, fmt.Errorf("unknown tie strategy %q", c.TieStrategy))
		}
	}
	if _, err := c.Roster(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Settlement returns the parsed settlement model.
func (c Config) Settlement() models.SettlementModel {
	m, _ := models.ParseSettlementModel(c.SettlementModel)
	return m
}

// Tie returns the parsed default tie strategy.
func (c Config) Tie() models.TieStrategy {
	return models.ParseTieStrategy(c.TieStrategy)
}

// Roster returns the configured default roster, or nil when none is set.
func (c Config) Roster() (map[string]money.Money, error) {
	if len(c.DefaultRoster) == 0 {
		return nil, nil
	}
	roster := make(map[string]money.Money, len(c.DefaultRoster))
	for rawName, rawPrice := range c.DefaultRoster {
		name, err := validation.Name(rawName)
		if err != nil {
			return nil, fmt.Errorf("default_roster %q: %w", rawName, err)
		}
		price, err := validation.Price(rawPrice)
		if err != nil {
			return nil, fmt.Errorf("default_roster %q: %w", rawName, err)
		}
		roster[name] = price
	}
	return roster, nil
}
