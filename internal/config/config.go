// Package config loads the ZoneRun service configuration: defaults, then an
// optional YAML file, then ZONERUN_* environment overrides. Out-of-range
// values are rejected with a validation error, never clamped.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/sawpanic/zonerun/internal/domain/zone"
)

// Config is the full service configuration.
type Config struct {
	Symbol   string         `yaml:"symbol" envconfig:"SYMBOL" validate:"required"`
	Engine   EngineConfig   `yaml:"engine"`
	HTTP     HTTPConfig     `yaml:"http"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// EngineConfig mirrors the recognized zone engine options. Ranges follow the
// engine contract; validation here fails fast before the engine's own guard.
type EngineConfig struct {
	PivotLength     int     `yaml:"pivot_length" envconfig:"PIVOT_LENGTH" validate:"gte=1"`
	WidthMult       float64 `yaml:"width_mult" envconfig:"WIDTH_MULT" validate:"gte=0.1,lte=2.0"`
	MaxZonesPerSide int     `yaml:"max_zones_per_side" envconfig:"MAX_ZONES_PER_SIDE" validate:"gte=1,lte=10"`
	DecayRate       float64 `yaml:"decay_rate" envconfig:"DECAY_RATE" validate:"gte=0.9,lte=0.999"`
	Seed            int64   `yaml:"seed" envconfig:"SEED"`
}

// HTTPConfig configures the read-only HTTP surface.
type HTTPConfig struct {
	Listen string `yaml:"listen" envconfig:"HTTP_LISTEN" validate:"required"`
}

// RedisConfig configures the latest-snapshot cache. An empty address
// disables the cache.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
	TTLSec   int    `yaml:"ttl_sec" envconfig:"REDIS_TTL_SEC" validate:"gte=0"`
}

// PostgresConfig configures the lifecycle event journal. An empty DSN
// disables journaling.
type PostgresConfig struct {
	DSN string `yaml:"dsn" envconfig:"POSTGRES_DSN"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Symbol: "BTCUSDT",
		Engine: EngineConfig{
			PivotLength:     5,
			WidthMult:       0.5,
			MaxZonesPerSide: 5,
			DecayRate:       0.997,
		},
		HTTP:  HTTPConfig{Listen: "127.0.0.1:8080"},
		Redis: RedisConfig{TTLSec: 300},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// ZONERUN_* environment variables, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process("zonerun", cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// EngineConfig maps the service options onto the zone engine configuration,
// keeping the engine defaults for constants the file does not expose.
func (c *Config) EngineConfig() zone.Config {
	ec := zone.DefaultConfig()
	ec.PivotLength = c.Engine.PivotLength
	ec.WidthMult = c.Engine.WidthMult
	ec.MaxZonesPerSide = c.Engine.MaxZonesPerSide
	ec.DecayRate = c.Engine.DecayRate
	ec.Seed = c.Engine.Seed
	return ec
}
