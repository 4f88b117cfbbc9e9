// Package config loads obtainable settings from YAML files and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Sternrassler/obtainable/pkg/logging"
	"github.com/Sternrassler/obtainable/pkg/obtainable"
	"github.com/Sternrassler/obtainable/pkg/store"
)

// EnvPrefix prefixes every environment override (OBTAINABLE_REDIS_ADDR, ...).
const EnvPrefix = "OBTAINABLE"

// Config is the complete runtime configuration.
type Config struct {
	ModelsNamespace      string        `mapstructure:"models_namespace"`
	ObtainablesNamespace string        `mapstructure:"obtainables_namespace"`
	DefaultTTL           time.Duration `mapstructure:"default_ttl"`
	MemoTTL              time.Duration `mapstructure:"memo_ttl"` // registry resolution memo
	MemoSize             int           `mapstructure:"memo_size"`

	Redis  RedisConfig   `mapstructure:"redis"`
	Log    LogConfig     `mapstructure:"log"`
	Owners []OwnerConfig `mapstructure:"owners"`
}

// RedisConfig holds the Redis connection and store layout settings.
type RedisConfig struct {
	Addr           string `mapstructure:"addr"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	Namespace      string `mapstructure:"namespace"`
	FlushBatchSize int64  `mapstructure:"flush_batch_size"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// OwnerConfig is the static registration data of one owner type.
// Owner types are a list because map keys would be lowercased and split on dots.
type OwnerConfig struct {
	Name   string        `mapstructure:"name"`
	Prefix string        `mapstructure:"prefix"`
	TTL    time.Duration `mapstructure:"ttl"` // 0 = default_ttl
	Keys   []KeyConfig   `mapstructure:"keys"`
}

// KeyConfig describes one semantic key of an owner type.
type KeyConfig struct {
	Key      string        `mapstructure:"key"`
	Template string        `mapstructure:"template"`
	TTL      time.Duration `mapstructure:"ttl"`
	Cast     string        `mapstructure:"cast"`
}

// Load reads configuration from path, or from obtainable.yaml in the usual
// locations when path is empty. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("obtainable")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/obtainable/")
		v.AddConfigPath("$HOME/.obtainable")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	registry := obtainable.DefaultRegistryConfig()
	redisStore := store.DefaultRedisConfig()

	v.SetDefault("models_namespace", registry.ModelsNamespace)
	v.SetDefault("obtainables_namespace", registry.ObtainablesNamespace)
	v.SetDefault("default_ttl", obtainable.DefaultTTL)
	v.SetDefault("memo_ttl", registry.MemoTTL)
	v.SetDefault("memo_size", registry.MemoSize)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.namespace", redisStore.Namespace)
	v.SetDefault("redis.flush_batch_size", redisStore.FlushBatchSize)

	v.SetDefault("log.level", string(logging.LevelInfo))
	v.SetDefault("log.pretty", false)
}

// Validate checks settings that cannot be checked per owner type.
func (c *Config) Validate() error {
	if c.DefaultTTL <= 0 {
		return fmt.Errorf("default_ttl must be positive (got %s)", c.DefaultTTL)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	names := make(map[string]bool, len(c.Owners))
	prefixes := make(map[string]bool, len(c.Owners))
	for i, owner := range c.Owners {
		if owner.Name == "" {
			return fmt.Errorf("owners[%d]: name is required", i)
		}
		if names[owner.Name] {
			return fmt.Errorf("owners[%d]: duplicate name %q", i, owner.Name)
		}
		if prefixes[owner.Prefix] {
			return fmt.Errorf("owners[%d]: duplicate prefix %q", i, owner.Prefix)
		}
		names[owner.Name] = true
		prefixes[owner.Prefix] = true

		keys := make(map[string]bool, len(owner.Keys))
		for j, key := range owner.Keys {
			if key.Key == "" {
				return fmt.Errorf("owners[%d].keys[%d]: key is required", i, j)
			}
			if keys[key.Key] {
				return fmt.Errorf("owners[%d].keys[%d]: duplicate key %q", i, j, key.Key)
			}
			keys[key.Key] = true
		}
	}
	return nil
}

// Definitions converts the configured owner types into obtainer definitions.
// Computations and shortcuts are bound in code afterwards.
func (c *Config) Definitions() []obtainable.Definition {
	defs := make([]obtainable.Definition, 0, len(c.Owners))
	for _, owner := range c.Owners {
		ttl := owner.TTL
		if ttl <= 0 {
			ttl = c.DefaultTTL
		}

		def := obtainable.Definition{
			Name:         owner.Name,
			Prefix:       owner.Prefix,
			TTL:          ttl,
			KeyMap:       make(map[string]string),
			TTLMap:       make(map[string]time.Duration),
			Casts:        make(map[string]obtainable.CastKind),
			Computations: make(map[string]obtainable.Computation),
		}
		for _, key := range owner.Keys {
			if key.Template != "" {
				def.KeyMap[key.Key] = key.Template
			}
			if key.TTL > 0 {
				def.TTLMap[key.Key] = key.TTL
			}
			if key.Cast != "" {
				def.Casts[key.Key] = obtainable.CastKind(strings.ToLower(key.Cast))
			}
		}
		defs = append(defs, def)
	}
	return defs
}

// Definition returns the configured owner type called name.
func (c *Config) Definition(name string) (obtainable.Definition, bool) {
	for _, def := range c.Definitions() {
		if def.Name == name {
			return def, true
		}
	}
	return obtainable.Definition{}, false
}

// RegistryConfig returns the owner-type resolution settings.
func (c *Config) RegistryConfig() obtainable.RegistryConfig {
	return obtainable.RegistryConfig{
		ModelsNamespace:      c.ModelsNamespace,
		ObtainablesNamespace: c.ObtainablesNamespace,
		MemoTTL:              c.MemoTTL,
		MemoSize:             c.MemoSize,
	}
}

// StoreConfig returns the Redis store layout settings.
func (c *Config) StoreConfig() store.RedisConfig {
	return store.RedisConfig{
		Namespace:      c.Redis.Namespace,
		FlushBatchSize: c.Redis.FlushBatchSize,
	}
}

// LoggingConfig returns the logger settings.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level, _ = logging.ParseLevel(c.Log.Level)
	cfg.Pretty = c.Log.Pretty
	return cfg
}
