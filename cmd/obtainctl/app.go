package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/obtainable/pkg/config"
	"github.com/Sternrassler/obtainable/pkg/logging"
	"github.com/Sternrassler/obtainable/pkg/obtainable"
	"github.com/Sternrassler/obtainable/pkg/store"
)

// app carries the state shared by every subcommand.
type app struct {
	out io.Writer

	configPath string
	redisAddr  string

	cfg    *config.Config
	logger zerolog.Logger
	redis  *redis.Client
}

func newApp(out io.Writer) *app {
	return &app{out: out, logger: zerolog.Nop()}
}

// load reads the configuration and sets up logging once.
func (a *app) load() error {
	if a.cfg != nil {
		return nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.redisAddr != "" {
		cfg.Redis.Addr = a.redisAddr
	}

	a.cfg = cfg
	logging.Setup(cfg.LoggingConfig())
	a.logger = logging.NewLogger("obtainctl")
	return nil
}

// connect opens the Redis connection and verifies it.
func (a *app) connect(ctx context.Context) (*redis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	if err := a.load(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", a.cfg.Redis.Addr, err)
	}
	a.logger.Debug().Str("addr", a.cfg.Redis.Addr).Msg("Connected to Redis")

	a.redis = client
	return client, nil
}

func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
		a.redis = nil
	}
}

// registry registers every configured owner type against st.
func (a *app) registry(st obtainable.Store) (*obtainable.Registry, error) {
	if err := a.load(); err != nil {
		return nil, err
	}
	reg := obtainable.NewRegistry(st, a.cfg.RegistryConfig(), a.logger)
	for _, def := range a.cfg.Definitions() {
		if _, err := reg.Register(def); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// offline resolves owner against an in-memory store. Key rendering and
// parsing never touch Redis.
func (a *app) offline(owner string) (*obtainable.Obtainer, error) {
	reg, err := a.registry(store.NewMemoryStore())
	if err != nil {
		return nil, err
	}
	return a.lookup(reg, owner)
}

// online resolves owner against the configured Redis store.
func (a *app) online(ctx context.Context, owner string) (*obtainable.Obtainer, error) {
	reg, err := a.onlineRegistry(ctx)
	if err != nil {
		return nil, err
	}
	return a.lookup(reg, owner)
}

func (a *app) onlineRegistry(ctx context.Context) (*obtainable.Registry, error) {
	client, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	return a.registry(store.NewRedisStore(client, a.cfg.StoreConfig(), a.logger))
}

// lookup accepts an obtainer name or its prefix.
func (a *app) lookup(reg *obtainable.Registry, owner string) (*obtainable.Obtainer, error) {
	if o, err := reg.Lookup(owner); err == nil {
		return o, nil
	}
	for _, def := range a.cfg.Definitions() {
		if def.Prefix == owner {
			return reg.Lookup(def.Name)
		}
	}
	return nil, fmt.Errorf("%w: %s", obtainable.ErrObtainableClassNotFound, owner)
}

// parseArgs turns name=value pairs into Args. Integers become int, true and
// false become bool, everything else stays a string.
func parseArgs(pairs []string) (obtainable.Args, error) {
	args := make(obtainable.Args, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid argument %q: want name=value", pair)
		}
		args[name] = parseValue(value)
	}
	return args, nil
}

func parseValue(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// formatArgs renders args as sorted name=value pairs.
func formatArgs(args obtainable.Args) string {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + obtainable.FormatValue(args[name])
	}
	return strings.Join(parts, " ")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
