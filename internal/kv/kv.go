// ABOUTME: Key-value store interface and driver factory for parley persistence
// ABOUTME: Callers namespace keys explicitly; drivers are memory, sqlite, redis

package kv

import (
	"context"
	"errors"
	"fmt"
)

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// ErrUnknownDriver is returned when Open is given an unrecognized driver name.
var ErrUnknownDriver = errors.New("unknown kv driver")

// Store is a durable string key-value store. It is the only persistence
// surface the session core touches; callers build fully namespaced keys
// (e.g. "chat_{tenant}_{session}") so no ambient scoping happens inside
// a driver.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// Config selects and configures a driver.
type Config struct {
	Driver string `yaml:"driver"`

	// Path is the database file location for the sqlite driver.
	Path string `yaml:"path"`

	// Redis connection settings, used only by the redis driver.
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// Open creates a Store for the configured driver. An empty driver name
// selects sqlite, the default durable store.
func Open(cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite, "":
		return NewSQLiteStore(cfg.Path)
	case DriverRedis:
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
