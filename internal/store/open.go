package store

import (
	"context"
	"fmt"
)

// Drivers accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Options selects and configures a Store backend.
type Options struct {
	Driver     string
	SQLitePath string
	RedisURL   string
	KeyPrefix  string
}

// Open constructs the Store named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		return NewSQLiteStore(opts.SQLitePath)
	case DriverRedis:
		return NewRedisStore(ctx, opts.RedisURL, opts.KeyPrefix)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q (valid: sqlite, redis, memory)", opts.Driver)
	}
}
