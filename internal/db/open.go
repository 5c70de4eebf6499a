package db

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Supported store drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrNotConfigured is returned by Open when no store driver is set
var ErrNotConfigured = errors.New("no prompt store configured")

// StoreConfig describes how to reach the prompt store
type StoreConfig struct {
	Driver         string
	URL            string
	SQLitePath     string
	ConnectTimeout time.Duration
	AutoMigrate    bool
}

// Enabled reports whether a store driver has been selected
func (c StoreConfig) Enabled() bool {
	return c.Driver != ""
}

// Open connects to the configured store and, if requested, applies migrations
func Open(ctx context.Context, cfg StoreConfig) (PromptStore, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch cfg.Driver {
	case DriverPostgres:
		if cfg.URL == "" {
			return nil, fmt.Errorf("database url is required for the %s driver", cfg.Driver)
		}
		pg, err := Connect(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := pg.Migrate(ctx); err != nil {
				_ = pg.Close()
				return nil, err
			}
		}
		return pg, nil

	case DriverSQLite:
		lite, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := lite.Migrate(ctx); err != nil {
				_ = lite.Close()
				return nil, err
			}
		}
		return lite, nil

	case "":
		return nil, ErrNotConfigured

	default:
		return nil, fmt.Errorf("unknown prompt store driver %q", cfg.Driver)
	}
}

// NewHandleFromConfig returns a lazily connecting Handle for cfg
func NewHandleFromConfig(cfg StoreConfig) *Handle {
	return NewHandle(func(ctx context.Context) (PromptStore, error) {
		return Open(ctx, cfg)
	}, DefaultRetryAfter)
}
