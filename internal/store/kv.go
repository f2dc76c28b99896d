// Package store provides the key/value substrate the repositories persist into.
package store

import (
	"context"
	"fmt"
	"strings"
)

// KV is a flat key/value store. Get reports ok=false for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	DriverGorm   = "gorm"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Open returns the KV backend for driver.
func Open(driver, dsn string) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverGorm:
		db, err := NewDB(dsn)
		if err != nil {
			return nil, err
		}
		return NewGormKV(db), nil
	case DriverSQLite:
		return OpenSQLite(dsn)
	case DriverMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
