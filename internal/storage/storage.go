// Package storage persists completed battles.
package storage

import (
	"context"
	"fmt"

	battle "github.com/zhouzirui/ball-arena/backend/internal/model/battle"
	"github.com/zhouzirui/ball-arena/backend/internal/storage/postgres"
	"github.com/zhouzirui/ball-arena/backend/internal/storage/sqlite"
)

// Store records battle results and lists the most recent ones.
type Store interface {
	RecordResult(ctx context.Context, record battle.Record) error
	Recent(ctx context.Context, limit int) ([]battle.Record, error)
	Close() error
}

// Open connects the store selected by driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "postgres":
		return postgres.New(ctx, dsn)
	case "sqlite":
		return sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}
