// Package history persists catalog snapshots and change reports so
// that each monitoring run can be compared against the previous one.
// Snapshots are stored whole, one document per category; the newest
// snapshot always replaces the previous one.
package history

import (
	"context"
	"fmt"

	"github.com/bkaplan/brickwatch/internal/config"
	"github.com/bkaplan/brickwatch/pkg/types"
)

// Store is the persistence contract for snapshots and reports.
type Store interface {
	// LoadSnapshot returns the last stored snapshot for a category.
	// A category with no history yields an empty snapshot and no
	// error; the first run of a category diffs against nothing.
	LoadSnapshot(ctx context.Context, category string) (types.Snapshot, error)

	// SaveSnapshot replaces the stored snapshot for the snapshot's
	// category.
	SaveSnapshot(ctx context.Context, snapshot types.Snapshot) error

	// SaveReport appends a change report to the report log.
	SaveReport(ctx context.Context, report *types.ChangeReport) error

	Close() error
}

// Open constructs the store selected by the configuration backend.
func Open(ctx context.Context, cfg config.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(cfg)
	case "postgres":
		return NewPostgresStore(cfg)
	case "mysql":
		return NewMySQLStore(cfg)
	case "mongo":
		return NewMongoStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", cfg.Backend)
	}
}
