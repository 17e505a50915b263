// internal/history/sqlite_test.go
package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bkaplan/brickwatch/internal/config"
	"github.com/bkaplan/brickwatch/pkg/types"
)

func configFor(backend string) config.HistoryConfig {
	return config.HistoryConfig{Backend: backend}
}

func sqliteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(config.HistoryConfig{
		Backend: "sqlite",
		Path:    filepath.Join(t.TempDir(), "history.db"),
		Table:   "test",
	})
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := sqliteStore(t)
	ctx := context.Background()

	snapshot := testSnapshot("icons")
	if err := store.SaveSnapshot(ctx, snapshot); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	loaded, err := store.LoadSnapshot(ctx, "icons")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(loaded.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(loaded.Records))
	}
	record := loaded.Records[0]
	if record.ID != "21058" || record.Price != 279.99 || record.Currency != "TRY" {
		t.Errorf("record did not survive the round trip: %+v", record)
	}
	if !record.Timestamp.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp changed: %v", record.Timestamp)
	}
}

func TestSQLiteStoreUpsert(t *testing.T) {
	store := sqliteStore(t)
	ctx := context.Background()

	first := testSnapshot("icons")
	if err := store.SaveSnapshot(ctx, first); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	second := testSnapshot("icons")
	second.Records[0].Price = 299.99
	if err := store.SaveSnapshot(ctx, second); err != nil {
		t.Fatalf("second SaveSnapshot failed: %v", err)
	}

	loaded, err := store.LoadSnapshot(ctx, "icons")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(loaded.Records) != 1 || loaded.Records[0].Price != 299.99 {
		t.Errorf("upsert did not replace the snapshot: %+v", loaded)
	}
}

func TestSQLiteStoreMissingCategory(t *testing.T) {
	store := sqliteStore(t)

	loaded, err := store.LoadSnapshot(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(loaded.Records) != 0 {
		t.Errorf("expected empty snapshot, got %d records", len(loaded.Records))
	}
}

func TestSQLiteStoreSaveReport(t *testing.T) {
	store := sqliteStore(t)

	report := &types.ChangeReport{
		Category:  "icons",
		Timestamp: time.Now().UTC(),
		Summary:   types.ChangeSummary{TotalCurrentProducts: 2},
	}
	if err := store.SaveReport(context.Background(), report); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(config.HistoryConfig{Backend: "sqlite"}); err == nil {
		t.Error("expected error for missing path")
	}
}
