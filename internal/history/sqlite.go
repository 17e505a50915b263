// internal/history/sqlite.go
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/bkaplan/brickwatch/internal/config"
	"github.com/bkaplan/brickwatch/pkg/types"
)

// SQLiteStore is the default persistent backend: a single local file,
// no server to run.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// NewSQLiteStore opens (and if needed creates) the database file and
// its tables.
func NewSQLiteStore(cfg config.HistoryConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite history requires a database path")
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{db: db, table: tableName(cfg)}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func tableName(cfg config.HistoryConfig) string {
	if cfg.Table != "" {
		return cfg.Table
	}
	return "brickwatch"
}

func (s *SQLiteStore) createTables() error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_snapshots (
			category TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`, s.table),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			category TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_reports_category
			ON %s_reports (category, created_at)`, s.table, s.table),
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create history tables: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) LoadSnapshot(ctx context.Context, category string) (types.Snapshot, error) {
	query := fmt.Sprintf("SELECT payload FROM %s_snapshots WHERE category = ?", s.table)

	var payload string
	err := s.db.QueryRowContext(ctx, query, category).Scan(&payload)
	if err == sql.ErrNoRows {
		return types.Snapshot{Category: category}, nil
	}
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snapshot types.Snapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return types.Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snapshot types.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s_snapshots (category, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (category) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`, s.table)
	if _, err := s.db.ExecContext(ctx, query, snapshot.Category, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveReport(ctx context.Context, report *types.ChangeReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	query := fmt.Sprintf("INSERT INTO %s_reports (category, payload, created_at) VALUES (?, ?, ?)", s.table)
	if _, err := s.db.ExecContext(ctx, query, report.Category, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
