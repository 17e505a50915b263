// internal/history/postgres.go
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/bkaplan/brickwatch/internal/config"
	"github.com/bkaplan/brickwatch/pkg/types"
)

// PostgresStore keeps history in PostgreSQL, with snapshot payloads in
// a JSONB column.
type PostgresStore struct {
	db    *sql.DB
	table string
}

// NewPostgresStore connects with the configured connection string.
func NewPostgresStore(cfg config.HistoryConfig) (*PostgresStore, error) {
	if cfg.ConnectionString == "" {
		return nil, fmt.Errorf("postgres history requires a connection string")
	}

	db, err := sql.Open("postgres", cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &PostgresStore{db: db, table: tableName(cfg)}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) createTables() error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_snapshots (
			category TEXT PRIMARY KEY,
			payload JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`, s.table),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_reports (
			id BIGSERIAL PRIMARY KEY,
			category TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
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

func (s *PostgresStore) LoadSnapshot(ctx context.Context, category string) (types.Snapshot, error) {
	query := fmt.Sprintf("SELECT payload FROM %s_snapshots WHERE category = $1", s.table)

	var payload []byte
	err := s.db.QueryRowContext(ctx, query, category).Scan(&payload)
	if err == sql.ErrNoRows {
		return types.Snapshot{Category: category}, nil
	}
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snapshot types.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return types.Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, snapshot types.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s_snapshots (category, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (category) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`, s.table)
	if _, err := s.db.ExecContext(ctx, query, snapshot.Category, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveReport(ctx context.Context, report *types.ChangeReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	query := fmt.Sprintf("INSERT INTO %s_reports (category, payload, created_at) VALUES ($1, $2, $3)", s.table)
	if _, err := s.db.ExecContext(ctx, query, report.Category, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
