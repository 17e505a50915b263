// internal/history/mysql.go
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"github.com/bkaplan/brickwatch/internal/config"
	"github.com/bkaplan/brickwatch/pkg/types"
)

// MySQLStore keeps history in MySQL or MariaDB.
type MySQLStore struct {
	db    *sql.DB
	table string
}

// NewMySQLStore connects with a DSN like user:pass@tcp(host:3306)/db.
func NewMySQLStore(cfg config.HistoryConfig) (*MySQLStore, error) {
	if cfg.ConnectionString == "" {
		return nil, fmt.Errorf("mysql history requires a connection string")
	}

	db, err := sql.Open("mysql", cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &MySQLStore{db: db, table: tableName(cfg)}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *MySQLStore) createTables() error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_snapshots (
			category VARCHAR(255) PRIMARY KEY,
			payload LONGTEXT NOT NULL,
			updated_at DATETIME NOT NULL
		)`, s.table),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_reports (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			category VARCHAR(255) NOT NULL,
			payload LONGTEXT NOT NULL,
			created_at DATETIME NOT NULL,
			INDEX idx_reports_category (category, created_at)
		)`, s.table),
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create history tables: %w", err)
		}
	}
	return nil
}

func (s *MySQLStore) LoadSnapshot(ctx context.Context, category string) (types.Snapshot, error) {
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

func (s *MySQLStore) SaveSnapshot(ctx context.Context, snapshot types.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s_snapshots (category, payload, updated_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE payload = VALUES(payload), updated_at = VALUES(updated_at)`, s.table)
	if _, err := s.db.ExecContext(ctx, query, snapshot.Category, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *MySQLStore) SaveReport(ctx context.Context, report *types.ChangeReport) error {
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

func (s *MySQLStore) Close() error {
	return s.db.Close()
}
