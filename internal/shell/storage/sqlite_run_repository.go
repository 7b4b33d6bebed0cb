package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"routescan-exporter/internal/core/domain"
)

type SQLiteExportRunRepository struct {
	db *sql.DB
}

func NewSQLiteExportRunRepository(dbPath string) (*SQLiteExportRunRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &SQLiteExportRunRepository{db: db}

	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}

func (r *SQLiteExportRunRepository) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS export_runs (
		id TEXT PRIMARY KEY,
		export_id TEXT,
		address TEXT NOT NULL,
		chain_id TEXT NOT NULL,
		status TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT,
		error_message TEXT,
		output_file TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_export_runs_status ON export_runs(status);
	CREATE INDEX IF NOT EXISTS idx_export_runs_start_time ON export_runs(start_time);
	`

	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	logrus.Debug("[DEBUG] Export runs table schema initialized")
	return nil
}

func (r *SQLiteExportRunRepository) Save(run domain.ExportRun) error {
	query := `
		INSERT INTO export_runs (` + exportRunColumns + `, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			export_id = excluded.export_id,
			status = excluded.status,
			end_time = excluded.end_time,
			error_message = excluded.error_message,
			output_file = excluded.output_file
	`

	if _, err := r.db.Exec(query, exportRunArgs(run)...); err != nil {
		return fmt.Errorf("failed to save export run: %w", err)
	}

	logrus.Debugf("[DEBUG] SQLiteExportRunRepository - saved export run: id=%s, export_id=%s, status=%s", run.ID, run.ExportID, run.Status)
	return nil
}

func (r *SQLiteExportRunRepository) FindByID(id string) (domain.ExportRun, error) {
	query := `SELECT ` + exportRunColumns + ` FROM export_runs WHERE id = ?`
	return scanExportRun(r.db.QueryRow(query, id))
}

func (r *SQLiteExportRunRepository) FindAll() ([]domain.ExportRun, error) {
	query := `SELECT ` + exportRunColumns + ` FROM export_runs ORDER BY start_time DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query export runs: %w", err)
	}

	return collectExportRuns(rows)
}

func (r *SQLiteExportRunRepository) Close() error {
	return r.db.Close()
}
