package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"routescan-exporter/internal/config"
	"routescan-exporter/internal/core/domain"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type PostgresExportRunRepository struct {
	db *sql.DB
}

func NewPostgresExportRunRepository(cfg config.DatabaseConfig) (*PostgresExportRunRepository, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnectionMaxLifetime)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	logrus.Debug("[DEBUG] PostgresExportRunRepository - database initialized successfully")

	return &PostgresExportRunRepository{db: db}, nil
}

// runMigrations applies the embedded schema migrations
func runMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	defer source.Close()

	driver, err := migratepostgres.WithInstance(db, &migratepostgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Closing m would close db as well, so only the source is closed
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err == nil {
		logrus.Infof("Database schema at version %d (dirty=%t)", version, dirty)
	}

	return nil
}

func (r *PostgresExportRunRepository) Save(run domain.ExportRun) error {
	query := `
		INSERT INTO export_runs (` + exportRunColumns + `, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT(id) DO UPDATE SET
			export_id = excluded.export_id, status = excluded.status, end_time = excluded.end_time,
			error_message = excluded.error_message, output_file = excluded.output_file`

	if _, err := r.db.Exec(query, exportRunArgs(run)...); err != nil {
		return fmt.Errorf("failed to save export run: %w", err)
	}
	return nil
}

func (r *PostgresExportRunRepository) FindByID(id string) (domain.ExportRun, error) {
	query := `SELECT ` + exportRunColumns + ` FROM export_runs WHERE id = $1`
	return scanExportRun(r.db.QueryRow(query, id))
}

func (r *PostgresExportRunRepository) FindAll() ([]domain.ExportRun, error) {
	rows, err := r.db.Query(`SELECT ` + exportRunColumns + ` FROM export_runs ORDER BY start_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query export runs: %w", err)
	}
	return collectExportRuns(rows)
}

func (r *PostgresExportRunRepository) Close() error {
	return r.db.Close()
}
