package storage

import (
	"fmt"

	"routescan-exporter/internal/config"
	"routescan-exporter/internal/core/domain"
)

// ExportRunRepository is a run ledger backend that owns a connection
type ExportRunRepository interface {
	Save(run domain.ExportRun) error
	FindByID(id string) (domain.ExportRun, error)
	FindAll() ([]domain.ExportRun, error)
	Close() error
}

// NewExportRunRepository opens the ledger selected by cfg.Type. It returns a
// nil repository when run history is disabled.
func NewExportRunRepository(cfg config.DatabaseConfig) (ExportRunRepository, error) {
	switch cfg.Type {
	case config.DatabaseNone:
		return nil, nil
	case config.DatabaseMemory:
		return NewMemoryExportRunRepository(), nil
	case config.DatabaseSQLite:
		return NewSQLiteExportRunRepository(cfg.Path)
	case config.DatabasePostgres:
		return NewPostgresExportRunRepository(cfg)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}
