package storage

import (
	"sync"

	"routescan-exporter/internal/core/domain"
)

type MemoryExportRunRepository struct {
	runs map[string]domain.ExportRun
	mu   sync.RWMutex
}

func NewMemoryExportRunRepository() *MemoryExportRunRepository {
	return &MemoryExportRunRepository{
		runs: make(map[string]domain.ExportRun),
	}
}

func (r *MemoryExportRunRepository) Save(run domain.ExportRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs[run.ID] = run
	return nil
}

func (r *MemoryExportRunRepository) FindByID(id string) (domain.ExportRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, exists := r.runs[id]
	if !exists {
		return domain.ExportRun{}, domain.ErrExportRunNotFound
	}

	return run, nil
}

func (r *MemoryExportRunRepository) FindAll() ([]domain.ExportRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]domain.ExportRun, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}

	return runs, nil
}

func (r *MemoryExportRunRepository) Close() error {
	return nil
}
