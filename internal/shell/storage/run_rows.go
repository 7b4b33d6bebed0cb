package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"routescan-exporter/internal/core/domain"
)

const exportRunColumns = `id, export_id, address, chain_id, status, start_time, end_time, error_message, output_file`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanExportRun reads one export_runs row in exportRunColumns order
func scanExportRun(row rowScanner) (domain.ExportRun, error) {
	var run domain.ExportRun
	var exportID *string
	var startTimeStr string
	var endTimeStr *string

	err := row.Scan(
		&run.ID,
		&exportID,
		&run.Address,
		&run.ChainID,
		&run.Status,
		&startTimeStr,
		&endTimeStr,
		&run.ErrorMessage,
		&run.OutputFile,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ExportRun{}, domain.ErrExportRunNotFound
	}
	if err != nil {
		return domain.ExportRun{}, fmt.Errorf("failed to scan export run: %w", err)
	}

	if exportID != nil {
		run.ExportID = *exportID
	}

	run.StartTime, err = time.Parse(time.RFC3339Nano, startTimeStr)
	if err != nil {
		return domain.ExportRun{}, fmt.Errorf("failed to parse start time: %w", err)
	}

	if endTimeStr != nil {
		endTime, err := time.Parse(time.RFC3339Nano, *endTimeStr)
		if err != nil {
			return domain.ExportRun{}, fmt.Errorf("failed to parse end time: %w", err)
		}
		run.EndTime = &endTime
	}

	return run, nil
}

func collectExportRuns(rows *sql.Rows) ([]domain.ExportRun, error) {
	defer rows.Close()

	runs := make([]domain.ExportRun, 0)
	for rows.Next() {
		run, err := scanExportRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating export runs: %w", err)
	}

	return runs, nil
}

// exportRunArgs returns the insert arguments for run in exportRunColumns order plus created_at
func exportRunArgs(run domain.ExportRun) []interface{} {
	var exportID *string
	if run.ExportID != "" {
		exportID = &run.ExportID
	}

	var endTime *string
	if run.EndTime != nil {
		s := run.EndTime.UTC().Format(time.RFC3339Nano)
		endTime = &s
	}

	return []interface{}{
		run.ID,
		exportID,
		run.Address,
		run.ChainID,
		string(run.Status),
		run.StartTime.UTC().Format(time.RFC3339Nano),
		endTime,
		run.ErrorMessage,
		run.OutputFile,
		time.Now().UTC().Format(time.RFC3339Nano),
	}
}
