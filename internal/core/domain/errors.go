package domain

import "errors"

var (
	ErrRequestFailed  = errors.New("export request failed")
	ErrExportFailed   = errors.New("export failed")
	ErrPollTimeout    = errors.New("export did not complete")
	ErrDownloadFailed = errors.New("download failed")

	ErrExportRunNotFound = errors.New("export run not found")
	ErrExportInProgress  = errors.New("an export is already in progress")
)
