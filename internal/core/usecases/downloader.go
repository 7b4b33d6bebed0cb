package usecases

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"routescan-exporter/internal/core/domain"
)

// partialSuffix marks a file that is still being written
const partialSuffix = ".part"

// FileDownloader writes a remote archive to disk. The destination path only
// ever holds a complete file: data goes to a sibling with partialSuffix and is
// renamed into place once fully written.
type FileDownloader struct {
	fetcher Fetcher
}

func NewFileDownloader(fetcher Fetcher) *FileDownloader {
	return &FileDownloader{fetcher: fetcher}
}

// Download streams url into dest and returns the number of bytes written
func (d *FileDownloader) Download(ctx context.Context, url, dest string) (int64, error) {
	logrus.Infof("Downloading file from %s", url)

	partPath := dest + partialSuffix
	file, err := os.OpenFile(partPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err)
	}

	n, err := d.fetcher.Download(ctx, url, file)
	if err == nil {
		err = file.Sync()
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(partPath, dest)
	}

	if err != nil {
		removePartial(partPath)
		return n, fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err)
	}

	return n, nil
}

func removePartial(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("Failed to remove partial download %s: %v", path, err)
		return
	}
	logrus.Debugf("[DEBUG] Removed partial download %s", path)
}
