package usecases

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routescan-exporter/internal/clients/routescan"
	"routescan-exporter/internal/core/domain"
)

// partialFetcher writes some bytes and then fails, like a dropped connection
type partialFetcher struct {
	written []byte
	err     error
}

func (f *partialFetcher) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	n, _ := w.Write(f.written)
	return int64(n), f.err
}

func TestFileDownloader_Success(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "transactions_abc123.zip")

	downloader := NewFileDownloader(&partialFetcher{written: []byte("PK\x03\x04archive")})

	n, err := downloader.Download(context.Background(), "https://x/y.zip", dest)
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "PK\x03\x04archive", string(data))

	_, err = os.Stat(dest + partialSuffix)
	assert.True(t, errors.Is(err, os.ErrNotExist), "temporary file must be gone")
}

func TestFileDownloader_MidStreamFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "transactions_abc123.zip")

	downloader := NewFileDownloader(&partialFetcher{
		written: []byte("half an archive"),
		err:     io.ErrUnexpectedEOF,
	})

	_, err := downloader.Download(context.Background(), "https://x/y.zip", dest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDownloadFailed))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no output must remain after a failed download")
}

func TestFileDownloader_AbortedHTTPTransfer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1048576")
		w.WriteHeader(http.StatusOK)
		w.Write(make([]byte, 4096))
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}))
	defer server.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "transactions_abc123.zip")

	client := routescan.NewClient(server.URL, 5*time.Second, 5*time.Second)
	_, err := NewFileDownloader(client).Download(context.Background(), server.URL+"/y.zip", dest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDownloadFailed))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileDownloader_HTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired", http.StatusForbidden)
	}))
	defer server.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "transactions_abc123.zip")

	client := routescan.NewClient(server.URL, 5*time.Second, 5*time.Second)
	_, err := NewFileDownloader(client).Download(context.Background(), server.URL+"/y.zip", dest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDownloadFailed))

	var apiErr *routescan.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	_, statErr := os.Stat(dest)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestFileDownloader_UnwritableDestination(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "missing-dir", "transactions_abc123.zip")

	downloader := NewFileDownloader(&partialFetcher{written: []byte("data")})
	_, err := downloader.Download(context.Background(), "https://x/y.zip", dest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDownloadFailed))
}
