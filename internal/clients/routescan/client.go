package routescan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"routescan-exporter/internal/core/domain"
)

// DefaultBaseURL is the public Routescan export endpoint for all EVM chains
const DefaultBaseURL = "https://cdn.routescan.io/api/evm/all/exports"

// maxErrorBody bounds how much of an error response is kept in APIError
const maxErrorBody = 4096

// Client represents the Routescan export REST client
type Client struct {
	baseURL        string
	httpClient     *http.Client
	downloadClient *http.Client
}

// NewClient creates a new export client. timeout bounds the creation and status
// calls; downloadTimeout bounds the whole archive transfer.
func NewClient(baseURL string, timeout, downloadTimeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		downloadClient: &http.Client{
			Timeout: downloadTimeout,
		},
	}
}

// SetHTTPClient allows setting a custom HTTP client for every call
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
	c.downloadClient = client
}

// BaseURL returns the export endpoint the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// createRequest creates an HTTP request against the export endpoint
func (c *Client) createRequest(ctx context.Context, method, endpoint string, query url.Values) (*http.Request, error) {
	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return req, nil
}

// doRequest executes an HTTP request and decodes a JSON response into result
func (c *Client) doRequest(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := checkStatus(resp.StatusCode, body); err != nil {
		return err
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// CreateExport initiates a transaction export job and returns its identifier
func (c *Client) CreateExport(ctx context.Context, params domain.ExportParams) (string, error) {
	query := url.Values{}
	query.Set(paramChainIDs, params.ChainID)
	query.Set(paramAddress, params.Address)
	query.Set(paramLimit, strconv.Itoa(params.Limit))
	query.Set(paramDateFrom, domain.FormatExportTime(params.DateFrom))
	query.Set(paramDateTo, domain.FormatExportTime(params.DateTo))
	query.Set(paramCSVSeparator, params.CSVSeparator)

	req, err := c.createRequest(ctx, http.MethodPost, "/transactions", query)
	if err != nil {
		return "", err
	}

	logrus.Debugf("[DEBUG] routescan.Client - POST %s", req.URL.String())

	var result CreateExportResponse
	if err := c.doRequest(req, &result); err != nil {
		return "", fmt.Errorf("failed to create export: %w", err)
	}

	if result.ExportID == "" {
		return "", ErrMissingExportID
	}

	return result.ExportID, nil
}

// GetExportStatus retrieves the current state of an export job
func (c *Client) GetExportStatus(ctx context.Context, exportID string) (domain.ExportJob, error) {
	req, err := c.createRequest(ctx, http.MethodGet, "/"+url.PathEscape(exportID), nil)
	if err != nil {
		return domain.ExportJob{}, err
	}

	var result ExportStatusResponse
	if err := c.doRequest(req, &result); err != nil {
		return domain.ExportJob{}, fmt.Errorf("failed to get export status: %w", err)
	}

	return domain.ExportJob{
		ID:     exportID,
		Status: domain.ExportStatus(result.Status),
		URL:    result.URL,
	}, nil
}

// Download streams the content at downloadURL into w and returns the number
// of bytes copied. Nothing is buffered in memory beyond io.Copy's chunk.
func (c *Client) Download(ctx context.Context, downloadURL string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return 0, checkStatus(resp.StatusCode, body)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to copy download data: %w", err)
	}

	return n, nil
}

// checkStatus returns an *APIError for non-2xx responses
func checkStatus(code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && (errResp.Error != "" || errResp.Message != "") {
		return &APIError{StatusCode: code, Body: fmt.Sprintf("%s - %s", errResp.Error, errResp.Message)}
	}

	text := string(body)
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return &APIError{StatusCode: code, Body: text}
}
