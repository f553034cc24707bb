package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"causelens/domain/core"
	"causelens/domain/dataset"
	"causelens/domain/rd"
	"causelens/internal"

	"github.com/tidwall/gjson"
)

// maxErrorBody bounds how much of a failed response ends up in an error
const maxErrorBody = 512

// BackendClient reads rows and RD estimates from the analysis backend
type BackendClient struct {
	config      ClientConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	logger      *internal.Logger
}

// NewBackendClient creates a client for the configured backend
func NewBackendClient(config ClientConfig) *BackendClient {
	defaults := DefaultClientConfig()
	if config.DataPath == "" {
		config.DataPath = defaults.DataPath
	}
	if config.APIKeyHeader == "" {
		config.APIKeyHeader = defaults.APIKeyHeader
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.RateLimit <= 0 {
		config.RateLimit = defaults.RateLimit
	}

	return &BackendClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: NewRateLimiter(config.RateLimit),
		logger:      internal.DefaultLogger.With("BackendClient"),
	}
}

// Close releases the rate limiter timer
func (c *BackendClient) Close() {
	c.rateLimiter.Stop()
}

// FetchRows retrieves up to limit rows of a dataset
func (c *BackendClient) FetchRows(ctx context.Context, datasetName string, limit int) ([]dataset.Row, error) {
	if limit <= 0 {
		limit = dataset.DefaultRowLimit
	}
	endpoint := fmt.Sprintf("%s/datasets/%s/rows?limit=%s",
		c.config.BaseURL, url.PathEscape(datasetName), strconv.Itoa(limit))

	body, err := c.get(ctx, endpoint, "dataset", datasetName)
	if err != nil {
		return nil, err
	}

	rows, err := c.parseRows(body)
	if err != nil {
		return nil, err
	}
	return dataset.CapRows(rows, limit), nil
}

// GetEstimate retrieves the RD estimate of an analysis
func (c *BackendClient) GetEstimate(ctx context.Context, analysisID string) (*rd.Estimate, error) {
	endpoint := fmt.Sprintf("%s/analyses/%s/rd", c.config.BaseURL, url.PathEscape(analysisID))

	body, err := c.get(ctx, endpoint, "estimate", analysisID)
	if err != nil {
		return nil, err
	}
	return parseEstimate(body, analysisID)
}

func (c *BackendClient) get(ctx context.Context, endpoint, resource, id string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := c.buildRequest(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.logger.Debug("GET %s -> %d in %s", endpoint, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, core.NewNotFoundError(resource, id)
	case resp.StatusCode != http.StatusOK:
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// buildRequest creates an HTTP request with authentication
func (c *BackendClient) buildRequest(ctx context.Context, endpoint string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	switch c.config.AuthMethod {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	case "api_key":
		req.Header.Set(c.config.APIKeyHeader, c.config.AuthToken)
	case "basic":
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}

	return req, nil
}

// parseRows extracts the row array at the configured data path
func (c *BackendClient) parseRows(body []byte) ([]dataset.Row, error) {
	result := gjson.GetBytes(body, c.config.DataPath)
	if !result.Exists() {
		return nil, fmt.Errorf("data path '%s' not found in response", c.config.DataPath)
	}
	if !result.IsArray() {
		return nil, fmt.Errorf("data path '%s' is not an array", c.config.DataPath)
	}

	rows := make([]dataset.Row, 0, len(result.Array()))
	for i, item := range result.Array() {
		if !item.IsObject() {
			return nil, fmt.Errorf("row %d is not an object", i)
		}
		var row dataset.Row
		if err := json.Unmarshal([]byte(item.Raw), &row); err != nil {
			return nil, fmt.Errorf("failed to parse row %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseEstimate reads the estimate object, accepting it bare or under "data"
func parseEstimate(body []byte, analysisID string) (*rd.Estimate, error) {
	doc := gjson.ParseBytes(body)
	if data := doc.Get("data"); data.IsObject() {
		doc = data
	}
	if !doc.IsObject() {
		return nil, fmt.Errorf("estimate response is not an object")
	}

	bandwidth := doc.Get("bandwidth")
	if !bandwidth.Exists() {
		return nil, fmt.Errorf("estimate for %s has no bandwidth", analysisID)
	}

	est := &rd.Estimate{
		AnalysisID:    core.AnalysisID(analysisID),
		DatasetName:   doc.Get("dataset").String(),
		Running:       doc.Get("running_variable").String(),
		Outcome:       doc.Get("outcome_variable").String(),
		Cutoff:        doc.Get("cutoff").Float(),
		Bandwidth:     bandwidth.Float(),
		Order:         rd.PolynomialOrder(doc.Get("polynomial_order").Int()),
		Kernel:        doc.Get("kernel").String(),
		TreatmentSide: rd.TreatmentSide(doc.Get("treatment_side").String()),
		Effect:        doc.Get("effect").Float(),
		StdError:      doc.Get("std_error").Float(),
		PValue:        doc.Get("p_value").Float(),
		CreatedAt:     time.Now().UTC(),
	}
	if ts := doc.Get("created_at"); ts.Exists() {
		if t, err := time.Parse(time.RFC3339, ts.String()); err == nil {
			est.CreatedAt = t
		}
	}
	if est.Order == 0 {
		est.Order = rd.OrderLinear
	}
	if est.TreatmentSide == "" {
		est.TreatmentSide = rd.SideAbove
	}
	return est, nil
}
