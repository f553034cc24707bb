package api

import (
	"time"
)

// ClientConfig holds connection settings for the analysis backend
type ClientConfig struct {
	BaseURL      string            `json:"base_url"`
	AuthMethod   string            `json:"auth_method"` // bearer, api_key, basic or none
	AuthToken    string            `json:"-"`
	APIKeyHeader string            `json:"api_key_header"`
	Username     string            `json:"username"`
	Password     string            `json:"-"`
	Headers      map[string]string `json:"headers"`
	DataPath     string            `json:"data_path"` // gjson path to the row array
	Timeout      time.Duration     `json:"timeout"`
	RateLimit    int               `json:"rate_limit"` // requests per minute
}

// DefaultClientConfig returns sensible defaults for the backend client
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		AuthMethod:   "none",
		APIKeyHeader: "X-API-Key",
		DataPath:     "data",
		Timeout:      30 * time.Second,
		RateLimit:    60,
	}
}
