// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "openreview-mcp/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ClientConfig holds settings for the OpenReview API client.
type ClientConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the API endpoint (default "https://api2.openreview.net").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// LegacyBaseURL is the API v1 endpoint used as a fallback for venues
	// created before the v2 migration (default "https://api.openreview.net").
	LegacyBaseURL string `json:"legacy_base_url" yaml:"legacy_base_url"`

	// SiteURL is the public site used for forum and PDF links
	// (default "https://openreview.net").
	SiteURL string `json:"site_url" yaml:"site_url"`

	// Username and Password authenticate against the API. Both may be
	// empty; most read endpoints accept anonymous requests at lower
	// rate limits.
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// PageSize is the number of notes requested per page (default 1000).
	PageSize int `json:"page_size" yaml:"page_size"`

	// MaxRetries is the retry budget for rate-limited requests.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SearchConfig holds defaults for the search tool.
type SearchConfig struct {
	// MaxResults is the maximum number of results to return (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MinScore is the default minimum match score (default 0, every
	// match kept).
	MinScore float64 `json:"min_score" yaml:"min_score"`
}

// ExportConfig holds settings for the export pipeline.
type ExportConfig struct {
	// ExportDir is the default directory for export files
	// (default "./openreview_exports").
	ExportDir string `json:"export_dir" yaml:"export_dir"`

	// MaxPapers caps how many papers are exported per call (default 10).
	// Distinct from the search result limit: PDF download is the
	// expensive step, so exports are capped separately.
	MaxPapers int `json:"max_papers" yaml:"max_papers"`

	// DownloadWorkers bounds concurrent PDF downloads (default 3).
	DownloadWorkers int `json:"download_workers" yaml:"download_workers"`

	// DownloadTimeout bounds each PDF download (default 60s).
	DownloadTimeout time.Duration `json:"download_timeout" yaml:"download_timeout"`
}

// CacheConfig holds settings for the venue submission cache.
type CacheConfig struct {
	// Enabled turns the cache on (default true).
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Dir is the directory holding the cache database
	// (default "./openreview_cache").
	Dir string `json:"dir" yaml:"dir"`

	// TTL is how long a cached venue listing stays fresh (default 1h).
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// ServerConfig groups all stage configurations for the MCP server.
type ServerConfig struct {
	Client ClientConfig `json:"client" yaml:"client"`
	Search SearchConfig `json:"search" yaml:"search"`
	Export ExportConfig `json:"export" yaml:"export"`
	Cache  CacheConfig  `json:"cache" yaml:"cache"`
}
