// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "citation-harvester/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// Retry429 is the number of retries on HTTP 429. Zero disables retries.
	Retry429 int `json:"retry_429" yaml:"retry_429"`
}

// CheckpointBackend selects where progress state is persisted.
type CheckpointBackend string

const (
	CheckpointFile  CheckpointBackend = "file"
	CheckpointRedis CheckpointBackend = "redis"
)

// HarvestConfig holds settings shared by every paginated harvest.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline"`

	// Delay is the fixed pause after each persisted page.
	Delay time.Duration `json:"delay" yaml:"delay"`

	// OutputPath receives the JSON array of records after a full run.
	OutputPath string `json:"output_path" yaml:"output_path"`

	// ProgressPath is the progress file (file backend) or the key suffix
	// (redis backend).
	ProgressPath string `json:"progress_path" yaml:"progress_path"`

	// Resume loads the last persisted progress state when true.
	Resume bool `json:"resume" yaml:"resume"`

	// Checkpoint selects the progress state backend (default file).
	Checkpoint CheckpointBackend `json:"checkpoint" yaml:"checkpoint"`

	// RedisAddr is the host:port of the Redis server for the redis backend.
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`

	// SummaryPath, when set, receives a YAML run summary.
	SummaryPath string `json:"summary_path,omitempty" yaml:"summary_path,omitempty"`
}

// OpenAlexConfig holds settings for the OpenAlex works harvest.
type OpenAlexConfig struct {
	HarvestConfig `yaml:",inline"`

	// Filter is the OpenAlex filter expression.
	Filter string `json:"filter" yaml:"filter"`

	// Search is an optional free-text search.
	Search string `json:"search,omitempty" yaml:"search,omitempty"`

	// PerPage is the page size (1-200, default 200).
	PerPage int `json:"per_page" yaml:"per_page"`

	// Email is sent as mailto for polite pool access.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// PubMedConfig holds settings for the NCBI E-utilities harvest.
type PubMedConfig struct {
	HarvestConfig `yaml:",inline"`

	// Email is required by the NCBI usage policy.
	Email string `json:"email" yaml:"email"`

	// APIKey raises the NCBI rate limit when set.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Tool identifies this program to NCBI.
	Tool string `json:"tool" yaml:"tool"`

	// DB is the Entrez database (pmc or pubmed).
	DB string `json:"db" yaml:"db"`

	// Terms are harvested in order into one collection.
	Terms []string `json:"terms" yaml:"terms"`

	// BatchSize is the retmax per page.
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// IDsOutputPath, when set, receives one identifier per line.
	IDsOutputPath string `json:"ids_output_path,omitempty" yaml:"ids_output_path,omitempty"`
}

// DownloadConfig holds settings for the PMC full-text download stage.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// OutputDir receives PMC<id>.xml files.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// ProgressPath holds the JSON array of downloaded IDs.
	ProgressPath string `json:"progress_path" yaml:"progress_path"`

	// Resume skips IDs listed in ProgressPath.
	Resume bool `json:"resume" yaml:"resume"`

	// Delay is the pause after each full-text request.
	Delay time.Duration `json:"delay" yaml:"delay"`
}

// AnalysisConfig holds settings for citation normalization.
type AnalysisConfig struct {
	// CurrentYear is the reference year for citation age.
	CurrentYear int `json:"current_year" yaml:"current_year"`

	// Top is how many ranked records to report (default 10).
	Top int `json:"top" yaml:"top"`

	// AfterYear limits the yearly series to years strictly after it.
	AfterYear int `json:"after_year" yaml:"after_year"`
}

// IndexConfig holds settings for the SQLite record index.
type IndexConfig struct {
	// Dir contains records.db.
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default query limit (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
