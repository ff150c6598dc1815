// Package config loads the docsync configuration.
//
// Values come from three layers, later layers winning:
//
//  1. ~/.docsync/config.toml (or the path given with --config)
//  2. a .env file in the working directory
//  3. DOCSYNC_* and provider environment variables
//
// Zero values select the defaults below.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Index backends.
const (
	BackendChroma = "chroma"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Embedding providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Defaults.
const (
	DefaultChromaURL     = "http://localhost:10947"
	DefaultCollection    = "rag-collection"
	DefaultIndexTimeout  = 30 * time.Second
	DefaultMinInterval   = 24 * time.Hour
	DefaultLockTimeout   = 20 * time.Minute
	DefaultCheckInterval = time.Hour
	DefaultCacheTTL      = time.Hour
	DefaultServerAddr    = "127.0.0.1:8080"
	DefaultBranch        = "main"
)

// DefaultExtensions are the file types ingested from repositories and uploads.
var DefaultExtensions = []string{".md", ".txt", ".pdf", ".mdx"}

// Duration is a time.Duration written as a string ("24h", "20m") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full application configuration.
type Config struct {
	Data      DataConfig      `toml:"data"`
	Index     IndexConfig     `toml:"index"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Sync      SyncConfig      `toml:"sync"`
	Files     FilesConfig     `toml:"files"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Cache     CacheConfig     `toml:"cache"`
	Server    ServerConfig    `toml:"server"`
	GitHub    GitHubConfig    `toml:"github"`
}

// DataConfig locates local state.
type DataConfig struct {
	// Dir holds metadata, checkpoints, locks and the SQLite index.
	Dir string `toml:"dir"`

	// PromptsDir holds the user-editable prompts.
	PromptsDir string `toml:"prompts_dir"`
}

// IndexConfig selects and configures the vector index.
type IndexConfig struct {
	Backend    string   `toml:"backend"`
	URL        string   `toml:"url"`
	Tenant     string   `toml:"tenant"`
	Database   string   `toml:"database"`
	Collection string   `toml:"collection"`
	Token      string   `toml:"token"`
	Timeout    Duration `toml:"timeout"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	APIKey     string `toml:"api_key"`
	BaseURL    string `toml:"base_url"`
	Dimensions int    `toml:"dimensions"`
}

// SourceConfig is one tracked repository branch.
type SourceConfig struct {
	URL    string `toml:"url"`
	Branch string `toml:"branch"`
}

// SyncConfig controls repository synchronisation.
type SyncConfig struct {
	Sources       []SourceConfig `toml:"sources"`
	Extensions    []string       `toml:"extensions"`
	MinInterval   Duration       `toml:"min_interval"`
	LockTimeout   Duration       `toml:"lock_timeout"`
	CheckInterval Duration       `toml:"check_interval"`
}

// FilesConfig names the repository serving component files.
// An empty URL falls back to the first sync source.
type FilesConfig struct {
	URL    string `toml:"url"`
	Branch string `toml:"branch"`
}

// RetrievalConfig holds retrieval defaults.
type RetrievalConfig struct {
	MaxResults        int     `toml:"max_results"`
	MinRelevanceScore float64 `toml:"min_relevance_score"`
	MaxContextLength  int     `toml:"max_context_length"`
	FullDocuments     *bool   `toml:"full_documents"`
	IncludeMetadata   bool    `toml:"include_metadata"`
}

// CacheConfig enables the Redis query cache when RedisURL is set.
type CacheConfig struct {
	RedisURL string   `toml:"redis_url"`
	TTL      Duration `toml:"ttl"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`

	// Token, when set, is required as a bearer token on every request.
	Token string `toml:"token"`

	// UploadsDir is watched for dropped files by "ingest --watch".
	UploadsDir string `toml:"uploads_dir"`
}

// GitHubConfig configures repository access.
type GitHubConfig struct {
	Token   string `toml:"token"`
	BaseURL string `toml:"base_url"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills zero values.
func (c *Config) applyDefaults() {
	if c.Index.Backend == "" {
		c.Index.Backend = BackendChroma
	}
	if c.Index.URL == "" {
		c.Index.URL = DefaultChromaURL
	}
	if c.Index.Collection == "" {
		c.Index.Collection = DefaultCollection
	}
	if c.Index.Timeout.Duration == 0 {
		c.Index.Timeout.Duration = DefaultIndexTimeout
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderGemini
	}
	if len(c.Sync.Extensions) == 0 {
		c.Sync.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if c.Sync.MinInterval.Duration == 0 {
		c.Sync.MinInterval.Duration = DefaultMinInterval
	}
	if c.Sync.LockTimeout.Duration == 0 {
		c.Sync.LockTimeout.Duration = DefaultLockTimeout
	}
	if c.Sync.CheckInterval.Duration == 0 {
		c.Sync.CheckInterval.Duration = DefaultCheckInterval
	}
	for i := range c.Sync.Sources {
		if c.Sync.Sources[i].Branch == "" {
			c.Sync.Sources[i].Branch = DefaultBranch
		}
	}
	if c.Files.URL == "" && len(c.Sync.Sources) > 0 {
		c.Files = FilesConfig(c.Sync.Sources[0])
	}
	if c.Files.Branch == "" {
		c.Files.Branch = DefaultBranch
	}
	if c.Cache.TTL.Duration == 0 {
		c.Cache.TTL.Duration = DefaultCacheTTL
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
}
