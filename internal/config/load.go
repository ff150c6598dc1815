package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath returns ~/.docsync/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".docsync", "config.toml"), nil
}

// Load reads the configuration file at path (DefaultPath when empty),
// then the .env file in the working directory, then the environment.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = filepath.Join(filepath.Dir(path), "data")
	}
	cfg.Data.Dir = expandHome(cfg.Data.Dir)
	if cfg.Data.PromptsDir == "" {
		cfg.Data.PromptsDir = filepath.Join(filepath.Dir(path), "prompts")
	}
	cfg.Data.PromptsDir = expandHome(cfg.Data.PromptsDir)
	cfg.Server.UploadsDir = expandHome(cfg.Server.UploadsDir)
	return cfg, nil
}

// applyEnv overrides fields from environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	str(&c.Data.Dir, "DOCSYNC_DATA_DIR")
	str(&c.Index.Backend, "DOCSYNC_INDEX_BACKEND")
	str(&c.Index.URL, "DOCSYNC_CHROMA_URL")
	str(&c.Index.Collection, "DOCSYNC_CHROMA_COLLECTION")
	str(&c.Index.Token, "DOCSYNC_CHROMA_TOKEN")
	str(&c.Embedding.Provider, "DOCSYNC_EMBEDDING_PROVIDER")
	str(&c.Embedding.Model, "DOCSYNC_EMBEDDING_MODEL")
	str(&c.Embedding.BaseURL, "DOCSYNC_EMBEDDING_BASE_URL")
	str(&c.Cache.RedisURL, "DOCSYNC_REDIS_URL")
	str(&c.Server.Addr, "DOCSYNC_SERVER_ADDR")
	str(&c.Server.Token, "DOCSYNC_SERVER_TOKEN")
	str(&c.Server.UploadsDir, "DOCSYNC_UPLOADS_DIR")
	str(&c.GitHub.Token, "DOCSYNC_GITHUB_TOKEN", "GITHUB_TOKEN")

	// The provider-specific key is only consulted for the selected provider.
	provider := c.Embedding.Provider
	if provider == "" {
		provider = ProviderGemini
	}
	switch provider {
	case ProviderGemini:
		str(&c.Embedding.APIKey, "DOCSYNC_EMBEDDING_API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY")
	case ProviderOpenAI:
		str(&c.Embedding.APIKey, "DOCSYNC_EMBEDDING_API_KEY", "OPENAI_API_KEY")
	default:
		str(&c.Embedding.APIKey, "DOCSYNC_EMBEDDING_API_KEY")
	}

	if v, ok := lookup("DOCSYNC_MAX_CONTEXT_LENGTH"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DOCSYNC_MAX_CONTEXT_LENGTH: %w", err)
		}
		c.Retrieval.MaxContextLength = n
	}

	// DOCSYNC_REPO_URL adds a source unless the file already tracks it.
	if url, ok := lookup("DOCSYNC_REPO_URL"); ok && url != "" {
		branch, _ := lookup("DOCSYNC_REPO_BRANCH")
		tracked := false
		for _, s := range c.Sync.Sources {
			if strings.EqualFold(strings.TrimSuffix(s.URL, "/"), strings.TrimSuffix(url, "/")) {
				tracked = true
				break
			}
		}
		if !tracked {
			c.Sync.Sources = append(c.Sync.Sources, SourceConfig{URL: url, Branch: branch})
		}
	}
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
