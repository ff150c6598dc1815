package config

import (
	"fmt"
	"net/url"

	"github.com/pelletier/go-toml/v2"
)

const masked = "********"

// Masked returns a copy with secrets replaced.
func (c *Config) Masked() *Config {
	m := *c
	m.Sync.Sources = append([]SourceConfig(nil), c.Sync.Sources...)
	m.Sync.Extensions = append([]string(nil), c.Sync.Extensions...)
	for _, s := range []*string{&m.Index.Token, &m.Embedding.APIKey, &m.Server.Token, &m.GitHub.Token} {
		if *s != "" {
			*s = masked
		}
	}
	if m.Cache.RedisURL != "" {
		m.Cache.RedisURL = maskURLPassword(m.Cache.RedisURL)
	}
	return &m
}

// TOML renders the configuration with secrets masked.
func (c *Config) TOML() (string, error) {
	data, err := toml.Marshal(c.Masked())
	if err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}
	return string(data), nil
}

func maskURLPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), masked)
	}
	return u.String()
}
