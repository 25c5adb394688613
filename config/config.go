// Package config loads the headlines configuration from YAML and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pevans/headlines/fetch"
	"github.com/pevans/headlines/logger"
	"github.com/pevans/headlines/publisher"
	"github.com/pevans/headlines/storage"
)

// Storage backends.
const (
	StorageFile  = "file"
	StorageMinio = "minio"
)

// Config is the complete application configuration.
type Config struct {
	Log        logger.Config               `yaml:"log"`
	Storage    StorageConfig               `yaml:"storage"`
	Catalog    CatalogConfig               `yaml:"catalog"`
	Fetch      FetchConfig                 `yaml:"fetch"`
	Rules      publisher.Rules             `yaml:"rules"`
	API        APIConfig                   `yaml:"api"`
	Publishers map[string]publisher.Config `yaml:"publishers"`
	// PublishersFile is a separate YAML file of publishers and rules,
	// applied over the publishers section.
	PublishersFile string `yaml:"publishers_file"`
}

// StorageConfig selects the blob store holding raw and final objects.
type StorageConfig struct {
	Type  string              `yaml:"type"`
	Dir   string              `yaml:"dir"`
	Minio storage.MinioConfig `yaml:"minio"`
}

// CatalogConfig locates the SQLite partition catalog.
type CatalogConfig struct {
	DSN string `yaml:"dsn"`
}

// FetchConfig controls homepage and article retrieval.
type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	Delay        time.Duration `yaml:"delay"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	// Enrich fetches every headline's article and stores its text.
	Enrich bool `yaml:"enrich"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: logger.Config{Level: "info"},
		Storage: StorageConfig{
			Type: StorageFile,
			Dir:  "./data",
			Minio: storage.MinioConfig{
				Bucket: "headlines",
			},
		},
		Catalog: CatalogConfig{DSN: "catalog.db"},
		Fetch: FetchConfig{
			Timeout:      fetch.DefaultTimeout,
			UserAgent:    fetch.DefaultUserAgent,
			Delay:        fetch.DefaultDelay,
			MaxBodyBytes: fetch.DefaultMaxBodyBytes,
			Enrich:       true,
		},
		Rules:      publisher.DefaultRules(),
		API:        APIConfig{Addr: ":8080"},
		Publishers: publisher.Defaults(),
	}
}

// Validate checks the configuration and fills in fallbacks for values
// that have safe defaults.
func (c *Config) Validate() error {
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = fetch.DefaultTimeout
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		c.Fetch.MaxBodyBytes = fetch.DefaultMaxBodyBytes
	}
	if c.Rules.MinTitleLength < 1 {
		return errors.New("rules.min_title_length must be at least 1")
	}

	c.Storage.Type = strings.ToLower(strings.TrimSpace(c.Storage.Type))
	switch c.Storage.Type {
	case StorageFile:
		if c.Storage.Dir == "" {
			return errors.New("storage.dir is required for file storage")
		}
	case StorageMinio:
		if err := c.Storage.Minio.Validate(); err != nil {
			return fmt.Errorf("storage.minio: %w", err)
		}
	default:
		return fmt.Errorf("unsupported storage type %q", c.Storage.Type)
	}

	if len(c.Publishers) == 0 {
		return errors.New("at least one publisher is required")
	}
	for id, p := range c.Publishers {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("publisher %s: %w", id, err)
		}
	}

	return nil
}

// Registry builds the publisher registry.
func (c *Config) Registry() (*publisher.Registry, error) {
	return publisher.NewRegistry(c.Publishers)
}
