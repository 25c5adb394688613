package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pevans/headlines/publisher"
)

// Environment variables read by Load.
const (
	EnvConfigPath     = "HEADLINES_CONFIG"
	EnvStorageType    = "HEADLINES_STORAGE_TYPE"
	EnvStorageDir     = "HEADLINES_STORAGE_DIR"
	EnvMinioEndpoint  = "HEADLINES_MINIO_ENDPOINT"
	EnvMinioAccessKey = "HEADLINES_MINIO_ACCESS_KEY"
	EnvMinioSecretKey = "HEADLINES_MINIO_SECRET_KEY"
	EnvMinioBucket    = "HEADLINES_MINIO_BUCKET"
	EnvCatalogDSN     = "HEADLINES_CATALOG_DSN"
	EnvLogLevel       = "HEADLINES_LOG_LEVEL"
	EnvAPIAddr        = "HEADLINES_API_ADDR"
	EnvPublishersFile = "HEADLINES_PUBLISHERS_FILE"
)

// Load builds the configuration from defaults, the YAML file at path and
// the environment, in that order. An empty path falls back to
// HEADLINES_CONFIG; when neither is set only defaults and the environment
// apply. A file that is named but missing is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if cfg.PublishersFile != "" {
		if err := cfg.mergePublishersFile(cfg.PublishersFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// mergeFile decodes the file over the current values. A publishers section
// replaces the built-in publishers rather than adding to them.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	defaults := c.Publishers
	c.Publishers = nil

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if len(c.Publishers) == 0 {
		c.Publishers = defaults
	}

	return nil
}

// mergePublishersFile replaces the publishers with those in a standalone
// publisher file. Rules in the file, when set, replace the configured ones.
func (c *Config) mergePublishersFile(path string) error {
	f, err := publisher.LoadFile(path)
	if err != nil {
		return err
	}

	if len(f.Publishers) > 0 {
		c.Publishers = f.Publishers
	}
	if f.Rules != nil {
		c.Rules = *f.Rules
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvStorageType); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv(EnvStorageDir); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv(EnvMinioEndpoint); v != "" {
		c.Storage.Minio.Endpoint = v
	}
	if v := os.Getenv(EnvMinioAccessKey); v != "" {
		c.Storage.Minio.AccessKey = v
	}
	if v := os.Getenv(EnvMinioSecretKey); v != "" {
		c.Storage.Minio.SecretKey = v
	}
	if v := os.Getenv(EnvMinioBucket); v != "" {
		c.Storage.Minio.Bucket = v
	}
	if v := os.Getenv(EnvCatalogDSN); v != "" {
		c.Catalog.DSN = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvAPIAddr); v != "" {
		c.API.Addr = v
	}
	if v := os.Getenv(EnvPublishersFile); v != "" {
		c.PublishersFile = v
	}
}
