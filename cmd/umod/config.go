package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the umod configuration file (~/.config/umod/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	NameEncoding     string `yaml:"name_encoding"`
	ChunkSize        *int64 `yaml:"chunk_size"`
	MaxEntrySize     *int64 `yaml:"max_entry_size"`
	BlockCacheBlocks *int64 `yaml:"block_cache_blocks"`

	// Extraction
	Overwrite   *bool  `yaml:"overwrite"`
	Compression string `yaml:"compression"`

	// Verify
	Jobs *int64 `yaml:"jobs"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "umod", "config.yaml")
}

// loadConfig reads the config file at path. A missing file yields a zero
// Config; a malformed one is an error.
func loadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is user config
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyGlobalConfig applies config file defaults to global flags that were
// not set on the command line.
func applyGlobalConfig(c *cli.Command, cfg Config) {
	if cfg.NameEncoding != "" && !c.IsSet("name-encoding") {
		nameEncoding = cfg.NameEncoding
	}
	if cfg.ChunkSize != nil && !c.IsSet("chunk-size") {
		chunkSize = *cfg.ChunkSize
	}
	if cfg.MaxEntrySize != nil && !c.IsSet("max-entry-size") {
		maxEntrySize = *cfg.MaxEntrySize
	}
	if cfg.BlockCacheBlocks != nil && !c.IsSet("block-cache-blocks") {
		cacheBlocks = *cfg.BlockCacheBlocks
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyExtractConfig applies config file defaults to extract flags.
func applyExtractConfig(c *cli.Command, cfg Config, overwrite *bool, compression *string) {
	if cfg.Overwrite != nil && !c.IsSet("overwrite") {
		*overwrite = *cfg.Overwrite
	}
	if cfg.Compression != "" && !c.IsSet("compression") {
		*compression = cfg.Compression
	}
}

// applyVerifyConfig applies config file defaults to verify flags.
func applyVerifyConfig(c *cli.Command, cfg Config, jobs *int64) {
	if cfg.Jobs != nil && !c.IsSet("jobs") {
		*jobs = *cfg.Jobs
	}
}
