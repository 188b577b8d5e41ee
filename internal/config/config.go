// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration management for starscan with
// support for multiple configuration sources and a well-defined precedence
// order.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration file
//  4. Built-in defaults
//
// Nothing here is read by the fetcher itself. The CLI resolves a Config and
// passes explicit options down.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	relaierrors "github.com/sirseerhq/starscan/internal/errors"
	"github.com/sirseerhq/starscan/internal/fetch"
	"gopkg.in/yaml.v3"
)

// MaxBatchSize is GitHub's page size limit for search.
const MaxBatchSize = 100

// LoadConfig loads configuration from multiple sources and applies them in
// the correct precedence order. If configPath is provided, it loads from
// that specific file. Otherwise, it searches standard locations:
//   - .starscan.yaml (current directory)
//   - .starscan.yml (current directory)
//   - ~/.sirseer/starscan.yaml
//
// Returns an error if the specified config file cannot be loaded, but will
// succeed with defaults if no config file is found in standard locations.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		defaultPaths := []string{
			".starscan.yaml",
			".starscan.yml",
			filepath.Join(os.Getenv("HOME"), ".sirseer", "starscan.yaml"),
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Output.MetadataDir = expandPath(cfg.Output.MetadataDir)

	return cfg, nil
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
// Malformed numbers are rejected rather than ignored.
func applyEnvOverrides(cfg *Config) error {
	if endpoint := os.Getenv("GITHUB_GRAPHQL_ENDPOINT"); endpoint != "" {
		cfg.GitHub.GraphQLEndpoint = endpoint
	}
	if strategy := os.Getenv("STARSCAN_STRATEGY"); strategy != "" {
		cfg.Fetch.Strategy = strategy
	}

	ints := []struct {
		env string
		dst *int
	}{
		{"STARSCAN_TARGET_TOTAL", &cfg.Fetch.TargetTotal},
		{"STARSCAN_BATCH_SIZE", &cfg.Fetch.BatchSize},
		{"STARSCAN_MAX_RETRIES", &cfg.Fetch.MaxRetries},
	}
	for _, o := range ints {
		raw := os.Getenv(o.env)
		if raw == "" {
			continue
		}
		n, err := parsePositiveInt(raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", relaierrors.ErrInvalidConfig, o.env, err)
		}
		*o.dst = n
	}

	if addr := os.Getenv("STARSCAN_CACHE_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
	}
	if level := os.Getenv("STARSCAN_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			home = os.Getenv("USERPROFILE") // Windows
		}
		path = filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// parsePositiveInt parses a string to a positive integer
func parsePositiveInt(s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

// Validate checks if the configuration contains valid values. It should be
// called after all overrides are applied and before any network activity.
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", relaierrors.ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.GitHub.GraphQLEndpoint == "" {
		return invalid("GitHub GraphQL endpoint cannot be empty")
	}
	if c.GitHub.RequestTimeout < 0 {
		return invalid("request timeout cannot be negative")
	}

	f := c.Fetch
	kind, err := fetch.ParseKind(f.Strategy)
	if err != nil {
		return invalid("%v", err)
	}
	if f.TargetTotal <= 0 {
		return invalid("target total must be positive, got: %d", f.TargetTotal)
	}
	if f.BatchSize <= 0 {
		return invalid("batch size must be positive, got: %d", f.BatchSize)
	}
	if f.BatchSize > MaxBatchSize {
		return invalid("batch size %d exceeds GitHub API limit of %d", f.BatchSize, MaxBatchSize)
	}
	if kind == fetch.Bulk && f.TargetTotal > MaxBatchSize {
		return invalid("bulk strategy cannot fetch %d repositories in one request (limit %d), use cursor or partitioned",
			f.TargetTotal, MaxBatchSize)
	}
	if f.MaxRetries <= 0 {
		return invalid("max retries must be positive, got: %d", f.MaxRetries)
	}
	if f.BaseDelay < 0 || f.MaxDelay < 0 {
		return invalid("backoff delays cannot be negative")
	}
	if f.MaxDelay > 0 && f.BaseDelay > f.MaxDelay {
		return invalid("base delay %s exceeds max delay %s", f.BaseDelay, f.MaxDelay)
	}
	if _, err := fetch.ParseQueryErrorPolicy(f.OnQueryError); err != nil {
		return invalid("%v", err)
	}
	if f.RequestsPerSecond < 0 {
		return invalid("requests per second cannot be negative")
	}
	if kind != fetch.Partitioned && strings.TrimSpace(f.Query) == "" {
		return invalid("search query cannot be empty")
	}

	if c.Cache.TTL < 0 {
		return invalid("cache ttl cannot be negative")
	}
	return nil
}
