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

// Package config types define the configuration structures used throughout
// starscan. These types represent settings that can be loaded from YAML
// configuration files, environment variables, or command-line flags.
package config

import "time"

// Config represents the complete configuration for starscan.
type Config struct {
	GitHub  GitHubConfig  `yaml:"github"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Cache   CacheConfig   `yaml:"cache"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// GitHubConfig contains the endpoint and credential settings. A custom
// endpoint allows GitHub Enterprise deployments.
type GitHubConfig struct {
	GraphQLEndpoint string        `yaml:"graphql_endpoint"`
	TokenEnv        string        `yaml:"token_env"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

// FetchConfig controls the batch fetcher.
type FetchConfig struct {
	// Strategy is one of bulk, partitioned or cursor.
	Strategy    string `yaml:"strategy"`
	Query       string `yaml:"query"`
	TargetTotal int    `yaml:"target_total"`
	BatchSize   int    `yaml:"batch_size"`
	MaxRetries  int    `yaml:"max_retries"`

	BaseDelay time.Duration `yaml:"base_delay"`
	MaxDelay  time.Duration `yaml:"max_delay"`

	// OnQueryError is abort or skip.
	OnQueryError      string  `yaml:"on_query_error"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Partitions are search filters for the partitioned strategy. Empty
	// means the built-in star ranges.
	Partitions []string `yaml:"partitions"`
}

// CacheConfig enables the Redis result cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
}

// OutputConfig controls where run artifacts go.
type OutputConfig struct {
	MetadataDir string `yaml:"metadata_dir"`
}

// LoggingConfig controls log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// DefaultConfig returns a Config with defaults suitable for collecting the
// top 100 repositories from public GitHub.com.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			GraphQLEndpoint: "https://api.github.com/graphql",
			TokenEnv:        "GITHUB_TOKEN",
			RequestTimeout:  45 * time.Second,
		},
		Fetch: FetchConfig{
			Strategy:     "bulk",
			Query:        "stars:>10000 sort:stars-desc",
			TargetTotal:  100,
			BatchSize:    25,
			MaxRetries:   5,
			BaseDelay:    time.Second,
			MaxDelay:     time.Minute,
			OnQueryError: "abort",
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
		Output: OutputConfig{
			MetadataDir: "~/.sirseer/starscan",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
