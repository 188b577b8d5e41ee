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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/sirseerhq/starscan/internal/cache"
	"github.com/sirseerhq/starscan/internal/config"
	relaierrors "github.com/sirseerhq/starscan/internal/errors"
	"github.com/sirseerhq/starscan/internal/fetch"
	"github.com/sirseerhq/starscan/internal/github"
	"github.com/sirseerhq/starscan/internal/logging"
	"github.com/sirseerhq/starscan/internal/metadata"
	"github.com/sirseerhq/starscan/internal/output"
	"github.com/sirseerhq/starscan/pkg/version"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

// fetchFlags holds the fetch command line. Only flags the user actually set
// override the resolved configuration.
type fetchFlags struct {
	configPath string
	token      string
	outputFile string
	sample     int

	endpoint     string
	timeout      time.Duration
	strategy     string
	query        string
	target       int
	batchSize    int
	maxRetries   int
	baseDelay    time.Duration
	maxDelay     time.Duration
	onQueryError string
	rps          float64
	partitions   []string

	cacheAddr string
	cacheTTL  time.Duration
	noCache   bool

	metadataDir string
	noMetadata  bool
	metricsFile string

	logLevel  string
	logPretty bool
}

func newFetchCommand() *cobra.Command {
	var flags fetchFlags

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the top repositories by star count",
		Long: `Fetch the top repositories by star count and output them in NDJSON format.

Three batching strategies are available:
  bulk         one request for the whole target (target <= 100)
  cursor       pages of --batch-size following the search cursor
  partitioned  one request per star range (--partition, repeatable)

Authentication is required via GitHub token:
  - Use --token flag to provide token directly
  - Or set the variable named by github.token_env (GITHUB_TOKEN by default)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runFetch(cmd.Context(), cfg, flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "Path to configuration file (default: .starscan.yaml or ~/.sirseer/starscan.yaml)")
	f.StringVar(&flags.token, "token", "", "GitHub personal access token (overrides GITHUB_TOKEN env var)")
	f.StringVar(&flags.outputFile, "output", "", "Output file path (default: stdout)")
	f.IntVar(&flags.sample, "sample", 5, "Print the first N repositories to stderr (0 disables)")

	f.StringVar(&flags.endpoint, "endpoint", "", "GitHub GraphQL endpoint")
	f.DurationVar(&flags.timeout, "timeout", 0, "Per-request timeout")
	f.StringVar(&flags.strategy, "strategy", "", "Batching strategy: bulk, cursor or partitioned")
	f.StringVar(&flags.query, "query", "", "Search query for bulk and cursor strategies")
	f.IntVar(&flags.target, "target", 0, "Number of repositories to collect")
	f.IntVar(&flags.batchSize, "batch-size", 0, "Repositories per request for cursor and partitioned strategies")
	f.IntVar(&flags.maxRetries, "max-retries", 0, "Delivery attempts per batch")
	f.DurationVar(&flags.baseDelay, "base-delay", 0, "First backoff wait, doubled on each retry")
	f.DurationVar(&flags.maxDelay, "max-delay", 0, "Cap on a single backoff wait")
	f.StringVar(&flags.onQueryError, "on-query-error", "", "Query error policy: abort or skip")
	f.Float64Var(&flags.rps, "rps", 0, "Maximum requests per second (0 = unpaced)")
	f.StringSliceVar(&flags.partitions, "partition", nil, "Search filter for the partitioned strategy (repeatable)")

	f.StringVar(&flags.cacheAddr, "cache-addr", "", "Redis address for the result cache")
	f.DurationVar(&flags.cacheTTL, "cache-ttl", 0, "Result cache entry lifetime")
	f.BoolVar(&flags.noCache, "no-cache", false, "Bypass the result cache")

	f.StringVar(&flags.metadataDir, "metadata-dir", "", "Directory for run metadata files")
	f.BoolVar(&flags.noMetadata, "no-metadata", false, "Do not write run metadata")
	f.StringVar(&flags.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile on exit")

	f.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	f.BoolVar(&flags.logPretty, "log-pretty", false, "Human-readable log output")

	return cmd
}

// resolveConfig loads file and environment configuration, applies the flags
// that were set and validates the result.
func resolveConfig(cmd *cobra.Command, flags fetchFlags) (*config.Config, error) {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		if errors.Is(err, relaierrors.ErrInvalidConfig) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", relaierrors.ErrInvalidConfig, err)
	}

	set := cmd.Flags().Changed
	if set("endpoint") {
		cfg.GitHub.GraphQLEndpoint = flags.endpoint
	}
	if set("timeout") {
		cfg.GitHub.RequestTimeout = flags.timeout
	}
	if set("strategy") {
		cfg.Fetch.Strategy = flags.strategy
	}
	if set("query") {
		cfg.Fetch.Query = flags.query
	}
	if set("target") {
		cfg.Fetch.TargetTotal = flags.target
	}
	if set("batch-size") {
		cfg.Fetch.BatchSize = flags.batchSize
	}
	if set("max-retries") {
		cfg.Fetch.MaxRetries = flags.maxRetries
	}
	if set("base-delay") {
		cfg.Fetch.BaseDelay = flags.baseDelay
	}
	if set("max-delay") {
		cfg.Fetch.MaxDelay = flags.maxDelay
	}
	if set("on-query-error") {
		cfg.Fetch.OnQueryError = flags.onQueryError
	}
	if set("rps") {
		cfg.Fetch.RequestsPerSecond = flags.rps
	}
	if set("partition") {
		cfg.Fetch.Partitions = flags.partitions
	}
	if set("cache-addr") {
		cfg.Cache.RedisAddr = flags.cacheAddr
	}
	if set("cache-ttl") {
		cfg.Cache.TTL = flags.cacheTTL
	}
	if set("metadata-dir") {
		cfg.Output.MetadataDir = flags.metadataDir
	}
	if set("log-level") {
		cfg.Logging.Level = flags.logLevel
	}
	if set("log-pretty") {
		cfg.Logging.Pretty = flags.logPretty
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildOptions translates validated configuration into fetcher options.
func buildOptions(cfg *config.Config) (fetch.Options, error) {
	kind, err := fetch.ParseKind(cfg.Fetch.Strategy)
	if err != nil {
		return fetch.Options{}, fmt.Errorf("%w: %v", relaierrors.ErrInvalidConfig, err)
	}
	policy, err := fetch.ParseQueryErrorPolicy(cfg.Fetch.OnQueryError)
	if err != nil {
		return fetch.Options{}, fmt.Errorf("%w: %v", relaierrors.ErrInvalidConfig, err)
	}

	strategy := fetch.Strategy{Kind: kind}
	if kind == fetch.Partitioned {
		strategy.Partitions = partitionsFor(cfg)
	}

	opts := fetch.Options{
		Strategy:     strategy,
		TargetTotal:  cfg.Fetch.TargetTotal,
		BatchSize:    cfg.Fetch.BatchSize,
		MaxRetries:   cfg.Fetch.MaxRetries,
		MaxPageSize:  github.MaxPageSize,
		BaseDelay:    cfg.Fetch.BaseDelay,
		MaxDelay:     cfg.Fetch.MaxDelay,
		OnQueryError: policy,
	}
	if rps := cfg.Fetch.RequestsPerSecond; rps > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return opts, opts.Validate()
}

func partitionsFor(cfg *config.Config) []string {
	if len(cfg.Fetch.Partitions) > 0 {
		return cfg.Fetch.Partitions
	}
	return github.DefaultPartitions()
}

func cacheKey(cfg *config.Config, opts fetch.Options) cache.Key {
	return cache.Key{
		Endpoint:    cfg.GitHub.GraphQLEndpoint,
		Strategy:    opts.Strategy.Kind.String(),
		Query:       cfg.Fetch.Query,
		Partitions:  opts.Strategy.Partitions,
		TargetTotal: opts.TargetTotal,
		BatchSize:   opts.BatchSize,
	}
}

// runFetch executes the fetch command
func runFetch(ctx context.Context, cfg *config.Config, flags fetchFlags, stdout, stderr io.Writer) error {
	logger := logging.Setup(logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
		Output: stderr,
	})

	if flags.metricsFile != "" {
		defer writeMetrics(flags.metricsFile, logger)
	}

	token := getToken(flags.token, cfg.GitHub.TokenEnv)
	if token == "" {
		return fmt.Errorf("%w: set %s or use --token flag", relaierrors.ErrMissingToken, cfg.GitHub.TokenEnv)
	}

	opts, err := buildOptions(cfg)
	if err != nil {
		return err
	}

	var store *cache.Store
	if cfg.Cache.RedisAddr != "" && !flags.noCache {
		store, err = cache.Dial(ctx, cfg.Cache.RedisAddr, cfg.Cache.TTL)
		if err != nil {
			logger.Warn().Err(err).Msg("Result cache unavailable, fetching without it")
			store = nil
		} else {
			defer store.Close()
		}
	}

	tracker := metadata.New()
	key := cacheKey(cfg, opts)

	result, cacheHit, err := loadOrFetch(ctx, cfg, opts, token, store, key, logger)
	if err != nil {
		return err
	}

	writer, err := output.Open(flags.outputFile, stdout)
	if err != nil {
		return err
	}
	if err := output.WriteAll(writer, result.Records); err != nil {
		writer.Abort()
		return err
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize output: %w", err)
	}

	if flags.sample > 0 {
		if _, err := output.WriteSample(stderr, result.Records, flags.sample); err != nil {
			return fmt.Errorf("failed to print sample: %w", err)
		}
	}

	for _, repo := range result.Records {
		tracker.Observe(repo.NameWithOwner, repo.StargazerCount, repo.CreatedAt, repo.UpdatedAt)
	}
	if !flags.noMetadata && cfg.Output.MetadataDir != "" {
		md := tracker.GenerateMetadata(version.Version, runParams(cfg, opts), result.Report, cacheHit)
		path, err := metadata.SaveMetadata(md, cfg.Output.MetadataDir)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to save run metadata")
		} else {
			logger.Debug().Str("path", path).Msg("Run metadata saved")
		}
	}

	event := logger.Info()
	if result.Report.Partial {
		event = logger.Warn()
	}
	event.
		Int("repositories", len(result.Records)).
		Int("target", opts.TargetTotal).
		Bool("partial", result.Report.Partial).
		Bool("cache_hit", cacheHit).
		Msg("Run complete")

	return nil
}

// loadOrFetch serves the result from the cache when possible and stores
// complete fresh results back.
func loadOrFetch(ctx context.Context, cfg *config.Config, opts fetch.Options, token string, store *cache.Store, key cache.Key, logger zerolog.Logger) (*fetch.Result[github.Repository], bool, error) {
	if store != nil {
		var entry cache.Entry[github.Repository]
		err := store.Get(ctx, key, &entry)
		switch {
		case err == nil:
			logger.Info().
				Time("stored_at", entry.StoredAt).
				Int("repositories", len(entry.Records)).
				Msg("Serving result from cache")
			return &fetch.Result[github.Repository]{Records: entry.Records, Report: entry.Report}, true, nil
		case errors.Is(err, cache.ErrCacheMiss):
			logger.Debug().Msg("Result cache miss")
		default:
			logger.Warn().Err(err).Msg("Result cache lookup failed")
		}
	}

	client := github.NewGraphQLClient(token, cfg.GitHub.GraphQLEndpoint, cfg.GitHub.RequestTimeout)
	endpoint := github.NewRepositorySearch(client, cfg.Fetch.Query)

	result, err := fetch.Fetch[github.Repository](ctx, endpoint, opts)
	if err != nil {
		return nil, false, err
	}

	if store != nil && complete(result.Report) {
		entry := cache.Entry[github.Repository]{
			Records:  result.Records,
			Report:   result.Report,
			StoredAt: time.Now().UTC(),
		}
		if err := store.Set(ctx, key, entry); err != nil {
			logger.Warn().Err(err).Msg("Failed to store result in cache")
		}
	}
	return result, false, nil
}

// complete reports whether a result lost no batch along the way.
func complete(r fetch.Report) bool {
	return !r.Partial && r.Dropped == 0 && r.Skipped == 0
}

func runParams(cfg *config.Config, opts fetch.Options) metadata.RunParams {
	params := metadata.RunParams{
		Endpoint:     cfg.GitHub.GraphQLEndpoint,
		Strategy:     opts.Strategy.Kind.String(),
		Partitions:   opts.Strategy.Partitions,
		TargetTotal:  opts.TargetTotal,
		BatchSize:    opts.BatchSize,
		MaxRetries:   opts.MaxRetries,
		OnQueryError: string(opts.OnQueryError),
	}
	if opts.Strategy.Kind != fetch.Partitioned {
		params.Query = cfg.Fetch.Query
	}
	return params
}

func writeMetrics(path string, logger zerolog.Logger) {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to write metrics file")
	}
}

// getToken returns the GitHub token from flag or the configured environment variable
func getToken(flagToken, tokenEnv string) string {
	if flagToken != "" {
		return flagToken
	}
	if tokenEnv == "" {
		tokenEnv = "GITHUB_TOKEN"
	}
	return os.Getenv(tokenEnv)
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, relaierrors.ErrInvalidToken) ||
		errors.Is(err, relaierrors.ErrQueryRejected) {
		return 2 // Authentication or query errors
	}

	if errors.Is(err, relaierrors.ErrNetworkFailure) ||
		errors.Is(err, relaierrors.ErrRetryExhausted) {
		return 3 // Network errors
	}

	return 1 // General error
}
