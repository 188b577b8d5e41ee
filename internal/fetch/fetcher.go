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

package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	relaierrors "github.com/sirseerhq/starscan/internal/errors"
	"github.com/sirseerhq/starscan/internal/giterror"
	"github.com/sirseerhq/starscan/internal/logging"
)

// Batch is one request's worth of work. A batch is immutable: every retry
// replays the same value.
type Batch struct {
	// Index is the batch position in the plan; results are ordered by it.
	Index int
	// Size is the number of records requested.
	Size int
	// Cursor continues a paginated listing. Empty requests the first page.
	Cursor string
	// Filter selects a partition. Empty means no partition.
	Filter string
	// Target is the total number of records the fetch is after.
	Target int
}

// Page is an endpoint's answer to one batch.
type Page[T any] struct {
	Records     []T
	EndCursor   string
	HasNextPage bool
}

// Endpoint delivers batches of records of type T.
type Endpoint[T any] interface {
	FetchBatch(ctx context.Context, batch Batch) (*Page[T], error)
}

// EndpointFunc adapts a function to the Endpoint interface.
type EndpointFunc[T any] func(ctx context.Context, batch Batch) (*Page[T], error)

// FetchBatch implements Endpoint.
func (f EndpointFunc[T]) FetchBatch(ctx context.Context, batch Batch) (*Page[T], error) {
	return f(ctx, batch)
}

// Classifier maps an endpoint error to the fetcher's reaction.
type Classifier interface {
	Classify(err error) giterror.Class
}

// Limiter paces requests. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Options configures one fetch. Nothing is read from the environment.
type Options struct {
	Strategy Strategy

	// TargetTotal is the maximum number of records returned.
	TargetTotal int
	// BatchSize is the page size for Cursor and Partitioned strategies.
	BatchSize int
	// MaxRetries is the number of delivery attempts per batch.
	MaxRetries int
	// MaxPageSize is the endpoint's per-request limit. Zero means unlimited.
	MaxPageSize int

	// BaseDelay is the first backoff wait. Defaults to one second.
	BaseDelay time.Duration
	// MaxDelay caps a single backoff wait. Defaults to one minute.
	MaxDelay time.Duration

	// OnQueryError defaults to QueryErrorAbort.
	OnQueryError QueryErrorPolicy

	// Limiter, when set, is waited on before every request attempt.
	Limiter Limiter
	// Classifier defaults to giterror.NewInspector().
	Classifier Classifier
	// Logger defaults to the global zerolog logger.
	Logger *zerolog.Logger
}

// Validate rejects options that cannot describe a fetch.
func (o Options) Validate() error {
	if o.TargetTotal <= 0 {
		return fmt.Errorf("%w: target total must be positive, got %d", relaierrors.ErrInvalidConfig, o.TargetTotal)
	}
	if o.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", relaierrors.ErrInvalidConfig, o.BatchSize)
	}
	if o.MaxRetries <= 0 {
		return fmt.Errorf("%w: max retries must be positive, got %d", relaierrors.ErrInvalidConfig, o.MaxRetries)
	}
	if err := o.Strategy.validate(); err != nil {
		return fmt.Errorf("%w: %v", relaierrors.ErrInvalidConfig, err)
	}
	if o.MaxPageSize > 0 {
		if o.Strategy.Kind == Bulk && o.TargetTotal > o.MaxPageSize {
			return fmt.Errorf("%w: bulk strategy cannot request %d records in one call (limit %d)",
				relaierrors.ErrInvalidConfig, o.TargetTotal, o.MaxPageSize)
		}
		if o.Strategy.Kind != Bulk && o.BatchSize > o.MaxPageSize {
			return fmt.Errorf("%w: batch size %d exceeds page limit of %d",
				relaierrors.ErrInvalidConfig, o.BatchSize, o.MaxPageSize)
		}
	}
	if o.BaseDelay < 0 || o.MaxDelay < 0 {
		return fmt.Errorf("%w: backoff delays cannot be negative", relaierrors.ErrInvalidConfig)
	}
	if _, err := ParseQueryErrorPolicy(string(o.OnQueryError)); err != nil {
		return fmt.Errorf("%w: %v", relaierrors.ErrInvalidConfig, err)
	}
	return nil
}

// RetryPolicy returns the per-batch retry policy the options describe.
func (o Options) RetryPolicy() RetryPolicy {
	base := o.BaseDelay
	if base == 0 {
		base = defaultBaseDelay
	}
	maxDelay := o.MaxDelay
	if maxDelay == 0 {
		maxDelay = defaultMaxDelay
	}
	return RetryPolicy{
		MaxAttempts: o.MaxRetries,
		BaseDelay:   base,
		MaxDelay:    maxDelay,
	}
}

// Report summarizes a fetch.
type Report struct {
	Strategy string `json:"strategy"`
	// Batches is the number of batches attempted in the main pass.
	Batches  int `json:"batches"`
	Requests int `json:"requests"`
	Retries  int `json:"retries"`
	// Ledgered batches exhausted their retries in the main pass.
	Ledgered  int `json:"ledgered"`
	Recovered int `json:"recovered"`
	Dropped   int `json:"dropped"`
	// Skipped batches failed without retry: query errors under the skip
	// policy and non-retryable statuses.
	Skipped   int `json:"skipped"`
	Truncated int `json:"truncated"`
	Collected int `json:"collected"`
	// SourceExhausted is set when every page chain ended because the
	// endpoint ran out of records, before the target was reached.
	SourceExhausted bool `json:"source_exhausted"`
	// Partial is set when the result is short of the target and at least
	// one page chain was cut off: a lost batch, a stale cursor, or a
	// recovered page whose continuation was never followed.
	Partial bool `json:"partial"`
}

// Result is what a fetch returns.
type Result[T any] struct {
	Records []T
	Report  Report
}

// Fetch runs one fetch against endpoint. It returns an error for invalid
// options (before any request), for rejected queries under the abort
// policy, for rejected credentials, for a canceled ctx, and when the first
// batch of a Bulk or Cursor fetch fails. Batches lost to exhausted retries
// otherwise only shorten the result.
func Fetch[T any](ctx context.Context, endpoint Endpoint[T], opts Options) (*Result[T], error) {
	if endpoint == nil {
		return nil, fmt.Errorf("%w: endpoint is nil", relaierrors.ErrInvalidConfig)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	policy, _ := ParseQueryErrorPolicy(string(opts.OnQueryError))
	opts.OnQueryError = policy
	if opts.Classifier == nil {
		opts.Classifier = giterror.NewInspector()
	}

	logger := logging.Component("fetch")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	r := &run[T]{
		endpoint:  endpoint,
		opts:      opts,
		policy:    opts.RetryPolicy(),
		logger:    logger,
		collected: newCollectedSet[T](opts.TargetTotal),
		ledger:    &failureLedger{},
		report:    Report{Strategy: opts.Strategy.Kind.String()},
	}
	return r.execute(ctx)
}

type outcome int

const (
	delivered outcome = iota
	exhausted
	skipped
	aborted
)

type run[T any] struct {
	endpoint  Endpoint[T]
	opts      Options
	policy    RetryPolicy
	logger    zerolog.Logger
	collected *collectedSet[T]
	ledger    *failureLedger
	report    Report

	// next is the slot index of the next batch.
	next int
	// interrupted counts page chains that stopped before the endpoint
	// reported their end.
	interrupted int
}

func (r *run[T]) execute(ctx context.Context) (*Result[T], error) {
	start := time.Now()
	r.logger.Info().
		Str("strategy", r.report.Strategy).
		Int("target_total", r.opts.TargetTotal).
		Int("batch_size", r.opts.BatchSize).
		Int("max_retries", r.opts.MaxRetries).
		Msg("Starting fetch")

	var err error
	switch r.opts.Strategy.Kind {
	case Bulk:
		err = r.follow(ctx, "", r.opts.TargetTotal, 1, true)
	case Partitioned:
		err = r.partitions(ctx)
	case Cursor:
		err = r.follow(ctx, "", r.opts.BatchSize, 0, true)
	}
	if err == nil {
		err = r.reprocess(ctx)
	}
	if err != nil {
		r.logger.Error().Err(err).Str("strategy", r.report.Strategy).Msg("Fetch aborted")
		return nil, err
	}

	records := r.collected.Records()
	short := len(records) < r.opts.TargetTotal
	r.report.Collected = len(records)
	r.report.Truncated = r.collected.Truncated()
	r.report.SourceExhausted = short && r.interrupted == 0
	r.report.Partial = short && r.interrupted > 0
	recordsCollected.Set(float64(len(records)))

	r.logger.Info().
		Str("strategy", r.report.Strategy).
		Int("collected", r.report.Collected).
		Int("requests", r.report.Requests).
		Int("retries", r.report.Retries).
		Int("dropped", r.report.Dropped).
		Bool("partial", r.report.Partial).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return &Result[T]{Records: records, Report: r.report}, nil
}

// follow walks one page chain: the base query for Bulk and Cursor, or a
// single partition filter. maxPages 0 means unbounded. With strict set, a
// failed first page aborts the fetch.
func (r *run[T]) follow(ctx context.Context, filter string, pageSize, maxPages int, strict bool) error {
	cursor := ""
	for page := 0; !r.collected.Full(); page++ {
		if maxPages > 0 && page >= maxPages {
			r.interrupted++
			return nil
		}

		size := pageSize
		if remaining := r.collected.Remaining(); size > remaining {
			size = remaining
		}
		batch := Batch{Index: r.next, Size: size, Cursor: cursor, Filter: filter, Target: r.opts.TargetTotal}
		r.next++
		r.report.Batches++

		p, out, err := r.deliver(ctx, batch)
		switch out {
		case aborted:
			return err
		case exhausted, skipped:
			if strict && page == 0 {
				return fmt.Errorf("first batch failed with nothing to paginate from: %w", err)
			}
			r.interrupted++
			if out == exhausted {
				r.queue(batch, err)
			} else {
				r.report.Skipped++
			}
			// Without this page's cursor there is no way forward.
			return nil
		}

		r.collected.put(batch.Index, p.Records)

		if chainEnded(p) {
			return nil
		}
		if p.EndCursor == "" || p.EndCursor == cursor {
			r.interrupted++
			r.logger.Warn().
				Int("batch", batch.Index).
				Str("filter", filter).
				Str("cursor", p.EndCursor).
				Msg("Endpoint reported more pages without a new cursor, stopping")
			return nil
		}
		cursor = p.EndCursor
	}
	return nil
}

// chainEnded reports whether the endpoint has nothing after p.
func chainEnded[T any](p *Page[T]) bool {
	return len(p.Records) == 0 || !p.HasNextPage
}

// partitions pages through each filter in order until the target is met.
// A partition that loses a page moves on to the next partition.
func (r *run[T]) partitions(ctx context.Context) error {
	for _, filter := range r.opts.Strategy.Partitions {
		if r.collected.Full() {
			return nil
		}
		if err := r.follow(ctx, filter, r.opts.BatchSize, 0, false); err != nil {
			return err
		}
	}
	return nil
}

func (r *run[T]) queue(batch Batch, err error) {
	r.ledger.add(batch)
	r.report.Ledgered++
	ledgerTotal.WithLabelValues("queued").Inc()
	r.logger.Warn().
		Err(err).
		Int("batch", batch.Index).
		Str("cursor", batch.Cursor).
		Str("filter", batch.Filter).
		Msg("Batch exhausted retries, queued for reprocessing")
}

// reprocess makes the single pass over the failure ledger.
func (r *run[T]) reprocess(ctx context.Context) error {
	entries := r.ledger.drain()
	if len(entries) == 0 {
		return nil
	}

	r.logger.Info().Int("batches", len(entries)).Msg("Reprocessing failed batches")

	for _, batch := range entries {
		page, out, err := r.deliver(ctx, batch)
		switch out {
		case aborted:
			return err
		case delivered:
			r.collected.put(batch.Index, page.Records)
			if chainEnded(page) {
				r.interrupted--
			}
			r.report.Recovered++
			ledgerTotal.WithLabelValues("recovered").Inc()
			r.logger.Info().Int("batch", batch.Index).Int("records", len(page.Records)).Msg("Recovered failed batch")
		default:
			r.report.Dropped++
			ledgerTotal.WithLabelValues("dropped").Inc()
			r.logger.Warn().
				Err(err).
				Int("batch", batch.Index).
				Str("cursor", batch.Cursor).
				Str("filter", batch.Filter).
				Msg("Dropping batch after reprocessing")
		}
	}
	return nil
}

// deliver runs one batch through the retry loop and decides the outcome.
func (r *run[T]) deliver(ctx context.Context, batch Batch) (*Page[T], outcome, error) {
	retryable := func(err error) bool {
		return r.opts.Classifier.Classify(err) == giterror.ClassTransient
	}

	notify := func(attempt int, err error, wait time.Duration) {
		class := r.opts.Classifier.Classify(err)
		r.report.Retries++
		retriesTotal.WithLabelValues(class.String()).Inc()
		retryBackoffSeconds.Observe(wait.Seconds())
		r.logger.Warn().
			Err(err).
			Int("batch", batch.Index).
			Int("attempt", attempt).
			Int("max_attempts", r.policy.MaxAttempts).
			Dur("backoff", wait).
			Str("error_class", class.String()).
			Msg("Batch failed, retrying after backoff")
	}

	page, err := Retry(ctx, r.policy, retryable, notify, func(ctx context.Context, attempt int) (*Page[T], error) {
		if r.opts.Limiter != nil {
			if err := r.opts.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		r.report.Requests++
		page, err := r.endpoint.FetchBatch(ctx, batch)
		if err != nil {
			requestsTotal.WithLabelValues(r.opts.Classifier.Classify(err).String()).Inc()
			return nil, err
		}
		requestsTotal.WithLabelValues("success").Inc()
		if page == nil {
			page = &Page[T]{}
		}
		return page, nil
	})

	if err == nil {
		r.logger.Debug().
			Int("batch", batch.Index).
			Int("records", len(page.Records)).
			Bool("has_next_page", page.HasNextPage).
			Msg("Batch delivered")
		return page, delivered, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, aborted, ctxErr
	}
	if errors.Is(err, relaierrors.ErrRetryExhausted) {
		return nil, exhausted, err
	}

	switch r.opts.Classifier.Classify(err) {
	case giterror.ClassQuery:
		if r.opts.OnQueryError == QueryErrorSkip {
			r.logger.Warn().Err(err).Int("batch", batch.Index).Msg("Query rejected, skipping batch")
			return nil, skipped, fmt.Errorf("batch %d: %w: %v", batch.Index, relaierrors.ErrQueryRejected, err)
		}
		return nil, aborted, fmt.Errorf("batch %d: %w: %v", batch.Index, relaierrors.ErrQueryRejected, err)
	case giterror.ClassAuth:
		return nil, aborted, fmt.Errorf("batch %d: %w: %v", batch.Index, relaierrors.ErrInvalidToken, err)
	case giterror.ClassCanceled:
		return nil, aborted, err
	default:
		r.logger.Warn().Err(err).Int("batch", batch.Index).Msg("Batch failed with a non-retryable error, skipping")
		return nil, skipped, fmt.Errorf("batch %d: %w", batch.Index, err)
	}
}
