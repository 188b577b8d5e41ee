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
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	relaierrors "github.com/sirseerhq/starscan/internal/errors"
)

const (
	defaultBaseDelay = 1 * time.Second
	defaultMaxDelay  = 60 * time.Second
)

// RetryPolicy bounds the delivery attempts of one unit of work.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, the first one included.
	MaxAttempts int
	// BaseDelay is the wait after the first failed attempt. The wait doubles
	// after every further failure.
	BaseDelay time.Duration
	// MaxDelay caps a single wait.
	MaxDelay time.Duration
}

// Delay returns the wait after the given 0-based failed attempt:
// BaseDelay * 2^attempt, capped at MaxDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

func (p RetryPolicy) newBackOff(ctx context.Context) backoff.BackOffContext {
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}

	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.BaseDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         maxDelay,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()

	retries := p.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// RetryNotify is called before every backoff wait with the 1-based number of
// the attempt that just failed.
type RetryNotify func(attempt int, err error, wait time.Duration)

// Retry runs op until it succeeds, returns an error retryable rejects, ctx
// ends, or the policy's attempts are used up. Exhaustion is reported as an
// error wrapping both ErrRetryExhausted and the last failure.
func Retry[T any](ctx context.Context, policy RetryPolicy, retryable func(error) bool, notify RetryNotify, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	attempt := 0

	operation := func() (T, error) {
		attempt++
		v, err := op(ctx, attempt)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return v, backoff.Permanent(ctx.Err())
		}
		if !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	onRetry := func(err error, wait time.Duration) {
		if notify != nil {
			notify(attempt, err, wait)
		}
	}

	v, err := backoff.RetryNotifyWithData(operation, policy.newBackOff(ctx), onRetry)
	if err == nil {
		return v, nil
	}
	if ctx.Err() != nil {
		return v, ctx.Err()
	}
	if !retryable(err) {
		return v, err
	}
	return v, fmt.Errorf("%w after %d attempts: %w", relaierrors.ErrRetryExhausted, attempt, err)
}
