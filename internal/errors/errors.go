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

package errors

import "errors"

var (
	// ErrInvalidConfig indicates rejected fetch or configuration parameters.
	// Always raised before any network activity. Maps to exit code 1.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingToken indicates no GitHub credential was supplied.
	// Maps to exit code 1.
	ErrMissingToken = errors.New("github token not found")

	// ErrInvalidToken indicates GitHub authentication failed.
	// Maps to exit code 2.
	ErrInvalidToken = errors.New("invalid github token")

	// ErrQueryRejected indicates the endpoint accepted the request but
	// reported a query-level error payload. Never retried.
	// Maps to exit code 2.
	ErrQueryRejected = errors.New("query rejected by endpoint")

	// ErrRemoteStatus indicates a non-2xx response that is not retryable.
	ErrRemoteStatus = errors.New("unexpected response status")

	// ErrNetworkFailure indicates a network connection problem.
	// Maps to exit code 3.
	ErrNetworkFailure = errors.New("network connection failed")

	// ErrRetryExhausted indicates every delivery attempt of a batch failed
	// with a transient error. Maps to exit code 3.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)
