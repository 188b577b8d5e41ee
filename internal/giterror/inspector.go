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

package giterror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	relaierrors "github.com/sirseerhq/starscan/internal/errors"
)

// Class is the reaction an error calls for.
type Class int

const (
	// ClassNone is returned for a nil error.
	ClassNone Class = iota
	// ClassTransient errors are retried with backoff: 502/503/504 responses,
	// connection failures and per-request timeouts.
	ClassTransient
	// ClassQuery errors are reported by the endpoint about the query itself.
	// Retrying cannot fix them.
	ClassQuery
	// ClassAuth errors mean the credential was rejected.
	ClassAuth
	// ClassFatal errors are non-retryable responses for a single batch.
	ClassFatal
	// ClassCanceled means the caller's context ended.
	ClassCanceled
)

// String returns the label used in logs and metrics.
func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassTransient:
		return "transient"
	case ClassQuery:
		return "query"
	case ClassAuth:
		return "auth"
	case ClassFatal:
		return "fatal"
	case ClassCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// StatusError is returned by the transport for every non-2xx response so
// that the status code survives the GraphQL client's error handling.
type StatusError struct {
	Code int
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("received status %d", e.Code)
	}
	return fmt.Sprintf("received status %d: %s", e.Code, e.Body)
}

// Unwrap lets errors.Is match ErrRemoteStatus.
func (e *StatusError) Unwrap() error {
	return relaierrors.ErrRemoteStatus
}

// IsRetryableStatusCode reports whether an HTTP status code is a transient
// server-side failure.
func IsRetryableStatusCode(code int) bool {
	switch code {
	case http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Inspector classifies errors returned by the remote endpoint.
type Inspector interface {
	// Classify returns the class of err.
	Classify(err error) Class
}

// GitHubErrorInspector is the Inspector for GitHub's GraphQL API.
type GitHubErrorInspector struct{}

// NewInspector returns the GitHub error inspector.
func NewInspector() Inspector {
	return &GitHubErrorInspector{}
}

// Classify inspects the error chain first and falls back to message
// matching. Anything the endpoint answered that is neither a status failure
// nor a connectivity problem is a query error.
func (i *GitHubErrorInspector) Classify(err error) Class {
	if err == nil {
		return ClassNone
	}

	if errors.Is(err, context.Canceled) {
		return ClassCanceled
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case IsRetryableStatusCode(statusErr.Code):
			return ClassTransient
		case statusErr.Code == http.StatusUnauthorized || statusErr.Code == http.StatusForbidden:
			return ClassAuth
		default:
			return ClassFatal
		}
	}

	switch {
	case errors.Is(err, relaierrors.ErrInvalidToken):
		return ClassAuth
	case errors.Is(err, relaierrors.ErrQueryRejected):
		return ClassQuery
	case errors.Is(err, relaierrors.ErrNetworkFailure):
		return ClassTransient
	}

	// context.DeadlineExceeded is a net.Error, so per-request timeouts land
	// here. The fetcher checks its own context before classifying.
	if isNetworkError(err) {
		return ClassTransient
	}

	if isAuthError(err) {
		return ClassAuth
	}

	return ClassQuery
}

// isAuthError matches GitHub's authentication failure messages.
func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusUnauthorized || statusErr.Code == http.StatusForbidden
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "bad credentials") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "requires authentication")
}

// isNetworkError reports connectivity failures. Per-request timeouts surface
// as net.Error and count as network errors.
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "dial tcp") ||
		strings.Contains(errStr, "tls handshake") ||
		strings.Contains(errStr, "network is unreachable")
}
