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

// Package testutil provides common test helpers for starscan
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// GraphQLRequest represents a parsed GraphQL request
type GraphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// SearchQuery returns the search string variable.
func (r GraphQLRequest) SearchQuery() string {
	s, _ := r.Variables["query"].(string)
	return s
}

// First returns the page size variable.
func (r GraphQLRequest) First() int {
	f, _ := r.Variables["first"].(float64)
	return int(f)
}

// After returns the cursor variable, empty when null.
func (r GraphQLRequest) After() string {
	s, _ := r.Variables["after"].(string)
	return s
}

// SearchServer is a GitHub-like GraphQL search endpoint over a fixed list of
// repositories ordered by stars descending. It honors stars: qualifiers in
// the search string, first and after.
type SearchServer struct {
	*httptest.Server

	mu         sync.Mutex
	repos      []*RepositoryBuilder
	failures   []int
	queryError string
	history    []GraphQLRequest
}

// NewSearchServer creates a search endpoint holding total repositories.
func NewSearchServer(t *testing.T, total int) *SearchServer {
	t.Helper()

	s := &SearchServer{}
	for i := 0; i < total; i++ {
		s.repos = append(s.repos, NewRepositoryBuilder(i))
	}

	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// GraphQLURL returns the endpoint URL.
func (s *SearchServer) GraphQLURL() string {
	return s.URL + "/graphql"
}

// FailNext makes the next requests answer with the given status codes, in order.
func (s *SearchServer) FailNext(codes ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, codes...)
}

// RejectQueries makes every request answer 200 with an errors payload.
func (s *SearchServer) RejectQueries(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryError = message
}

// Requests returns the requests received so far.
func (s *SearchServer) Requests() []GraphQLRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]GraphQLRequest, len(s.history))
	copy(out, s.history)
	return out
}

// RequestCount returns the number of requests received.
func (s *SearchServer) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

func (s *SearchServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/graphql" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Bad credentials"})
		return
	}

	var req GraphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Problems parsing JSON"})
		return
	}

	s.mu.Lock()
	s.history = append(s.history, req)
	status := 0
	if len(s.failures) > 0 {
		status = s.failures[0]
		s.failures = s.failures[1:]
	}
	queryError := s.queryError
	s.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(http.StatusText(status)))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if queryError != "" {
		_ = json.NewEncoder(w).Encode(ErrorResponse(queryError))
		return
	}

	_ = json.NewEncoder(w).Encode(s.page(req))
}

func (s *SearchServer) page(req GraphQLRequest) map[string]interface{} {
	matches := make([]*RepositoryBuilder, 0, len(s.repos))
	for _, repo := range s.repos {
		if matchStars(req.SearchQuery(), repo.Stars()) {
			matches = append(matches, repo)
		}
	}

	offset := 0
	if after := req.After(); after != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(after, "cursor:"))
		if err == nil {
			offset = n
		}
	}
	if offset > len(matches) {
		offset = len(matches)
	}

	end := offset + req.First()
	if end > len(matches) {
		end = len(matches)
	}

	nodes := make([]map[string]interface{}, 0, end-offset)
	for _, repo := range matches[offset:end] {
		nodes = append(nodes, repo.Build())
	}

	cursor := ""
	if end > offset {
		cursor = fmt.Sprintf("cursor:%d", end)
	}
	return SearchResponse(nodes, len(matches), end < len(matches), cursor)
}

// matchStars evaluates every stars: qualifier in query against stars.
func matchStars(query string, stars int) bool {
	for _, field := range strings.Fields(query) {
		expr, ok := strings.CutPrefix(field, "stars:")
		if !ok {
			continue
		}
		if !matchRange(expr, stars) {
			return false
		}
	}
	return true
}

func matchRange(expr string, stars int) bool {
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}

	switch {
	case strings.HasPrefix(expr, ">="):
		return stars >= atoi(expr[2:])
	case strings.HasPrefix(expr, "<="):
		return stars <= atoi(expr[2:])
	case strings.HasPrefix(expr, ">"):
		return stars > atoi(expr[1:])
	case strings.HasPrefix(expr, "<"):
		return stars < atoi(expr[1:])
	case strings.Contains(expr, ".."):
		lo, hi, _ := strings.Cut(expr, "..")
		return stars >= atoi(lo) && stars <= atoi(hi)
	default:
		return stars == atoi(expr)
	}
}

// NewErrorServer creates a mock server that always returns the specified status
func NewErrorServer(t *testing.T, statusCode int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(http.StatusText(statusCode)))
	}))
	t.Cleanup(server.Close)
	return server
}
