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

package github

import (
	"context"
	"strings"

	"github.com/sirseerhq/starscan/internal/fetch"
)

// Searcher runs one repository search page.
type Searcher interface {
	SearchRepositories(ctx context.Context, query string, first int, after string) (*fetch.Page[Repository], error)
}

// RepositorySearch is the fetch.Endpoint for GitHub repository search.
type RepositorySearch struct {
	searcher  Searcher
	baseQuery string
}

// NewRepositorySearch returns an endpoint searching with baseQuery, or
// DefaultQuery when it is empty. Partitioned batches replace the base query
// with their filter.
func NewRepositorySearch(searcher Searcher, baseQuery string) *RepositorySearch {
	if strings.TrimSpace(baseQuery) == "" {
		baseQuery = DefaultQuery
	}
	return &RepositorySearch{
		searcher:  searcher,
		baseQuery: baseQuery,
	}
}

// Query returns the search string for a batch.
func (s *RepositorySearch) Query(batch fetch.Batch) string {
	filter := strings.TrimSpace(batch.Filter)
	if filter == "" {
		return s.baseQuery
	}
	if strings.Contains(filter, "sort:") {
		return filter
	}
	return filter + " " + starSort
}

// FetchBatch implements fetch.Endpoint.
func (s *RepositorySearch) FetchBatch(ctx context.Context, batch fetch.Batch) (*fetch.Page[Repository], error) {
	return s.searcher.SearchRepositories(ctx, s.Query(batch), batch.Size, batch.Cursor)
}
