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

package testutil

import (
	"fmt"
	"time"
)

// RepositoryBuilder builds repository nodes as the search connection returns them.
type RepositoryBuilder struct {
	nameWithOwner string
	createdAt     time.Time
	updatedAt     time.Time
	stars         int
	mergedPRs     int
	releases      int
	language      string
	issues        int
	closedIssues  int
}

// NewRepositoryBuilder creates a builder with deterministic defaults derived from rank.
func NewRepositoryBuilder(rank int) *RepositoryBuilder {
	created := time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, rank, 0)
	return &RepositoryBuilder{
		nameWithOwner: fmt.Sprintf("owner%d/repo%d", rank, rank),
		createdAt:     created,
		updatedAt:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		stars:         250000 - rank*1500,
		mergedPRs:     rank * 10,
		releases:      rank % 40,
		language:      languages[rank%len(languages)],
		issues:        rank * 20,
		closedIssues:  rank * 15,
	}
}

var languages = []string{"Go", "TypeScript", "Python", "", "Rust", "C++"}

// WithName sets owner/name
func (b *RepositoryBuilder) WithName(nameWithOwner string) *RepositoryBuilder {
	b.nameWithOwner = nameWithOwner
	return b
}

// WithStars sets the stargazer count
func (b *RepositoryBuilder) WithStars(stars int) *RepositoryBuilder {
	b.stars = stars
	return b
}

// WithLanguage sets the primary language. Empty means none.
func (b *RepositoryBuilder) WithLanguage(language string) *RepositoryBuilder {
	b.language = language
	return b
}

// WithCreatedAt sets the creation time
func (b *RepositoryBuilder) WithCreatedAt(t time.Time) *RepositoryBuilder {
	b.createdAt = t
	return b
}

// Stars returns the configured stargazer count.
func (b *RepositoryBuilder) Stars() int {
	return b.stars
}

// Build returns the JSON node.
func (b *RepositoryBuilder) Build() map[string]interface{} {
	var language interface{}
	if b.language != "" {
		language = map[string]interface{}{"name": b.language}
	}

	return map[string]interface{}{
		"nameWithOwner":   b.nameWithOwner,
		"createdAt":       b.createdAt.Format(time.RFC3339),
		"updatedAt":       b.updatedAt.Format(time.RFC3339),
		"stargazerCount":  b.stars,
		"pullRequests":    map[string]interface{}{"totalCount": b.mergedPRs},
		"releases":        map[string]interface{}{"totalCount": b.releases},
		"primaryLanguage": language,
		"issues":          map[string]interface{}{"totalCount": b.issues},
		"closedIssues":    map[string]interface{}{"totalCount": b.closedIssues},
	}
}

// SearchResponse builds a search connection response.
func SearchResponse(nodes []map[string]interface{}, total int, hasNext bool, endCursor string) map[string]interface{} {
	var cursor interface{}
	if endCursor != "" {
		cursor = endCursor
	}
	if nodes == nil {
		nodes = []map[string]interface{}{}
	}

	return map[string]interface{}{
		"data": map[string]interface{}{
			"search": map[string]interface{}{
				"repositoryCount": total,
				"pageInfo": map[string]interface{}{
					"hasNextPage": hasNext,
					"endCursor":   cursor,
				},
				"nodes": nodes,
			},
		},
	}
}

// ErrorResponse builds a 200 response carrying only a GraphQL errors payload.
func ErrorResponse(messages ...string) map[string]interface{} {
	errs := make([]map[string]interface{}, 0, len(messages))
	for _, m := range messages {
		errs = append(errs, map[string]interface{}{"message": m})
	}
	return map[string]interface{}{"errors": errs}
}
