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
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shurcooL/graphql"
	relaierrors "github.com/sirseerhq/starscan/internal/errors"
	"github.com/sirseerhq/starscan/internal/fetch"
)

// repositoryNode mirrors the fields selected for every search hit.
type repositoryNode struct {
	NameWithOwner  graphql.String
	CreatedAt      time.Time
	UpdatedAt      time.Time
	StargazerCount graphql.Int
	PullRequests   struct {
		TotalCount graphql.Int
	} `graphql:"pullRequests(states: MERGED)"`
	Releases struct {
		TotalCount graphql.Int
	}
	PrimaryLanguage *struct {
		Name graphql.String
	}
	Issues struct {
		TotalCount graphql.Int
	}
	ClosedIssues struct {
		TotalCount graphql.Int
	} `graphql:"closedIssues: issues(states: CLOSED)"`
}

type searchQuery struct {
	Search struct {
		RepositoryCount graphql.Int
		PageInfo        struct {
			HasNextPage graphql.Boolean
			EndCursor   *graphql.String
		}
		Nodes []struct {
			Repository repositoryNode `graphql:"... on Repository"`
		}
	} `graphql:"search(query: $query, type: REPOSITORY, first: $first, after: $after)"`
}

// GraphQLClient runs repository searches against GitHub's GraphQL API.
// One client owns one keep-alive transport for its whole lifetime.
type GraphQLClient struct {
	client *graphql.Client
}

// NewGraphQLClient creates a client for the given token and endpoint. Every
// request is bounded by timeout; zero disables the bound.
func NewGraphQLClient(token, endpoint string, timeout time.Duration) *GraphQLClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        2,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &authTransport{
			token: token,
			base:  &statusTransport{base: transport},
		},
	}

	return &GraphQLClient{
		client: graphql.NewClient(endpoint, httpClient),
	}
}

// SearchRepositories returns one page of repositories matching query.
// An empty after requests the first page.
func (c *GraphQLClient) SearchRepositories(ctx context.Context, query string, first int, after string) (*fetch.Page[Repository], error) {
	if first > MaxPageSize {
		first = MaxPageSize
	}

	var cursor *graphql.String
	if after != "" {
		cursor = graphql.NewString(graphql.String(after))
	}

	variables := map[string]interface{}{
		"query": graphql.String(query),
		"first": graphql.Int(int32(first)), // #nosec G115 - first is capped at 100
		"after": cursor,
	}

	var q searchQuery
	if err := c.client.Query(ctx, &q, variables); err != nil {
		return nil, mapError(err)
	}

	page := &fetch.Page[Repository]{
		HasNextPage: bool(q.Search.PageInfo.HasNextPage),
		Records:     make([]Repository, 0, len(q.Search.Nodes)),
	}
	if q.Search.PageInfo.EndCursor != nil {
		page.EndCursor = string(*q.Search.PageInfo.EndCursor)
	}

	for _, node := range q.Search.Nodes {
		page.Records = append(page.Records, convertRepository(&node.Repository))
	}

	return page, nil
}

func convertRepository(n *repositoryNode) Repository {
	repo := Repository{
		NameWithOwner:      string(n.NameWithOwner),
		CreatedAt:          n.CreatedAt,
		UpdatedAt:          n.UpdatedAt,
		StargazerCount:     int(n.StargazerCount),
		MergedPullRequests: int(n.PullRequests.TotalCount),
		Releases:           int(n.Releases.TotalCount),
		Issues:             int(n.Issues.TotalCount),
		ClosedIssues:       int(n.ClosedIssues.TotalCount),
	}
	if n.PrimaryLanguage != nil {
		repo.PrimaryLanguage = string(n.PrimaryLanguage.Name)
	}
	return repo
}

// mapError separates transport failures from answers the endpoint gave.
// Transport failures keep their chain (status errors, net errors, context
// errors) for classification. Anything else came back with a 200 and is a
// query-level error.
func mapError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return err
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("response truncated: %w: %w", relaierrors.ErrNetworkFailure, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", relaierrors.ErrQueryRejected, err)
}
