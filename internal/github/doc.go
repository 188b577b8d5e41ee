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

// Package github is the GitHub GraphQL endpoint for the batch fetcher. It
// runs repository searches ordered by star count and converts the results
// to Repository records.
//
// The client is built on the shurcooL/graphql library. Its transport adds
// the bearer token, caps response size, and turns every non-2xx response
// into a *giterror.StatusError so callers can classify failures by status
// code.
//
// Basic usage:
//
//	client := github.NewGraphQLClient(token, "https://api.github.com/graphql", 45*time.Second)
//	search := github.NewRepositorySearch(client, github.DefaultQuery)
//	result, err := fetch.Fetch[github.Repository](ctx, search, opts)
package github
