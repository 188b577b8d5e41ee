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
	"fmt"
	"time"
)

const (
	// DefaultQuery selects the most starred repositories.
	DefaultQuery = "stars:>10000 sort:stars-desc"

	// MaxPageSize is the largest page GitHub's search connection returns.
	MaxPageSize = 100

	starSort = "sort:stars-desc"
)

// Repository is the per-repository record written to NDJSON output.
type Repository struct {
	NameWithOwner      string    `json:"name_with_owner"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	StargazerCount     int       `json:"stargazer_count"`
	MergedPullRequests int       `json:"merged_pull_requests"`
	Releases           int       `json:"releases"`
	PrimaryLanguage    string    `json:"primary_language,omitempty"`
	Issues             int       `json:"issues"`
	ClosedIssues       int       `json:"closed_issues"`
}

// String returns "owner/name (stars)".
func (r Repository) String() string {
	return fmt.Sprintf("%s (%d stars)", r.NameWithOwner, r.StargazerCount)
}

// DefaultPartitions returns disjoint star ranges covering stars:>=10000,
// most starred first. Lower ranges hold far more than one page of
// repositories and are paged through by cursor.
func DefaultPartitions() []string {
	return []string{
		"stars:>=200000",
		"stars:100000..199999",
		"stars:70000..99999",
		"stars:50000..69999",
		"stars:40000..49999",
		"stars:30000..39999",
		"stars:10000..29999",
	}
}
