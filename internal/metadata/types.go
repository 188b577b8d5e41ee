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

// Package metadata types define the structures used for tracking and
// persisting information about fetch runs.
package metadata

import (
	"time"

	"github.com/sirseerhq/starscan/internal/fetch"
)

// RunMetadata is the audit record of a single run: what was asked for,
// how the fetch went, and what came back.
type RunMetadata struct {
	ToolVersion   string       `json:"tool_version"`
	MethodVersion string       `json:"method_version"`
	RunID         string       `json:"run_id"`
	Parameters    RunParams    `json:"parameters"`
	Results       RunResults   `json:"results"`
	Report        fetch.Report `json:"report"`
	CacheHit      bool         `json:"cache_hit"`
}

// RunParams captures the fetch parameters so a run can be reproduced.
type RunParams struct {
	Endpoint     string   `json:"endpoint"`
	Strategy     string   `json:"strategy"`
	Query        string   `json:"query,omitempty"`
	Partitions   []string `json:"partitions,omitempty"`
	TargetTotal  int      `json:"target_total"`
	BatchSize    int      `json:"batch_size"`
	MaxRetries   int      `json:"max_retries"`
	OnQueryError string   `json:"on_query_error"`
}

// RunResults summarizes the collected repositories.
type RunResults struct {
	Repositories  int       `json:"repositories"`
	MostStarred   string    `json:"most_starred,omitempty"`
	MaxStars      int       `json:"max_stars"`
	MinStars      int       `json:"min_stars"`
	OldestCreated time.Time `json:"oldest_created,omitempty"`
	NewestCreated time.Time `json:"newest_created,omitempty"`
	LatestUpdate  time.Time `json:"latest_update,omitempty"`
	Duration      string    `json:"duration"`
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
}
