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

// Package metadata records statistics about each run and persists them as
// JSON audit files next to the output.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirseerhq/starscan/internal/fetch"
)

const (
	// MethodVersion identifies the GraphQL query shape used for collection.
	MethodVersion = "graphql-search-repositories-v1"
)

// Tracker accumulates repository statistics during a run. Create one at the
// start of a run and feed it every collected repository.
type Tracker struct {
	startTime time.Time
	stats     repoStats
}

type repoStats struct {
	count         int
	mostStarred   string
	maxStars      int
	minStars      int
	oldestCreated time.Time
	newestCreated time.Time
	latestUpdate  time.Time
}

// New creates a tracker started now.
func New() *Tracker {
	return &Tracker{
		startTime: time.Now(),
	}
}

// Observe records one collected repository.
func (t *Tracker) Observe(name string, stars int, createdAt, updatedAt time.Time) {
	s := &t.stats
	s.count++

	if s.count == 1 || stars > s.maxStars {
		s.maxStars = stars
		s.mostStarred = name
	}
	if s.count == 1 || stars < s.minStars {
		s.minStars = stars
	}

	if s.oldestCreated.IsZero() || createdAt.Before(s.oldestCreated) {
		s.oldestCreated = createdAt
	}
	if createdAt.After(s.newestCreated) {
		s.newestCreated = createdAt
	}
	if updatedAt.After(s.latestUpdate) {
		s.latestUpdate = updatedAt
	}
}

// GenerateMetadata builds the run record. Call it once the fetch returned.
func (t *Tracker) GenerateMetadata(toolVersion string, params RunParams, report fetch.Report, cacheHit bool) *RunMetadata {
	completedAt := time.Now()
	s := t.stats

	return &RunMetadata{
		ToolVersion:   toolVersion,
		MethodVersion: MethodVersion,
		RunID:         fmt.Sprintf("%s-%d", params.Strategy, t.startTime.Unix()),
		Parameters:    params,
		Results: RunResults{
			Repositories:  s.count,
			MostStarred:   s.mostStarred,
			MaxStars:      s.maxStars,
			MinStars:      s.minStars,
			OldestCreated: s.oldestCreated,
			NewestCreated: s.newestCreated,
			LatestUpdate:  s.latestUpdate,
			Duration:      completedAt.Sub(t.startTime).String(),
			StartedAt:     t.startTime,
			CompletedAt:   completedAt,
		},
		Report:   report,
		CacheHit: cacheHit,
	}
}

// SaveMetadata writes the record to dir as run-metadata-{unix}.json through
// a temporary file and rename. It returns the final path.
func SaveMetadata(metadata *RunMetadata, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create metadata directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("run-metadata-%d.json", metadata.Results.StartedAt.Unix()))

	tmpFile := path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return "", fmt.Errorf("failed to create metadata file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(metadata); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFile)
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmpFile)
		return "", fmt.Errorf("failed to close metadata file: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		return "", fmt.Errorf("failed to save metadata file: %w", err)
	}

	return path, nil
}
