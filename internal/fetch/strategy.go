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

package fetch

import (
	"fmt"
	"strings"
)

// Kind selects how the requested record count is split into batches.
type Kind int

const (
	// Bulk issues one request for everything.
	Bulk Kind = iota
	// Partitioned issues one request per filter partition.
	Partitioned
	// Cursor follows the endpoint's continuation cursor page by page.
	Cursor
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case Bulk:
		return "bulk"
	case Partitioned:
		return "partitioned"
	case Cursor:
		return "cursor"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses a strategy name as used in configuration and flags.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bulk":
		return Bulk, nil
	case "partitioned", "partition":
		return Partitioned, nil
	case "cursor", "paginated":
		return Cursor, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q (expected bulk, partitioned or cursor)", s)
	}
}

// Strategy is the batching strategy. Partitions is only read for the
// Partitioned kind.
type Strategy struct {
	Kind       Kind
	Partitions []string
}

// BulkStrategy returns the single-request strategy.
func BulkStrategy() Strategy {
	return Strategy{Kind: Bulk}
}

// PartitionedStrategy returns a strategy issuing one batch per filter.
// Filters are expected to select disjoint record sets and to be listed in
// the order their records should appear in the result.
func PartitionedStrategy(filters ...string) Strategy {
	return Strategy{Kind: Partitioned, Partitions: filters}
}

// CursorStrategy returns the cursor-paginated strategy.
func CursorStrategy() Strategy {
	return Strategy{Kind: Cursor}
}

func (s Strategy) validate() error {
	switch s.Kind {
	case Bulk, Cursor:
		return nil
	case Partitioned:
		if len(s.Partitions) == 0 {
			return fmt.Errorf("partitioned strategy needs at least one partition")
		}
		seen := make(map[string]bool, len(s.Partitions))
		for i, p := range s.Partitions {
			p = strings.TrimSpace(p)
			if p == "" {
				return fmt.Errorf("partition %d is empty", i)
			}
			if seen[p] {
				return fmt.Errorf("partition %q is listed twice", p)
			}
			seen[p] = true
		}
		return nil
	default:
		return fmt.Errorf("unknown strategy kind %d", int(s.Kind))
	}
}

// QueryErrorPolicy decides what a query-level error rejects: the whole
// fetch or only the batch that hit it.
type QueryErrorPolicy string

const (
	// QueryErrorAbort aborts the fetch and discards everything collected.
	QueryErrorAbort QueryErrorPolicy = "abort"
	// QueryErrorSkip drops the offending batch and carries on where the
	// strategy allows it.
	QueryErrorSkip QueryErrorPolicy = "skip"
)

// ParseQueryErrorPolicy parses a policy name. The empty string means abort.
func ParseQueryErrorPolicy(s string) (QueryErrorPolicy, error) {
	switch QueryErrorPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", QueryErrorAbort:
		return QueryErrorAbort, nil
	case QueryErrorSkip:
		return QueryErrorSkip, nil
	default:
		return "", fmt.Errorf("unknown query error policy %q (expected abort or skip)", s)
	}
}
