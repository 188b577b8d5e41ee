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

import "sort"

// collectedSet holds delivered records keyed by batch index so that batches
// recovered late still land at their position in the plan. The total never
// exceeds target: overflow is trimmed from the tail-most batches.
type collectedSet[T any] struct {
	target    int
	slots     map[int][]T
	total     int
	truncated int
}

func newCollectedSet[T any](target int) *collectedSet[T] {
	return &collectedSet[T]{
		target: target,
		slots:  make(map[int][]T),
	}
}

// Len returns the number of records held.
func (c *collectedSet[T]) Len() int {
	return c.total
}

// Remaining returns how many more records fit under the target.
func (c *collectedSet[T]) Remaining() int {
	return c.target - c.total
}

// Full reports whether the target has been reached.
func (c *collectedSet[T]) Full() bool {
	return c.total >= c.target
}

// Truncated returns the number of records trimmed to honor the target.
func (c *collectedSet[T]) Truncated() int {
	return c.truncated
}

func (c *collectedSet[T]) put(index int, records []T) {
	if old, ok := c.slots[index]; ok {
		c.total -= len(old)
	}
	c.slots[index] = append([]T(nil), records...)
	c.total += len(records)
	c.trim()
}

func (c *collectedSet[T]) trim() {
	for c.total > c.target {
		last := -1
		for idx, recs := range c.slots {
			if len(recs) > 0 && idx > last {
				last = idx
			}
		}
		if last < 0 {
			return
		}
		recs := c.slots[last]
		cut := c.total - c.target
		if cut > len(recs) {
			cut = len(recs)
		}
		c.slots[last] = recs[:len(recs)-cut]
		c.total -= cut
		c.truncated += cut
	}
}

// Records returns the collected records in batch order.
func (c *collectedSet[T]) Records() []T {
	indexes := make([]int, 0, len(c.slots))
	for idx := range c.slots {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	out := make([]T, 0, c.total)
	for _, idx := range indexes {
		out = append(out, c.slots[idx]...)
	}
	return out
}

// failureLedger keeps batches that exhausted their retries.
type failureLedger struct {
	entries []Batch
}

func (l *failureLedger) add(b Batch) {
	l.entries = append(l.entries, b)
}

// Len returns the number of queued batches.
func (l *failureLedger) Len() int {
	return len(l.entries)
}

// drain returns the queued batches and empties the ledger.
func (l *failureLedger) drain() []Batch {
	entries := l.entries
	l.entries = nil
	return entries
}
