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

import "testing"

func TestCollectedSet_OrderAndCap(t *testing.T) {
	c := newCollectedSet[int](5)

	c.put(2, []int{7, 8})
	c.put(0, []int{1, 2})
	if c.Remaining() != 1 {
		t.Errorf("Remaining() = %d, want 1", c.Remaining())
	}

	// Late delivery of batch 1 overflows; the tail batch gives way.
	c.put(1, []int{4, 5})
	if c.Len() != 5 || !c.Full() {
		t.Fatalf("Len() = %d, Full() = %v", c.Len(), c.Full())
	}
	if c.Truncated() != 1 {
		t.Errorf("Truncated() = %d, want 1", c.Truncated())
	}

	want := []int{1, 2, 4, 5, 7}
	if got := c.Records(); !equalInts(got, want) {
		t.Errorf("Records() = %v, want %v", got, want)
	}
}

func TestCollectedSet_ReplaceSlot(t *testing.T) {
	c := newCollectedSet[int](10)
	c.put(0, []int{1, 2, 3})
	c.put(0, []int{9})
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestFailureLedger_Drain(t *testing.T) {
	l := &failureLedger{}
	l.add(Batch{Index: 3})
	l.add(Batch{Index: 5})
	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}
	entries := l.drain()
	if len(entries) != 2 || entries[0].Index != 3 {
		t.Errorf("drain() = %+v", entries)
	}
	if l.Len() != 0 {
		t.Errorf("Len() after drain = %d", l.Len())
	}
}
