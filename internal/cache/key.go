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

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const keyPrefix = "starscan:v1:"

// Key identifies one fetch by every parameter that changes its result.
type Key struct {
	Endpoint    string
	Strategy    string
	Query       string
	Partitions  []string
	TargetTotal int
	BatchSize   int
}

// String returns the Redis key: a fixed prefix and a SHA-256 of the
// canonical parameter string. Partition order is significant.
func (k Key) String() string {
	canonical := strings.Join([]string{
		"endpoint=" + k.Endpoint,
		"strategy=" + strings.ToLower(k.Strategy),
		"query=" + strings.TrimSpace(k.Query),
		"partitions=" + strings.Join(k.Partitions, "|"),
		fmt.Sprintf("target=%d", k.TargetTotal),
		fmt.Sprintf("batch=%d", k.BatchSize),
	}, "\n")

	sum := sha256.Sum256([]byte(canonical))
	return keyPrefix + hex.EncodeToString(sum[:])
}
