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

package output

import (
	"fmt"
	"io"
)

// WriteSample prints the first n records, one per line, using their String
// form. It returns the number of lines printed.
func WriteSample[T fmt.Stringer](w io.Writer, records []T, n int) (int, error) {
	if n < 0 {
		n = 0
	}
	if n > len(records) {
		n = len(records)
	}
	for i := 0; i < n; i++ {
		if _, err := fmt.Fprintf(w, "%3d. %s\n", i+1, records[i].String()); err != nil {
			return i, err
		}
	}
	return n, nil
}
