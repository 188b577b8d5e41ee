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

// OutputWriter defines the interface for writing fetched records.
type OutputWriter interface {
	// Write writes a single record to the output.
	Write(record interface{}) error

	// Close flushes the output and releases any resources.
	Close() error
}

// WriteAll writes records in order, stopping at the first failure.
func WriteAll[T any](w OutputWriter, records []T) error {
	for i := range records {
		if err := w.Write(records[i]); err != nil {
			return err
		}
	}
	return nil
}
