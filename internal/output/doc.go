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

// Package output writes fetched records as NDJSON (Newline Delimited JSON),
// one record per line, to stdout or a file.
//
// File output is written to a temporary file in the target directory and
// renamed into place on Close, so an aborted run never leaves a partial
// result behind under the final name.
//
// Example usage:
//
//	w, err := output.Open("top100.ndjson", os.Stdout)
//	if err != nil {
//	    return err
//	}
//	if err := output.WriteAll(w, result.Records); err != nil {
//	    w.Abort()
//	    return err
//	}
//	return w.Close()
package output
