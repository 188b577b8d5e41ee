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

// Package main implements the starscan command-line interface.
// It collects the top repositories on GitHub by star count and writes one
// JSON object per repository (NDJSON) for downstream analysis.
//
// Usage:
//
//	starscan fetch [flags]
//
// Example:
//
//	export GITHUB_TOKEN=your_token
//	starscan fetch --strategy cursor --batch-size 25 --output top100.ndjson --sample 10
//
// Exit codes:
//   - 0: Success, including partial results
//   - 1: General or configuration error
//   - 2: Authentication failure or query rejected by the endpoint
//   - 3: Network failure or retries exhausted on the first batch
package main
