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

// Package fetch implements the resilient batch fetcher: it plans batches
// for one of three strategies, delivers each batch through a bounded
// exponential-backoff retry loop, keeps batches that exhausted their retries
// in a failure ledger for one reprocessing pass, and returns at most
// TargetTotal records in batch order.
//
// The fetcher is generic over the record type and never looks inside a
// record. Everything it needs to know about the remote side comes through
// the Endpoint interface and the error Classifier.
//
// Strategies:
//   - Bulk: a single request for TargetTotal records.
//   - Partitioned: pages of BatchSize records per disjoint filter
//     partition, taken in partition order until TargetTotal is met.
//   - Cursor: pages of BatchSize records following the endpoint's cursor.
//
// Everything runs sequentially on the caller's goroutine. Backoff waits
// block the caller but honor ctx.
//
// Basic usage:
//
//	res, err := fetch.Fetch(ctx, endpoint, fetch.Options{
//	    Strategy:    fetch.CursorStrategy(),
//	    TargetTotal: 100,
//	    BatchSize:   25,
//	    MaxRetries:  5,
//	})
//	if err != nil {
//	    // configuration error, rejected query or an aborted first batch
//	}
//	for _, record := range res.Records {
//	    // ...
//	}
package fetch
