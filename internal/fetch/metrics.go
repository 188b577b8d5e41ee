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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for fetch runs.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starscan_requests_total",
		Help: "Total number of endpoint requests by outcome (success or error class)",
	}, []string{"outcome"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starscan_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "starscan_retry_backoff_seconds",
		Help:    "Backoff waited before a retry",
		Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
	})

	ledgerTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starscan_ledger_total",
		Help: "Failure ledger entries by outcome (queued, recovered, dropped)",
	}, []string{"outcome"})

	recordsCollected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "starscan_records_collected",
		Help: "Records returned by the last fetch",
	})
)
