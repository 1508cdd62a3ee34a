// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fork

import (
	"time"

	"github.com/vechain/forkstate/metrics"
)

var (
	metricFetchCount    = metrics.LazyLoadCounterVec("fork_fetch_count", []string{"kind", "result"})
	metricFetchDuration = metrics.LazyLoadHistogramVec("fork_fetch_duration_ms", []string{"kind"}, metrics.BucketFetchMillis)
	metricDiskCacheHit  = metrics.LazyLoadCounterVec("fork_diskcache_count", []string{"kind", "event"})
)

func observeFetch(kind string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metricFetchCount().AddWithLabel(1, map[string]string{"kind": kind, "result": result})
	metricFetchDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"kind": kind})
}
