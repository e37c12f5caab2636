package internaldefs

import (
	goTeam "github.com/MrEthical07/goTeam"
)

// CounterDef names one client counter for exporters.
type CounterDef struct {
	ID   goTeam.MetricID
	Name string
	Help string
}

// HistogramDef names one client histogram for exporters.
type HistogramDef struct {
	ID   goTeam.MetricID
	Name string
	Help string
}

// NotificationsDroppedName is the counter fed by Client.NotificationsDropped.
const NotificationsDroppedName = "goteam_notifications_dropped_total"

var CounterDefs = []CounterDef{
	{ID: goTeam.MetricLoginSuccess, Name: "goteam_login_success_total", Help: "Successful logins."},
	{ID: goTeam.MetricLoginFailure, Name: "goteam_login_failure_total", Help: "Failed logins."},
	{ID: goTeam.MetricLogout, Name: "goteam_logout_total", Help: "Explicit logouts."},
	{ID: goTeam.MetricUnauthorized, Name: "goteam_unauthorized_total", Help: "401 responses that cleared the session."},
	{ID: goTeam.MetricRateLimited, Name: "goteam_rate_limited_total", Help: "429 responses."},
	{ID: goTeam.MetricRequestSuccess, Name: "goteam_request_success_total", Help: "API calls answered with 2xx."},
	{ID: goTeam.MetricRequestFailure, Name: "goteam_request_failure_total", Help: "API calls that failed."},
	{ID: goTeam.MetricCacheHit, Name: "goteam_cache_hit_total", Help: "Reads served from a fresh cache entry."},
	{ID: goTeam.MetricCacheMiss, Name: "goteam_cache_miss_total", Help: "Reads that needed a fetch."},
	{ID: goTeam.MetricCacheFetch, Name: "goteam_cache_fetch_total", Help: "Fetches started by the cache."},
	{ID: goTeam.MetricCacheFetchError, Name: "goteam_cache_fetch_error_total", Help: "Fetches that ended in an error."},
	{ID: goTeam.MetricCacheRetry, Name: "goteam_cache_retry_total", Help: "Fetch retries."},
	{ID: goTeam.MetricCacheDiscard, Name: "goteam_cache_discard_total", Help: "Fetch results discarded as superseded."},
	{ID: goTeam.MetricCacheCancel, Name: "goteam_cache_cancel_total", Help: "Fetches cancelled."},
	{ID: goTeam.MetricCacheInvalidate, Name: "goteam_cache_invalidate_total", Help: "Entries marked stale by mutations."},
	{ID: goTeam.MetricCacheEvict, Name: "goteam_cache_evict_total", Help: "Unused entries collected."},
	{ID: goTeam.MetricOptimisticApplied, Name: "goteam_optimistic_applied_total", Help: "Optimistic writes applied."},
	{ID: goTeam.MetricOptimisticCommitted, Name: "goteam_optimistic_committed_total", Help: "Optimistic transactions committed."},
	{ID: goTeam.MetricOptimisticRolledBack, Name: "goteam_optimistic_rolled_back_total", Help: "Optimistic transactions rolled back."},
	{ID: goTeam.MetricNotificationSent, Name: "goteam_notification_sent_total", Help: "User notifications queued."},
}

var HistogramDefs = []HistogramDef{
	{ID: goTeam.MetricRequestLatency, Name: "goteam_request_latency_seconds", Help: "API call latency."},
}

// HistogramUpperBounds are the bucket upper bounds in seconds, matching the
// client's fixed latency buckets. The last bucket is unbounded.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
