package goTeam

import (
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goTeam/cache"
)

// MetricID identifies one client counter or histogram.
type MetricID uint16

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLogout
	// MetricUnauthorized counts 401 responses, each of which cleared the session.
	MetricUnauthorized
	MetricRateLimited
	MetricRequestSuccess
	MetricRequestFailure
	MetricCacheHit
	MetricCacheMiss
	MetricCacheFetch
	MetricCacheFetchError
	MetricCacheRetry
	// MetricCacheDiscard counts fetch results dropped because a newer write
	// superseded them.
	MetricCacheDiscard
	MetricCacheCancel
	MetricCacheInvalidate
	MetricCacheEvict
	MetricOptimisticApplied
	MetricOptimisticCommitted
	MetricOptimisticRolledBack
	MetricNotificationSent
	MetricRequestLatency
	metricIDCount
)

// latencyBounds are the inclusive upper bounds of the request latency
// buckets. A final bucket catches everything slower.
var latencyBounds = [...]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

const latencyBucketCount = len(latencyBounds) + 1

// cacheDomains are the first key segments the client caches under. Events on
// any other key are counted as "other".
var cacheDomains = [...]string{"users", "chats", "chatRoles", "tasks", "other"}

const cacheEventKinds = int(cache.EventRollback) + 1

// counter sits alone on its cache line so hot counters do not false-share.
type counter struct {
	atomic.Uint64
	_ [56]byte
}

// Metrics is a set of lock-free counters plus one request latency
// histogram. A nil or disabled Metrics ignores every call.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]counter
	latency       [latencyBucketCount]atomic.Uint64
	cacheEvents   [len(cacheDomains)][cacheEventKinds]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of [Metrics]. Histograms holds
// per-bucket counts, not cumulative ones.
type MetricsSnapshot struct {
	Counters    map[MetricID]uint64
	Histograms  map[MetricID][]uint64
	CacheEvents []CacheEventCount
}

// CacheEventCount is how often one cache event kind fired for keys in one
// domain. Snapshots only carry non-zero counts.
type CacheEventCount struct {
	Domain string
	Event  cache.EventKind
	Count  uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

func (m *Metrics) Inc(id MetricID) {
	if !m.Enabled() || id >= metricIDCount || id == MetricRequestLatency {
		return
	}
	m.counters[id].Add(1)
}

// Observe records d. MetricRequestLatency is the only histogram; other ids
// are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if !m.LatencyEnabled() || id != MetricRequestLatency {
		return
	}
	m.latency[bucketIndex(d)].Add(1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if !m.Enabled() {
		return s
	}
	for id := range metricIDCount {
		if id != MetricRequestLatency {
			s.Counters[id] = m.counters[id].Load()
		}
	}
	if m.enableLatency {
		buckets := make([]uint64, latencyBucketCount)
		for i := range buckets {
			buckets[i] = m.latency[i].Load()
		}
		s.Histograms[MetricRequestLatency] = buckets
	}
	for d, domain := range cacheDomains {
		for k := range cacheEventKinds {
			if n := m.cacheEvents[d][k].Load(); n > 0 {
				s.CacheEvents = append(s.CacheEvents, CacheEventCount{Domain: domain, Event: cache.EventKind(k), Count: n})
			}
		}
	}
	return s
}

var cacheEventMetrics = map[cache.EventKind]MetricID{
	cache.EventHit:        MetricCacheHit,
	cache.EventMiss:       MetricCacheMiss,
	cache.EventFetch:      MetricCacheFetch,
	cache.EventFetchError: MetricCacheFetchError,
	cache.EventRetry:      MetricCacheRetry,
	cache.EventDiscard:    MetricCacheDiscard,
	cache.EventCancel:     MetricCacheCancel,
	cache.EventInvalidate: MetricCacheInvalidate,
	cache.EventEvict:      MetricCacheEvict,
	cache.EventOptimistic: MetricOptimisticApplied,
	cache.EventCommit:     MetricOptimisticCommitted,
	cache.EventRollback:   MetricOptimisticRolledBack,
}

// observeCache feeds cache events into m. It runs on the cache's event path
// and must not block.
func (m *Metrics) observeCache(ev cache.Event) {
	id, ok := cacheEventMetrics[ev.Kind]
	if !ok || !m.Enabled() {
		return
	}
	m.Inc(id)
	m.cacheEvents[cacheDomain(ev.Key)][ev.Kind].Add(1)
}

func cacheDomain(k cache.Key) int {
	last := len(cacheDomains) - 1
	if len(k) == 0 {
		return last
	}
	for i, d := range cacheDomains[:last] {
		if k[0] == d {
			return i
		}
	}
	return last
}

func bucketIndex(d time.Duration) int {
	// Millisecond resolution, so 5.4ms still lands in the 5ms bucket.
	d = d.Truncate(time.Millisecond)
	for i, bound := range latencyBounds {
		if d <= bound {
			return i
		}
	}
	return len(latencyBounds)
}
